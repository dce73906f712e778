package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/evalx/evalx-backend/middleware"
	"github.com/evalx/evalx-backend/services"
)

type InterviewHandler struct {
	interviewService services.InterviewService
}

func NewInterviewHandler(interviewService services.InterviewService) *InterviewHandler {
	return &InterviewHandler{interviewService: interviewService}
}

// StartSession принимает отчёт проекта и открывает сессию собеседования.
func (h *InterviewHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}
	report, err := formFileInput(r, "file")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var eventID *int
	if raw := r.FormValue("eventId"); raw != "" {
		id, convErr := strconv.Atoi(raw)
		if convErr != nil || id <= 0 {
			badRequestResponse(w, r, errors.New("invalid eventId value"))
			return
		}
		eventID = &id
	}

	session, err := h.interviewService.StartSession(r.Context(), userID, eventID, report)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"sessionId":      session.ID,
		"question":       session.CurrentQuestion(),
		"questionIndex":  session.CurrentIndex,
		"totalQuestions": session.TotalQuestions,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitAnswer принимает аудио-ответ на текущий вопрос сессии.
func (h *InterviewHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.GetUserIDFromContext(r.Context()); err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	sessionID := r.FormValue("sessionId")
	if sessionID == "" {
		badRequestResponse(w, r, errors.New("sessionId is required"))
		return
	}
	questionIndex, err := strconv.Atoi(r.FormValue("questionIndex"))
	if err != nil || questionIndex < 0 {
		badRequestResponse(w, r, errors.New("valid questionIndex is required"))
		return
	}
	audio, err := formFileInput(r, "file")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.interviewService.SubmitAnswer(r.Context(), sessionID, questionIndex, audio)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Speak озвучивает текст вопроса и отдаёт аудио как есть.
func (h *InterviewHandler) Speak(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Text string `json:"text"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	audio, contentType, err := h.interviewService.Speak(r.Context(), input.Text)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if contentType == "" {
		contentType = "audio/mpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		return
	}
}
