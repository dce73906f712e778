package handlers

import (
	"fmt"
	"net/http"

	"github.com/evalx/evalx-backend/middleware"
	"github.com/evalx/evalx-backend/services"
)

type SubmissionHandler struct {
	submissionService services.SubmissionService
}

func NewSubmissionHandler(submissionService services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

// SubmitDeck принимает файл презентации за ppt-раунд.
func (h *SubmissionHandler) SubmitDeck(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}
	file, err := formFileInput(r, "file")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	submission, err := h.submissionService.SubmitDeck(r.Context(), eventID, userID, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"submission": submission}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitRepo принимает ссылки на репозиторий и демо-видео.
func (h *SubmissionHandler) SubmitRepo(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	submission, err := h.submissionService.SubmitRepo(r.Context(), eventID, userID,
		r.FormValue("repo"), r.FormValue("video"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"submission": submission}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitViva фиксирует начало интервью-раунда для команды.
func (h *SubmissionHandler) SubmitViva(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	submission, err := h.submissionService.SubmitInterview(r.Context(), eventID, userID,
		r.FormValue("sessionId"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"submission": submission}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MySubmissions отдаёт сабмишены команды пользователя, ключ - вид раунда.
func (h *SubmissionHandler) MySubmissions(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	mine, err := h.submissionService.ListMine(r.Context(), eventID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"teamId":      mine.TeamID,
		"teamName":    mine.TeamName,
		"submissions": mine.Submissions,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByEvent - все сабмишены события для его организатора.
func (h *SubmissionHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	submissions, err := h.submissionService.ListByEvent(r.Context(), eventID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"submissions": submissions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SubmissionHandler) requestScope(w http.ResponseWriter, r *http.Request) (userID, eventID int, ok bool) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return 0, 0, false
	}
	eventID, err = urlParamInt(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, false
	}
	return userID, eventID, true
}
