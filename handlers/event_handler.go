package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/evalx/evalx-backend/middleware"
	"github.com/evalx/evalx-backend/models"
	"github.com/evalx/evalx-backend/services"
)

type EventHandler struct {
	eventService services.EventService
}

func NewEventHandler(eventService services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// Create создаёт событие из multipart-формы: текстовые поля, rounds в JSON,
// опциональные bannerFile и logoFile.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	organizerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	input := services.CreateEventInput{
		Name:        r.FormValue("name"),
		Summary:     r.FormValue("summary"),
		Description: r.FormValue("description"),
		Prize:       r.FormValue("prize"),
	}
	if input.Date, err = parseEventTime(r.FormValue("date")); err != nil {
		badRequestResponse(w, r, fmt.Errorf("invalid date: %w", err))
		return
	}
	if input.RegistrationDeadline, err = parseEventTime(r.FormValue("registrationDeadline")); err != nil {
		badRequestResponse(w, r, fmt.Errorf("invalid registrationDeadline: %w", err))
		return
	}
	if input.MaxTeams, err = formValueInt(r, "maxTeams"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.MinMembers, err = formValueInt(r, "minMembers"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.MaxMembers, err = formValueInt(r, "maxMembers"); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if roundsJSON := r.FormValue("rounds"); roundsJSON != "" {
		var rounds []struct {
			ID          string `json:"id"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal([]byte(roundsJSON), &rounds); err != nil {
			badRequestResponse(w, r, fmt.Errorf("invalid rounds JSON: %w", err))
			return
		}
		for _, round := range rounds {
			input.Rounds = append(input.Rounds, services.RoundInput{
				Kind:         models.RoundKind(round.ID),
				Instructions: round.Description,
			})
		}
	}

	if input.Banner, err = formFileInput(r, "bannerFile"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Logo, err = formFileInput(r, "logoFile"); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.Create(r.Context(), organizerID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByID отдаёт событие вместе с раундами.
func (h *EventHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	eventID, err := urlParamInt(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.GetByID(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MyEvents возвращает события текущего организатора.
func (h *EventHandler) MyEvents(w http.ResponseWriter, r *http.Request) {
	organizerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	events, err := h.eventService.ListForOrganizer(r.Context(), organizerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListPublished возвращает все видимые события для разработчиков.
func (h *EventHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListPublished(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateDraft просит AI-коллаборатора заполнить черновик события.
func (h *EventHandler) GenerateDraft(w http.ResponseWriter, r *http.Request) {
	var input struct {
		EventDetails string `json:"event_details"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.EventDetails == "" {
		badRequestResponse(w, r, errors.New("event_details is required"))
		return
	}

	draft, err := h.eventService.GenerateDraft(r.Context(), input.EventDetails)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": draft}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func parseEventTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("value is empty")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", value)
}

func formValueInt(r *http.Request, field string) (int, error) {
	value, err := strconv.Atoi(r.FormValue(field))
	if err != nil {
		return 0, fmt.Errorf("invalid %s value", field)
	}
	return value, nil
}
