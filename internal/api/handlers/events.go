package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gatherpoint/server/internal/api/middleware"
	"github.com/gatherpoint/server/internal/api/problem"
	"github.com/gatherpoint/server/internal/domain/events"
	"github.com/gatherpoint/server/internal/domain/ids"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type EventsHandler struct {
	service *events.Service
	logger  zerolog.Logger
	env     string
}

func NewEventsHandler(service *events.Service, logger zerolog.Logger, env string) *EventsHandler {
	return &EventsHandler{
		service: service,
		logger:  logger.With().Str("handler", "events").Logger(),
		env:     env,
	}
}

type eventResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Location    string  `json:"location,omitempty"`
	StartTime   string  `json:"start_time"`
	EndTime     *string `json:"end_time,omitempty"`
	OwnerID     string  `json:"owner_id"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type eventListResponse struct {
	Items      []eventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func toEventResponse(event events.Event) eventResponse {
	resp := eventResponse{
		ID:          event.ULID,
		Title:       event.Title,
		Description: event.Description,
		Location:    event.Location,
		StartTime:   event.StartTime.Format(time.RFC3339),
		OwnerID:     event.OwnerID.String(),
		CreatedAt:   event.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   event.UpdatedAt.Format(time.RFC3339),
	}
	if event.EndTime != nil {
		end := event.EndTime.Format(time.RFC3339)
		resp.EndTime = &end
	}
	return resp
}

// List handles GET /api/v1/events
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, pagination, err := events.ParseFilters(r.URL.Query())
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.env)
		return
	}

	result, err := h.service.List(r.Context(), filters, pagination)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.env)
		return
	}

	items := make([]eventResponse, 0, len(result.Events))
	for _, event := range result.Events {
		items = append(items, toEventResponse(event))
	}

	writeJSON(w, http.StatusOK, eventListResponse{Items: items, NextCursor: result.NextCursor}, h.logger)
}

// Get handles GET /api/v1/events/{id}
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ulidValue, ok := h.eventULID(w, r)
	if !ok {
		return
	}

	item, err := h.service.GetByULID(r.Context(), ulidValue)
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(*item), h.logger)
}

// Create handles POST /api/v1/events
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var input events.EventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request body", err, h.env)
		return
	}

	item, err := h.service.Create(r.Context(), ownerID, input)
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEventResponse(*item), h.logger)
}

// Update handles PUT /api/v1/events/{id}
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	ulidValue, ok := h.eventULID(w, r)
	if !ok {
		return
	}

	var input events.EventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request body", err, h.env)
		return
	}

	item, err := h.service.Update(r.Context(), ulidValue, callerID, input)
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(*item), h.logger)
}

// Delete handles DELETE /api/v1/events/{id}
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	ulidValue, ok := h.eventULID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), ulidValue, callerID); err != nil {
		h.writeEventError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *EventsHandler) callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := middleware.AccountID(r)
	parsed, err := uuid.Parse(raw)
	if err != nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.env)
		return uuid.UUID{}, false
	}
	return parsed, true
}

func (h *EventsHandler) eventULID(w http.ResponseWriter, r *http.Request) (string, bool) {
	ulidValue := strings.TrimSpace(r.PathValue("id"))
	if ulidValue == "" {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", events.FilterError{Field: "id", Message: "missing"}, h.env)
		return "", false
	}
	if err := ids.ValidateULID(ulidValue); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", events.FilterError{Field: "id", Message: "invalid ULID"}, h.env)
		return "", false
	}
	return ulidValue, true
}

func (h *EventsHandler) writeEventError(w http.ResponseWriter, r *http.Request, err error) {
	var filterErr events.FilterError
	switch {
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.env)
	case errors.Is(err, events.ErrForbidden):
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Forbidden", err, h.env)
	case errors.As(err, &filterErr):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.env,
			problem.WithDetail(filterErr.Field+": "+filterErr.Message))
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.env)
	}
}
