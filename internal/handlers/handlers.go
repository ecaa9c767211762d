package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"baristalog/internal/coach"
	"baristalog/internal/database"
	"baristalog/internal/middleware"
	"baristalog/internal/preferences"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	store database.Store
	prefs *preferences.Service
	coach *coach.Coach
	now   func() time.Time
}

func NewHandler(store database.Store, prefs *preferences.Service) *Handler {
	return &Handler{
		store: store,
		prefs: prefs,
		now:   time.Now,
	}
}

// SetCoach sets the coaching service. Without one the coaching endpoints
// report 503.
func (h *Handler) SetCoach(c *coach.Coach) {
	h.coach = c
}

// SetClock overrides the clock used for day grouping and export stamps
func (h *Handler) SetClock(now func() time.Time) {
	h.now = now
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps domain errors onto status codes. Anything unrecognised is
// logged and reported as a 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr    *database.ValidationError
		failure *coach.AnalysisFailure
		maxErr  *http.MaxBytesError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, database.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.As(err, &maxErr):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
	case errors.Is(err, coach.ErrCapabilityUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "coaching is not available"})
	case errors.As(err, &failure):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: failure.Error()})
	default:
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// decodeJSON reads a single JSON document into v. Malformed bodies are
// reported as validation errors on field "body".
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return &database.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}

// sortParam reads ?sort=, falling back to def.
func sortParam(r *http.Request, def database.SortKey, allowed ...database.SortKey) (database.SortKey, error) {
	raw := r.URL.Query().Get("sort")
	if raw == "" {
		return def, nil
	}
	for _, k := range allowed {
		if database.SortKey(raw) == k {
			return k, nil
		}
	}
	return "", &database.ValidationError{Field: "sort", Message: "unsupported sort " + raw}
}
