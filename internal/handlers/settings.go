package handlers

import (
	"fmt"
	"net/http"

	"baristalog/internal/export"
	"baristalog/internal/preferences"

	"github.com/rs/zerolog/log"
)

func (h *Handler) HandlePreferencesGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.prefs.Snapshot(r.Context()))
}

// HandlePreferencesUpdate applies a partial settings change. Omitted fields
// keep their values.
func (h *Handler) HandlePreferencesUpdate(w http.ResponseWriter, r *http.Request) {
	var update preferences.SettingsUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.prefs.Update(r.Context(), &update); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.prefs.Snapshot(r.Context()))
}

// HandleReset removes every entity and preference. Requires ?confirm=true.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "reset requires confirm=true", Field: "confirm"})
		return
	}
	if err := h.store.ResetAll(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	if h.coach != nil {
		h.coach.ForgetAll()
	}

	log.Info().Msg("All data reset")
	w.WriteHeader(http.StatusNoContent)
}

// HandleExport downloads everything as JSON or YAML.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	snapshot, err := export.Build(r.Context(), h.store, h.prefs, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", format.Filename()))
	if err := export.Write(w, snapshot, format); err != nil {
		log.Error().Err(err).Msg("Failed to write export")
	}
}
