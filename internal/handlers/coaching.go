package handlers

import (
	"net/http"

	"baristalog/internal/coach"
	"baristalog/internal/database"
	"baristalog/internal/models"
)

// HandleCoachingStatus reports the coaching state of one extraction without
// starting an analysis.
func (h *Handler) HandleCoachingStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rkey := r.PathValue("id")

	if _, err := h.store.GetExtractionByRKey(ctx, rkey); err != nil {
		writeError(w, r, err)
		return
	}
	if h.coach == nil {
		writeJSON(w, http.StatusOK, coach.Result{RKey: rkey, State: coach.StateUnavailable})
		return
	}
	writeJSON(w, http.StatusOK, h.coach.Status(ctx, rkey))
}

// HandleCoachingAnalyze runs (or joins) an analysis and waits for it. If the
// client goes away first the analysis keeps running and a later GET picks
// up the result.
func (h *Handler) HandleCoachingAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rkey := r.PathValue("id")

	if h.coach == nil {
		writeError(w, r, coach.ErrCapabilityUnavailable)
		return
	}

	target, err := h.store.GetExtractionByRKey(ctx, rkey)
	if err != nil {
		writeError(w, r, err)
		return
	}
	history, err := h.coachingHistory(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	results, err := h.coach.Analyze(ctx, target, history)
	if err != nil {
		writeError(w, r, err)
		return
	}

	select {
	case result := <-results:
		if err := result.Err(); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	case <-ctx.Done():
	}
}

// coachingHistory is every shot, newest first. BuildPrompt narrows it to
// shots of the same bean by name, so separate bags of one coffee count.
func (h *Handler) coachingHistory(r *http.Request) ([]*models.Extraction, error) {
	return h.store.ListExtractions(r.Context(), database.SortDateDesc)
}
