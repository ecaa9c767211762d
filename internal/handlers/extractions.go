package handlers

import (
	"net/http"

	"baristalog/internal/bff"
	"baristalog/internal/database"
	"baristalog/internal/models"
)

func (h *Handler) HandleExtractionList(w http.ResponseWriter, r *http.Request) {
	sort, err := sortParam(r, database.SortDateDesc, database.SortDateDesc, database.SortDateAsc, database.SortCreatedDesc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	extractions, err := h.store.ListExtractions(r.Context(), sort)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(extractions))
}

// HandleHistory lists every extraction grouped by calendar day, newest first.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	extractions, err := h.store.ListExtractions(ctx, database.SortDateDesc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(bff.BuildDayViews(extractions, h.now(), h.prefs.Snapshot(ctx))))
}

const draftFromRecent = "recent"

// HandleExtractionDraft prepares the form for a new shot. With ?from= the
// setup of that shot is carried over, and from=recent picks the newest shot.
// Otherwise, or when there is no shot yet, the default grinder and brewer
// are preselected.
func (h *Handler) HandleExtractionDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	template, err := h.draftTemplate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if template != nil {
		writeJSON(w, http.StatusOK, models.DraftFrom(template))
		return
	}

	grinders, err := h.store.ListGrinders(ctx, database.SortNameAsc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	brewers, err := h.store.ListBrewers(ctx, database.SortNameAsc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	draft := models.DefaultDraft(h.prefs.DefaultGrinderName(ctx), h.prefs.DefaultBrewerName(ctx), grinders, brewers)
	writeJSON(w, http.StatusOK, draft)
}

// draftTemplate resolves the ?from= parameter. A nil shot means no template.
func (h *Handler) draftTemplate(r *http.Request) (*models.Extraction, error) {
	switch from := r.URL.Query().Get("from"); from {
	case "":
		return nil, nil
	case draftFromRecent:
		extractions, err := h.store.ListExtractions(r.Context(), database.SortDateDesc)
		if err != nil || len(extractions) == 0 {
			return nil, err
		}
		return extractions[0], nil
	default:
		return h.store.GetExtractionByRKey(r.Context(), from)
	}
}

func (h *Handler) HandleExtractionCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateExtractionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.ValidateDraftEquipment(); err != nil {
		writeError(w, r, err)
		return
	}

	extraction, err := h.store.CreateExtraction(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, extraction)
}

func (h *Handler) HandleExtractionGet(w http.ResponseWriter, r *http.Request) {
	extraction, err := h.store.GetExtractionByRKey(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bff.BuildExtractionDetailView(extraction))
}

func (h *Handler) HandleExtractionUpdate(w http.ResponseWriter, r *http.Request) {
	rkey := r.PathValue("id")

	var req models.UpdateExtractionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	extraction, err := h.store.UpdateExtraction(r.Context(), rkey, req.Apply)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// Coaching was based on the old values.
	h.forget(rkey)
	writeJSON(w, http.StatusOK, extraction)
}

func (h *Handler) HandleExtractionDelete(w http.ResponseWriter, r *http.Request) {
	rkey := r.PathValue("id")
	if err := h.store.DeleteExtractionByRKey(r.Context(), rkey); err != nil {
		writeError(w, r, err)
		return
	}
	h.forget(rkey)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) forget(rkey string) {
	if h.coach != nil {
		h.coach.Forget(rkey)
	}
}
