package handlers

import (
	"context"
	"io"
	"net/http"

	"baristalog/internal/bff"
	"baristalog/internal/database"
	"baristalog/internal/models"
)

var equipmentSorts = []database.SortKey{database.SortNameAsc, database.SortCreatedDesc}

// ========== Beans ==========

func (h *Handler) HandleBeanList(w http.ResponseWriter, r *http.Request) {
	sort, err := sortParam(r, database.SortNameAsc, equipmentSorts...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	beans, err := h.store.ListBeans(r.Context(), sort)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(beans))
}

func (h *Handler) HandleBeanCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBeanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	bean, err := h.store.CreateBean(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bean)
}

func (h *Handler) HandleBeanGet(w http.ResponseWriter, r *http.Request) {
	bean, err := h.store.GetBeanByRKey(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bff.BuildBeanDetailView(bean, h.now()))
}

func (h *Handler) HandleBeanUpdate(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateBeanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	bean, err := h.store.UpdateBean(r.Context(), r.PathValue("id"), req.Apply)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bean)
}

func (h *Handler) HandleBeanDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteBeanByRKey(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleBeanImageGet(w http.ResponseWriter, r *http.Request) {
	bean, err := h.store.GetBeanByRKey(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeImage(w, r, bean.ImageData)
}

func (h *Handler) HandleBeanImagePut(w http.ResponseWriter, r *http.Request) {
	data, err := readImage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bean, err := h.store.UpdateBean(r.Context(), r.PathValue("id"), func(b *models.Bean) { b.ImageData = data })
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bean)
}

func (h *Handler) HandleBeanImageDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.UpdateBean(r.Context(), r.PathValue("id"), func(b *models.Bean) { b.ImageData = nil }); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleBeanHistory(w http.ResponseWriter, r *http.Request) {
	h.writeHistory(w, r, database.RelationBean, func(ctx context.Context, rkey string) error {
		_, err := h.store.GetBeanByRKey(ctx, rkey)
		return err
	})
}

// ========== Grinders ==========

func (h *Handler) HandleGrinderList(w http.ResponseWriter, r *http.Request) {
	sort, err := sortParam(r, database.SortNameAsc, equipmentSorts...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	grinders, err := h.store.ListGrinders(r.Context(), sort)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(grinders))
}

func (h *Handler) HandleGrinderCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGrinderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	grinder, err := h.store.CreateGrinder(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, grinder)
}

func (h *Handler) HandleGrinderGet(w http.ResponseWriter, r *http.Request) {
	grinder, err := h.store.GetGrinderByRKey(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grinder)
}

func (h *Handler) HandleGrinderUpdate(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateGrinderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	grinder, err := h.store.UpdateGrinder(r.Context(), r.PathValue("id"), req.Apply)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grinder)
}

func (h *Handler) HandleGrinderDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteGrinderByRKey(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGrinderImageGet(w http.ResponseWriter, r *http.Request) {
	grinder, err := h.store.GetGrinderByRKey(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeImage(w, r, grinder.ImageData)
}

func (h *Handler) HandleGrinderImagePut(w http.ResponseWriter, r *http.Request) {
	data, err := readImage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	grinder, err := h.store.UpdateGrinder(r.Context(), r.PathValue("id"), func(g *models.Grinder) { g.ImageData = data })
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grinder)
}

func (h *Handler) HandleGrinderImageDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.UpdateGrinder(r.Context(), r.PathValue("id"), func(g *models.Grinder) { g.ImageData = nil }); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGrinderHistory(w http.ResponseWriter, r *http.Request) {
	h.writeHistory(w, r, database.RelationGrinder, func(ctx context.Context, rkey string) error {
		_, err := h.store.GetGrinderByRKey(ctx, rkey)
		return err
	})
}

// ========== Brewers ==========

func (h *Handler) HandleBrewerList(w http.ResponseWriter, r *http.Request) {
	sort, err := sortParam(r, database.SortNameAsc, equipmentSorts...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	brewers, err := h.store.ListBrewers(r.Context(), sort)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(brewers))
}

func (h *Handler) HandleBrewerCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBrewerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	brewer, err := h.store.CreateBrewer(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, brewer)
}

func (h *Handler) HandleBrewerGet(w http.ResponseWriter, r *http.Request) {
	brewer, err := h.store.GetBrewerByRKey(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, brewer)
}

func (h *Handler) HandleBrewerUpdate(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateBrewerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	brewer, err := h.store.UpdateBrewer(r.Context(), r.PathValue("id"), req.Apply)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, brewer)
}

func (h *Handler) HandleBrewerDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteBrewerByRKey(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleBrewerImageGet(w http.ResponseWriter, r *http.Request) {
	brewer, err := h.store.GetBrewerByRKey(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeImage(w, r, brewer.ImageData)
}

func (h *Handler) HandleBrewerImagePut(w http.ResponseWriter, r *http.Request) {
	data, err := readImage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	brewer, err := h.store.UpdateBrewer(r.Context(), r.PathValue("id"), func(b *models.Brewer) { b.ImageData = data })
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, brewer)
}

func (h *Handler) HandleBrewerImageDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.UpdateBrewer(r.Context(), r.PathValue("id"), func(b *models.Brewer) { b.ImageData = nil }); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleBrewerHistory(w http.ResponseWriter, r *http.Request) {
	h.writeHistory(w, r, database.RelationBrewer, func(ctx context.Context, rkey string) error {
		_, err := h.store.GetBrewerByRKey(ctx, rkey)
		return err
	})
}

// ========== Shared ==========

// writeHistory renders the recent extractions that used one piece of
// equipment. exists turns an unknown rkey into a 404 rather than an empty
// history.
func (h *Handler) writeHistory(w http.ResponseWriter, r *http.Request, rel database.Relation, exists func(context.Context, string) error) {
	ctx := r.Context()
	rkey := r.PathValue("id")

	if err := exists(ctx, rkey); err != nil {
		writeError(w, r, err)
		return
	}
	extractions, err := h.store.ListRelatedExtractions(ctx, rel, rkey)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bff.BuildHistoryView(extractions, h.prefs.Snapshot(ctx)))
}

func writeImage(w http.ResponseWriter, r *http.Request, data []byte) {
	if len(data) == 0 {
		writeError(w, r, database.ErrNotFound)
		return
	}
	w.Header().Set("Content-Type", models.ImageContentType(data))
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

// readImage reads the raw request body. Type checking happens in the store.
func readImage(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &database.ValidationError{Field: "image", Message: "image is required"}
	}
	return data, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
