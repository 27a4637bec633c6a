package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/upcycle/internal/model"
	"github.com/erazemk/upcycle/internal/store"
)

// MaterialsHandler handles catalog endpoints.
type MaterialsHandler struct {
	DB *sql.DB
}

// List handles GET /api/materials?q=&category=&condition=. Like the search
// page, it only searches when at least one filter is given.
func (h *MaterialsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.SearchFilter{
		Query:     q.Get("q"),
		Category:  q.Get("category"),
		Condition: q.Get("condition"),
	}

	materials, err := store.SearchMaterials(r.Context(), h.DB, filter)
	if err != nil {
		slog.Error("failed to search materials", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if materials == nil {
		materials = []model.Material{}
	}

	jsonResponse(w, http.StatusOK, materials)
}

// Get handles GET /api/materials/{id}.
func (h *MaterialsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return
	}

	material, err := store.GetMaterial(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get material", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if material == nil {
		jsonError(w, http.StatusNotFound, "material not found")
		return
	}

	jsonResponse(w, http.StatusOK, material)
}
