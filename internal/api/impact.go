package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/upcycle/internal/impact"
	"github.com/erazemk/upcycle/internal/store"
)

// ImpactHandler serves the dashboard figures.
type ImpactHandler struct {
	DB *sql.DB
}

type impactResponse struct {
	impact.Report
	TotalMaterials int `json:"total_materials"`
	ActiveUsers    int `json:"active_users"`
}

// Get handles GET /api/impact.
func (h *ImpactHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	deals, err := store.ListAcceptedDeals(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list accepted deals", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	materials, err := store.CountMaterials(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to count materials", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	users, err := store.CountUsers(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to count users", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	report := impact.NewReport(deals, claims.Email)
	if report.Leaderboard == nil {
		report.Leaderboard = []impact.Warrior{}
	}

	jsonResponse(w, http.StatusOK, impactResponse{
		Report:         report,
		TotalMaterials: materials,
		ActiveUsers:    users,
	})
}
