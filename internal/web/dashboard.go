package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/upcycle/internal/impact"
	"github.com/erazemk/upcycle/internal/store"
)

// Dashboard handles GET /dashboard. The impact figures are recomputed from
// every accepted deal on each view.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims := GetSession(r.Context())

	deals, err := store.ListAcceptedDeals(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list accepted deals for dashboard", "error", err)
	}
	totalMaterials, err := store.CountMaterials(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to count materials for dashboard", "error", err)
	}
	activeUsers, err := store.CountUsers(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to count users for dashboard", "error", err)
	}

	report := impact.NewReport(deals, claims.Email)

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		Report         impact.Report
		HeatmapLabels  []string
		HeatmapValues  []float64
		TotalMaterials int
		ActiveUsers    int
	}{
		PageData:       PageData{Title: "Dashboard", User: claims},
		Report:         report,
		HeatmapLabels:  report.Summary.Labels(),
		HeatmapValues:  report.Summary.Values(),
		TotalMaterials: totalMaterials,
		ActiveUsers:    activeUsers,
	})
}
