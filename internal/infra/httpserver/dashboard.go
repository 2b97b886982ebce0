package httpserver

import (
	"net/http"
	"strconv"

	"github.com/rejlers/edrs-backend/internal/middleware"
)

// GET /v1/dashboard/stats
func (r *Router) handleDashboardStats(w http.ResponseWriter, req *http.Request) error {
	stats, err := r.statsRepo.Stats(req.Context())
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, stats)
}

// GET /v1/dashboard/activity?limit=20
// Combines the audit trail with the most recent pipeline runs.
func (r *Router) handleDashboardActivity(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	entries, err := r.activityLog.Recent(req.Context(), limit)
	if err != nil {
		return err
	}
	sessions, err := r.analysisSvc.RecentSessions(req.Context(), limit)
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, map[string]any{
		"activity": entries,
		"sessions": sessions,
	})
}
