package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	appanalysis "github.com/rejlers/edrs-backend/internal/application/analysis"
	appdiagrams "github.com/rejlers/edrs-backend/internal/application/diagrams"
	appprojects "github.com/rejlers/edrs-backend/internal/application/projects"
	"github.com/rejlers/edrs-backend/internal/domain/activity"
	domai "github.com/rejlers/edrs-backend/internal/domain/ai"
	"github.com/rejlers/edrs-backend/internal/domain/dashboard"
	"github.com/rejlers/edrs-backend/internal/middleware"
)

type Router struct {
	projectsSvc *appprojects.Service
	diagramsSvc *appdiagrams.Service
	analysisSvc *appanalysis.Service
	statsRepo   dashboard.Repository
	activityLog activity.Recorder
}

func NewRouter(
	projectsSvc *appprojects.Service,
	diagramsSvc *appdiagrams.Service,
	analysisSvc *appanalysis.Service,
	statsRepo dashboard.Repository,
	activityLog activity.Recorder,
	checkers map[string]middleware.HealthChecker,
) http.Handler {
	r := &Router{
		projectsSvc: projectsSvc,
		diagramsSvc: diagramsSvc,
		analysisSvc: analysisSvc,
		statsRepo:   statsRepo,
		activityLog: activityLog,
	}
	mux := chi.NewRouter()

	mux.Get("/healthz", middleware.HealthHandler(checkers))
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/projects", r.wrap(r.handleCreateProject))
		rt.Get("/projects", r.wrap(r.handleListProjects))
		rt.Get("/projects/{id}", r.wrap(r.handleGetProject))
		rt.Put("/projects/{id}", r.wrap(r.handleUpdateProject))
		rt.Delete("/projects/{id}", r.wrap(r.handleDeleteProject))
		rt.Get("/projects/{id}/summary", r.wrap(r.handleProjectSummary))

		rt.Post("/projects/{id}/diagrams", r.wrap(r.handleUploadDiagram))
		rt.Get("/projects/{id}/diagrams", r.wrap(r.handleListDiagrams))

		rt.Get("/diagrams/{id}", r.wrap(r.handleGetDiagram))
		rt.Delete("/diagrams/{id}", r.wrap(r.handleDeleteDiagram))
		rt.Get("/diagrams/{id}/download", r.wrap(r.handleDownloadDiagram))

		rt.Post("/diagrams/{id}/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/diagrams/{id}/analysis/status", r.wrap(r.handleAnalysisStatus))
		rt.Get("/diagrams/{id}/analysis/results", r.wrap(r.handleAnalysisResults))
		rt.Get("/sessions/{id}", r.wrap(r.handleGetSession))
		rt.Put("/findings/{id}/status", r.wrap(r.handleReviewFinding))

		rt.Get("/dashboard/stats", r.wrap(r.handleDashboardStats))
		rt.Get("/dashboard/activity", r.wrap(r.handleDashboardActivity))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequestError marks validation failures so wrap can answer 400
type badRequestError struct{ msg string }

func (e badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return badRequestError{msg: fmt.Sprintf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var br badRequestError
			switch {
			case errors.As(err, &br):
				writeError(w, http.StatusBadRequest, br.msg)
			case errors.Is(err, sql.ErrNoRows):
				writeError(w, http.StatusNotFound, "not found")
			case errors.Is(err, appanalysis.ErrAnalysisRunning):
				writeError(w, http.StatusConflict, err.Error())
			case errors.Is(err, appanalysis.ErrQueueFull):
				writeError(w, http.StatusServiceUnavailable, err.Error())
			case errors.Is(err, domai.ErrQuotaExceeded):
				writeError(w, http.StatusTooManyRequests, "ai quota exceeded")
			case isDuplicate(err):
				writeError(w, http.StatusConflict, "resource already exists")
			default:
				writeError(w, http.StatusInternalServerError, err.Error())
			}
		}
	}
}

// isDuplicate sniffs driver-specific unique violation messages.
// lib/pq says "duplicate key value", mysql says "Duplicate entry".
func isDuplicate(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "Duplicate entry")
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func respondJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}
