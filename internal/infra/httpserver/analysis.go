package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/rejlers/edrs-backend/internal/domain/analysis"
	"github.com/rejlers/edrs-backend/internal/domain/diagrams"
	"github.com/rejlers/edrs-backend/internal/middleware"
)

// POST /v1/diagrams/{id}/analyze
// Body (optional): {"analysis_depth": "quick|standard|deep"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateUUID(id); err != nil {
		return badRequest("%v", err)
	}

	var body struct {
		Depth string `json:"analysis_depth"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil && err != io.EOF {
		return badRequest("invalid json body: %v", err)
	}
	if body.Depth != "" {
		if err := middleware.ValidateDepth(body.Depth); err != nil {
			return badRequest("%v", err)
		}
	}

	sess, err := r.analysisSvc.Start(req.Context(), middleware.GetCallerFromContext(req.Context()),
		diagrams.DiagramID(id), domain.Depth(body.Depth))
	if err != nil {
		return err
	}
	middleware.IncrementAnalyses()
	return respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"session":           sess,
		"estimated_seconds": estimatedSeconds(sess.Depth),
	})
}

// rough per-depth wall clock hint for pollers
func estimatedSeconds(depth domain.Depth) int {
	switch depth {
	case domain.DepthQuick:
		return 30
	case domain.DepthDeep:
		return 120
	default:
		return 60
	}
}

// GET /v1/diagrams/{id}/analysis/status
func (r *Router) handleAnalysisStatus(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateUUID(id); err != nil {
		return badRequest("%v", err)
	}
	sess, err := r.analysisSvc.LatestStatus(req.Context(), diagrams.DiagramID(id))
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, sess)
}

// GET /v1/diagrams/{id}/analysis/results?severity=&category=
func (r *Router) handleAnalysisResults(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateUUID(id); err != nil {
		return badRequest("%v", err)
	}
	q := req.URL.Query()
	filters := map[string]interface{}{}
	if v := q.Get("severity"); v != "" {
		filters["severity"] = v
	}
	if v := q.Get("category"); v != "" {
		filters["category"] = v
	}

	rs, err := r.analysisSvc.Results(req.Context(), diagrams.DiagramID(id), filters)
	if err != nil {
		return err
	}
	if rs.Findings == nil {
		rs.Findings = []*domain.Finding{}
	}
	if rs.Elements == nil {
		rs.Elements = []*domain.Element{}
	}
	return respondJSON(w, http.StatusOK, rs)
}

// PUT /v1/findings/{id}/status
// Body: {"review_status": "open|in_review|accepted|rejected|fixed|deferred"}
func (r *Router) handleReviewFinding(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateUUID(id); err != nil {
		return badRequest("%v", err)
	}

	var body struct {
		ReviewStatus string `json:"review_status"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid json body: %v", err)
	}
	if err := middleware.ValidateReviewStatus(body.ReviewStatus); err != nil {
		return badRequest("%v", err)
	}

	status := domain.ReviewStatus(strings.ToLower(body.ReviewStatus))
	if err := r.analysisSvc.ReviewFinding(req.Context(), middleware.GetCallerFromContext(req.Context()),
		domain.FindingID(id), status); err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, map[string]string{
		"id":            id,
		"review_status": string(status),
	})
}

// GET /v1/sessions/{id}
func (r *Router) handleGetSession(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateUUID(id); err != nil {
		return badRequest("%v", err)
	}
	sess, err := r.analysisSvc.Session(req.Context(), domain.SessionID(id))
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, sess)
}
