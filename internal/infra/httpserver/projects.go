package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appprojects "github.com/rejlers/edrs-backend/internal/application/projects"
	domain "github.com/rejlers/edrs-backend/internal/domain/projects"
	"github.com/rejlers/edrs-backend/internal/middleware"
)

// POST /v1/projects
func (r *Router) handleCreateProject(w http.ResponseWriter, req *http.Request) error {
	var cmd appprojects.UpsertProjectCommand
	if err := json.NewDecoder(req.Body).Decode(&cmd); err != nil {
		return badRequest("invalid json body: %v", err)
	}
	if cmd.Name == "" {
		return badRequest("name is required")
	}
	if err := middleware.ValidateProjectType(cmd.Type); err != nil {
		return badRequest("%v", err)
	}
	if err := middleware.ValidateStandard(cmd.Standard); err != nil {
		return badRequest("%v", err)
	}
	cmd.Name = middleware.SanitizeString(cmd.Name)
	cmd.Description = middleware.SanitizeString(cmd.Description)

	p, err := r.projectsSvc.Create(req.Context(), middleware.GetCallerFromContext(req.Context()), cmd)
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusCreated, p)
}

// GET /v1/projects?limit=20
func (r *Router) handleListProjects(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.projectsSvc.List(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Project{}
	}
	return respondJSON(w, http.StatusOK, list)
}

// GET /v1/projects/{id}
func (r *Router) handleGetProject(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateUUID(id); err != nil {
		return badRequest("%v", err)
	}
	p, err := r.projectsSvc.Get(req.Context(), domain.ProjectID(id))
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, p)
}

// PUT /v1/projects/{id}
func (r *Router) handleUpdateProject(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateUUID(id); err != nil {
		return badRequest("%v", err)
	}
	var cmd appprojects.UpsertProjectCommand
	if err := json.NewDecoder(req.Body).Decode(&cmd); err != nil {
		return badRequest("invalid json body: %v", err)
	}
	if cmd.Type != "" {
		if err := middleware.ValidateProjectType(cmd.Type); err != nil {
			return badRequest("%v", err)
		}
	}
	if cmd.Standard != "" {
		if err := middleware.ValidateStandard(cmd.Standard); err != nil {
			return badRequest("%v", err)
		}
	}
	p, err := r.projectsSvc.Update(req.Context(), middleware.GetCallerFromContext(req.Context()), domain.ProjectID(id), cmd)
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, p)
}

// DELETE /v1/projects/{id} (soft delete)
func (r *Router) handleDeleteProject(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateUUID(id); err != nil {
		return badRequest("%v", err)
	}
	if err := r.projectsSvc.Deactivate(req.Context(), middleware.GetCallerFromContext(req.Context()), domain.ProjectID(id)); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/projects/{id}/summary
func (r *Router) handleProjectSummary(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateUUID(id); err != nil {
		return badRequest("%v", err)
	}
	s, err := r.projectsSvc.Summary(req.Context(), domain.ProjectID(id))
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, s)
}
