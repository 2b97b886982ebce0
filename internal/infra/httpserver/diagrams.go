package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appdiagrams "github.com/rejlers/edrs-backend/internal/application/diagrams"
	domain "github.com/rejlers/edrs-backend/internal/domain/diagrams"
	"github.com/rejlers/edrs-backend/internal/domain/projects"
	"github.com/rejlers/edrs-backend/internal/middleware"
)

const maxUploadBytes = 64 << 20 // 64 MB

// POST /v1/projects/{id}/diagrams (multipart: file + metadata fields)
func (r *Router) handleUploadDiagram(w http.ResponseWriter, req *http.Request) error {
	projectID := chi.URLParam(req, "id")
	if err := middleware.ValidateUUID(projectID); err != nil {
		return badRequest("%v", err)
	}

	req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return badRequest("invalid multipart form: %v", err)
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		return badRequest("file is required")
	}
	defer file.Close()

	if err := middleware.ValidateFileExtension(header.Filename); err != nil {
		return badRequest("%v", err)
	}
	drawingNumber := req.FormValue("drawing_number")
	if err := middleware.ValidateDrawingNumber(drawingNumber); err != nil {
		return badRequest("%v", err)
	}
	diagramType := req.FormValue("diagram_type")
	if err := middleware.ValidateDiagramType(diagramType); err != nil {
		return badRequest("%v", err)
	}

	cmd := appdiagrams.UploadCommand{
		ProjectID:      projects.ProjectID(projectID),
		DrawingNumber:  drawingNumber,
		Title:          middleware.SanitizeString(req.FormValue("drawing_title")),
		Type:           diagramType,
		Revision:       req.FormValue("revision"),
		SheetNumber:    req.FormValue("sheet_number"),
		ProcessArea:    middleware.SanitizeString(req.FormValue("process_area")),
		OperatingPress: req.FormValue("operating_pressure"),
		OperatingTemp:  req.FormValue("operating_temperature"),
		DesignPhase:    req.FormValue("design_phase"),
		FileName:       header.Filename,
		FileSize:       header.Size,
		File:           file,
	}

	d, err := r.diagramsSvc.Upload(req.Context(), middleware.GetCallerFromContext(req.Context()), cmd)
	if err != nil {
		return err
	}
	middleware.IncrementUploads()
	return respondJSON(w, http.StatusCreated, d)
}

// GET /v1/projects/{id}/diagrams?page=&page_size=&status=&diagram_type=&drawing_number=
func (r *Router) handleListDiagrams(w http.ResponseWriter, req *http.Request) error {
	projectID := chi.URLParam(req, "id")
	if err := middleware.ValidateUUID(projectID); err != nil {
		return badRequest("%v", err)
	}
	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	filters := map[string]interface{}{}
	if v := q.Get("status"); v != "" {
		filters["status"] = v
	}
	if v := q.Get("diagram_type"); v != "" {
		filters["diagram_type"] = v
	}
	if v := q.Get("drawing_number"); v != "" {
		filters["drawing_number"] = v
	}

	res, err := r.diagramsSvc.Paginate(req.Context(), projects.ProjectID(projectID), page, pageSize, filters)
	if err != nil {
		return err
	}
	if res.Data == nil {
		res.Data = []*domain.Diagram{}
	}
	return respondJSON(w, http.StatusOK, res)
}

// GET /v1/diagrams/{id}
func (r *Router) handleGetDiagram(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateUUID(id); err != nil {
		return badRequest("%v", err)
	}
	d, err := r.diagramsSvc.Get(req.Context(), domain.DiagramID(id))
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, d)
}

// DELETE /v1/diagrams/{id}
func (r *Router) handleDeleteDiagram(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateUUID(id); err != nil {
		return badRequest("%v", err)
	}
	if err := r.diagramsSvc.Delete(req.Context(), middleware.GetCallerFromContext(req.Context()), domain.DiagramID(id)); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/diagrams/{id}/download -> short lived URL, not the bytes
func (r *Router) handleDownloadDiagram(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateUUID(id); err != nil {
		return badRequest("%v", err)
	}
	url, err := r.diagramsSvc.DownloadURL(req.Context(), domain.DiagramID(id))
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, map[string]string{"download_url": url})
}
