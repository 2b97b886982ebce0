package diagrams

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rejlers/edrs-backend/internal/application"
	"github.com/rejlers/edrs-backend/internal/domain/activity"
	domain "github.com/rejlers/edrs-backend/internal/domain/diagrams"
	"github.com/rejlers/edrs-backend/internal/domain/projects"
)

// Service implements use-cases untuk Diagram
type Service struct {
	Repo     domain.Repository
	Projects projects.Repository
	Store    domain.FileStore
	Activity activity.Recorder
	Clock    application.Clock
}

// Command untuk upload drawing baru
type UploadCommand struct {
	ProjectID      projects.ProjectID
	DrawingNumber  string
	Title          string
	Type           string
	Revision       string
	SheetNumber    string
	ProcessArea    string
	OperatingPress string
	OperatingTemp  string
	DesignPhase    string

	FileName string
	FileSize int64
	File     io.Reader
}

// Upload stores the file first, then the row. A failed row insert leaves
// an orphan object behind, which is cheaper than a row without a file.
func (s *Service) Upload(ctx context.Context, caller string, cmd UploadCommand) (*domain.Diagram, error) {
	if _, err := s.Projects.Get(ctx, cmd.ProjectID); err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	id := domain.DiagramID(uuid.New().String())
	ext := strings.ToLower(filepath.Ext(cmd.FileName))

	// key convention: diagrams/<project>/<yyyy>/<mm>/<uuid><ext>
	key := fmt.Sprintf("diagrams/%s/%04d/%02d/%s%s",
		cmd.ProjectID, now.Year(), int(now.Month()), id, ext)

	url, err := s.Store.Put(ctx, key, cmd.File, cmd.FileSize, contentTypeFor(ext))
	if err != nil {
		return nil, fmt.Errorf("storing file: %w", err)
	}

	d := &domain.Diagram{
		ID:             id,
		ProjectID:      cmd.ProjectID,
		DrawingNumber:  cmd.DrawingNumber,
		Title:          cmd.Title,
		Type:           domain.Type(cmd.Type),
		Revision:       revisionOrDefault(cmd.Revision),
		SheetNumber:    sheetOrDefault(cmd.SheetNumber),
		FileKey:        key,
		FileSize:       cmd.FileSize,
		FileURL:        url,
		Status:         domain.StatusUploaded,
		ProcessArea:    cmd.ProcessArea,
		OperatingPress: cmd.OperatingPress,
		OperatingTemp:  cmd.OperatingTemp,
		DesignPhase:    cmd.DesignPhase,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Save(ctx, d); err != nil {
		return nil, err
	}

	s.Activity.Record(ctx, activity.Entry{
		Actor:        caller,
		Action:       "diagram.uploaded",
		ResourceType: "diagram",
		ResourceID:   string(d.ID),
		Details: map[string]any{
			"project_id":     string(d.ProjectID),
			"drawing_number": d.DrawingNumber,
			"file_size":      d.FileSize,
		},
		Timestamp: now,
	})
	return d, nil
}

func (s *Service) Get(ctx context.Context, id domain.DiagramID) (*domain.Diagram, error) {
	return s.Repo.Get(ctx, id)
}

func (s *Service) Paginate(ctx context.Context, project projects.ProjectID, page, pageSize int, filters map[string]interface{}) (domain.PaginatedResult, error) {
	if _, err := s.Projects.Get(ctx, project); err != nil {
		return domain.PaginatedResult{}, err
	}
	return s.Repo.Paginate(ctx, project, page, pageSize, filters)
}

// Delete removes the row first; a failed object delete only leaks storage
func (s *Service) Delete(ctx context.Context, caller string, id domain.DiagramID) error {
	d, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.Store.Remove(ctx, d.FileKey); err != nil {
		log.Printf("diagrams: removing object key=%s err=%v", d.FileKey, err)
	}
	s.Activity.Record(ctx, activity.Entry{
		Actor:        caller,
		Action:       "diagram.deleted",
		ResourceType: "diagram",
		ResourceID:   string(id),
		Timestamp:    s.Clock.Now(),
	})
	return nil
}

// DownloadURL hands out a short-lived link to the stored drawing
func (s *Service) DownloadURL(ctx context.Context, id domain.DiagramID) (string, error) {
	d, err := s.Repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.Store.Presign(ctx, d.FileKey, 15*time.Minute)
}

func revisionOrDefault(rev string) string {
	if strings.TrimSpace(rev) == "" {
		return "A"
	}
	return rev
}

func sheetOrDefault(sheet string) string {
	if strings.TrimSpace(sheet) == "" {
		return "1"
	}
	return sheet
}

func contentTypeFor(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tiff":
		return "image/tiff"
	case ".dwg":
		return "application/acad"
	default:
		return "application/octet-stream"
	}
}
