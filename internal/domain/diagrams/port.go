package diagrams

import (
	"context"
	"io"
	"time"

	"github.com/rejlers/edrs-backend/internal/domain/projects"
)

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, d *Diagram) error
	Get(ctx context.Context, id DiagramID) (*Diagram, error)
	Delete(ctx context.Context, id DiagramID) error
	Paginate(ctx context.Context, project projects.ProjectID, page, pageSize int, filters map[string]interface{}) (PaginatedResult, error)
	UpdateStatus(ctx context.Context, id DiagramID, status Status) error
	UpdateResult(ctx context.Context, id DiagramID, status Status, counts SeverityCounts, completedAt time.Time) error
}

// FileStore port (interface untuk penyimpanan file gambar)
type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Presign(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Fetch makes the object readable on the local filesystem. cleanup releases
	// any temporary copy and is always safe to call.
	Fetch(ctx context.Context, key string) (path string, cleanup func(), err error)
	Remove(ctx context.Context, key string) error
}
