package projects

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, p *Project) error
	Get(ctx context.Context, id ProjectID) (*Project, error)
	List(ctx context.Context, limit int) ([]*Project, error)
	Deactivate(ctx context.Context, id ProjectID) error
	Summary(ctx context.Context, id ProjectID) (*Summary, error)
}
