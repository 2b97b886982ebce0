package analysis

import (
	"context"

	"github.com/rejlers/edrs-backend/internal/domain/diagrams"
)

// ResultRepository port: findings + elements for a diagram.
// Replace swaps the previous run's rows atomically.
type ResultRepository interface {
	Replace(ctx context.Context, id diagrams.DiagramID, findings []*Finding, elements []*Element) error
	Findings(ctx context.Context, id diagrams.DiagramID, filters map[string]interface{}) ([]*Finding, error)
	Elements(ctx context.Context, id diagrams.DiagramID) ([]*Element, error)
	UpdateReviewStatus(ctx context.Context, id FindingID, status ReviewStatus) error
}

// SessionRepository port
type SessionRepository interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id SessionID) (*Session, error)
	Latest(ctx context.Context, id diagrams.DiagramID) (*Session, error)
	Recent(ctx context.Context, limit int) ([]*Session, error)
	Unfinished(ctx context.Context) ([]*Session, error)
}
