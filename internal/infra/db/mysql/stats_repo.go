package mysql

import (
	"context"
	"database/sql"

	domain "github.com/rejlers/edrs-backend/internal/domain/dashboard"
)

type StatsRepository struct{ db *sql.DB }

func NewStatsRepository(db *sql.DB) *StatsRepository { return &StatsRepository{db: db} }

// Stats derives the dashboard headline numbers in one round trip
func (r *StatsRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	const q = `
SELECT
  (SELECT COUNT(*) FROM projects WHERE is_active = 1),
  (SELECT COUNT(*) FROM diagrams),
  (SELECT COUNT(*) FROM findings),
  (SELECT COUNT(*) FROM diagrams WHERE created_at >= CURDATE()),
  (SELECT COUNT(*) FROM findings WHERE severity='critical'),
  (SELECT COUNT(*) FROM findings WHERE severity='high'),
  (SELECT COUNT(*) FROM findings WHERE severity='medium'),
  (SELECT COUNT(*) FROM findings WHERE severity='low');`

	var s domain.Stats
	if err := r.db.QueryRowContext(ctx, q).Scan(
		&s.Projects, &s.Diagrams, &s.Findings, &s.UploadsToday,
		&s.BySeverity.Critical, &s.BySeverity.High, &s.BySeverity.Medium, &s.BySeverity.Low,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
