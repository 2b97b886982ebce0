package mysql

import (
	"context"
	"database/sql"

	domain "github.com/rejlers/edrs-backend/internal/domain/analysis"
	"github.com/rejlers/edrs-backend/internal/domain/diagrams"
)

type SessionRepository struct{ db *sql.DB }

func NewSessionRepository(db *sql.DB) *SessionRepository { return &SessionRepository{db: db} }

const sessionCols = `
id, diagram_id, llm_model, analysis_depth, stage, progress, method,
elements_detected, errors_found, processing_seconds, error_message,
started_at, completed_at`

// Save insert/update Session record
func (r *SessionRepository) Save(ctx context.Context, s *domain.Session) error {
	const q = `
INSERT INTO analysis_sessions
(id, diagram_id, llm_model, analysis_depth, stage, progress, method,
 elements_detected, errors_found, processing_seconds, error_message,
 started_at, completed_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 stage = VALUES(stage),
 progress = VALUES(progress),
 method = VALUES(method),
 elements_detected = VALUES(elements_detected),
 errors_found = VALUES(errors_found),
 processing_seconds = VALUES(processing_seconds),
 error_message = VALUES(error_message),
 completed_at = VALUES(completed_at);`

	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.DiagramID, s.Model, s.Depth, s.Stage, s.Progress, s.Method,
		s.ElementsDetected, s.ErrorsFound, s.ProcessingSeconds, s.ErrorMessage,
		s.StartedAt, s.CompletedAt,
	)
	return err
}

func scanSession(row interface{ Scan(...any) error }) (*domain.Session, error) {
	var s domain.Session
	if err := row.Scan(
		&s.ID, &s.DiagramID, &s.Model, &s.Depth, &s.Stage, &s.Progress, &s.Method,
		&s.ElementsDetected, &s.ErrorsFound, &s.ProcessingSeconds, &s.ErrorMessage,
		&s.StartedAt, &s.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// Get by ID
func (r *SessionRepository) Get(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	const q = `SELECT` + sessionCols + ` FROM analysis_sessions WHERE id=? LIMIT 1;`
	return scanSession(r.db.QueryRowContext(ctx, q, id))
}

// Latest session for a diagram
func (r *SessionRepository) Latest(ctx context.Context, id diagrams.DiagramID) (*domain.Session, error) {
	const q = `SELECT` + sessionCols + ` FROM analysis_sessions WHERE diagram_id=? ORDER BY started_at DESC LIMIT 1;`
	return scanSession(r.db.QueryRowContext(ctx, q, id))
}

// Unfinished lists sessions left in a non-terminal stage, used by the
// startup reconciliation pass after a crash or restart.
func (r *SessionRepository) Unfinished(ctx context.Context) ([]*domain.Session, error) {
	const q = `SELECT` + sessionCols + ` FROM analysis_sessions WHERE stage NOT IN ('completed','failed') ORDER BY started_at;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Recent sessions across all diagrams
func (r *SessionRepository) Recent(ctx context.Context, limit int) ([]*domain.Session, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `SELECT` + sessionCols + ` FROM analysis_sessions ORDER BY started_at DESC LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
