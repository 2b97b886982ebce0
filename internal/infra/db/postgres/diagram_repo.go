package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	domain "github.com/rejlers/edrs-backend/internal/domain/diagrams"
	"github.com/rejlers/edrs-backend/internal/domain/projects"
)

type DiagramRepository struct{ db *sql.DB }

func NewDiagramRepository(db *sql.DB) *DiagramRepository { return &DiagramRepository{db: db} }

const diagramCols = `
id, project_id, drawing_number, drawing_title, diagram_type, revision, sheet_number,
file_key, file_size, file_url, status,
critical, high, medium, low, findings_total,
process_area, operating_pressure, operating_temperature, design_phase,
processing_started_at, processing_completed_at, created_at, updated_at`

// Save insert/update Diagram record.
// The (project_id, drawing_number, revision) unique index surfaces duplicate
// revisions as a constraint error the handler maps to 409.
func (r *DiagramRepository) Save(ctx context.Context, d *domain.Diagram) error {
	const q = `
INSERT INTO diagrams
(id, project_id, drawing_number, drawing_title, diagram_type, revision, sheet_number,
 file_key, file_size, file_url, status,
 critical, high, medium, low, findings_total,
 process_area, operating_pressure, operating_temperature, design_phase,
 processing_started_at, processing_completed_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,
        $8,$9,$10,$11,
        $12,$13,$14,$15,$16,
        $17,$18,$19,$20,
        $21,$22,$23,$24)
ON CONFLICT (id) DO UPDATE SET
 drawing_title = EXCLUDED.drawing_title,
 diagram_type = EXCLUDED.diagram_type,
 sheet_number = EXCLUDED.sheet_number,
 file_key = EXCLUDED.file_key,
 file_size = EXCLUDED.file_size,
 file_url = EXCLUDED.file_url,
 status = EXCLUDED.status,
 critical = EXCLUDED.critical,
 high = EXCLUDED.high,
 medium = EXCLUDED.medium,
 low = EXCLUDED.low,
 findings_total = EXCLUDED.findings_total,
 process_area = EXCLUDED.process_area,
 operating_pressure = EXCLUDED.operating_pressure,
 operating_temperature = EXCLUDED.operating_temperature,
 design_phase = EXCLUDED.design_phase,
 processing_started_at = EXCLUDED.processing_started_at,
 processing_completed_at = EXCLUDED.processing_completed_at,
 updated_at = EXCLUDED.updated_at;`

	_, err := r.db.ExecContext(ctx, q,
		d.ID, d.ProjectID, d.DrawingNumber, d.Title, d.Type, d.Revision, d.SheetNumber,
		d.FileKey, d.FileSize, d.FileURL, d.Status,
		d.Counts.Critical, d.Counts.High, d.Counts.Medium, d.Counts.Low, d.Counts.Total,
		d.ProcessArea, d.OperatingPress, d.OperatingTemp, d.DesignPhase,
		d.ProcessingStartedAt, d.ProcessingCompletedAt, d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func scanDiagram(row interface{ Scan(...any) error }) (*domain.Diagram, error) {
	var d domain.Diagram
	if err := row.Scan(
		&d.ID, &d.ProjectID, &d.DrawingNumber, &d.Title, &d.Type, &d.Revision, &d.SheetNumber,
		&d.FileKey, &d.FileSize, &d.FileURL, &d.Status,
		&d.Counts.Critical, &d.Counts.High, &d.Counts.Medium, &d.Counts.Low, &d.Counts.Total,
		&d.ProcessArea, &d.OperatingPress, &d.OperatingTemp, &d.DesignPhase,
		&d.ProcessingStartedAt, &d.ProcessingCompletedAt, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Get by ID
func (r *DiagramRepository) Get(ctx context.Context, id domain.DiagramID) (*domain.Diagram, error) {
	const q = `SELECT` + diagramCols + ` FROM diagrams WHERE id=$1 LIMIT 1;`
	return scanDiagram(r.db.QueryRowContext(ctx, q, id))
}

// Delete removes the diagram; findings/elements/sessions cascade in-schema
func (r *DiagramRepository) Delete(ctx context.Context, id domain.DiagramID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM diagrams WHERE id=$1;`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Paginate with offset + limit (classic pagination)
func (r *DiagramRepository) Paginate(ctx context.Context, project projects.ProjectID, page, pageSize int, filters map[string]interface{}) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := `SELECT` + diagramCols + ` FROM diagrams WHERE project_id=$1`
	args := []interface{}{project}
	next := 2

	for key, value := range filters {
		switch key {
		case "status":
			query += fmt.Sprintf(" AND status = $%d", next)
			args = append(args, value)
			next++
		case "diagram_type":
			query += fmt.Sprintf(" AND diagram_type = $%d", next)
			args = append(args, value)
			next++
		case "drawing_number":
			query += fmt.Sprintf(" AND drawing_number ILIKE $%d", next)
			args = append(args, "%"+fmt.Sprint(value)+"%")
			next++
		}
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", next, next+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying diagrams: %w", err)
	}
	defer rows.Close()

	var list []*domain.Diagram
	for rows.Next() {
		d, err := scanDiagram(rows)
		if err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("scanning row: %w", err)
		}
		list = append(list, d)
	}
	if err = rows.Err(); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("iterating rows: %w", err)
	}

	total, err := r.count(ctx, project, filters)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("getting total count: %w", err)
	}

	return domain.PaginatedResult{
		Data:       list,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

func (r *DiagramRepository) count(ctx context.Context, project projects.ProjectID, filters map[string]interface{}) (int64, error) {
	query := `SELECT COUNT(*) FROM diagrams WHERE project_id = $1`
	args := []interface{}{project}
	next := 2

	for key, value := range filters {
		switch key {
		case "status":
			query += fmt.Sprintf(" AND status = $%d", next)
			args = append(args, value)
			next++
		case "diagram_type":
			query += fmt.Sprintf(" AND diagram_type = $%d", next)
			args = append(args, value)
			next++
		case "drawing_number":
			query += fmt.Sprintf(" AND drawing_number ILIKE $%d", next)
			args = append(args, "%"+fmt.Sprint(value)+"%")
			next++
		}
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateStatus sets the lifecycle status only
func (r *DiagramRepository) UpdateStatus(ctx context.Context, id domain.DiagramID, status domain.Status) error {
	const q = `
UPDATE diagrams
SET status = $1,
    processing_started_at = CASE WHEN $1 = 'processing' THEN NOW() ELSE processing_started_at END,
    updated_at = NOW()
WHERE id = $2;`
	_, err := r.db.ExecContext(ctx, q, status, id)
	return err
}

// UpdateResult writes the post-analysis status + severity counters
func (r *DiagramRepository) UpdateResult(ctx context.Context, id domain.DiagramID, status domain.Status, counts domain.SeverityCounts, completedAt time.Time) error {
	const q = `
UPDATE diagrams
SET status = $1,
    critical = $2,
    high = $3,
    medium = $4,
    low = $5,
    findings_total = $6,
    processing_completed_at = $7,
    updated_at = NOW()
WHERE id = $8;`
	_, err := r.db.ExecContext(ctx, q,
		status,
		counts.Critical, counts.High, counts.Medium, counts.Low, counts.Total,
		completedAt,
		id,
	)
	return err
}
