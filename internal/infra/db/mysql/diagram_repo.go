package mysql

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

// Save insert/update Diagram record
func (r *DiagramRepository) Save(ctx context.Context, d *domain.Diagram) error {
	const q = `
INSERT INTO diagrams
(id, project_id, drawing_number, drawing_title, diagram_type, revision, sheet_number,
 file_key, file_size, file_url, status,
 critical, high, medium, low, findings_total,
 process_area, operating_pressure, operating_temperature, design_phase,
 processing_started_at, processing_completed_at, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,
        ?,?,?,?,
        ?,?,?,?,?,
        ?,?,?,?,
        ?,?,?,?)
ON DUPLICATE KEY UPDATE
 drawing_title = VALUES(drawing_title),
 diagram_type = VALUES(diagram_type),
 sheet_number = VALUES(sheet_number),
 file_key = VALUES(file_key),
 file_size = VALUES(file_size),
 file_url = VALUES(file_url),
 status = VALUES(status),
 critical = VALUES(critical),
 high = VALUES(high),
 medium = VALUES(medium),
 low = VALUES(low),
 findings_total = VALUES(findings_total),
 process_area = VALUES(process_area),
 operating_pressure = VALUES(operating_pressure),
 operating_temperature = VALUES(operating_temperature),
 design_phase = VALUES(design_phase),
 processing_started_at = VALUES(processing_started_at),
 processing_completed_at = VALUES(processing_completed_at),
 updated_at = VALUES(updated_at);`

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
	const q = `SELECT` + diagramCols + ` FROM diagrams WHERE id=? LIMIT 1;`
	return scanDiagram(r.db.QueryRowContext(ctx, q, id))
}

// Delete removes the diagram; findings/elements/sessions cascade in-schema
func (r *DiagramRepository) Delete(ctx context.Context, id domain.DiagramID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM diagrams WHERE id=?;`, id)
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

	query := `SELECT` + diagramCols + ` FROM diagrams WHERE project_id=?`
	args := []interface{}{project}

	query, args = applyFilters(query, args, filters)
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
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

func applyFilters(query string, args []interface{}, filters map[string]interface{}) (string, []interface{}) {
	for key, value := range filters {
		switch key {
		case "status":
			query += " AND status = ?"
			args = append(args, value)
		case "diagram_type":
			query += " AND diagram_type = ?"
			args = append(args, value)
		case "drawing_number":
			query += " AND drawing_number LIKE ?"
			args = append(args, "%"+fmt.Sprint(value)+"%")
		}
	}
	return query, args
}

func (r *DiagramRepository) count(ctx context.Context, project projects.ProjectID, filters map[string]interface{}) (int64, error) {
	query := `SELECT COUNT(*) FROM diagrams WHERE project_id = ?`
	args := []interface{}{project}
	query, args = applyFilters(query, args, filters)

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
SET status = ?,
    processing_started_at = CASE WHEN ? = 'processing' THEN NOW() ELSE processing_started_at END,
    updated_at = NOW()
WHERE id = ?;`
	_, err := r.db.ExecContext(ctx, q, status, status, id)
	return err
}

// UpdateResult writes the post-analysis status + severity counters
func (r *DiagramRepository) UpdateResult(ctx context.Context, id domain.DiagramID, status domain.Status, counts domain.SeverityCounts, completedAt time.Time) error {
	const q = `
UPDATE diagrams
SET status = ?,
    critical = ?,
    high = ?,
    medium = ?,
    low = ?,
    findings_total = ?,
    processing_completed_at = ?,
    updated_at = NOW()
WHERE id = ?;`
	_, err := r.db.ExecContext(ctx, q,
		status,
		counts.Critical, counts.High, counts.Medium, counts.Low, counts.Total,
		completedAt,
		id,
	)
	return err
}
