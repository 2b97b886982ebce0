package postgres

import (
	"context"
	"database/sql"

	domain "github.com/rejlers/edrs-backend/internal/domain/projects"
)

type ProjectRepository struct{ db *sql.DB }

func NewProjectRepository(db *sql.DB) *ProjectRepository { return &ProjectRepository{db: db} }

// Save insert/update Project record
func (r *ProjectRepository) Save(ctx context.Context, p *domain.Project) error {
	const q = `
INSERT INTO projects
(id, name, description, project_type, engineering_standard,
 field_name, facility_code, process_unit, client_company, engineering_contractor,
 is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
 name = EXCLUDED.name,
 description = EXCLUDED.description,
 project_type = EXCLUDED.project_type,
 engineering_standard = EXCLUDED.engineering_standard,
 field_name = EXCLUDED.field_name,
 facility_code = EXCLUDED.facility_code,
 process_unit = EXCLUDED.process_unit,
 client_company = EXCLUDED.client_company,
 engineering_contractor = EXCLUDED.engineering_contractor,
 is_active = EXCLUDED.is_active,
 updated_at = EXCLUDED.updated_at;`

	_, err := r.db.ExecContext(ctx, q,
		p.ID, p.Name, p.Description, p.Type, p.Standard,
		p.FieldName, p.FacilityCode, p.ProcessUnit, p.Client, p.Contractor,
		p.Active, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

const projectCols = `
id, name, description, project_type, engineering_standard,
field_name, facility_code, process_unit, client_company, engineering_contractor,
is_active, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*domain.Project, error) {
	var p domain.Project
	if err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Type, &p.Standard,
		&p.FieldName, &p.FacilityCode, &p.ProcessUnit, &p.Client, &p.Contractor,
		&p.Active, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// Get by ID
func (r *ProjectRepository) Get(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	const q = `SELECT` + projectCols + ` FROM projects WHERE id=$1 LIMIT 1;`
	return scanProject(r.db.QueryRowContext(ctx, q, id))
}

// List active projects, newest first
func (r *ProjectRepository) List(ctx context.Context, limit int) ([]*domain.Project, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `SELECT` + projectCols + ` FROM projects WHERE is_active ORDER BY created_at DESC LIMIT $1;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Deactivate soft-deletes a project
func (r *ProjectRepository) Deactivate(ctx context.Context, id domain.ProjectID) error {
	const q = `UPDATE projects SET is_active = FALSE, updated_at = NOW() WHERE id=$1;`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Summary aggregates analysis results over the project's diagrams
func (r *ProjectRepository) Summary(ctx context.Context, id domain.ProjectID) (*domain.Summary, error) {
	const q = `
SELECT COUNT(*) AS total_diagrams,
       COUNT(*) FILTER (WHERE status <> 'uploaded') AS analyzed_diagrams,
       COALESCE(SUM(findings_total),0) AS total_errors,
       COALESCE(SUM(critical),0) AS critical,
       COALESCE(SUM(high),0) AS high
FROM diagrams
WHERE project_id=$1;`
	var s domain.Summary
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.TotalDiagrams, &s.AnalyzedDiagrams, &s.TotalErrors, &s.CriticalErrors, &s.HighErrors,
	); err != nil {
		return nil, err
	}
	if s.TotalDiagrams > 0 {
		s.AnalysisCompletion = float64(s.AnalyzedDiagrams) / float64(s.TotalDiagrams) * 100
	}
	return &s, nil
}
