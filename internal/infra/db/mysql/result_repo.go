package mysql

import (
	"context"
	"database/sql"
	"fmt"

	domain "github.com/rejlers/edrs-backend/internal/domain/analysis"
	"github.com/rejlers/edrs-backend/internal/domain/diagrams"
)

type ResultRepository struct{ db *sql.DB }

func NewResultRepository(db *sql.DB) *ResultRepository { return &ResultRepository{db: db} }

// Replace swaps a diagram's findings and elements in one transaction,
// so a re-analysis never leaves a mix of old and new rows behind.
func (r *ResultRepository) Replace(ctx context.Context, id diagrams.DiagramID, findings []*domain.Finding, elements []*domain.Element) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM findings WHERE diagram_id=?;`, id); err != nil {
		return fmt.Errorf("clearing findings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM elements WHERE diagram_id=?;`, id); err != nil {
		return fmt.Errorf("clearing elements: %w", err)
	}

	const fq = `
INSERT INTO findings
(id, diagram_id, category, subcategory, title, description, root_cause,
 severity, confidence, element_tag, line_number, coord_x, coord_y,
 violated_standard, standard_reference, recommended_fix, safety_impact, cost_impact,
 review_status, llm_model, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);`
	for _, f := range findings {
		if _, err := tx.ExecContext(ctx, fq,
			f.ID, id, f.Category, f.Subcategory, f.Title, f.Description, f.RootCause,
			f.Severity, f.Confidence, f.ElementTag, f.LineNumber, f.CoordX, f.CoordY,
			f.ViolatedStandard, f.StandardReference, f.RecommendedFix, f.SafetyImpact, f.CostImpact,
			f.ReviewStatus, f.ModelUsed, f.CreatedAt,
		); err != nil {
			return fmt.Errorf("inserting finding: %w", err)
		}
	}

	const eq = `
INSERT INTO elements (diagram_id, kind, text, page, coord_x, coord_y)
VALUES (?,?,?,?,?,?);`
	for _, e := range elements {
		if _, err := tx.ExecContext(ctx, eq,
			id, e.Kind, e.Text, e.Page, e.CoordX, e.CoordY,
		); err != nil {
			return fmt.Errorf("inserting element: %w", err)
		}
	}

	return tx.Commit()
}

// Findings for a diagram, filterable by severity/category, worst first
func (r *ResultRepository) Findings(ctx context.Context, id diagrams.DiagramID, filters map[string]interface{}) ([]*domain.Finding, error) {
	query := `
SELECT id, diagram_id, category, subcategory, title, description, root_cause,
       severity, confidence, element_tag, line_number, coord_x, coord_y,
       violated_standard, standard_reference, recommended_fix, safety_impact, cost_impact,
       review_status, llm_model, created_at
FROM findings
WHERE diagram_id=?`
	args := []interface{}{id}

	for key, value := range filters {
		switch key {
		case "severity":
			query += " AND severity = ?"
			args = append(args, value)
		case "category":
			query += " AND category LIKE ?"
			args = append(args, "%"+fmt.Sprint(value)+"%")
		}
	}
	query += `
ORDER BY CASE severity
  WHEN 'critical' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 WHEN 'low' THEN 3 ELSE 4
END, confidence DESC, created_at DESC;`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Finding
	for rows.Next() {
		var f domain.Finding
		if err := rows.Scan(
			&f.ID, &f.DiagramID, &f.Category, &f.Subcategory, &f.Title, &f.Description, &f.RootCause,
			&f.Severity, &f.Confidence, &f.ElementTag, &f.LineNumber, &f.CoordX, &f.CoordY,
			&f.ViolatedStandard, &f.StandardReference, &f.RecommendedFix, &f.SafetyImpact, &f.CostImpact,
			&f.ReviewStatus, &f.ModelUsed, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

// UpdateReviewStatus records an engineer's disposition for one finding
func (r *ResultRepository) UpdateReviewStatus(ctx context.Context, id domain.FindingID, status domain.ReviewStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE findings SET review_status=? WHERE id=?;`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Elements extracted for a diagram
func (r *ResultRepository) Elements(ctx context.Context, id diagrams.DiagramID) ([]*domain.Element, error) {
	const q = `
SELECT diagram_id, kind, text, page, coord_x, coord_y
FROM elements WHERE diagram_id=? ORDER BY page, coord_y, coord_x;`
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Element
	for rows.Next() {
		var e domain.Element
		if err := rows.Scan(&e.DiagramID, &e.Kind, &e.Text, &e.Page, &e.CoordX, &e.CoordY); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
