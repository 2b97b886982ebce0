package analysis

import (
	"strings"
	"time"

	"github.com/rejlers/edrs-backend/internal/domain/diagrams"
)

// Severity enum
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// NormalizeSeverity maps free-form model output onto the known levels.
// Unknown values degrade to medium rather than dropping the finding.
func NormalizeSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium":
		return SeverityMedium
	case "low":
		return SeverityLow
	case "info", "information":
		return SeverityInfo
	default:
		return SeverityMedium
	}
}

// ReviewStatus enum, engineering disposition of a finding
type ReviewStatus string

const (
	ReviewOpen     ReviewStatus = "open"
	ReviewInReview ReviewStatus = "in_review"
	ReviewAccepted ReviewStatus = "accepted"
	ReviewRejected ReviewStatus = "rejected"
	ReviewFixed    ReviewStatus = "fixed"
	ReviewDeferred ReviewStatus = "deferred"
)

// FindingID tipe untuk Finding
type FindingID string

// Finding is one detected P&ID error
type Finding struct {
	ID        FindingID          `json:"id"`
	DiagramID diagrams.DiagramID `json:"diagram_id"`

	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	RootCause   string `json:"root_cause,omitempty"`

	Severity   Severity `json:"severity"`
	Confidence float64  `json:"confidence"`

	ElementTag string  `json:"element_tag,omitempty"`
	LineNumber string  `json:"line_number,omitempty"`
	CoordX     float64 `json:"coordinates_x"`
	CoordY     float64 `json:"coordinates_y"`

	ViolatedStandard  string `json:"violated_standard,omitempty"`
	StandardReference string `json:"standard_reference,omitempty"`
	RecommendedFix    string `json:"recommended_fix,omitempty"`
	SafetyImpact      bool   `json:"safety_impact"`
	CostImpact        string `json:"cost_impact,omitempty"`

	ReviewStatus ReviewStatus `json:"review_status"`
	ModelUsed    string       `json:"llm_model_used,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ElementKind enum, what an extracted token looks like
type ElementKind string

const (
	ElementInstrumentTag ElementKind = "instrument_tag"
	ElementLineNumber    ElementKind = "line_number"
	ElementEquipmentTag  ElementKind = "equipment_tag"
	ElementValveTag      ElementKind = "valve_tag"
	ElementPressure      ElementKind = "pressure_rating"
	ElementTemperature   ElementKind = "temperature"
	ElementFlowRate      ElementKind = "flow_rate"
)

// Element is a tag/line/rating token pattern-matched out of the drawing text
type Element struct {
	DiagramID diagrams.DiagramID `json:"diagram_id"`
	Kind      ElementKind        `json:"kind"`
	Text      string             `json:"text"`
	Page      int                `json:"page"`
	CoordX    float64            `json:"coordinates_x"`
	CoordY    float64            `json:"coordinates_y"`
}

// CountBySeverity derives the severity counters persisted on the diagram row.
// Info findings are listed but not counted, same rule as the summary reports.
func CountBySeverity(findings []*Finding) diagrams.SeverityCounts {
	var c diagrams.SeverityCounts
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			c.Critical++
		case SeverityHigh:
			c.High++
		case SeverityMedium:
			c.Medium++
		case SeverityLow:
			c.Low++
		}
	}
	c.Total = c.Critical + c.High + c.Medium + c.Low
	return c
}
