package projects

import (
	"time"
)

// ID tipe untuk Project
type ProjectID string

// ProjectType enum
type ProjectType string

const (
	TypeUpstream      ProjectType = "upstream"
	TypeMidstream     ProjectType = "midstream"
	TypeDownstream    ProjectType = "downstream"
	TypeLNG           ProjectType = "lng"
	TypeOffshore      ProjectType = "offshore"
	TypeOnshore       ProjectType = "onshore"
	TypePipeline      ProjectType = "pipeline"
	TypeRefinery      ProjectType = "refinery"
	TypePetrochemical ProjectType = "petrochemical"
)

// Standard enum, engineering standard the project is reviewed against
type Standard string

const (
	StandardISA51    Standard = "isa_5_1"
	StandardISO10628 Standard = "iso_10628"
	StandardIEC62424 Standard = "iec_62424"
	StandardAPI14C   Standard = "api_14c"
	StandardASMEY142 Standard = "asme_y14_2"
	StandardCustom   Standard = "custom"
)

// Aggregate Root: Project
type Project struct {
	ID           ProjectID   `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	Type         ProjectType `json:"project_type"`
	Standard     Standard    `json:"engineering_standard"`
	FieldName    string      `json:"field_name,omitempty"`
	FacilityCode string      `json:"facility_code,omitempty"`
	ProcessUnit  string      `json:"process_unit,omitempty"`
	Client       string      `json:"client_company,omitempty"`
	Contractor   string      `json:"engineering_contractor,omitempty"`
	Active       bool        `json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Summary agregat hasil analisa per project
type Summary struct {
	TotalDiagrams      int     `json:"total_diagrams"`
	AnalyzedDiagrams   int     `json:"analyzed_diagrams"`
	AnalysisCompletion float64 `json:"analysis_completion"`
	TotalErrors        int     `json:"total_errors_found"`
	CriticalErrors     int     `json:"critical_errors"`
	HighErrors         int     `json:"high_priority_errors"`
}
