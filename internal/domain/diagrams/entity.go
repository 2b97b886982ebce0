package diagrams

import (
	"time"

	"github.com/rejlers/edrs-backend/internal/domain/projects"
)

// ID tipe untuk Diagram
type DiagramID string

// Type enum, drawing discipline
type Type string

const (
	TypeProcessFlow    Type = "process_flow"
	TypePID            Type = "piping_instrumentation"
	TypeUtilityFlow    Type = "utility_flow"
	TypeSafetyShutdown Type = "safety_shutdown"
	TypeFireGas        Type = "fire_gas"
	TypeElectricalLine Type = "electrical_single"
	TypeControlLogic   Type = "control_logic"
	TypeInstrumentLoop Type = "loop_diagram"
)

// Status enum, lifecycle of a drawing
type Status string

const (
	StatusUploaded         Status = "uploaded"
	StatusProcessing       Status = "processing"
	StatusAnalyzed         Status = "analyzed"
	StatusReviewed         Status = "reviewed"
	StatusApproved         Status = "approved"
	StatusRevisionRequired Status = "revision_required"
	StatusError            Status = "error"
)

// SeverityCounts value object
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Total    int `json:"total"`
}

// Aggregate Root: Diagram. One uploaded drawing revision.
// (ProjectID, DrawingNumber, Revision) is unique.
type Diagram struct {
	ID            DiagramID          `json:"id"`
	ProjectID     projects.ProjectID `json:"project_id"`
	DrawingNumber string             `json:"drawing_number"`
	Title         string             `json:"drawing_title"`
	Type          Type               `json:"diagram_type"`
	Revision      string             `json:"revision"`
	SheetNumber   string             `json:"sheet_number,omitempty"`

	FileKey  string `json:"file_key"`
	FileSize int64  `json:"file_size"`
	FileURL  string `json:"file_url,omitempty"`

	Status Status         `json:"status"`
	Counts SeverityCounts `json:"counts"`

	ProcessArea    string `json:"process_area,omitempty"`
	OperatingPress string `json:"operating_pressure,omitempty"`
	OperatingTemp  string `json:"operating_temperature,omitempty"`
	DesignPhase    string `json:"design_phase,omitempty"`

	ProcessingStartedAt   *time.Time `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt *time.Time `json:"processing_completed_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// PaginatedResult represents a paginated response with data and metadata
type PaginatedResult struct {
	Data       []*Diagram `json:"data"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	Total      int64      `json:"totalItems"`
	TotalPages int        `json:"totalPages"`
}
