package analysis

import (
	"time"

	"github.com/rejlers/edrs-backend/internal/domain/diagrams"
)

// SessionID tipe untuk Session
type SessionID string

// Stage enum, pipeline progress markers
type Stage string

const (
	StageInitiated        Stage = "initiated"
	StagePreprocessing    Stage = "preprocessing"
	StageOCRProcessing    Stage = "ocr_processing"
	StageElementDetection Stage = "element_detection"
	StageErrorAnalysis    Stage = "error_analysis"
	StagePostProcessing   Stage = "post_processing"
	StageCompleted        Stage = "completed"
	StageFailed           Stage = "failed"
)

// Depth enum
type Depth string

const (
	DepthQuick    Depth = "quick"
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

// Method records which path produced the findings
type Method string

const (
	MethodOpenAI    Method = "openai"
	MethodRuleBased Method = "rule_based"
	MethodDemo      Method = "demo"
)

// Session is one pipeline run over a diagram
type Session struct {
	ID        SessionID          `json:"id"`
	DiagramID diagrams.DiagramID `json:"diagram_id"`

	Model string `json:"llm_model"`
	Depth Depth  `json:"analysis_depth"`

	Stage    Stage  `json:"stage"`
	Progress int    `json:"progress_percentage"`
	Method   Method `json:"method_used,omitempty"`

	ElementsDetected  int     `json:"total_elements_detected"`
	ErrorsFound       int     `json:"total_errors_found"`
	ProcessingSeconds float64 `json:"processing_time_seconds"`

	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Terminal reports whether the session reached an end stage
func (s *Session) Terminal() bool {
	return s.Stage == StageCompleted || s.Stage == StageFailed
}
