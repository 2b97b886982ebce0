package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rejlers/edrs-backend/internal/domain/diagrams"
)

// ErrBadResponse indicates the model output was not usable JSON at all.
var ErrBadResponse = errors.New("analysis: response is not valid JSON")

// rawFinding mirrors the JSON schema the prompt asks the model for.
// Confidence is decoded as json.Number so "0.9" and 0.9 both work.
type rawFinding struct {
	Category          string      `json:"category"`
	Subcategory       string      `json:"subcategory"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	RootCause         string      `json:"root_cause"`
	Severity          string      `json:"severity"`
	Confidence        json.Number `json:"confidence"`
	ElementTag        string      `json:"element_tag"`
	LineNumber        string      `json:"line_number"`
	Coordinates       []float64   `json:"coordinates"`
	ViolatedStandard  string      `json:"violated_standard"`
	StandardReference string      `json:"standard_reference"`
	RecommendedFix    string      `json:"recommended_fix"`
	SafetyImpact      bool        `json:"safety_impact"`
	CostImpact        string      `json:"cost_impact"`
}

// ParseResponse decodes a chat-completions answer into findings.
// Accepts either a bare JSON array or an object with an "errors" key
// (models flip between the two). Entries missing a title or with an
// out-of-range confidence are skipped, not fatal; findings below the
// threshold are filtered out.
func ParseResponse(id diagrams.DiagramID, response, model string, threshold float64, now time.Time) ([]*Finding, error) {
	trimmed := strings.TrimSpace(response)
	// Some models fence the JSON even when asked not to.
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var raws []rawFinding
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &raws); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
	} else {
		var wrapper struct {
			Errors []rawFinding `json:"errors"`
		}
		if err := json.Unmarshal([]byte(trimmed), &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
		raws = wrapper.Errors
	}

	out := make([]*Finding, 0, len(raws))
	for _, r := range raws {
		if strings.TrimSpace(r.Title) == "" {
			continue
		}
		conf, err := r.Confidence.Float64()
		if err != nil || conf < 0 || conf > 1 {
			continue
		}
		if conf < threshold {
			continue
		}
		f := &Finding{
			ID:                FindingID(uuid.New().String()),
			DiagramID:         id,
			Category:          fallbackStr(r.Category, "Unknown"),
			Subcategory:       r.Subcategory,
			Title:             r.Title,
			Description:       r.Description,
			RootCause:         r.RootCause,
			Severity:          NormalizeSeverity(r.Severity),
			Confidence:        conf,
			ElementTag:        r.ElementTag,
			LineNumber:        r.LineNumber,
			ViolatedStandard:  r.ViolatedStandard,
			StandardReference: r.StandardReference,
			RecommendedFix:    r.RecommendedFix,
			SafetyImpact:      r.SafetyImpact,
			CostImpact:        fallbackStr(r.CostImpact, "Low"),
			ReviewStatus:      ReviewOpen,
			ModelUsed:         model,
			CreatedAt:         now,
		}
		if len(r.Coordinates) == 2 {
			f.CoordX, f.CoordY = r.Coordinates[0], r.Coordinates[1]
		}
		out = append(out, f)
	}
	return out, nil
}

// AverageConfidence over a finding set, 0 when empty
func AverageConfidence(findings []*Finding) float64 {
	if len(findings) == 0 {
		return 0
	}
	var sum float64
	for _, f := range findings {
		sum += f.Confidence
	}
	return sum / float64(len(findings))
}

func fallbackStr(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
