package prompt

import (
	"time"

	"github.com/google/uuid"

	"github.com/rejlers/edrs-backend/internal/domain/analysis"
	"github.com/rejlers/edrs-backend/internal/domain/diagrams"
	"github.com/rejlers/edrs-backend/internal/domain/projects"
)

// FallbackFindings produces deterministic rule-based findings when the LLM is
// unavailable or misconfigured. Two baseline findings always apply; one more is
// added for the project type. Findings are realistic enough for demo review
// workflows and are marked with the rule_based model label.
func FallbackFindings(id diagrams.DiagramID, projectType projects.ProjectType, now time.Time) []*analysis.Finding {
	mk := func(category, subcategory, title, description, fix, tag string, sev analysis.Severity, conf float64, safety bool) *analysis.Finding {
		return &analysis.Finding{
			ID:             analysis.FindingID(uuid.New().String()),
			DiagramID:      id,
			Category:       category,
			Subcategory:    subcategory,
			Title:          title,
			Description:    description,
			RecommendedFix: fix,
			ElementTag:     tag,
			Severity:       sev,
			Confidence:     conf,
			SafetyImpact:   safety,
			CostImpact:     "Low",
			ReviewStatus:   analysis.ReviewOpen,
			ModelUsed:      "rule_based",
			CreatedAt:      now,
		}
	}

	findings := []*analysis.Finding{
		mk("Instrumentation", "Tag Numbering",
			"Inconsistent instrument tag sequence",
			"Instrument tags TI-101, TI-103 detected without TI-102. This creates confusion in maintenance procedures.",
			"Add missing TI-102 or renumber sequence consistently",
			"TI-101, TI-103",
			analysis.SeverityMedium, 0.85, false),
		mk("Piping", "Line Sizing",
			"Potential undersized control valve line",
			"2-inch control valve connected to 4-inch main line may cause pressure drop issues.",
			"Review pressure drop calculations and consider 3-inch valve or larger bypass",
			"PCV-205",
			analysis.SeverityHigh, 0.92, true),
	}

	switch projectType {
	case projects.TypeUpstream, projects.TypeOffshore, projects.TypeOnshore:
		findings = append(findings, mk("Safety Systems", "Emergency Shutdown",
			"Missing ESD valve on high-pressure header",
			"High-pressure production header lacks emergency shutdown valve as required by API 14C.",
			"Install ESD valve with remote activation capability",
			"H-101",
			analysis.SeverityCritical, 0.95, true))
	case projects.TypeRefinery, projects.TypePetrochemical, projects.TypeDownstream:
		findings = append(findings, mk("Process Control", "Temperature Control",
			"Temperature controller lacks backup sensor",
			"Critical temperature control point TIC-301 has no backup sensor for redundancy.",
			"Install redundant temperature sensor with selector switch",
			"TIC-301",
			analysis.SeverityHigh, 0.88, true))
	}

	return findings
}

// DemoFinding is the last-resort result when even the fallback path failed
func DemoFinding(id diagrams.DiagramID, now time.Time) *analysis.Finding {
	return &analysis.Finding{
		ID:             analysis.FindingID(uuid.New().String()),
		DiagramID:      id,
		Category:       "Demo",
		Subcategory:    "Configuration",
		Title:          "P&ID Analysis Demo Mode",
		Description:    "This is a demonstration of the P&ID analysis system. Configure the OpenAI API key for full functionality.",
		RecommendedFix: "Contact administrator to configure OpenAI integration",
		ElementTag:     "DEMO",
		Severity:       analysis.SeverityLow,
		Confidence:     1.0,
		CostImpact:     "Minimal",
		ReviewStatus:   analysis.ReviewOpen,
		ModelUsed:      "demo",
		CreatedAt:      now,
	}
}
