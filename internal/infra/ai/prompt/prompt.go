package prompt

import (
	"fmt"
	"strings"

	"github.com/rejlers/edrs-backend/internal/domain/analysis"
	"github.com/rejlers/edrs-backend/internal/domain/projects"
)

// Context carries the project/diagram fields the prompts embed
type Context struct {
	ProjectName   string
	ProjectType   projects.ProjectType
	Standard      projects.Standard
	FacilityName  string
	ProcessUnit   string
	DrawingNumber string
	Revision      string
	Conditions    string
	Depth         analysis.Depth
}

// SystemPrompt builds the expert-identity system message for error detection.
// The validation criteria section changes with the project's governing standard,
// the scope section with the requested depth.
func SystemPrompt(ctx Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, `# EDRS - Advanced P&ID Error Detection Engine

## EXPERT IDENTITY
You are a Senior Process Engineer with 20+ years experience in Oil & Gas %s projects, specializing in:
- P&ID validation & design review (%s standards)
- Process safety management (PSM) & HAZOP studies
- Instrumentation & control systems (ICS) design
- Emergency shutdown systems (ESD) & safety interlocks
- Engineering quality assurance & risk assessment

## ANALYSIS SCOPE & STANDARDS
Primary Standard: %s
Project Type: %s
Analysis Depth: %s

### VALIDATION CRITERIA:
`, ctx.ProjectType, ctx.Standard, ctx.Standard, ctx.ProjectType, ctx.Depth)

	switch ctx.Standard {
	case projects.StandardISA51:
		b.WriteString(`ISA-5.1 Instrumentation Standards:
- Tag numbering format: [Process Variable][Function][Loop Number] (e.g., FIC-001, PT-1205A)
- Symbol standardization and sizing
- Line connection conventions
- Instrument bubble conventions (shared display, computer function, etc.)
`)
	case projects.StandardISO10628:
		b.WriteString(`ISO 10628 Flow Diagram Standards:
- Equipment symbol standardization
- Piping line conventions and sizing
- Flow direction indicators
- Stream numbering systems
`)
	case projects.StandardAPI14C:
		b.WriteString(`API 14C Offshore Safety Systems:
- Safety analysis function evaluation (SAFE) chart coverage
- ESD valve placement on flowlines and headers
- Relief and depressurization routing
`)
	}

	fmt.Fprintf(&b, `
### ERROR CATEGORIES TO ANALYZE:
1. SAFETY SYSTEMS (Critical Priority): PSV sizing & discharge routing, ESD valve locations & fail-safe positions, fire & gas detection coverage, interlock logic & SIL requirements
2. INSTRUMENTATION & CONTROL: tag numbering compliance (%s), instrument symbol correctness, control loop completeness, alarm & trip point definitions
3. PIPING & MECHANICAL: line sizing & specification consistency, flow direction indicators, valve type selection & positioning, thermal expansion provisions
4. PROCESS ENGINEERING: material balance consistency, operating conditions compatibility, equipment sizing adequacy
5. DRAFTING & STANDARDS: symbol library compliance, cross-reference accuracy, revision control markers

## OUTPUT FORMAT:
Return ONLY a valid JSON object of the form {"errors": [...]} where each entry has:
{
  "category": "Safety Systems | Instrumentation | Piping | Process | Drafting",
  "subcategory": "specific area within category",
  "title": "concise error description",
  "description": "detailed technical explanation",
  "root_cause": "engineering reason for error",
  "severity": "Critical | High | Medium | Low | Info",
  "confidence": 0.95,
  "element_tag": "equipment/instrument tag if applicable",
  "line_number": "piping line number if applicable",
  "coordinates": [x, y],
  "violated_standard": "%s or company standard",
  "standard_reference": "specific clause/section",
  "recommended_fix": "specific engineering action required",
  "safety_impact": true,
  "cost_impact": "High | Medium | Low | Minimal"
}

## SEVERITY CRITERIA:
- Critical: safety hazard, environmental risk, code violation
- High: major operability issue, equipment damage risk
- Medium: standard non-compliance, performance impact
- Low: best practice improvement, maintainability
- Info: optimization opportunity, suggestion

## CONSTRAINTS:
- Only analyze elements present in the provided P&ID data
- Do NOT hallucinate tags, equipment, or connections
- Confidence score must reflect certainty level (0.0-1.0)

## ANALYSIS SCOPE BY DEPTH:
`, ctx.Standard, ctx.Standard)

	switch ctx.Depth {
	case analysis.DepthQuick:
		b.WriteString("- Focus on Critical & High severity errors only\n- Safety systems priority\n- Major standards violations\n")
	case analysis.DepthDeep:
		b.WriteString("- Exhaustive analysis including optimization\n- Best practice recommendations\n- Detailed root cause analysis\n")
	default:
		b.WriteString("- Comprehensive error detection\n- All severity levels\n- Standards compliance check\n- Process engineering review\n")
	}

	return b.String()
}

// AnalysisPrompt embeds the project context and the extracted drawing content
func AnalysisPrompt(ctx Context, content string) string {
	return fmt.Sprintf(`# P&ID ANALYSIS REQUEST

## PROJECT CONTEXT:
- Facility: %s
- Process Unit: %s
- Operating Conditions: %s
- Drawing: %s Rev. %s

## P&ID CONTENT TO ANALYZE:
%s

## INSTRUCTIONS:
Perform systematic P&ID error detection analysis on the above content.
Return results as a JSON object following the specified format.
Only report errors you can verify from the provided content, include specific
location information where possible, and prioritize safety-critical issues.
`,
		orDefault(ctx.FacilityName),
		orDefault(ctx.ProcessUnit),
		orDefault(ctx.Conditions),
		orDefault(ctx.DrawingNumber),
		revOrDefault(ctx.Revision),
		content,
	)
}

func orDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not specified"
	}
	return s
}

func revOrDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return "A"
	}
	return s
}
