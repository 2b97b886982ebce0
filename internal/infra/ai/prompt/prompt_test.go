package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/rejlers/edrs-backend/internal/domain/analysis"
	"github.com/rejlers/edrs-backend/internal/domain/diagrams"
	"github.com/rejlers/edrs-backend/internal/domain/projects"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestSystemPromptStandardSections(t *testing.T) {
	p := SystemPrompt(Context{
		ProjectType: projects.TypeOffshore,
		Standard:    projects.StandardISA51,
		Depth:       analysis.DepthStandard,
	})
	if !strings.Contains(p, "ISA-5.1 Instrumentation Standards") {
		t.Fatalf("missing ISA section:\n%s", p)
	}
	if !strings.Contains(p, `{"errors": [...]}`) {
		t.Fatalf("missing output format instruction")
	}

	p = SystemPrompt(Context{Standard: projects.StandardAPI14C, Depth: analysis.DepthQuick})
	if !strings.Contains(p, "API 14C Offshore Safety Systems") {
		t.Fatalf("missing API 14C section")
	}
	if !strings.Contains(p, "Critical & High severity errors only") {
		t.Fatalf("quick depth scope not applied")
	}
}

func TestAnalysisPromptDefaults(t *testing.T) {
	p := AnalysisPrompt(Context{DrawingNumber: "P-1001"}, "content here")
	if !strings.Contains(p, "Facility: Not specified") {
		t.Fatalf("missing facility default:\n%s", p)
	}
	if !strings.Contains(p, "Drawing: P-1001 Rev. A") {
		t.Fatalf("missing revision default:\n%s", p)
	}
	if !strings.Contains(p, "content here") {
		t.Fatalf("content not embedded")
	}
}

func TestFallbackFindingsBaseline(t *testing.T) {
	fs := FallbackFindings(diagrams.DiagramID("d1"), projects.TypePetrochemical, now)
	if len(fs) != 3 {
		t.Fatalf("expected 3 findings got %d", len(fs))
	}
	for _, f := range fs {
		if f.ModelUsed != "rule_based" {
			t.Fatalf("wrong model label: %+v", f)
		}
		if f.DiagramID != diagrams.DiagramID("d1") || f.CreatedAt != now {
			t.Fatalf("ids/timestamps not set: %+v", f)
		}
	}
	if fs[2].ElementTag != "TIC-301" || fs[2].Severity != analysis.SeverityHigh {
		t.Fatalf("downstream extra finding wrong: %+v", fs[2])
	}
}

func TestFallbackFindingsUpstreamGetsESD(t *testing.T) {
	fs := FallbackFindings(diagrams.DiagramID("d1"), projects.TypeOffshore, now)
	if len(fs) != 3 {
		t.Fatalf("expected 3 findings got %d", len(fs))
	}
	if fs[2].Severity != analysis.SeverityCritical || !fs[2].SafetyImpact {
		t.Fatalf("offshore ESD finding wrong: %+v", fs[2])
	}
}

func TestFallbackFindingsUnknownType(t *testing.T) {
	fs := FallbackFindings(diagrams.DiagramID("d1"), projects.ProjectType("something_else"), now)
	if len(fs) != 2 {
		t.Fatalf("expected baseline 2 findings got %d", len(fs))
	}
}

func TestDemoFinding(t *testing.T) {
	f := DemoFinding(diagrams.DiagramID("d1"), now)
	if f.ModelUsed != "demo" || f.Severity != analysis.SeverityLow || f.Confidence != 1.0 {
		t.Fatalf("unexpected demo finding: %+v", f)
	}
}
