package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/rejlers/edrs-backend/internal/domain/diagrams"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestParseResponseWrapperObject(t *testing.T) {
	resp := `{"errors":[{"category":"Instrumentation","title":"Missing tag","severity":"high","confidence":0.9}]}`
	findings, err := ParseResponse(diagrams.DiagramID("d1"), resp, "gpt-4o", 0.7, now)
	if err != nil {
		t.Fatalf("ParseResponse returned error: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding got %d", len(findings))
	}
	f := findings[0]
	if f.Severity != SeverityHigh || f.Confidence != 0.9 {
		t.Fatalf("unexpected finding: %+v", f)
	}
	if f.ModelUsed != "gpt-4o" || f.ReviewStatus != ReviewOpen {
		t.Fatalf("defaults not applied: %+v", f)
	}
}

func TestParseResponseBareArray(t *testing.T) {
	resp := `[{"title":"Open drain","severity":"low","confidence":"0.8"}]`
	findings, err := ParseResponse(diagrams.DiagramID("d1"), resp, "gpt-4o", 0.7, now)
	if err != nil {
		t.Fatalf("ParseResponse returned error: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding got %d", len(findings))
	}
	if findings[0].Confidence != 0.8 {
		t.Fatalf("string confidence not decoded: %v", findings[0].Confidence)
	}
}

func TestParseResponseFencedJSON(t *testing.T) {
	resp := "```json\n{\"errors\":[{\"title\":\"X\",\"confidence\":0.75}]}\n```"
	findings, err := ParseResponse(diagrams.DiagramID("d1"), resp, "m", 0.7, now)
	if err != nil {
		t.Fatalf("ParseResponse returned error: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding got %d", len(findings))
	}
}

func TestParseResponseFiltersAndSkips(t *testing.T) {
	resp := `{"errors":[
		{"title":"Below threshold","confidence":0.5},
		{"title":"","confidence":0.9},
		{"title":"Out of range","confidence":1.5},
		{"title":"Keeper","confidence":0.85,"coordinates":[120.5,340.0]}
	]}`
	findings, err := ParseResponse(diagrams.DiagramID("d1"), resp, "m", 0.7, now)
	if err != nil {
		t.Fatalf("ParseResponse returned error: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding got %d", len(findings))
	}
	if findings[0].CoordX != 120.5 || findings[0].CoordY != 340.0 {
		t.Fatalf("coordinates not mapped: %+v", findings[0])
	}
}

func TestParseResponseBadJSON(t *testing.T) {
	_, err := ParseResponse(diagrams.DiagramID("d1"), "the diagram looks fine to me", "m", 0.7, now)
	if !errors.Is(err, ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse got %v", err)
	}
}

func TestNormalizeSeverity(t *testing.T) {
	cases := map[string]Severity{
		"CRITICAL":    SeverityCritical,
		" high ":      SeverityHigh,
		"information": SeverityInfo,
		"whatever":    SeverityMedium,
		"":            SeverityMedium,
	}
	for in, want := range cases {
		if got := NormalizeSeverity(in); got != want {
			t.Errorf("NormalizeSeverity(%q) = %s want %s", in, got, want)
		}
	}
}

func TestCountBySeverityIgnoresInfo(t *testing.T) {
	fs := []*Finding{
		{Severity: SeverityCritical},
		{Severity: SeverityHigh},
		{Severity: SeverityHigh},
		{Severity: SeverityInfo},
	}
	c := CountBySeverity(fs)
	if c.Critical != 1 || c.High != 2 || c.Total != 3 {
		t.Fatalf("unexpected counts: %+v", c)
	}
}

func TestAverageConfidence(t *testing.T) {
	if got := AverageConfidence(nil); got != 0 {
		t.Fatalf("empty set should average 0, got %v", got)
	}
	fs := []*Finding{{Confidence: 0.8}, {Confidence: 0.6}}
	if got := AverageConfidence(fs); got < 0.699 || got > 0.701 {
		t.Fatalf("expected 0.7 got %v", got)
	}
}
