package extract

import (
	"strings"
	"testing"

	"github.com/rejlers/edrs-backend/internal/domain/analysis"
	"github.com/rejlers/edrs-backend/internal/domain/diagrams"
)

func kindsOf(elements []*analysis.Element) map[analysis.ElementKind][]string {
	out := map[analysis.ElementKind][]string{}
	for _, e := range elements {
		out[e.Kind] = append(out[e.Kind], e.Text)
	}
	return out
}

func TestElementsPatternMatching(t *testing.T) {
	pages := []PageText{{
		Page: 1,
		Text: "FIC-101 controls flow on 6\"-P-1205\nPSV_205 relief at 150 PSI\nV-101A separator 80°C",
	}}
	elements := Elements(diagrams.DiagramID("d1"), pages)
	byKind := kindsOf(elements)

	if got := byKind[analysis.ElementInstrumentTag]; len(got) != 1 || got[0] != "FIC-101" {
		t.Fatalf("instrument tags = %v", got)
	}
	if got := byKind[analysis.ElementLineNumber]; len(got) != 1 || got[0] != `6"-P-1205` {
		t.Fatalf("line numbers = %v", got)
	}
	if got := byKind[analysis.ElementValveTag]; len(got) != 1 || got[0] != "PSV_205" {
		t.Fatalf("valve tags = %v", got)
	}
	if got := byKind[analysis.ElementEquipmentTag]; len(got) != 1 || got[0] != "V-101A" {
		t.Fatalf("equipment tags = %v", got)
	}
	if got := byKind[analysis.ElementTemperature]; len(got) != 1 || got[0] != "80°C" {
		t.Fatalf("temperatures = %v", got)
	}
}

func TestElementsDedupeAndCoords(t *testing.T) {
	pages := []PageText{{Page: 2, Text: "FIC-101 again FIC-101\nsecond line PT-200"}}
	elements := Elements(diagrams.DiagramID("d1"), pages)
	if len(elements) != 2 {
		t.Fatalf("expected dedupe to 2 elements got %d: %+v", len(elements), elements)
	}
	// PT-200 sits on line 1, column 2
	pt := elements[1]
	if pt.Text != "PT-200" || pt.CoordY != 1 || pt.CoordX != 2 || pt.Page != 2 {
		t.Fatalf("unexpected coords: %+v", pt)
	}
}

func TestElementsTrimsPunctuation(t *testing.T) {
	pages := []PageText{{Page: 1, Text: "see valve (PCV-205)."}}
	elements := Elements(diagrams.DiagramID("d1"), pages)
	if len(elements) != 1 || elements[0].Text != "PCV-205" {
		t.Fatalf("punctuation not trimmed: %+v", elements)
	}
}

func TestFormatContentSections(t *testing.T) {
	pages := []PageText{{Page: 1, Text: "FIC-101 loop\n\ndrain line"}}
	elements := Elements(diagrams.DiagramID("d1"), pages)
	content := FormatContent(pages, elements)

	if !strings.Contains(content, "## EXTRACTED P&ID TEXT ELEMENTS:") {
		t.Fatalf("missing text section:\n%s", content)
	}
	if !strings.Contains(content, "Page 1 Region 0: FIC-101 loop drain line") {
		t.Fatalf("region grouping wrong:\n%s", content)
	}
	if !strings.Contains(content, "instrument_tag: FIC-101 (page:1, x:0, y:0)") {
		t.Fatalf("element listing wrong:\n%s", content)
	}
}

func TestFormatContentNoElements(t *testing.T) {
	content := FormatContent([]PageText{{Page: 1, Text: "nothing tagged here"}}, nil)
	if !strings.Contains(content, "No elements pre-detected") {
		t.Fatalf("missing placeholder:\n%s", content)
	}
}
