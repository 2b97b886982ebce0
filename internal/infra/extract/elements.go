package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rejlers/edrs-backend/internal/domain/analysis"
	"github.com/rejlers/edrs-backend/internal/domain/diagrams"
)

// P&ID token patterns. Order matters: the first match wins, so the more
// specific valve/line shapes come before the generic equipment tag.
var patterns = []struct {
	kind analysis.ElementKind
	re   *regexp.Regexp
}{
	{analysis.ElementLineNumber, regexp.MustCompile(`^\d+"-\w+-\d+$`)},
	{analysis.ElementValveTag, regexp.MustCompile(`^[A-Z]{2}V[-_]\d{2,4}$`)},
	{analysis.ElementInstrumentTag, regexp.MustCompile(`^[A-Z]{2,4}[-_]\d{2,4}[A-Z]?$`)},
	{analysis.ElementEquipmentTag, regexp.MustCompile(`^[A-Z][-_]\d{2,4}[A-Z]?$`)},
	{analysis.ElementPressure, regexp.MustCompile(`(?i)^(\d+#|\d+\s*PSI|\d+\s*BAR)$`)},
	{analysis.ElementTemperature, regexp.MustCompile(`(?i)^(\d+°[CF]|\d+\s*DEG)$`)},
	{analysis.ElementFlowRate, regexp.MustCompile(`(?i)^(\d+\s*GPM|\d+\s*BPD|\d+\s*SCFH)$`)},
}

// Elements pattern-matches P&ID tokens out of extracted page text.
// There are no pixel coordinates on the text path, so the token's line and
// column indexes stand in as coarse diagram coordinates.
func Elements(id diagrams.DiagramID, pages []PageText) []*analysis.Element {
	var out []*analysis.Element
	seen := map[string]bool{}

	for _, p := range pages {
		for lineNo, line := range strings.Split(p.Text, "\n") {
			for colNo, token := range strings.Fields(line) {
				token = strings.Trim(token, ".,;:()[]")
				if len(token) < 2 {
					continue
				}
				for _, pat := range patterns {
					if !pat.re.MatchString(token) {
						continue
					}
					key := string(pat.kind) + ":" + token
					if seen[key] {
						break
					}
					seen[key] = true
					out = append(out, &analysis.Element{
						DiagramID: id,
						Kind:      pat.kind,
						Text:      token,
						Page:      p.Page,
						CoordX:    float64(colNo),
						CoordY:    float64(lineNo),
					})
					break
				}
			}
		}
	}
	return out
}

// FormatContent groups extracted text for the LLM prompt. Tokens are bucketed
// into a coarse grid by their line position so nearby annotations stay together,
// mirroring how OCR output would be spatially grouped.
func FormatContent(pages []PageText, elements []*analysis.Element) string {
	var b strings.Builder
	b.WriteString("## EXTRACTED P&ID TEXT ELEMENTS:\n")

	const gridSize = 10 // lines per region
	for _, p := range pages {
		regions := map[int][]string{}
		var order []int
		for lineNo, line := range strings.Split(p.Text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			key := lineNo / gridSize
			if _, ok := regions[key]; !ok {
				order = append(order, key)
			}
			regions[key] = append(regions[key], line)
		}
		for _, key := range order {
			b.WriteString("\nPage ")
			b.WriteString(strconv.Itoa(p.Page))
			b.WriteString(" Region ")
			b.WriteString(strconv.Itoa(key))
			b.WriteString(": ")
			b.WriteString(strings.Join(regions[key], " "))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n## IDENTIFIED P&ID ELEMENTS:\n")
	if len(elements) == 0 {
		b.WriteString("No elements pre-detected\n")
	}
	for _, e := range elements {
		b.WriteString(string(e.Kind))
		b.WriteString(": ")
		b.WriteString(e.Text)
		b.WriteString(" (page:")
		b.WriteString(strconv.Itoa(e.Page))
		b.WriteString(", x:")
		b.WriteString(strconv.Itoa(int(e.CoordX)))
		b.WriteString(", y:")
		b.WriteString(strconv.Itoa(int(e.CoordY)))
		b.WriteString(")\n")
	}
	return b.String()
}
