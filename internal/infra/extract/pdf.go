package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageText is the plain text of one drawing sheet
type PageText struct {
	Page int
	Text string
}

// PDFText extracts per-page plain text from a PDF drawing.
// Pages that fail to decode are skipped; an all-empty result is not an
// error here, the pipeline treats it as "no elements pre-detected".
func PDFText(path string) ([]PageText, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var pages []PageText
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, PageText{Page: i, Text: text})
	}
	return pages, nil
}
