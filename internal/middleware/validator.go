package middleware

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

// ValidateProjectType checks if the project type is in the allowed list
func ValidateProjectType(t string) error {
	allowed := map[string]bool{
		"upstream":      true,
		"midstream":     true,
		"downstream":    true,
		"lng":           true,
		"offshore":      true,
		"onshore":       true,
		"pipeline":      true,
		"refinery":      true,
		"petrochemical": true,
	}
	if !allowed[strings.ToLower(t)] {
		return fmt.Errorf("invalid project type: %s", t)
	}
	return nil
}

// ValidateStandard checks if the engineering standard is known
func ValidateStandard(s string) error {
	allowed := map[string]bool{
		"isa_5_1":    true,
		"iso_10628":  true,
		"iec_62424":  true,
		"api_14c":    true,
		"asme_y14_2": true,
		"custom":     true,
	}
	if !allowed[strings.ToLower(s)] {
		return fmt.Errorf("invalid engineering standard: %s", s)
	}
	return nil
}

// ValidateDiagramType checks the drawing discipline
func ValidateDiagramType(t string) error {
	allowed := map[string]bool{
		"process_flow":           true,
		"piping_instrumentation": true,
		"utility_flow":           true,
		"safety_shutdown":        true,
		"fire_gas":               true,
		"electrical_single":      true,
		"control_logic":          true,
		"loop_diagram":           true,
	}
	if !allowed[strings.ToLower(t)] {
		return fmt.Errorf("invalid diagram type: %s", t)
	}
	return nil
}

// ValidateDepth checks the analysis depth parameter
func ValidateDepth(d string) error {
	switch strings.ToLower(d) {
	case "quick", "standard", "deep":
		return nil
	}
	return fmt.Errorf("invalid analysis depth: %s (allowed: quick, standard, deep)", d)
}

// ValidateReviewStatus checks a finding disposition value
func ValidateReviewStatus(s string) error {
	switch strings.ToLower(s) {
	case "open", "in_review", "accepted", "rejected", "fixed", "deferred":
		return nil
	}
	return fmt.Errorf("invalid review status: %s (allowed: open, in_review, accepted, rejected, fixed, deferred)", s)
}

// ValidateDrawingNumber validates drawing number format (e.g. "P&ID-100-001")
func ValidateDrawingNumber(num string) error {
	if num == "" {
		return fmt.Errorf("drawing number cannot be empty")
	}
	pattern := `^[A-Za-z0-9&][A-Za-z0-9&._/-]{0,49}$`
	matched, _ := regexp.MatchString(pattern, num)
	if !matched {
		return fmt.Errorf("invalid drawing number format")
	}
	return nil
}

// ValidateFileExtension checks an upload filename against the accepted formats
func ValidateFileExtension(filename string) error {
	allowed := map[string]bool{
		".pdf":  true,
		".dwg":  true,
		".png":  true,
		".jpg":  true,
		".jpeg": true,
		".tiff": true,
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowed[ext] {
		return fmt.Errorf("unsupported file type %s (allowed: pdf, dwg, png, jpg, jpeg, tiff)", ext)
	}
	return nil
}

// ValidateConfidenceThreshold clamps out-of-range thresholds to the default
func ValidateConfidenceThreshold(v float64) float64 {
	if v <= 0 || v > 1 {
		return 0.7
	}
	return v
}

// ValidateUUID validates resource identifier format
func ValidateUUID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	pattern := `^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`
	matched, _ := regexp.MatchString(pattern, strings.ToLower(id))
	if !matched {
		return fmt.Errorf("invalid id format")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidateDays validates days parameter
func ValidateDays(days int) int {
	if days <= 0 {
		return 7 // default
	}
	if days > 365 {
		return 365 // max 1 year
	}
	return days
}
