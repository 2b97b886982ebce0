package middleware

import (
	"strings"
	"testing"
)

func TestValidateProjectType(t *testing.T) {
	if err := ValidateProjectType("Offshore"); err != nil {
		t.Fatalf("case-insensitive match failed: %v", err)
	}
	if err := ValidateProjectType("residential"); err == nil {
		t.Fatal("expected error for unknown project type")
	}
}

func TestValidateStandard(t *testing.T) {
	for _, s := range []string{"isa_5_1", "iso_10628", "iec_62424", "api_14c", "asme_y14_2", "custom"} {
		if err := ValidateStandard(s); err != nil {
			t.Errorf("ValidateStandard(%q) = %v", s, err)
		}
	}
	if err := ValidateStandard("din_2429"); err == nil {
		t.Fatal("expected error for unknown standard")
	}
}

func TestValidateDepth(t *testing.T) {
	if err := ValidateDepth("Deep"); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if err := ValidateDepth("exhaustive"); err == nil {
		t.Fatal("expected error for unknown depth")
	}
}

func TestValidateReviewStatus(t *testing.T) {
	for _, s := range []string{"open", "in_review", "accepted", "rejected", "fixed", "deferred", "Accepted"} {
		if err := ValidateReviewStatus(s); err != nil {
			t.Errorf("ValidateReviewStatus(%q) = %v", s, err)
		}
	}
	for _, s := range []string{"", "pending", "closed"} {
		if err := ValidateReviewStatus(s); err == nil {
			t.Errorf("ValidateReviewStatus(%q) expected error", s)
		}
	}
}

func TestValidateDrawingNumber(t *testing.T) {
	valid := []string{"P&ID-100-001", "26-PID-A1.02", "P/1205_B"}
	for _, num := range valid {
		if err := ValidateDrawingNumber(num); err != nil {
			t.Errorf("ValidateDrawingNumber(%q) = %v", num, err)
		}
	}
	invalid := []string{"", "-starts-with-dash", "has spaces", strings.Repeat("x", 60)}
	for _, num := range invalid {
		if err := ValidateDrawingNumber(num); err == nil {
			t.Errorf("ValidateDrawingNumber(%q) expected error", num)
		}
	}
}

func TestValidateFileExtension(t *testing.T) {
	if err := ValidateFileExtension("drawing.PDF"); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if err := ValidateFileExtension("macro.exe"); err == nil {
		t.Fatal("expected error for exe")
	}
	if err := ValidateFileExtension("noextension"); err == nil {
		t.Fatal("expected error for missing extension")
	}
}

func TestValidateConfidenceThreshold(t *testing.T) {
	if got := ValidateConfidenceThreshold(0.9); got != 0.9 {
		t.Fatalf("in-range value changed: %v", got)
	}
	if got := ValidateConfidenceThreshold(0); got != 0.7 {
		t.Fatalf("zero should clamp to default: %v", got)
	}
	if got := ValidateConfidenceThreshold(1.5); got != 0.7 {
		t.Fatalf("out of range should clamp to default: %v", got)
	}
}

func TestValidateUUID(t *testing.T) {
	if err := ValidateUUID("a3bb189e-8bf9-3888-9912-ace4e6543002"); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	for _, id := range []string{"", "not-a-uuid", "a3bb189e8bf9388899 12ace4e6543002"} {
		if err := ValidateUUID(id); err == nil {
			t.Errorf("ValidateUUID(%q) expected error", id)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello\x00world\x01  "); got != "helloworld" {
		t.Fatalf("SanitizeString = %q", got)
	}
	if got := SanitizeString("line1\nline2"); got != "line1\nline2" {
		t.Fatalf("newlines should survive: %q", got)
	}
}

func TestValidateLimit(t *testing.T) {
	if got := ValidateLimit(0); got != 20 {
		t.Fatalf("default limit = %d", got)
	}
	if got := ValidateLimit(500); got != 100 {
		t.Fatalf("max limit = %d", got)
	}
	if got := ValidateLimit(42); got != 42 {
		t.Fatalf("passthrough = %d", got)
	}
}

func TestValidateDays(t *testing.T) {
	if got := ValidateDays(-1); got != 7 {
		t.Fatalf("default days = %d", got)
	}
	if got := ValidateDays(1000); got != 365 {
		t.Fatalf("max days = %d", got)
	}
}
