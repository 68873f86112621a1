package validators

import (
	"errors"
	"strings"
	"testing"

	"github.com/entl/botdeck/internal/catalog"
)

func TestValidateSubmitRequest(t *testing.T) {
	if err := ValidateSubmitRequest("robot.battery()"); err != nil {
		t.Errorf("valid command rejected: %v", err)
	}

	for _, text := range []string{"", "   "} {
		err := ValidateSubmitRequest(text)
		if err == nil {
			t.Errorf("blank text %q should be rejected", text)
			continue
		}
		var verr *Error
		if !errors.As(err, &verr) {
			t.Errorf("expected *validators.Error, got %T", err)
		}
	}

	long := strings.Repeat("x", 600)
	if err := ValidateSubmitRequest(long); err == nil {
		t.Error("over-length text should be rejected")
	}
}

func TestValidateSearchRequest(t *testing.T) {
	fields, err := ValidateSearchRequest([]string{"name", "Author"})
	if err != nil {
		t.Fatalf("valid fields rejected: %v", err)
	}
	if !fields.Has(catalog.FieldName) || !fields.Has(catalog.FieldAuthor) {
		t.Errorf("parsed field set incomplete: %v", fields)
	}
	if fields.Has(catalog.FieldDescription) {
		t.Error("description was not requested")
	}
}

func TestValidateSearchRequestNoFields(t *testing.T) {
	// Absent fields parameter is a valid request that matches nothing.
	fields, err := ValidateSearchRequest(nil)
	if err != nil {
		t.Fatalf("absent fields should validate: %v", err)
	}
	if len(fields) != 0 {
		t.Errorf("expected empty field set, got %v", fields)
	}
}

func TestValidateSearchRequestUnknownField(t *testing.T) {
	_, err := ValidateSearchRequest([]string{"name", "rating"})
	if err == nil {
		t.Fatal("unknown field should be rejected")
	}
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validators.Error, got %T", err)
	}
	if len(verr.Violations) != 1 || verr.Violations[0].Field != "fields" {
		t.Errorf("unexpected violations: %+v", verr.Violations)
	}
}

func TestValidateSearchRequestSkipsBlankNames(t *testing.T) {
	fields, err := ValidateSearchRequest([]string{"", "name", "  "})
	if err != nil {
		t.Fatalf("blank names should be skipped, not rejected: %v", err)
	}
	if len(fields) != 1 || !fields.Has(catalog.FieldName) {
		t.Errorf("unexpected field set: %v", fields)
	}
}

func TestErrorCollectsAllViolations(t *testing.T) {
	_, err := ValidateSearchRequest([]string{"rating", "price"})
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validators.Error, got %T", err)
	}
	if len(verr.Violations) != 2 {
		t.Errorf("expected both violations reported, got %d", len(verr.Violations))
	}
	msg := verr.Error()
	if !strings.Contains(msg, "rating") || !strings.Contains(msg, "price") {
		t.Errorf("error message misses a violation: %q", msg)
	}
}

func TestValidateHistoryLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 100},
		{-5, 100},
		{50, 50},
		{500, 500},
		{501, 100},
	}
	for _, tt := range tests {
		if got := ValidateHistoryLimit(tt.in); got != tt.want {
			t.Errorf("ValidateHistoryLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
