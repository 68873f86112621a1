// Package validators checks incoming API requests and reports every field
// problem at once instead of failing on the first.
package validators

import (
	"strings"

	"github.com/entl/botdeck/internal/catalog"
)

// maxCommandLength bounds submitted command text. Real commands are short;
// anything longer is almost certainly a paste accident.
const maxCommandLength = 512

// FieldViolation describes one invalid request field.
type FieldViolation struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// Error is a validation failure carrying all field violations.
type Error struct {
	Violations []FieldViolation `json:"violations"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Description
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func addViolation(violations *[]FieldViolation, field, desc string) {
	*violations = append(*violations, FieldViolation{Field: field, Description: desc})
}

func returnIfViolations(violations []FieldViolation) error {
	if len(violations) == 0 {
		return nil
	}
	return &Error{Violations: violations}
}

// ValidateSubmitRequest checks a submit-command request body.
func ValidateSubmitRequest(text string) error {
	var violations []FieldViolation

	if strings.TrimSpace(text) == "" {
		addViolation(&violations, "text", "command text is required")
	}
	if len(text) > maxCommandLength {
		addViolation(&violations, "text", "command text exceeds maximum length")
	}

	return returnIfViolations(violations)
}

// ValidateSearchRequest checks a catalog search request and returns the
// parsed field set. An absent fields parameter is a valid request that
// matches nothing (no criteria selected); an unknown field name is a
// client error.
func ValidateSearchRequest(fieldNames []string) (catalog.FieldSet, error) {
	var violations []FieldViolation

	fields := catalog.NewFieldSet()
	for _, name := range fieldNames {
		if strings.TrimSpace(name) == "" {
			continue
		}
		f, ok := catalog.ParseField(name)
		if !ok {
			addViolation(&violations, "fields", "unknown search field: "+name)
			continue
		}
		fields[f] = struct{}{}
	}

	if err := returnIfViolations(violations); err != nil {
		return nil, err
	}
	return fields, nil
}

// ValidateHistoryLimit clamps a history page size to a sane window.
func ValidateHistoryLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
