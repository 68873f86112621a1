// Package catalog implements the application catalog search: a pure
// filter/aggregate over application records with independently toggleable
// match fields.
package catalog

import (
	"strings"
	"time"
)

// Application is one catalog record. Records are read-only to the search;
// persistence lives in the storage package.
type Application struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	Installed   bool      `json:"installed"`
	AddedAt     time.Time `json:"added_at"`
}

// Field names a searchable application attribute.
type Field string

const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
	FieldAuthor      Field = "author"
)

// ParseField maps a wire string to a Field.
func ParseField(s string) (Field, bool) {
	switch Field(strings.ToLower(strings.TrimSpace(s))) {
	case FieldName:
		return FieldName, true
	case FieldDescription:
		return FieldDescription, true
	case FieldAuthor:
		return FieldAuthor, true
	default:
		return "", false
	}
}

// FieldSet is the set of fields a query matches against.
type FieldSet map[Field]struct{}

// NewFieldSet builds a FieldSet from the given fields.
func NewFieldSet(fields ...Field) FieldSet {
	fs := make(FieldSet, len(fields))
	for _, f := range fields {
		fs[f] = struct{}{}
	}
	return fs
}

// Has reports whether f is enabled.
func (fs FieldSet) Has(f Field) bool {
	_, ok := fs[f]
	return ok
}

// Query is one search request: free text plus the enabled fields.
type Query struct {
	Text   string
	Fields FieldSet
}

// Result is the ordered match list plus its count.
type Result struct {
	Matches []Application `json:"matches"`
	Count   int           `json:"count"`
}

// Search filters apps in their given (catalog) order. A record matches if
// any enabled field contains the query text as a case-insensitive
// substring. Empty query text matches everything. An empty field set
// matches nothing: no criteria selected is a distinct user intent from
// "match everything", not a default.
func Search(apps []Application, q Query) Result {
	matches := make([]Application, 0, len(apps))
	if len(q.Fields) == 0 {
		return Result{Matches: matches}
	}

	needle := strings.ToLower(q.Text)
	for _, app := range apps {
		if needle == "" || matchesAny(app, q.Fields, needle) {
			matches = append(matches, app)
		}
	}
	return Result{Matches: matches, Count: len(matches)}
}

func matchesAny(app Application, fields FieldSet, needle string) bool {
	if fields.Has(FieldName) && strings.Contains(strings.ToLower(app.Name), needle) {
		return true
	}
	if fields.Has(FieldDescription) && strings.Contains(strings.ToLower(app.Description), needle) {
		return true
	}
	if fields.Has(FieldAuthor) && strings.Contains(strings.ToLower(app.Author), needle) {
		return true
	}
	return false
}
