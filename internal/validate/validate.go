// Package validate checks decoded JSON payloads against declarative schemas.
//
// A Schema is plain data: an ordered list of fields and the constraints
// each one carries. Validate walks the schema once and reports every
// failing field, keeping only the first failing rule per field. The
// payload is read but never modified.
package validate

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/msomdec/taskdesk/internal/domain"
)

// Type is the JSON type a field must carry.
type Type int

const (
	String Type = iota
	Number
	Bool
)

func (t Type) String() string {
	switch t {
	case Number:
		return "number"
	case Bool:
		return "boolean"
	default:
		return "string"
	}
}

// Format is an additional shape check for string fields.
type Format int

const (
	FormatNone Format = iota
	FormatEmail
)

// Field is one row of a schema. Zero values disable a constraint.
type Field struct {
	Name     string
	Label    string // human name used in messages; defaults to Name
	Required bool
	Type     Type
	MinLen   int // runes
	MaxLen   int // runes
	Format   Format
	OneOf    []string
}

// Schema is an ordered rule table.
type Schema []Field

// Result is the outcome of Validate. Errors is empty when the payload passed.
type Result struct {
	Errors []domain.FieldError
}

// OK reports whether the payload passed every rule.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Err returns a *domain.ValidationError holding every field error, or nil.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &domain.ValidationError{Fields: r.Errors}
}

// Validate checks payload against every field of the schema.
func (s Schema) Validate(payload map[string]any) Result {
	var res Result
	for _, f := range s {
		if msg, ok := f.check(payload); !ok {
			res.Errors = append(res.Errors, domain.FieldError{Field: f.Name, Message: msg})
		}
	}
	return res
}

func (f Field) label() string {
	if f.Label != "" {
		return f.Label
	}
	if f.Name == "" {
		return f.Name
	}
	return strings.ToUpper(f.Name[:1]) + f.Name[1:]
}

func (f Field) check(payload map[string]any) (string, bool) {
	v, present := payload[f.Name]
	if !present || v == nil {
		if f.Required {
			return f.label() + " is required", false
		}
		return "", true
	}

	switch f.Type {
	case Number:
		if _, ok := v.(float64); !ok {
			return f.label() + " must be a number", false
		}
		return "", true
	case Bool:
		if _, ok := v.(bool); !ok {
			return f.label() + " must be a boolean", false
		}
		return "", true
	}

	s, ok := v.(string)
	if !ok {
		return f.label() + " must be a string", false
	}
	if f.Required && strings.TrimSpace(s) == "" && f.MinLen <= 1 {
		return f.label() + " is required", false
	}

	n := utf8.RuneCountInString(s)
	if f.MinLen > 0 && n < f.MinLen {
		if f.MinLen == 1 {
			return f.label() + " is required", false
		}
		return fmt.Sprintf("%s must be at least %d characters", f.label(), f.MinLen), false
	}
	if f.MaxLen > 0 && n > f.MaxLen {
		return fmt.Sprintf("%s must be at most %d characters", f.label(), f.MaxLen), false
	}
	if f.Format == FormatEmail && !isEmail(s) {
		return f.label() + " must be valid", false
	}
	if len(f.OneOf) > 0 && !contains(f.OneOf, s) {
		return fmt.Sprintf("%s must be one of: %s", f.label(), strings.Join(f.OneOf, ", ")), false
	}
	return "", true
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	// ParseAddress accepts "Name <a@b>"; only a bare address is allowed here.
	if addr.Address != s {
		return false
	}
	host := s[strings.LastIndex(s, "@")+1:]
	dot := strings.LastIndex(host, ".")
	return dot > 0 && dot < len(host)-1
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
