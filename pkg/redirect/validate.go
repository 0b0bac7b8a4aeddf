package redirect

import (
	"encoding/json"
	"fmt"
	"strings"

	errs "redirsync/pkg/errors"
)

// FieldRule is one declarative constraint on a record field
type FieldRule struct {
	Name     string
	Required bool
	// Enum restricts the field to these values when non-empty. An empty
	// field value passes unless Required is also set.
	Enum []string
}

// Schema is the full set of field rules applied to an input file
type Schema []FieldRule

// ImportSchema validates full redirect records
var ImportSchema = Schema{
	{Name: "from", Required: true},
	{Name: "to", Required: true},
	{Name: "type", Enum: []string{string(TypePermanent), string(TypeTemporary)}},
	{Name: "endDate"},
	{Name: "binding"},
}

// DeleteSchema validates delete-input files, which only need a source
var DeleteSchema = Schema{
	{Name: "from", Required: true},
}

// Violation describes one failed rule with enough context for an
// operator to find the offending row.
type Violation struct {
	Index   int
	Field   string
	Message string
	Record  string
}

func (v Violation) String() string {
	return fmt.Sprintf("record %d: field %q %s: %s", v.Index, v.Field, v.Message, v.Record)
}

// ValidationError aggregates every violation found in one pass
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Violations)+1)
	lines = append(lines, fmt.Sprintf("%d validation error(s)", len(e.Violations)))
	for _, v := range e.Violations {
		lines = append(lines, "  "+v.String())
	}
	return strings.Join(lines, "\n")
}

// Validate applies the schema to every record and reports all
// violations at once rather than stopping at the first, so a bad file
// can be fixed in a single edit.
func Validate(schema Schema, records []Record) error {
	var violations []Violation

	for i, r := range records {
		for _, rule := range schema {
			value := fieldValue(r, rule.Name)

			if rule.Required && value == "" {
				violations = append(violations, violation(i, rule.Name, "is required", r))
				continue
			}
			if value != "" && len(rule.Enum) > 0 && !contains(rule.Enum, value) {
				violations = append(violations, violation(i, rule.Name,
					fmt.Sprintf("must be one of %s", strings.Join(rule.Enum, ", ")), r))
			}
		}
	}

	if len(violations) > 0 {
		return errs.Wrap(errs.ErrorTypeValidation, &ValidationError{Violations: violations}, "input validation failed")
	}
	return nil
}

func violation(index int, field, message string, r Record) Violation {
	raw, _ := json.Marshal(r)
	return Violation{Index: index, Field: field, Message: message, Record: string(raw)}
}

func fieldValue(r Record, name string) string {
	switch name {
	case "from":
		return r.From
	case "to":
		return r.To
	case "type":
		return string(r.Type)
	case "endDate":
		return r.EndDate
	case "binding":
		return r.Binding
	default:
		return ""
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
