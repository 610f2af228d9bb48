// Package validate implements the field-level rule evaluation described
// in spec.md §4.2: required, length, range, pattern, enum, and unique
// checks, run in either "create" or "update" mode.
package validate

import (
	"fmt"
	"regexp"

	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/query"
)

// Mode is the operation the record is being validated for.
type Mode string

// Recognized modes.
const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// Violation is a single rule failure.
type Violation struct {
	Field string
	Rule  string
	Message string
}

// Record validates rec against fields, using collection to check
// uniqueness (excluding excludeID when it equals a record's primary
// key, for update mode). It returns every violation found, not just the
// first.
func Record(rec map[string]interface{}, fields []config.Field, collection []query.Record, primaryKey string, excludeID interface{}, mode Mode) []Violation {
	var violations []Violation

	for _, f := range fields {
		value, present := rec[f.Name]

		if mode == ModeCreate && f.Required && !present {
			violations = append(violations, Violation{Field: f.Name, Rule: "required", Message: fmt.Sprintf("%s is required", f.Name)})
			continue
		}

		if !present || value == nil {
			continue
		}

		if f.MinLength != nil || f.MaxLength != nil {
			if s, ok := value.(string); ok {
				if f.MinLength != nil && len(s) < *f.MinLength {
					violations = append(violations, Violation{Field: f.Name, Rule: "minLength", Message: fmt.Sprintf("%s must be at least %d characters", f.Name, *f.MinLength)})
				}
				if f.MaxLength != nil && len(s) > *f.MaxLength {
					violations = append(violations, Violation{Field: f.Name, Rule: "maxLength", Message: fmt.Sprintf("%s must be at most %d characters", f.Name, *f.MaxLength)})
				}
			}
		}

		if f.Min != nil || f.Max != nil {
			if n, ok := asFloat(value); ok {
				if f.Min != nil && n < *f.Min {
					violations = append(violations, Violation{Field: f.Name, Rule: "min", Message: fmt.Sprintf("%s must be >= %v", f.Name, *f.Min)})
				}
				if f.Max != nil && n > *f.Max {
					violations = append(violations, Violation{Field: f.Name, Rule: "max", Message: fmt.Sprintf("%s must be <= %v", f.Name, *f.Max)})
				}
			}
		}

		if f.Pattern != "" {
			if s, ok := value.(string); ok {
				if ok, err := matchPattern(f.Pattern, s); err == nil && !ok {
					violations = append(violations, Violation{Field: f.Name, Rule: "pattern", Message: fmt.Sprintf("%s does not match pattern", f.Name)})
				}
			}
		}

		if len(f.Enum) > 0 {
			if !inEnum(value, f.Enum) {
				violations = append(violations, Violation{Field: f.Name, Rule: "enum", Message: fmt.Sprintf("%s must be one of %v", f.Name, f.Enum)})
			}
		}

		if f.Unique {
			if !isUnique(collection, f.Name, value, primaryKey, excludeID) {
				violations = append(violations, Violation{Field: f.Name, Rule: "unique", Message: fmt.Sprintf("%s must be unique", f.Name)})
			}
		}
	}

	return violations
}

// matchPattern compiles the pattern as an anchored regular expression
// (spec.md §4.2: "strict implementations should require anchored
// patterns and document the change" — spec.md §9 Open Questions; this
// port requires the operator's pattern to match the whole string by
// wrapping it in ^(?:...)$ unless it is already anchored).
func matchPattern(pattern, value string) (bool, error) {
	anchored := pattern
	if len(pattern) == 0 || pattern[0] != '^' {
		anchored = "^(?:" + anchored
	} else {
		anchored = "^(?:" + anchored[1:]
	}
	if len(pattern) == 0 || pattern[len(pattern)-1] != '$' {
		anchored = anchored + ")$"
	} else {
		anchored = anchored[:len(anchored)-1] + ")$"
	}
	re, err := regexp.Compile(anchored)
	if err != nil {
		return false, err
	}
	return re.MatchString(value), nil
}

func inEnum(value interface{}, enum []interface{}) bool {
	for _, e := range enum {
		if valuesEqual(value, e) {
			return true
		}
	}
	return false
}

func valuesEqual(a, b interface{}) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
	}
	return a == b
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// isUnique reports whether no other record in collection has the same
// value for field, excluding the record identified by excludeID.
func isUnique(collection []query.Record, field string, value interface{}, primaryKey string, excludeID interface{}) bool {
	for _, rec := range collection {
		if excludeID != nil && valuesEqual(rec[primaryKey], excludeID) {
			continue
		}
		if valuesEqual(rec[field], value) {
			return false
		}
	}
	return true
}
