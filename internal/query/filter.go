package query

import "strings"

// ApplyFilters narrows records down to those matching every filter, AND'd
// together (spec.md §4.1: "applies filters (AND across all)").
func ApplyFilters(records []Record, filters []Filter) []Record {
	if len(filters) == 0 {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		matched := true
		for _, f := range filters {
			if !matches(rec[f.Field], f) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, rec)
		}
	}
	return out
}

func matches(fieldValue interface{}, f Filter) bool {
	switch f.Op {
	case OpEq:
		if fieldValue == nil {
			return false
		}
		return compareEqual(fieldValue, f.Value, f.CaseInsensitive)
	case OpNe:
		if fieldValue == nil {
			return true
		}
		return !compareEqual(fieldValue, f.Value, f.CaseInsensitive)
	case OpGt, OpGte, OpLt, OpLte:
		a, aok := asFloat(fieldValue)
		b, bok := asFloat(f.Value)
		if !aok || !bok {
			return false
		}
		switch f.Op {
		case OpGt:
			return a > b
		case OpGte:
			return a >= b
		case OpLt:
			return a < b
		default:
			return a <= b
		}
	case OpIn:
		if fieldValue == nil {
			return false
		}
		for _, v := range f.Values {
			if compareEqual(fieldValue, v, f.CaseInsensitive) {
				return true
			}
		}
		return false
	case OpNin:
		if fieldValue == nil {
			return true
		}
		for _, v := range f.Values {
			if compareEqual(fieldValue, v, f.CaseInsensitive) {
				return false
			}
		}
		return true
	case OpContains, OpStartsWith, OpEndsWith:
		a, aok := fieldValue.(string)
		b, bok := f.Value.(string)
		if !aok || !bok {
			return false
		}
		if f.CaseInsensitive {
			a = strings.ToLower(a)
			b = strings.ToLower(b)
		}
		switch f.Op {
		case OpContains:
			return strings.Contains(a, b)
		case OpStartsWith:
			return strings.HasPrefix(a, b)
		default:
			return strings.HasSuffix(a, b)
		}
	}
	return false
}

func compareEqual(a, b interface{}, caseInsensitive bool) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		if caseInsensitive {
			return strings.EqualFold(as, bs)
		}
		return as == bs
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
