package query

import "sort"

// ApplySort stably sorts records by the given multi-key sort spec.
// Null/missing values sort first in ascending order, last in descending
// (spec.md §4.1 edge-case policy).
func ApplySort(records []Record, keys []SortKey) []Record {
	if len(keys) == 0 {
		return records
	}
	out := make([]Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			cmp := compareValues(out[i][k.Field], out[j][k.Field])
			if cmp == 0 {
				continue
			}
			if k.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return out
}

// compareValues returns -1, 0, or 1 for ascending order, treating a nil
// (missing) value as less than any present value.
func compareValues(a, b interface{}) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
	return 0
}
