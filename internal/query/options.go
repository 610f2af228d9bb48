// Package query implements the pure record-sequence transforms the
// store applies when answering a list request: filtering, sorting,
// pagination, and field projection. All of it is pure over
// map[string]interface{} records; none of it touches storage.
package query

// Record is a single mapping from field name to value, the in-memory
// shape of a persisted record.
type Record = map[string]interface{}

// Op is a filter comparison operator.
type Op string

// Supported filter operators, per the bracketed query-string syntax.
const (
	OpEq         Op = "eq"
	OpNe         Op = "ne"
	OpGt         Op = "gt"
	OpGte        Op = "gte"
	OpLt         Op = "lt"
	OpLte        Op = "lte"
	OpIn         Op = "in"
	OpNin        Op = "nin"
	OpContains   Op = "contains"
	OpStartsWith Op = "startsWith"
	OpEndsWith   Op = "endsWith"
)

// Filter is a single field predicate.
type Filter struct {
	Field           string
	Op              Op
	Value           interface{}
	Values          []interface{} // populated for in/nin
	CaseInsensitive bool
}

// SortKey is one element of a multi-key sort.
type SortKey struct {
	Field string
	Desc  bool
}

// Options bundles every transform a list query may request.
type Options struct {
	Filters  []Filter
	Sort     []SortKey
	Page     int // 1-based; <1 clamps to 1
	PerPage  int // <1 clamps to 1; 0 means "unset", caller should apply a default
	Fields   []string
	MaxPerPage int // 0 means unbounded
}
