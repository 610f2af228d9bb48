// Package store owns the in-memory record collections: CRUD, primary
// key generation, cascade delete, and relation lookups, per spec.md
// §4.1. Every record leaving the store is a deep copy (spec.md §3
// lifecycle: "no component outside the store may mutate a record
// value"); every collection is guarded by its own lock (spec.md §5.1
// prefers per-collection locks over one global lock).
package store

import (
	"sync"

	"dario.cat/mergo"
	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/alexberriman/pretendo-sub001/internal/resultx"
	"github.com/alexberriman/pretendo-sub001/internal/validate"
	"github.com/goccy/go-json"
)

// CascadeTarget names a (collection, foreignKey) pair to sweep on delete.
type CascadeTarget struct {
	Collection string
	ForeignKey string
}

// Store holds every collection's records behind a per-collection lock.
type Store struct {
	mu          sync.RWMutex // guards the collections map itself (adding new names)
	collections map[string]*collectionState
}

type collectionState struct {
	mu      sync.RWMutex
	records []query.Record
}

// New returns an empty store.
func New() *Store {
	return &Store{collections: make(map[string]*collectionState)}
}

func (s *Store) state(name string) *collectionState {
	s.mu.RLock()
	st, ok := s.collections[name]
	s.mu.RUnlock()
	if ok {
		return st
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok = s.collections[name]
	if !ok {
		st = &collectionState{}
		s.collections[name] = st
	}
	return st
}

// Names returns every known collection name.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for n := range s.collections {
		names = append(names, n)
	}
	return names
}

// Seed replaces a collection's contents wholesale without going through
// validation or special-field processing (used at startup to load seed
// data or a persisted snapshot).
func (s *Store) Seed(name string, records []query.Record) {
	st := s.state(name)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.records = deepCopyRecords(records)
}

// Snapshot returns a deep copy of every collection, for persistence.
func (s *Store) Snapshot() map[string][]query.Record {
	s.mu.RLock()
	names := make([]string, 0, len(s.collections))
	for n := range s.collections {
		names = append(names, n)
	}
	s.mu.RUnlock()

	out := make(map[string][]query.Record, len(names))
	for _, n := range names {
		st := s.state(n)
		st.mu.RLock()
		out[n] = deepCopyRecords(st.records)
		st.mu.RUnlock()
	}
	return out
}

// Reset replaces the entire dataset with a deep copy of newData.
func (s *Store) Reset(newData map[string][]query.Record) {
	s.mu.Lock()
	s.collections = make(map[string]*collectionState, len(newData))
	s.mu.Unlock()
	for name, records := range newData {
		s.Seed(name, records)
	}
}

// Query applies filters, then sort, then pagination, then field
// projection, in that order, returning deep copies (spec.md §4.1).
func (s *Store) Query(collection string, opts query.Options, primaryKey string) ([]query.Record, query.Pagination) {
	st := s.state(collection)
	st.mu.RLock()
	records := deepCopyRecords(st.records)
	st.mu.RUnlock()

	filtered := query.ApplyFilters(records, opts.Filters)
	sorted := query.ApplySort(filtered, opts.Sort)
	perPage := opts.PerPage
	if perPage == 0 {
		perPage = 10
	}
	page, pagination := query.ApplyPagination(sorted, opts.Page, perPage, opts.MaxPerPage)
	return query.ApplyFields(page, opts.Fields, primaryKey), pagination
}

// Get returns a deep copy of the record with the given primary key
// value, or nil if it does not exist.
func (s *Store) Get(collection string, id interface{}, primaryKey string) query.Record {
	st := s.state(collection)
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, rec := range st.records {
		if looseEqual(rec[primaryKey], id) {
			return deepCopyRecord(rec)
		}
	}
	return nil
}

// Add inserts rec into collection. If rec has no primary key value, one
// is generated per spec.md §3 invariant 1 (next integer strictly
// greater than the current maximum, or 1). If fields is non-nil, the
// validator runs in create mode first.
func (s *Store) Add(collection string, rec query.Record, primaryKey string, fields []config.Field) resultx.Result[query.Record] {
	st := s.state(collection)
	st.mu.Lock()
	defer st.mu.Unlock()

	rec = deepCopyRecord(rec)

	if fields != nil {
		violations := validate.Record(rec, fields, st.records, primaryKey, rec[primaryKey], validate.ModeCreate)
		if len(violations) > 0 {
			return resultx.Err[query.Record](validationError(violations))
		}
	}

	if id, present := rec[primaryKey]; present && id != nil {
		for _, existing := range st.records {
			if looseEqual(existing[primaryKey], id) {
				return resultx.Errf[query.Record](resultx.KindConflict, "record with %s=%v already exists in %s", primaryKey, id, collection)
			}
		}
	} else {
		rec[primaryKey] = nextIntegerID(st.records, primaryKey)
	}

	st.records = append(st.records, rec)
	return resultx.Ok(deepCopyRecord(rec))
}

// Update replaces or merges the record identified by id. merge=false
// replaces the whole record but preserves the primary key; merge=true
// shallow-merges top-level keys over the existing record.
func (s *Store) Update(collection string, id interface{}, data query.Record, primaryKey string, merge bool, fields []config.Field) resultx.Result[query.Record] {
	st := s.state(collection)
	st.mu.Lock()
	defer st.mu.Unlock()

	idx := -1
	for i, rec := range st.records {
		if looseEqual(rec[primaryKey], id) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return resultx.Errf[query.Record](resultx.KindNotFound, "record %v not found in %s", id, collection)
	}

	if fields != nil {
		violations := validate.Record(data, fields, st.records, primaryKey, id, validate.ModeUpdate)
		if len(violations) > 0 {
			return resultx.Err[query.Record](validationError(violations))
		}
	}

	var updated query.Record
	if merge {
		updated = deepCopyRecord(st.records[idx])
		patch := deepCopyRecord(data)
		if err := mergo.Merge(&updated, patch, mergo.WithOverride, mergo.WithOverwriteWithEmptyValue); err != nil {
			return resultx.Errf[query.Record](resultx.KindServerInternal, "cannot merge patch: %v", err)
		}
	} else {
		updated = deepCopyRecord(data)
	}
	updated[primaryKey] = id

	st.records[idx] = updated
	return resultx.Ok(deepCopyRecord(updated))
}

// Delete removes the record identified by id, then sweeps every cascade
// target for dependent records (spec.md §3 invariant 5, single-level
// cascade). It returns ok(false) if the record did not exist.
func (s *Store) Delete(collection string, id interface{}, primaryKey string, cascades []CascadeTarget) resultx.Result[bool] {
	st := s.state(collection)
	st.mu.Lock()
	idx := -1
	for i, rec := range st.records {
		if looseEqual(rec[primaryKey], id) {
			idx = i
			break
		}
	}
	if idx < 0 {
		st.mu.Unlock()
		return resultx.Ok(false)
	}
	st.records = append(st.records[:idx], st.records[idx+1:]...)
	st.mu.Unlock()

	for _, c := range cascades {
		target := s.state(c.Collection)
		target.mu.Lock()
		kept := target.records[:0:0]
		for _, rec := range target.records {
			if !looseEqual(rec[c.ForeignKey], id) {
				kept = append(kept, rec)
			}
		}
		target.records = kept
		target.mu.Unlock()
	}

	return resultx.Ok(true)
}

// FindRelated returns records in related whose foreignKey equals id,
// with opts applied as in Query.
func (s *Store) FindRelated(related string, id interface{}, foreignKey string, opts query.Options, primaryKey string) ([]query.Record, query.Pagination) {
	st := s.state(related)
	st.mu.RLock()
	var matches []query.Record
	for _, rec := range st.records {
		if looseEqual(rec[foreignKey], id) {
			matches = append(matches, deepCopyRecord(rec))
		}
	}
	st.mu.RUnlock()

	filtered := query.ApplyFilters(matches, opts.Filters)
	sorted := query.ApplySort(filtered, opts.Sort)
	perPage := opts.PerPage
	if perPage == 0 {
		perPage = 10
	}
	page, pagination := query.ApplyPagination(sorted, opts.Page, perPage, opts.MaxPerPage)
	return query.ApplyFields(page, opts.Fields, primaryKey), pagination
}

// All returns a deep copy of every record in collection, unfiltered.
func (s *Store) All(collection string) []query.Record {
	st := s.state(collection)
	st.mu.RLock()
	defer st.mu.RUnlock()
	return deepCopyRecords(st.records)
}

func nextIntegerID(records []query.Record, primaryKey string) interface{} {
	max := 0.0
	found := false
	for _, rec := range records {
		if n, ok := asFloat(rec[primaryKey]); ok {
			if !found || n > max {
				max = n
				found = true
			}
		}
	}
	if !found {
		return 1.0
	}
	return max + 1
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// looseEqual compares two primary-key-ish values for equality,
// tolerating float64/string mismatches from JSON round-tripping.
func looseEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as == bs
	}
	return a == b
}

func validationError(violations []validate.Violation) *resultx.Error {
	err := resultx.New(resultx.KindValidation, "validation failed")
	for _, v := range violations {
		err = err.WithDetails(v.Message)
	}
	return err
}

func deepCopyRecord(rec query.Record) query.Record {
	if rec == nil {
		return nil
	}
	// round-trip through JSON to get a true deep copy of nested
	// maps/slices, matching the "callers receive deep copies" contract
	// for arbitrarily nested object/array field values.
	data, err := json.Marshal(rec)
	if err != nil {
		out := make(query.Record, len(rec))
		for k, v := range rec {
			out[k] = v
		}
		return out
	}
	var out query.Record
	_ = json.Unmarshal(data, &out)
	return out
}

func deepCopyRecords(records []query.Record) []query.Record {
	out := make([]query.Record, len(records))
	for i, rec := range records {
		out[i] = deepCopyRecord(rec)
	}
	return out
}
