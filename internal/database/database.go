// Package database wires the store, a persistence adapter, and the
// relationship expander into per-resource operation handles, per
// spec.md §4.5. Every mutating call that succeeds triggers a save;
// the file-JSON adapter debounces via its own autosave timer when
// enabled, otherwise every write goes straight to disk.
package database

import (
	"context"

	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/events"
	"github.com/alexberriman/pretendo-sub001/internal/expand"
	"github.com/alexberriman/pretendo-sub001/internal/persistence"
	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/alexberriman/pretendo-sub001/internal/resultx"
	"github.com/alexberriman/pretendo-sub001/internal/special"
	"github.com/alexberriman/pretendo-sub001/internal/store"
)

// DefaultExpandDepth bounds relationship traversal per spec.md §4.4.
const DefaultExpandDepth = 3

// Database wires the store, the configured persistence adapter, and
// the relationship resolver, and exposes one Resource handle per
// configured resource.
type Database struct {
	doc       config.Document
	store     *store.Store
	adapter   persistence.Adapter
	publisher *events.Publisher
}

// SetPublisher attaches the change-event publisher every mutating
// resource operation notifies after a successful save. Passing nil
// disables notifications.
func (d *Database) SetPublisher(p *events.Publisher) {
	d.publisher = p
}

// New builds a Database from a parsed document and seeds the store
// from the adapter's persisted state if any, falling back to the
// document's own seed/data blocks.
func New(doc config.Document, adapter persistence.Adapter) (*Database, *resultx.Error) {
	db := &Database{doc: doc, store: store.New(), adapter: adapter}

	loaded := adapter.Load()
	state, err := loaded.Unwrap()
	if err != nil {
		return nil, err
	}

	if len(state) == 0 {
		state = seedState(doc)
		if initErr := adapter.Initialize(state); initErr != nil {
			return nil, initErr
		}
	}
	for name, recs := range state {
		db.store.Seed(name, recs)
	}
	// Ensure every declared resource has a (possibly empty) collection so
	// list endpoints on unseeded resources return an empty page, not a
	// not-found.
	for _, r := range doc.Resources {
		if _, ok := state[r.Name]; !ok {
			db.store.Seed(r.Name, nil)
		}
	}
	return db, nil
}

func seedState(doc config.Document) map[string][]query.Record {
	state := map[string][]query.Record{}
	for _, r := range doc.Resources {
		recs := make([]query.Record, 0, len(r.Seed))
		for _, raw := range r.Seed {
			recs = append(recs, query.Record(raw))
		}
		state[r.Name] = recs
	}
	for name, raw := range doc.Data {
		recs := make([]query.Record, 0, len(raw))
		for _, r := range raw {
			recs = append(recs, query.Record(r))
		}
		state[name] = recs
	}
	return state
}

// Document returns the configuration document the database was built
// from.
func (d *Database) Document() config.Document {
	return d.doc
}

// ResourceByName implements expand.Resolver.
func (d *Database) ResourceByName(name string) (config.Resource, bool) {
	for _, r := range d.doc.Resources {
		if r.Name == name {
			return r, true
		}
	}
	return config.Resource{}, false
}

// Get implements expand.Resolver.
func (d *Database) Get(resource string, id interface{}) query.Record {
	res, ok := d.ResourceByName(resource)
	if !ok {
		return nil
	}
	return d.store.Get(resource, id, res.PrimaryKeyOrDefault())
}

// FindByForeignKey implements expand.Resolver.
func (d *Database) FindByForeignKey(resource, foreignKey string, id interface{}) []query.Record {
	res, ok := d.ResourceByName(resource)
	if !ok {
		return nil
	}
	recs, _ := d.store.FindRelated(resource, id, foreignKey, query.Options{PerPage: maxPerPage(d.doc)}, res.PrimaryKeyOrDefault())
	return recs
}

// JoinPairs implements expand.Resolver for manyToMany relationships: it
// scans the join collection (through) for rows where sourceKey equals
// id, and returns the targetKey value of every matching row.
func (d *Database) JoinPairs(through string, id interface{}, sourceKey, targetKey string) []interface{} {
	rows := d.store.All(through)
	var out []interface{}
	for _, row := range rows {
		if looseEqual(row[sourceKey], id) {
			out = append(out, row[targetKey])
		}
	}
	return out
}

func looseEqual(a, b interface{}) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func toFloat(v interface{}) (float64, bool) {
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

func maxPerPage(doc config.Document) int {
	if doc.Options.MaxPageSize > 0 {
		return doc.Options.MaxPageSize
	}
	return 100
}

// Resource returns an operation handle bound to the named resource, or
// ok(false) if no such resource is configured.
func (d *Database) Resource(name string) (*ResourceHandle, bool) {
	res, ok := d.ResourceByName(name)
	if !ok {
		return nil, false
	}
	return &ResourceHandle{db: d, resource: res}, true
}

// Resources returns every configured resource schema.
func (d *Database) Resources() []config.Resource {
	return d.doc.Resources
}

// Snapshot returns a deep copy of the entire dataset (used by admin
// backup endpoints and OpenAPI example generation).
func (d *Database) Snapshot() map[string][]query.Record {
	return d.store.Snapshot()
}

// Reset restores the dataset to the document's original seed/data
// blocks and persists the result.
func (d *Database) Reset() *resultx.Error {
	state := seedState(d.doc)
	d.store.Reset(state)
	if err := d.adapter.Reset(); err != nil {
		return err
	}
	return d.adapter.Save(state)
}

// Backup snapshots the current dataset to the adapter's backup store.
func (d *Database) Backup(label string) resultx.Result[string] {
	return d.adapter.Backup(label)
}

// Restore replaces the dataset with a previously taken backup.
func (d *Database) Restore(id string) *resultx.Error {
	restored := d.adapter.Restore(id)
	state, err := restored.Unwrap()
	if err != nil {
		return err
	}
	d.store.Reset(state)
	return nil
}

// Stats exposes per-collection counts and freshness from the adapter.
func (d *Database) Stats() map[string]persistence.Stats {
	return d.adapter.GetStats()
}

// ResourceHandle is the per-resource operation surface named in
// spec.md §4.5: findAll, findById, findOne, create, update, patch,
// delete, findRelated.
type ResourceHandle struct {
	db       *Database
	resource config.Resource
}

// FindAll runs a filtered/sorted/paginated query and expands any
// requested relationship paths on each returned record.
func (h *ResourceHandle) FindAll(opts query.Options, expandPaths []string) resultx.Result[FindAllResult] {
	records, pagination := h.db.store.Query(h.resource.Name, opts, h.primaryKey())
	for i := range records {
		if err := expand.Expand(h.db, h.resource.Name, records[i], expandPaths, DefaultExpandDepth); err != nil {
			return resultx.Err[FindAllResult](err)
		}
	}
	return resultx.Ok(FindAllResult{Records: records, Pagination: pagination})
}

// FindAllResult bundles a page of records with its pagination metadata.
type FindAllResult struct {
	Records    []query.Record
	Pagination query.Pagination
}

// FindByID fetches a single record by primary key, expanding the
// requested relationship paths.
func (h *ResourceHandle) FindByID(id interface{}, expandPaths []string) resultx.Result[query.Record] {
	rec := h.db.store.Get(h.resource.Name, id, h.primaryKey())
	if rec == nil {
		return resultx.Errf[query.Record](resultx.KindNotFound, "record %v not found in %s", id, h.resource.Name)
	}
	if err := expand.Expand(h.db, h.resource.Name, rec, expandPaths, DefaultExpandDepth); err != nil {
		return resultx.Err[query.Record](err)
	}
	return resultx.Ok(rec)
}

// FindOne returns the first record matching opts' filters, or
// not-found if none match.
func (h *ResourceHandle) FindOne(opts query.Options, expandPaths []string) resultx.Result[query.Record] {
	opts.Page = 1
	opts.PerPage = 1
	records, _ := h.db.store.Query(h.resource.Name, opts, h.primaryKey())
	if len(records) == 0 {
		return resultx.Errf[query.Record](resultx.KindNotFound, "no record in %s matches the query", h.resource.Name)
	}
	rec := records[0]
	if err := expand.Expand(h.db, h.resource.Name, rec, expandPaths, DefaultExpandDepth); err != nil {
		return resultx.Err[query.Record](err)
	}
	return resultx.Ok(rec)
}

// Create inserts a new record after filling special-field defaults,
// then persists the resulting dataset and notifies the change-event
// publisher.
func (h *ResourceHandle) Create(ctx context.Context, input query.Record, userID interface{}) resultx.Result[query.Record] {
	rec := cloneRecord(input)
	special.Apply(rec, h.resource.Fields, h.db.store.All(h.resource.Name), h.primaryKey(), userID, special.ModeInsert)

	result := h.db.store.Add(h.resource.Name, rec, h.primaryKey(), h.resource.Fields)
	if !result.IsOk() {
		return result
	}
	if err := h.db.persist(); err != nil {
		return resultx.Err[query.Record](err)
	}
	h.db.publisher.Publish(ctx, events.Change{Resource: h.resource.Name, Action: events.ActionCreate, ID: result.Value()[h.primaryKey()], Record: result.Value()})
	return result
}

// Update replaces the record wholesale (PUT semantics).
func (h *ResourceHandle) Update(ctx context.Context, id interface{}, input query.Record, userID interface{}) resultx.Result[query.Record] {
	rec := cloneRecord(input)
	special.Apply(rec, h.resource.Fields, h.db.store.All(h.resource.Name), h.primaryKey(), userID, special.ModeUpdate)

	result := h.db.store.Update(h.resource.Name, id, rec, h.primaryKey(), false, h.resource.Fields)
	if !result.IsOk() {
		return result
	}
	if err := h.db.persist(); err != nil {
		return resultx.Err[query.Record](err)
	}
	h.db.publisher.Publish(ctx, events.Change{Resource: h.resource.Name, Action: events.ActionUpdate, ID: id, Record: result.Value()})
	return result
}

// Patch shallow-merges input over the existing record (PATCH
// semantics).
func (h *ResourceHandle) Patch(ctx context.Context, id interface{}, input query.Record, userID interface{}) resultx.Result[query.Record] {
	rec := cloneRecord(input)
	special.Apply(rec, h.resource.Fields, h.db.store.All(h.resource.Name), h.primaryKey(), userID, special.ModeUpdate)

	result := h.db.store.Update(h.resource.Name, id, rec, h.primaryKey(), true, h.resource.Fields)
	if !result.IsOk() {
		return result
	}
	if err := h.db.persist(); err != nil {
		return resultx.Err[query.Record](err)
	}
	h.db.publisher.Publish(ctx, events.Change{Resource: h.resource.Name, Action: events.ActionUpdate, ID: id, Record: result.Value()})
	return result
}

// Delete removes the record and sweeps every single-level cascade
// target derived from the hasMany/hasOne relationships declared on
// this resource (see cascadeTargets).
func (h *ResourceHandle) Delete(ctx context.Context, id interface{}) resultx.Result[bool] {
	result := h.db.store.Delete(h.resource.Name, id, h.primaryKey(), h.db.cascadeTargets(h.resource.Name))
	if !result.IsOk() {
		return result
	}
	if err := h.db.persist(); err != nil {
		return resultx.Err[bool](err)
	}
	if result.Value() {
		h.db.publisher.Publish(ctx, events.Change{Resource: h.resource.Name, Action: events.ActionDelete, ID: id})
	}
	return result
}

// FindRelated resolves a named relationship's targets for id, applying
// opts as in FindAll.
func (h *ResourceHandle) FindRelated(relationshipName string, id interface{}, opts query.Options) resultx.Result[FindAllResult] {
	for _, rel := range h.resource.Relationships {
		if rel.Name != relationshipName {
			continue
		}
		target, ok := h.db.ResourceByName(rel.Resource)
		if !ok {
			return resultx.Errf[FindAllResult](resultx.KindNotFound, "related resource %q not configured", rel.Resource)
		}
		switch rel.Type {
		case config.RelBelongsTo:
			source := h.db.store.Get(h.resource.Name, id, h.primaryKey())
			if source == nil || source[rel.ForeignKey] == nil {
				return resultx.Ok(FindAllResult{})
			}
			rec := h.db.store.Get(rel.Resource, source[rel.ForeignKey], target.PrimaryKeyOrDefault())
			if rec == nil {
				return resultx.Ok(FindAllResult{})
			}
			return resultx.Ok(FindAllResult{Records: []query.Record{rec}, Pagination: query.Pagination{TotalItems: 1, TotalPages: 1, CurrentPage: 1, PerPage: 1}})
		case config.RelHasOne, config.RelHasMany:
			records, pagination := h.db.store.FindRelated(rel.Resource, id, rel.ForeignKey, opts, target.PrimaryKeyOrDefault())
			return resultx.Ok(FindAllResult{Records: records, Pagination: pagination})
		case config.RelManyToMany:
			ids := h.db.JoinPairs(rel.Through, id, h.primaryKey(), rel.ForeignKey)
			var records []query.Record
			for _, tid := range ids {
				if rec := h.db.store.Get(rel.Resource, tid, target.PrimaryKeyOrDefault()); rec != nil {
					records = append(records, rec)
				}
			}
			return resultx.Ok(FindAllResult{Records: records, Pagination: query.Pagination{TotalItems: len(records), TotalPages: 1, CurrentPage: 1, PerPage: len(records)}})
		}
	}
	return resultx.Errf[FindAllResult](resultx.KindNotFound, "relationship %q not declared on %s", relationshipName, h.resource.Name)
}

func (h *ResourceHandle) primaryKey() string {
	return h.resource.PrimaryKeyOrDefault()
}

func cloneRecord(rec query.Record) query.Record {
	out := make(query.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// cascadeTargets derives the single-level cascade list for a deleted
// resource: every hasMany/hasOne relationship declared on that
// resource itself contributes its target collection and foreign key
// (spec.md §3 invariant 5 — deleting a user with a hasMany "posts"
// relationship removes every post whose foreignKey matches the user).
func (d *Database) cascadeTargets(resourceName string) []store.CascadeTarget {
	res, ok := d.ResourceByName(resourceName)
	if !ok {
		return nil
	}
	var targets []store.CascadeTarget
	for _, rel := range res.Relationships {
		if rel.Type == config.RelHasMany || rel.Type == config.RelHasOne {
			targets = append(targets, store.CascadeTarget{Collection: rel.Resource, ForeignKey: rel.ForeignKey})
		}
	}
	return targets
}

func (d *Database) persist() *resultx.Error {
	return d.adapter.Save(d.store.Snapshot())
}
