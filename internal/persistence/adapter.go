// Package persistence implements the pluggable storage adapters of
// spec.md §4.5: an in-memory adapter, an atomic file-JSON adapter with
// autosave and backup/restore, and an opt-in S3 backup target.
package persistence

import (
	"time"

	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/alexberriman/pretendo-sub001/internal/resultx"
)

// State is the full persisted dataset: collection name to its records.
type State = map[string][]query.Record

// Stats describes one collection's size and freshness.
type Stats struct {
	Count        int
	LastModified time.Time
}

// Adapter is the persistence contract every backend must satisfy.
type Adapter interface {
	Initialize(initial State) *resultx.Error
	Load() resultx.Result[State]
	Save(state State) *resultx.Error
	Backup(label string) resultx.Result[string]
	Restore(id string) resultx.Result[State]
	Reset() *resultx.Error
	GetStats() map[string]Stats
}
