package persistence

import (
	"sync"
	"time"

	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/alexberriman/pretendo-sub001/internal/resultx"
	"github.com/google/uuid"
)

// Memory is the in-memory persistence adapter: it holds the state map
// directly, and backup/restore operate on copied snapshots keyed by a
// caller-supplied or generated label. Each record map is copied; nested
// object and array values inside a record are shared, not copied.
type Memory struct {
	mu      sync.Mutex
	state   State
	backups map[string]State
	stats   map[string]Stats
}

// NewMemory returns an empty in-memory adapter.
func NewMemory() *Memory {
	return &Memory{
		state:   State{},
		backups: map[string]State{},
		stats:   map[string]Stats{},
	}
}

func (m *Memory) Initialize(initial State) *resultx.Error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = deepCopyState(initial)
	m.touchAll()
	return nil
}

func (m *Memory) Load() resultx.Result[State] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return resultx.Ok(deepCopyState(m.state))
}

func (m *Memory) Save(state State) *resultx.Error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = deepCopyState(state)
	m.touchAll()
	return nil
}

func (m *Memory) Backup(label string) resultx.Result[string] {
	m.mu.Lock()
	defer m.mu.Unlock()
	if label == "" {
		label = uuid.New().String()
	}
	m.backups[label] = deepCopyState(m.state)
	return resultx.Ok(label)
}

func (m *Memory) Restore(id string) resultx.Result[State] {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot, ok := m.backups[id]
	if !ok {
		return resultx.Errf[State](resultx.KindNotFound, "no backup %q", id)
	}
	m.state = deepCopyState(snapshot)
	m.touchAll()
	return resultx.Ok(deepCopyState(m.state))
}

func (m *Memory) Reset() *resultx.Error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = State{}
	m.stats = map[string]Stats{}
	return nil
}

func (m *Memory) GetStats() map[string]Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Stats, len(m.stats))
	for k, v := range m.stats {
		out[k] = v
	}
	return out
}

func (m *Memory) touchAll() {
	now := time.Now()
	m.stats = make(map[string]Stats, len(m.state))
	for name, recs := range m.state {
		m.stats[name] = Stats{Count: len(recs), LastModified: now}
	}
}

func deepCopyState(s State) State {
	out := make(State, len(s))
	for name, recs := range s {
		copied := make([]query.Record, len(recs))
		for i, rec := range recs {
			copied[i] = deepCopyRecord(rec)
		}
		out[name] = copied
	}
	return out
}

func deepCopyRecord(rec query.Record) query.Record {
	out := make(query.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
