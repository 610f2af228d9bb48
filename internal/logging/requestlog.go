package logging

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one completed request's log record, per spec.md §3's log
// entry shape.
type Entry struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Method         string    `json:"method"`
	URL            string    `json:"url"`
	Status         int       `json:"status"`
	ResponseTimeMS int64     `json:"responseTimeMs"`
	UserAgent      string    `json:"userAgent,omitempty"`
	IP             string    `json:"ip,omitempty"`
}

// Manager is a bounded ring buffer of request log entries. Append and
// read-snapshot are mutually exclusive (spec.md §5.7).
type Manager struct {
	mu      sync.Mutex
	entries []Entry
	max     int
}

// NewManager returns a manager capped at max entries (spec.md default
// 1000, applied by the caller via config defaults).
func NewManager(max int) *Manager {
	if max <= 0 {
		max = 1000
	}
	return &Manager{max: max}
}

// Append records one completed request, dropping the oldest entry if
// the buffer is at capacity.
func (m *Manager) Append(e Entry) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	if len(m.entries) > m.max {
		m.entries = m.entries[len(m.entries)-m.max:]
	}
}

// Filter narrows a GetLogs query. Zero values are "unconstrained".
type Filter struct {
	Method      string
	Status      int
	URLContains string
	StatusClass string // "4xx" or "5xx"
}

// GetLogs returns every entry, newest last, as a copy of the buffer.
func (m *Manager) GetLogs() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// GetFilteredLogs returns a copy of every entry matching f.
func (m *Manager) GetFilteredLogs(f Filter) []Entry {
	m.mu.Lock()
	snapshot := make([]Entry, len(m.entries))
	copy(snapshot, m.entries)
	m.mu.Unlock()

	var out []Entry
	for _, e := range snapshot {
		if f.Method != "" && !strings.EqualFold(e.Method, f.Method) {
			continue
		}
		if f.Status != 0 && e.Status != f.Status {
			continue
		}
		if f.URLContains != "" && !strings.Contains(e.URL, f.URLContains) {
			continue
		}
		if f.StatusClass != "" && !matchesStatusClass(e.Status, f.StatusClass) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchesStatusClass(status int, class string) bool {
	class = strings.ToLower(class)
	s := strconv.Itoa(status)
	if len(s) != 3 || len(class) != 3 {
		return false
	}
	return s[0] == class[0]
}
