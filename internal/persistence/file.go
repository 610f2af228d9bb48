package persistence

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alexberriman/pretendo-sub001/internal/resultx"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// File is the atomic, autosaving file-JSON persistence adapter of
// spec.md §4.5. save writes to a temp file, fsyncs, then renames over
// the target path so a crash mid-write never corrupts the on-disk
// state. A concurrent Save never overlaps another: writes serialize on
// mu. With autosave enabled, Save only records the latest state, and a
// tick writes it only if it changed since the last autosave write, so
// redundant saves coalesce (spec.md §5.3).
type File struct {
	mu   sync.Mutex
	path string

	autoSave     bool
	saveInterval time.Duration
	ticker       *time.Ticker
	stopAutosave chan struct{}

	pending      State
	hasPending   bool
	lastSavedRev uint64
	rev          uint64
}

// FileOptions configures the file adapter.
type FileOptions struct {
	Path         string
	AutoSave     bool
	SaveInterval time.Duration // default 5s
}

// NewFile returns a file adapter bound to opts.Path, starting its
// autosave timer if requested.
func NewFile(opts FileOptions) *File {
	interval := opts.SaveInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	f := &File{path: opts.Path, autoSave: opts.AutoSave, saveInterval: interval}
	if f.autoSave {
		f.startAutosave()
	}
	return f
}

func (f *File) startAutosave() {
	f.ticker = time.NewTicker(f.saveInterval)
	f.stopAutosave = make(chan struct{})
	go func() {
		for {
			select {
			case <-f.ticker.C:
				f.flushPending()
			case <-f.stopAutosave:
				return
			}
		}
	}()
}

// Stop halts the autosave timer, flushing any pending state first.
func (f *File) Stop() {
	if f.ticker == nil {
		return
	}
	f.flushPending()
	f.ticker.Stop()
	close(f.stopAutosave)
}

func (f *File) flushPending() {
	f.mu.Lock()
	if !f.hasPending || f.rev == f.lastSavedRev {
		f.mu.Unlock()
		return
	}
	state := f.pending
	rev := f.rev
	f.mu.Unlock()

	if err := f.writeAtomic(state); err != nil {
		// autosave errors are logged here, never propagated
		logrus.WithError(err).Warn("autosave failed")
		return
	}
	f.mu.Lock()
	f.lastSavedRev = rev
	f.mu.Unlock()
}

func (f *File) Initialize(initial State) *resultx.Error {
	if _, err := os.Stat(f.path); os.IsNotExist(err) {
		if err := f.writeAtomic(initial); err != nil {
			return resultx.New(resultx.KindIO, "cannot initialize file store: %v", err)
		}
	}
	return nil
}

func (f *File) Load() resultx.Result[State] {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		if werr := f.writeAtomic(State{}); werr != nil {
			return resultx.Errf[State](resultx.KindIO, "cannot create empty store file: %v", werr)
		}
		return resultx.Ok(State{})
	}
	if err != nil {
		return resultx.Errf[State](resultx.KindIO, "cannot read store file: %v", err)
	}
	if len(data) == 0 {
		return resultx.Ok(State{})
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return resultx.Errf[State](resultx.KindIO, "cannot parse store file: %v", err)
	}
	return resultx.Ok(state)
}

func (f *File) Save(state State) *resultx.Error {
	if f.autoSave {
		f.mu.Lock()
		f.rev++
		f.pending = state
		f.hasPending = true
		f.mu.Unlock()
		return nil
	}
	if err := f.writeAtomic(state); err != nil {
		return resultx.New(resultx.KindIO, "cannot save store file: %v", err)
	}
	return nil
}

// writeAtomic writes state to a temp file beside path, fsyncs it, then
// renames it over path.
func (f *File) writeAtomic(state State) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, f.path)
}

// Backup copies the current file to <path>.<iso-timestamp>.backup, with
// ':' and '.' in the timestamp replaced by '-' (spec.md §6 persisted
// state). A caller-supplied path is used verbatim instead.
func (f *File) Backup(label string) resultx.Result[string] {
	backupPath := label
	if backupPath == "" {
		stamp := strings.NewReplacer(":", "-", ".", "-").Replace(time.Now().UTC().Format(time.RFC3339Nano))
		backupPath = fmt.Sprintf("%s.%s.backup", f.path, stamp)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	src, err := os.Open(f.path)
	if err != nil {
		return resultx.Errf[string](resultx.KindIO, "cannot open store file for backup: %v", err)
	}
	defer src.Close()

	dst, err := os.Create(backupPath)
	if err != nil {
		return resultx.Errf[string](resultx.KindIO, "cannot create backup file: %v", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return resultx.Errf[string](resultx.KindIO, "cannot write backup file: %v", err)
	}
	return resultx.Ok(backupPath)
}

// Restore copies the backup file over the main file and reloads.
func (f *File) Restore(id string) resultx.Result[State] {
	f.mu.Lock()
	src, err := os.Open(id)
	if err != nil {
		f.mu.Unlock()
		return resultx.Errf[State](resultx.KindNotFound, "cannot open backup %q: %v", id, err)
	}
	dst, err := os.Create(f.path)
	if err != nil {
		src.Close()
		f.mu.Unlock()
		return resultx.Errf[State](resultx.KindIO, "cannot overwrite store file: %v", err)
	}
	_, copyErr := io.Copy(dst, src)
	src.Close()
	dst.Close()
	f.mu.Unlock()
	if copyErr != nil {
		return resultx.Errf[State](resultx.KindIO, "cannot restore backup: %v", copyErr)
	}
	return f.Load()
}

func (f *File) Reset() *resultx.Error {
	if err := f.writeAtomic(State{}); err != nil {
		return resultx.New(resultx.KindIO, "cannot reset store file: %v", err)
	}
	return nil
}

func (f *File) GetStats() map[string]Stats {
	result := f.Load()
	state, err := result.Unwrap()
	if err != nil {
		return nil
	}
	info, statErr := os.Stat(f.path)
	modTime := time.Now()
	if statErr == nil {
		modTime = info.ModTime()
	}
	stats := make(map[string]Stats, len(state))
	for name, recs := range state {
		stats[name] = Stats{Count: len(recs), LastModified: modTime}
	}
	return stats
}
