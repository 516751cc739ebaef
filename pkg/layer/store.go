package layer

import (
	"sort"
	"sync"
	"time"

	"github.com/layerpipe/layerpipe/pkg/logging"
)

// Store is the process-wide registry mapping a layer id to its current
// Record. It is the single source of truth for what clients see. Updates
// replace the prior record wholesale; there is no partial merge.
//
// The store is safe for concurrent use: status polling reads race with
// background tasks finishing at different times.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
	logger  *logging.Logger
}

// NewStore creates an empty registry. Each test and each process owns its own
// instance; there is no package-level singleton.
func NewStore(logger *logging.Logger) *Store {
	return &Store{
		records: make(map[string]Record),
		logger:  logger,
	}
}

// Register inserts a new record in the uploading state. Ids are unique by
// construction, so a duplicate is logged and ignored rather than surfaced to
// the caller.
func (s *Store) Register(id, fileName string, fileSize int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; exists {
		s.logger.Error("layer id already registered", "layerId", id)
		return
	}

	s.records[id] = Record{
		ID:         id,
		Status:     StatusUploading,
		FileName:   fileName,
		FileSize:   fileSize,
		UploadDate: time.Now().UTC(),
	}
	s.logger.Info("layer registered", "layerId", id, "fileName", fileName)
}

// Transition replaces the record for id with one carrying the new status and
// the supplied fields. Provenance (fileName, fileSize, uploadDate) is carried
// over unchanged. Unknown ids and attempts to overwrite a terminal record are
// logged no-ops: background tasks may race with administrative deletion, and
// terminal states are immutable until an explicit recovery operation.
func (s *Store) Transition(id string, status Status, f Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.records[id]
	if !exists {
		s.logger.Warn("transition for unknown layer", "layerId", id, "status", status)
		return
	}
	if prev.Status.Terminal() {
		s.logger.Warn("refusing to overwrite terminal layer state",
			"layerId", id, "current", prev.Status, "requested", status)
		return
	}

	s.records[id] = buildRecord(prev, status, f)
	s.logger.Info("layer state changed", "layerId", id, "from", prev.Status, "to", status)
}

// Install replaces the record for id wholesale, bypassing the terminal-state
// guard. It is the administrative path used by the recovery and repair
// operators; regular processing must go through Transition.
func (s *Store) Install(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.ID] = rec
	s.logger.Info("layer state installed", "layerId", rec.ID, "status", rec.Status)
}

// Get returns the record for id.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	return rec, ok
}

// List returns a snapshot of all records ordered by upload date, newest
// first. The snapshot is safe to iterate while the store mutates.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadDate.Equal(out[j].UploadDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].UploadDate.After(out[j].UploadDate)
	})
	return out
}

// Delete removes the record for id without touching any persisted files.
// Administrative use only.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; !exists {
		return false
	}
	delete(s.records, id)
	s.logger.Info("layer deleted from registry", "layerId", id)
	return true
}

// Clear removes every record and returns how many were dropped.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.records)
	s.records = make(map[string]Record)
	return n
}

// Len returns the number of registered layers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// buildRecord derives the replacement record for a transition, keeping
// provenance and dropping fields the new status must not carry.
func buildRecord(prev Record, status Status, f Fields) Record {
	rec := Record{
		ID:         prev.ID,
		Status:     status,
		FileName:   prev.FileName,
		FileSize:   prev.FileSize,
		UploadDate: prev.UploadDate,
		CRS:        prev.CRS,
	}
	if f.CRS != "" {
		rec.CRS = f.CRS
	}

	switch status {
	case StatusProcessed:
		rec.ImageURL = f.ImageURL
		rec.Bounds = f.Bounds
		rec.Width = f.Width
		rec.Height = f.Height
	case StatusError:
		rec.Error = f.Error
	}
	return rec
}
