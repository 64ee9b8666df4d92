package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"

	"ampsched/internal/model"
	logx "ampsched/pkg/logx"
)

// ScheduleStore persists the schedule list as a single JSON array.
type ScheduleStore struct {
	path string
	log  logx.Logger

	// mu serializes Save against LoadAll so a reconcile never interleaves
	// with a CRUD write.
	mu sync.Mutex
}

func NewScheduleStore(path string, log logx.Logger) *ScheduleStore {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &ScheduleStore{path: path, log: log}
}

func (s *ScheduleStore) Path() string { return s.path }

// LoadAll reads every schedule. A missing file is an empty set, not an
// error. A corrupt file is reported as ErrUnavailable; the engine keeps
// ticking on an empty set in that case.
func (s *ScheduleStore) LoadAll() ([]model.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *ScheduleStore) loadLocked() ([]model.Schedule, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var out []model.Schedule
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, s.path, err)
	}
	for i := range out {
		out[i].Normalize()
		for j := range out[i].Occurrences {
			out[i].Occurrences[j].ScheduleID = out[i].ID
		}
	}
	return out, nil
}

// Save atomically replaces the schedule list.
func (s *ScheduleStore) Save(schedules []model.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(schedules)
}

func (s *ScheduleStore) saveLocked(schedules []model.Schedule) error {
	if schedules == nil {
		schedules = []model.Schedule{}
	}
	b, err := json.MarshalIndent(schedules, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	// renameio: temp file + fsync + atomic rename, cleanup on error.
	pf, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending schedules file: %w", err)
	}
	defer func() {
		if err := pf.Cleanup(); err != nil {
			s.log.Debug("cleanup pending schedules file", logx.Err(err))
		}
	}()
	if _, err := pf.Write(b); err != nil {
		return fmt.Errorf("write schedules: %w", err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace schedules file: %w", err)
	}
	return nil
}

// Mutate runs fn over the current list and saves the result under one lock
// so concurrent writers don't lose each other's updates. Returning
// ErrNoChange from fn skips the save and Mutate returns nil.
func (s *ScheduleStore) Mutate(fn func([]model.Schedule) ([]model.Schedule, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.loadLocked()
	if err != nil {
		return err
	}
	next, err := fn(cur)
	if err != nil {
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}
	return s.saveLocked(next)
}

// Fingerprint hashes the file content. Zero means unreadable/missing.
func (s *ScheduleStore) Fingerprint() uint64 {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return 0
	}
	return hashBytes(b)
}

func hashBytes(b []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
