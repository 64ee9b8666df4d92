package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "ampsched/pkg/logx"
)

// fileStore appends triggers to a JSON Lines file. Reads scan the whole
// file; trigger volume is a handful of lines per day, so that's fine.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	path string
	f    *os.File
}

type triggerRecord struct {
	At           int64  `json:"at"` // unix milli
	EventID      string `json:"event_id"`
	ScheduleID   int64  `json:"schedule_id"`
	ScheduleName string `json:"schedule_name"`
	Kind         string `json:"kind"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	SendError    string `json:"send_error,omitempty"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("history.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &fileStore{log: log, path: path, f: f}, nil
}

func (s *fileStore) AppendTrigger(ctx context.Context, e TriggerEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	rec := triggerRecord{
		At:           e.At.UnixMilli(),
		EventID:      e.EventID,
		ScheduleID:   e.ScheduleID,
		ScheduleName: e.ScheduleName,
		Kind:         e.Kind,
		Date:         e.Date,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		SendError:    e.SendError,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return ErrDisabled
	}
	_, err = s.f.Write(b)
	return err
}

func (s *fileStore) RecentTriggers(ctx context.Context, limit int) ([]TriggerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	s.mu.Lock()
	path := s.path
	s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var all []TriggerEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec triggerRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			s.log.Warn("skipping corrupt history line", logx.Err(err))
			continue
		}
		all = append(all, TriggerEntry{
			At:           time.UnixMilli(rec.At),
			EventID:      rec.EventID,
			ScheduleID:   rec.ScheduleID,
			ScheduleName: rec.ScheduleName,
			Kind:         rec.Kind,
			Date:         rec.Date,
			StartTime:    rec.StartTime,
			EndTime:      rec.EndTime,
			SendError:    rec.SendError,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
