package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/renameio/v2"

	"ampsched/internal/model"
	logx "ampsched/pkg/logx"
)

// TrackStore owns songs.json plus the uploaded audio files beneath songsDir.
// Track entries reference their file via SongSrc ("/songs/<filename>").
type TrackStore struct {
	path     string
	songsDir string
	log      logx.Logger

	mu sync.Mutex
}

func NewTrackStore(path, songsDir string, log logx.Logger) *TrackStore {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &TrackStore{path: path, songsDir: songsDir, log: log}
}

func (s *TrackStore) SongsDir() string { return s.songsDir }

func (s *TrackStore) List() ([]model.TrackRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *TrackStore) loadLocked() ([]model.TrackRef, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var out []model.TrackRef
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, s.path, err)
	}
	for i := range out {
		out[i].Normalize()
	}
	return out, nil
}

func (s *TrackStore) saveLocked(tracks []model.TrackRef) error {
	if tracks == nil {
		tracks = []model.TrackRef{}
	}
	b, err := json.MarshalIndent(tracks, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	pf, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending songs file: %w", err)
	}
	defer func() {
		if err := pf.Cleanup(); err != nil {
			s.log.Debug("cleanup pending songs file", logx.Err(err))
		}
	}()
	if _, err := pf.Write(b); err != nil {
		return fmt.Errorf("write songs: %w", err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace songs file: %w", err)
	}
	return nil
}

// SaveUpload streams an uploaded file into the songs directory and appends
// the track entry. The filename is flattened to its base to keep uploads
// inside songsDir.
func (s *TrackStore) SaveUpload(filename string, r io.Reader, track model.TrackRef) (model.TrackRef, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return model.TrackRef{}, fmt.Errorf("invalid filename %q", filename)
	}
	if err := os.MkdirAll(s.songsDir, 0o755); err != nil {
		return model.TrackRef{}, err
	}

	dst := filepath.Join(s.songsDir, name)
	f, err := os.Create(dst)
	if err != nil {
		return model.TrackRef{}, err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return model.TrackRef{}, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return model.TrackRef{}, err
	}

	track.SongSrc = "/songs/" + name
	track.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	tracks, err := s.loadLocked()
	if err != nil {
		return model.TrackRef{}, err
	}
	tracks = append(tracks, track)
	if err := s.saveLocked(tracks); err != nil {
		return model.TrackRef{}, err
	}
	s.log.Info("track uploaded", logx.String("file", name), logx.String("song", track.SongName))
	return track, nil
}

// Remove deletes the audio file and drops every entry referencing it.
func (s *TrackStore) Remove(filename string) error {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." {
		return ErrNotFound
	}

	if err := os.Remove(filepath.Join(s.songsDir, name)); err != nil && !os.IsNotExist(err) {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tracks, err := s.loadLocked()
	if err != nil {
		return err
	}
	kept := tracks[:0]
	removed := false
	for _, t := range tracks {
		if strings.HasSuffix(t.SongSrc, "/"+name) {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	if !removed {
		return ErrNotFound
	}
	if err := s.saveLocked(kept); err != nil {
		return err
	}
	s.log.Info("track removed", logx.String("file", name))
	return nil
}
