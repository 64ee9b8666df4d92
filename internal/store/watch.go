package store

import (
	"context"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "ampsched/pkg/logx"
)

// Watcher signals "the schedule store may have changed". Notifications are
// debounced and suppressed when the file content fingerprint is unchanged
// (editors and atomic renames produce several events per logical write).
type Watcher struct {
	store    *ScheduleStore
	debounce time.Duration
	log      logx.Logger

	mu       sync.Mutex
	lastHash uint64
	onChange func()
}

func NewWatcher(store *ScheduleStore, debounce time.Duration, log logx.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Watcher{
		store:    store,
		debounce: debounce,
		log:      log,
		lastHash: store.Fingerprint(),
	}
}

// OnChange installs the callback invoked after a debounced, content-changing
// store write. Must be set before Run.
func (w *Watcher) OnChange(fn func()) { w.onChange = fn }

// MarkClean records the current content as seen, so writes performed by the
// engine itself don't echo back as an external change.
func (w *Watcher) MarkClean() {
	h := w.store.Fingerprint()
	w.mu.Lock()
	w.lastHash = h
	w.mu.Unlock()
}

func (w *Watcher) fire() {
	h := w.store.Fingerprint()
	w.mu.Lock()
	unchanged := h != 0 && h == w.lastHash
	w.lastHash = h
	fn := w.onChange
	w.mu.Unlock()

	if unchanged {
		w.log.Debug("store unchanged; skipping notify", logx.String("path", w.store.Path()))
		return
	}
	w.log.Debug("store changed", logx.String("path", w.store.Path()))
	if fn != nil {
		fn()
	}
}

// Run watches the store file until ctx is canceled.
//
// When fsnotify gets into a bad state the watcher may stop delivering events
// or close its channels. Self-heal by recreating the watcher with a small
// jittered exponential backoff.
func (w *Watcher) Run(ctx context.Context) error {
	dir := filepath.Dir(w.store.Path())
	file := filepath.Base(w.store.Path())

	const (
		restartBackoffBase = 250 * time.Millisecond
		restartBackoffMax  = 5 * time.Second
	)
	backoff := restartBackoffBase
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, w.fire)
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	wait := func() bool {
		d := backoff + time.Duration(rng.Int63n(int64(backoff/2)+1))
		if backoff < restartBackoffMax {
			backoff *= 2
			if backoff > restartBackoffMax {
				backoff = restartBackoffMax
			}
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(d):
			return true
		}
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		fw, err := fsnotify.NewWatcher()
		if err != nil {
			w.log.Warn("store watch init failed", logx.Err(err), logx.String("dir", dir))
			if !wait() {
				return nil
			}
			continue
		}
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			w.log.Warn("store watch add failed", logx.Err(err), logx.String("dir", dir))
			if !wait() {
				return nil
			}
			continue
		}

		backoff = restartBackoffBase
		w.log.Debug("store watcher started", logx.String("dir", dir), logx.String("file", file))

		broken := false
		for !broken {
			select {
			case <-ctx.Done():
				_ = fw.Close()
				return nil
			case ev, ok := <-fw.Events:
				if !ok {
					broken = true
					break
				}
				// Compare by basename (robust across absolute/relative paths).
				if strings.EqualFold(filepath.Base(ev.Name), file) {
					if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove|fsnotify.Chmod) != 0 {
						debounce()
					}
				}
			case err, ok := <-fw.Errors:
				if !ok {
					broken = true
					break
				}
				if err == nil {
					continue
				}
				// Overflow means we may have missed events; reload once and keep going.
				if strings.Contains(strings.ToLower(err.Error()), "overflow") {
					w.log.Warn("store watch overflow; forcing notify", logx.Err(err))
					debounce()
					continue
				}
				w.log.Warn("store watch error", logx.Err(err), logx.String("dir", dir))
				if strings.Contains(strings.ToLower(err.Error()), "closed") {
					broken = true
					break
				}
			}
		}

		_ = fw.Close()
		if ctx.Err() != nil {
			return nil
		}
		w.log.Warn("store watcher stopped; restarting", logx.String("dir", dir))
		if !wait() {
			return nil
		}
	}
}
