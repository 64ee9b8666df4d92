package engine

import (
	"errors"
	"time"

	"ampsched/internal/model"
	"ampsched/internal/store"
	logx "ampsched/pkg/logx"
)

// reconcile runs the full reload-prune-persist-reindex cycle.
//
// Guarded so only one pass proceeds at a time: a request arriving while a
// pass is in flight is dropped, because the store is the source of truth
// and the next periodic sweep re-observes the same content.
func (s *Service) reconcile() {
	if !s.rebuilding.CompareAndSwap(false, true) {
		s.droppedRebuilds.Add(1)
		s.log.Debug("rebuild already in progress; dropping request")
		return
	}
	defer s.rebuilding.Store(false)

	started := time.Now()
	now := s.clock.Now()

	// Load, prune, and persist under the store's one lock so a CRUD write
	// landing mid-pass is never overwritten by the pruned save.
	var (
		pruned []model.Schedule
		dirty  bool
	)
	err := s.sched.Mutate(func(cur []model.Schedule) ([]model.Schedule, error) {
		pruned, dirty = s.pruneSchedules(cur, now)
		if !dirty {
			return nil, store.ErrNoChange
		}
		return pruned, nil
	})
	switch {
	case err == nil:
		if dirty && s.watcher != nil {
			s.watcher.MarkClean()
		}
	case errors.Is(err, store.ErrUnavailable):
		// Degrade to an empty set and keep ticking.
		s.log.Warn("schedule store unavailable; running on empty set", logx.Err(err))
		pruned, dirty = nil, false
	default:
		// The pruned view is fresh even when the save failed; persistence
		// catches up on the next pass.
		s.log.Warn("persisting pruned schedules failed", logx.Err(err))
	}

	idx := buildIndex(pruned, s.cfg.LeadTime, s.loc, s.log)

	s.mu.Lock()
	s.idx = idx
	s.mu.Unlock()

	starts, ends := idx.events()
	s.lastReconcile.Store(time.Now().UnixMilli())
	s.reconcileTook.Store(time.Since(started).Microseconds())
	s.log.Debug("reconcile done",
		logx.Int("schedules", len(pruned)),
		logx.Int("start_events", starts),
		logx.Int("end_events", ends),
		logx.Bool("store_rewritten", dirty),
		logx.Duration("took", time.Since(started)))
}

// pruneSchedules re-expands every schedule, drops occurrences whose end has
// passed, and drops schedules left with none. Returns the pruned set and
// whether it differs from what the store holds.
func (s *Service) pruneSchedules(schedules []model.Schedule, now time.Time) ([]model.Schedule, bool) {
	opts := ExpandOptions{NoneRepeatDaily: s.cfg.NoneRepeatDaily}

	kept := make([]model.Schedule, 0, len(schedules))
	dirty := false
	for _, sch := range schedules {
		fresh := Expand(sch, opts, s.log)
		live := PruneExpired(fresh, now, s.loc)
		if len(live) == 0 {
			s.log.Info("schedule fully elapsed; removing",
				logx.Int64("schedule", sch.ID), logx.String("name", sch.Name))
			dirty = true
			continue
		}
		if !sameOccurrences(sch.Occurrences, live) {
			dirty = true
		}
		sch.Occurrences = live
		kept = append(kept, sch)
	}
	return kept, dirty
}

func sameOccurrences(a, b []model.Occurrence) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Date != b[i].Date || a[i].StartTime != b[i].StartTime || a[i].EndTime != b[i].EndTime {
			return false
		}
	}
	return true
}

// removeOccurrence durably drops one finished occurrence after its OFF
// trigger fired, then requests a rebuild.
func (s *Service) removeOccurrence(ev IndexEvent) {
	err := s.sched.Mutate(func(cur []model.Schedule) ([]model.Schedule, error) {
		out := cur[:0]
		for _, sch := range cur {
			if sch.ID == ev.ScheduleID {
				occs := sch.Occurrences[:0]
				for _, o := range sch.Occurrences {
					if o.Date == ev.Date && o.StartTime == ev.StartTime && o.EndTime == ev.EndTime {
						continue
					}
					occs = append(occs, o)
				}
				sch.Occurrences = occs
				if len(occs) == 0 {
					// Last occurrence gone; the schedule goes with it.
					continue
				}
			}
			out = append(out, sch)
		}
		return out, nil
	})
	if err != nil {
		s.log.Warn("removing finished occurrence failed",
			logx.String("event", ev.EventID), logx.Err(err))
		return
	}
	if s.watcher != nil {
		s.watcher.MarkClean()
	}
	s.RequestReconcile()
}
