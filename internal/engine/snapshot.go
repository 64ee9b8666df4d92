package engine

import (
	"sort"
	"time"
)

// UpcomingEvent is one future trigger in the diagnostics view.
type UpcomingEvent struct {
	At    time.Time  `json:"at"`
	Event IndexEvent `json:"event"`
}

// Snapshot is a read-only diagnostics view of the engine.
type Snapshot struct {
	Enabled  bool   `json:"enabled"`
	Timezone string `json:"timezone"`

	LeadTime     time.Duration `json:"lead_time"`
	ToleranceSec int           `json:"tolerance_sec"`

	StartEvents int `json:"start_events"`
	EndEvents   int `json:"end_events"`
	Triggered   int `json:"triggered"`

	LastReconcile   time.Time     `json:"last_reconcile"`
	ReconcileTook   time.Duration `json:"reconcile_took"`
	DroppedRebuilds uint64        `json:"dropped_rebuilds"`

	Upcoming []UpcomingEvent `json:"upcoming,omitempty"`
}

// Snapshot returns a point-in-time view for diagnostics output. Not a
// synchronization primitive.
func (s *Service) Snapshot(upcoming int) Snapshot {
	s.mu.Lock()
	idx := s.idx
	triggered := len(s.triggered)
	s.mu.Unlock()

	starts, ends := idx.events()
	snap := Snapshot{
		Enabled:         s.cfg.Enabled,
		Timezone:        s.loc.String(),
		LeadTime:        s.cfg.LeadTime,
		ToleranceSec:    s.cfg.ToleranceSec,
		StartEvents:     starts,
		EndEvents:       ends,
		Triggered:       triggered,
		DroppedRebuilds: s.droppedRebuilds.Load(),
		ReconcileTook:   time.Duration(s.reconcileTook.Load()) * time.Microsecond,
	}
	if ms := s.lastReconcile.Load(); ms > 0 {
		snap.LastReconcile = time.UnixMilli(ms)
	}

	if upcoming > 0 {
		snap.Upcoming = s.upcoming(idx, upcoming)
	}
	return snap
}

func (s *Service) upcoming(idx *temporalIndex, limit int) []UpcomingEvent {
	nowSec := s.clock.Now().Unix()
	var out []UpcomingEvent
	collect := func(m map[int64][]IndexEvent) {
		for sec, evs := range m {
			if sec < nowSec {
				continue
			}
			for _, ev := range evs {
				out = append(out, UpcomingEvent{At: time.Unix(sec, 0).In(s.loc), Event: ev})
			}
		}
	}
	collect(idx.start)
	collect(idx.end)

	sort.Slice(out, func(i, j int) bool {
		if !out[i].At.Equal(out[j].At) {
			return out[i].At.Before(out[j].At)
		}
		return out[i].Event.EventID < out[j].Event.EventID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
