package engine

import (
	"context"
	"time"

	"ampsched/internal/history"
	logx "ampsched/pkg/logx"
)

// Tick looks up the index for the current second (± tolerance), fires every
// not-yet-triggered event, and garbage-collects stale triggered records.
//
// Dedup guarantees at-most-one trigger per event ID within the retention
// window; the tolerance window guarantees at-least-one as long as the
// process keeps ticking through it.
func (s *Service) Tick(ctx context.Context, now time.Time) {
	nowSec := now.Unix()
	tol := int64(s.cfg.ToleranceSec)

	// Ends fire before starts. When one occurrence's end coincides with the
	// lead-shifted start of the next, the pass must leave the amplifier ON
	// for the upcoming occurrence, not OFF.
	var due []IndexEvent
	s.mu.Lock()
	for off := -tol; off <= tol; off++ {
		key := nowSec + off
		for _, ev := range s.idx.end[key] {
			if _, seen := s.triggered[ev.EventID]; seen {
				continue
			}
			s.triggered[ev.EventID] = now
			due = append(due, ev)
		}
	}
	for off := -tol; off <= tol; off++ {
		key := nowSec + off
		for _, ev := range s.idx.start[key] {
			if _, seen := s.triggered[ev.EventID]; seen {
				continue
			}
			s.triggered[ev.EventID] = now
			due = append(due, ev)
		}
	}
	s.gcTriggeredLocked(now)
	s.mu.Unlock()

	// Actuate outside the lock; sends may touch slow hardware.
	for _, ev := range due {
		s.fire(ctx, ev, now)
	}
}

func (s *Service) fire(ctx context.Context, ev IndexEvent, now time.Time) {
	var sendErr error
	switch ev.Kind {
	case KindStart:
		s.log.Info("schedule starting soon; amplifier ON",
			logx.String("schedule", ev.ScheduleName), logx.String("date", ev.Date),
			logx.String("start", ev.StartTime))
		sendErr = s.gw.SendOn(ctx)
	case KindEnd:
		s.log.Info("schedule ended; amplifier OFF",
			logx.String("schedule", ev.ScheduleName), logx.String("date", ev.Date),
			logx.String("end", ev.EndTime))
		sendErr = s.gw.SendOff(ctx)
	}
	if sendErr != nil {
		// Best-effort: the event stays marked as triggered. Blind resends
		// until the hardware answers would be an actuation storm; the
		// retention window expiring plus the schedule condition still
		// holding is the only path to another attempt.
		s.log.Warn("actuator send failed",
			logx.String("event", ev.EventID), logx.Err(sendErr))
	}

	s.recordTrigger(ctx, ev, now, sendErr)

	if ev.Kind == KindEnd {
		// The occurrence is finished; remove it durably and rebuild.
		s.removeOccurrence(ev)
	}
}

func (s *Service) recordTrigger(ctx context.Context, ev IndexEvent, now time.Time, sendErr error) {
	if s.hist == nil {
		return
	}
	kind := "on"
	if ev.Kind == KindEnd {
		kind = "off"
	}
	e := history.TriggerEntry{
		At:           now,
		EventID:      ev.EventID,
		ScheduleID:   ev.ScheduleID,
		ScheduleName: ev.ScheduleName,
		Kind:         kind,
		Date:         ev.Date,
		StartTime:    ev.StartTime,
		EndTime:      ev.EndTime,
	}
	if sendErr != nil {
		e.SendError = sendErr.Error()
	}
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.hist.AppendTrigger(hctx, e); err != nil {
		s.log.Warn("history append failed", logx.Err(err))
	}
}

// gcTriggeredLocked drops dedup records past the retention window. Caller
// holds mu.
func (s *Service) gcTriggeredLocked(now time.Time) {
	// Sweep at most once per half retention; the map stays tiny.
	if now.Sub(s.lastGC) < s.cfg.TriggeredRetention/2 {
		return
	}
	s.lastGC = now
	for id, at := range s.triggered {
		if now.Sub(at) > s.cfg.TriggeredRetention {
			delete(s.triggered, id)
		}
	}
}
