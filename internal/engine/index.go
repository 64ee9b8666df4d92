package engine

import (
	"fmt"
	"time"

	"ampsched/internal/model"
	logx "ampsched/pkg/logx"
)

// TriggerKind distinguishes the two trigger maps.
type TriggerKind string

const (
	KindStart TriggerKind = "start"
	KindEnd   TriggerKind = "end"
)

// IndexEvent is one due trigger inside the temporal index.
//
// EventID is deterministic across rebuilds: the same (schedule,
// occurrence, kind) tuple always produces the same ID, so the triggered
// record survives index rebuilds and an already-fired event is never fired
// again just because the store changed.
type IndexEvent struct {
	EventID      string           `json:"eventId"`
	Kind         TriggerKind      `json:"kind"`
	ScheduleID   int64            `json:"scheduleId"`
	ScheduleName string           `json:"scheduleName"`
	Date         string           `json:"date"`
	StartTime    string           `json:"startTime"`
	EndTime      string           `json:"endTime"`
	Playlist     []model.TrackRef `json:"-"`
}

func eventID(scheduleID int64, kind TriggerKind, date, clock string) string {
	return fmt.Sprintf("%d:%s:%s:%s", scheduleID, kind, date, clock)
}

// temporalIndex maps unix seconds to the events due at that instant.
// Start triggers are shifted earlier by the lead time; end triggers sit on
// the occurrence end. The index is immutable once built; reconciliation
// swaps in a fresh one wholesale.
type temporalIndex struct {
	start map[int64][]IndexEvent
	end   map[int64][]IndexEvent
}

func newTemporalIndex() *temporalIndex {
	return &temporalIndex{
		start: map[int64][]IndexEvent{},
		end:   map[int64][]IndexEvent{},
	}
}

// buildIndex indexes every occurrence of every schedule. A malformed
// occurrence is skipped with a warning, never fatal to the build.
func buildIndex(schedules []model.Schedule, leadTime time.Duration, loc *time.Location, log logx.Logger) *temporalIndex {
	if log.IsZero() {
		log = logx.Nop()
	}
	if loc == nil {
		loc = time.Local
	}

	idx := newTemporalIndex()
	for _, sch := range schedules {
		for _, occ := range sch.Occurrences {
			startAt, err := model.At(occ.Date, occ.StartTime, loc)
			if err != nil {
				log.Warn("skipping malformed occurrence",
					logx.Int64("schedule", sch.ID), logx.String("date", occ.Date), logx.Err(err))
				continue
			}
			endAt, err := model.At(occ.Date, occ.EndTime, loc)
			if err != nil {
				log.Warn("skipping malformed occurrence",
					logx.Int64("schedule", sch.ID), logx.String("date", occ.Date), logx.Err(err))
				continue
			}

			startSec := startAt.Add(-leadTime).Unix()
			endSec := endAt.Unix()

			idx.start[startSec] = append(idx.start[startSec], IndexEvent{
				EventID:      eventID(sch.ID, KindStart, occ.Date, occ.StartTime),
				Kind:         KindStart,
				ScheduleID:   sch.ID,
				ScheduleName: sch.Name,
				Date:         occ.Date,
				StartTime:    occ.StartTime,
				EndTime:      occ.EndTime,
				Playlist:     sch.Playlist,
			})
			idx.end[endSec] = append(idx.end[endSec], IndexEvent{
				EventID:      eventID(sch.ID, KindEnd, occ.Date, occ.EndTime),
				Kind:         KindEnd,
				ScheduleID:   sch.ID,
				ScheduleName: sch.Name,
				Date:         occ.Date,
				StartTime:    occ.StartTime,
				EndTime:      occ.EndTime,
				Playlist:     sch.Playlist,
			})
		}
	}
	return idx
}

func (idx *temporalIndex) events() (starts, ends int) {
	for _, evs := range idx.start {
		starts += len(evs)
	}
	for _, evs := range idx.end {
		ends += len(evs)
	}
	return
}
