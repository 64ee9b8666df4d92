package engine

import (
	"testing"
	"time"

	"ampsched/internal/model"
	logx "ampsched/pkg/logx"
)

func indexedFixture() []model.Schedule {
	return []model.Schedule{{
		ID:   5,
		Name: "show",
		Occurrences: []model.Occurrence{
			{ScheduleID: 5, Date: "2026-05-10", StartTime: "09:00", EndTime: "09:30"},
			{ScheduleID: 5, Date: "2026-05-11", StartTime: "09:00", EndTime: "09:30"},
		},
	}}
}

func TestBuildIndexLeadTime(t *testing.T) {
	t.Parallel()
	loc := time.UTC
	idx := buildIndex(indexedFixture(), 2*time.Minute, loc, logx.Nop())

	startAt := time.Date(2026, 5, 10, 8, 58, 0, 0, loc).Unix()
	endAt := time.Date(2026, 5, 10, 9, 30, 0, 0, loc).Unix()

	evs := idx.start[startAt]
	if len(evs) != 1 {
		t.Fatalf("expected 1 start event at lead-shifted second, got %d", len(evs))
	}
	if evs[0].EventID != "5:start:2026-05-10:09:00" {
		t.Fatalf("eventID = %q", evs[0].EventID)
	}
	if len(idx.end[endAt]) != 1 {
		t.Fatalf("expected end event at occurrence end second")
	}
	if s, e := idx.events(); s != 2 || e != 2 {
		t.Fatalf("events() = %d, %d", s, e)
	}
}

func TestBuildIndexIdempotent(t *testing.T) {
	t.Parallel()
	loc := time.UTC
	a := buildIndex(indexedFixture(), 2*time.Minute, loc, logx.Nop())
	b := buildIndex(indexedFixture(), 2*time.Minute, loc, logx.Nop())

	set := func(idx *temporalIndex) map[string]bool {
		ids := map[string]bool{}
		for _, evs := range idx.start {
			for _, ev := range evs {
				ids[ev.EventID] = true
			}
		}
		for _, evs := range idx.end {
			for _, ev := range evs {
				ids[ev.EventID] = true
			}
		}
		return ids
	}
	sa, sb := set(a), set(b)
	if len(sa) != len(sb) {
		t.Fatalf("rebuild changed event count: %d vs %d", len(sa), len(sb))
	}
	for id := range sa {
		if !sb[id] {
			t.Fatalf("rebuild lost event %s", id)
		}
	}
}

func TestBuildIndexSkipsMalformed(t *testing.T) {
	t.Parallel()
	schedules := indexedFixture()
	schedules[0].Occurrences = append(schedules[0].Occurrences,
		model.Occurrence{ScheduleID: 5, Date: "bogus", StartTime: "09:00", EndTime: "09:30"})

	idx := buildIndex(schedules, 0, time.UTC, logx.Nop())
	if s, e := idx.events(); s != 2 || e != 2 {
		t.Fatalf("malformed occurrence leaked into index: %d, %d", s, e)
	}
}
