package engine

import (
	"errors"
	"testing"
	"time"

	"ampsched/internal/model"
)

func TestProposeScheduleAssignsIDAndPersists(t *testing.T) {
	t.Parallel()
	clk := NewMockClock(time.Date(2026, 5, 9, 12, 0, 0, 0, time.UTC))
	s, _, st := newTestService(t, nil, clk)

	sch := singleDaySchedule("2026-05-10", "09:00", "09:05")
	sch.ID = 0
	got, err := s.ProposeSchedule(sch)
	if err != nil {
		t.Fatal(err)
	}
	if want := clk.Now().UnixMilli(); got.ID != want {
		t.Fatalf("assigned ID = %d, want clock millis %d", got.ID, want)
	}
	if len(got.Occurrences) != 1 {
		t.Fatalf("occurrences = %+v", got.Occurrences)
	}

	persisted, err := st.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 1 || persisted[0].ID != got.ID {
		t.Fatalf("persisted = %+v", persisted)
	}
}

func TestProposeScheduleConflict(t *testing.T) {
	t.Parallel()
	clk := NewMockClock(time.Date(2026, 5, 9, 12, 0, 0, 0, time.UTC))
	s, _, _ := newTestService(t, []model.Schedule{singleDaySchedule("2026-05-10", "09:00", "10:00")}, clk)

	sch := singleDaySchedule("2026-05-10", "09:30", "10:30")
	sch.ID = 0
	_, err := s.ProposeSchedule(sch)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	var ce *ConflictError
	if !errors.As(err, &ce) || ce.With.ScheduleID != 42 {
		t.Fatalf("conflict detail = %+v", err)
	}

	// The rejected schedule must not have been persisted.
	schedules, err := s.Schedules()
	if err != nil {
		t.Fatal(err)
	}
	if len(schedules) != 1 {
		t.Fatalf("store changed on rejected proposal: %+v", schedules)
	}
}

func TestProposeScheduleNoOccurrences(t *testing.T) {
	t.Parallel()
	clk := NewMockClock(time.Date(2026, 5, 9, 12, 0, 0, 0, time.UTC))
	s, _, _ := newTestService(t, nil, clk)

	// 2026-05-10 is a Sunday; a weekly Monday schedule over that single day
	// expands to nothing.
	sch := singleDaySchedule("2026-05-10", "09:00", "10:00")
	sch.RepeatType = model.RepeatWeekly
	sch.Weekdays = []string{"Mon"}
	if _, err := s.ProposeSchedule(sch); !errors.Is(err, ErrNoOccurrences) {
		t.Fatalf("err = %v, want ErrNoOccurrences", err)
	}
}

func TestUpdateScheduleSelfNoConflict(t *testing.T) {
	t.Parallel()
	clk := NewMockClock(time.Date(2026, 5, 9, 12, 0, 0, 0, time.UTC))
	s, _, _ := newTestService(t, []model.Schedule{singleDaySchedule("2026-05-10", "09:00", "10:00")}, clk)

	upd := singleDaySchedule("2026-05-10", "09:15", "09:45")
	got, err := s.UpdateSchedule(42, upd)
	if err != nil {
		t.Fatalf("self-overlapping update rejected: %v", err)
	}
	if got.StartTime != "09:15" {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestUpdateScheduleNotFound(t *testing.T) {
	t.Parallel()
	clk := NewMockClock(time.Date(2026, 5, 9, 12, 0, 0, 0, time.UTC))
	s, _, _ := newTestService(t, nil, clk)

	if _, err := s.UpdateSchedule(999, singleDaySchedule("2026-05-10", "09:00", "10:00")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteSchedule(t *testing.T) {
	t.Parallel()
	clk := NewMockClock(time.Date(2026, 5, 9, 12, 0, 0, 0, time.UTC))
	s, _, st := newTestService(t, []model.Schedule{singleDaySchedule("2026-05-10", "09:00", "10:00")}, clk)

	if err := s.DeleteSchedule(42); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteSchedule(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
	schedules, err := st.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(schedules) != 0 {
		t.Fatalf("store not empty after delete: %+v", schedules)
	}
}

func TestSnapshotUpcoming(t *testing.T) {
	t.Parallel()
	clk := NewMockClock(time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC))
	s, _, _ := newTestService(t, []model.Schedule{singleDaySchedule("2026-05-10", "09:00", "09:05")}, clk)

	snap := s.Snapshot(10)
	if snap.StartEvents != 1 || snap.EndEvents != 1 {
		t.Fatalf("snapshot events = %d/%d", snap.StartEvents, snap.EndEvents)
	}
	if len(snap.Upcoming) != 2 {
		t.Fatalf("upcoming = %+v", snap.Upcoming)
	}
	// Sorted: lead-shifted ON (08:58) before OFF (09:05).
	if snap.Upcoming[0].Event.Kind != KindStart || snap.Upcoming[1].Event.Kind != KindEnd {
		t.Fatalf("upcoming order: %+v", snap.Upcoming)
	}
}
