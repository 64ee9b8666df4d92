package engine

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"ampsched/internal/model"
)

func TestReconcilePrunesElapsed(t *testing.T) {
	t.Parallel()
	clk := NewMockClock(time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC))
	schedules := []model.Schedule{
		singleDaySchedule("2026-05-10", "09:00", "09:05"), // ended hours ago
		func() model.Schedule {
			s := singleDaySchedule("2026-05-10", "15:00", "16:00")
			s.ID = 43
			s.Name = "later today"
			return s
		}(),
	}
	s, _, st := newTestService(t, schedules, clk)

	persisted, err := st.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 1 || persisted[0].ID != 43 {
		t.Fatalf("elapsed schedule not pruned from store: %+v", persisted)
	}

	s.mu.Lock()
	starts, ends := s.idx.events()
	s.mu.Unlock()
	if starts != 1 || ends != 1 {
		t.Fatalf("index holds %d/%d events, want 1/1", starts, ends)
	}
}

func TestReconcileDoesNotClobberConcurrentWrites(t *testing.T) {
	t.Parallel()
	clk := NewMockClock(time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC))
	s, _, st := newTestService(t, nil, clk)

	// One elapsed schedule makes every pass dirty; the padding widens the
	// window between the pass reading the store and writing it back.
	seed := []model.Schedule{singleDaySchedule("2026-05-10", "09:00", "09:05")}
	for i := 0; i < 8; i++ {
		sch := singleDaySchedule("2026-05-10", fmt.Sprintf("%02d:00", 13+i), fmt.Sprintf("%02d:30", 13+i))
		sch.ID = int64(100 + i)
		sch.Name = fmt.Sprintf("padding %d", i)
		seed = append(seed, sch)
	}

	for round := 0; round < 25; round++ {
		if err := st.Save(seed); err != nil {
			t.Fatal(err)
		}
		prop := singleDaySchedule("2026-05-11", "09:00", "09:30")
		prop.ID = int64(1000 + round)
		prop.Name = "proposed"

		var wg sync.WaitGroup
		var propErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.reconcile()
		}()
		go func() {
			defer wg.Done()
			_, propErr = s.ProposeSchedule(prop)
		}()
		wg.Wait()
		if propErr != nil {
			t.Fatalf("round %d: propose: %v", round, propErr)
		}

		persisted, err := st.LoadAll()
		if err != nil {
			t.Fatal(err)
		}
		found := false
		for _, sch := range persisted {
			if sch.ID == prop.ID {
				found = true
			}
		}
		if !found {
			t.Fatalf("round %d: accepted schedule %d missing after concurrent reconcile (%d persisted)",
				round, prop.ID, len(persisted))
		}
	}
}

func TestReconcileGuardDropsConcurrent(t *testing.T) {
	t.Parallel()
	clk := NewMockClock(time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC))
	s, _, _ := newTestService(t, nil, clk)

	s.rebuilding.Store(true)
	before := s.droppedRebuilds.Load()
	s.reconcile()
	if got := s.droppedRebuilds.Load(); got != before+1 {
		t.Fatalf("dropped counter = %d, want %d", got, before+1)
	}
	s.rebuilding.Store(false)

	s.reconcile()
	if got := s.droppedRebuilds.Load(); got != before+1 {
		t.Fatalf("clean pass counted as dropped: %d", got)
	}
}

func TestReconcileCorruptStoreDegradesToEmpty(t *testing.T) {
	t.Parallel()
	clk := NewMockClock(time.Date(2026, 5, 10, 8, 57, 0, 0, time.UTC))
	s, gw, st := newTestService(t, []model.Schedule{singleDaySchedule("2026-05-10", "09:00", "09:05")}, clk)

	if err := os.WriteFile(st.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s.ForceReconcile()

	// Engine keeps ticking on an empty index; nothing fires.
	s.Tick(context.Background(), time.Date(2026, 5, 10, 8, 58, 0, 0, time.UTC))
	if ons, _ := gw.counts(); ons != 0 {
		t.Fatalf("fired %d ONs off a corrupt store", ons)
	}
}

func TestRequestReconcileCoalesces(t *testing.T) {
	t.Parallel()
	clk := NewMockClock(time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC))
	s, _, _ := newTestService(t, nil, clk)

	for i := 0; i < 10; i++ {
		s.RequestReconcile()
	}
	if got := len(s.reconcileReq); got != 1 {
		t.Fatalf("pending requests = %d, want 1", got)
	}
}
