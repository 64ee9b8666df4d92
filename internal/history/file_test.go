package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "ampsched/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{}, logx.Nop())
	if err != nil || st != nil {
		t.Fatalf("expected disabled store, got %v, %v", st, err)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "triggers.jsonl")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 2, 8, 58, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := st.AppendTrigger(ctx, TriggerEntry{
			At:           base.Add(time.Duration(i) * time.Minute),
			EventID:      "1:on:2026-03-02:09:00",
			ScheduleID:   1,
			ScheduleName: "morning",
			Kind:         "on",
			Date:         "2026-03-02",
			StartTime:    "09:00",
			EndTime:      "09:30",
		})
		if err != nil {
			t.Fatalf("AppendTrigger: %v", err)
		}
	}

	got, err := st.RecentTriggers(ctx, 3)
	if err != nil {
		t.Fatalf("RecentTriggers: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if !got[0].At.Before(got[2].At) {
		t.Fatal("expected ascending order")
	}
	if got[0].ScheduleName != "morning" || got[0].Kind != "on" {
		t.Fatalf("unexpected entry: %+v", got[0])
	}
}

func TestFileStoreMissingPathEmpty(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "never-written.jsonl")
	st, err := openFile(Config{Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("openFile: %v", err)
	}
	defer st.Close()
	// Nothing appended yet; file exists but is empty.
	got, err := st.RecentTriggers(context.Background(), 10)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty, got %v, %v", got, err)
	}
}
