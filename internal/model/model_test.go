package model

import (
	"testing"
	"time"
)

func validSchedule() Schedule {
	return Schedule{
		ID:         1,
		Name:       "morning program",
		StartDate:  "2026-03-02",
		EndDate:    "2026-03-06",
		StartTime:  "09:00",
		EndTime:    "09:30",
		RepeatType: RepeatNone,
		Playlist:   []TrackRef{{SongName: "a", SongArtist: "b", SongSrc: "/songs/a.mp3"}},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Schedule)
		wantErr bool
	}{
		{name: "ok", mutate: func(s *Schedule) {}},
		{name: "end before start", mutate: func(s *Schedule) { s.EndDate = "2026-03-01" }, wantErr: true},
		{name: "bad date", mutate: func(s *Schedule) { s.StartDate = "03/02/2026" }, wantErr: true},
		{name: "bad time", mutate: func(s *Schedule) { s.StartTime = "25:00" }, wantErr: true},
		{name: "weekly without weekdays", mutate: func(s *Schedule) { s.RepeatType = RepeatWeekly }, wantErr: true},
		{name: "weekly with weekdays", mutate: func(s *Schedule) {
			s.RepeatType = RepeatWeekly
			s.Weekdays = []string{"Mon", "Wed"}
		}},
		{name: "unknown weekday tag", mutate: func(s *Schedule) {
			s.RepeatType = RepeatWeekly
			s.Weekdays = []string{"Monday"}
		}, wantErr: true},
		{name: "month day out of range", mutate: func(s *Schedule) {
			s.RepeatType = RepeatMonthly
			s.MonthDays = []int{0}
		}, wantErr: true},
		{name: "empty playlist", mutate: func(s *Schedule) { s.Playlist = nil }, wantErr: true},
		{name: "unknown repeat", mutate: func(s *Schedule) { s.RepeatType = "yearly" }, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := validSchedule()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	t.Parallel()
	c, err := ParseClock("23:15")
	if err != nil {
		t.Fatalf("ParseClock: %v", err)
	}
	if c.Hour != 23 || c.Minute != 15 {
		t.Fatalf("unexpected result: %v", c)
	}
	if c.String() != "23:15" {
		t.Fatalf("String = %q", c.String())
	}
	for _, bad := range []string{"24:00", "12:60", "12", "aa:bb", ""} {
		if _, err := ParseClock(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestAt(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("T", 7*3600)
	got, err := At("2026-03-02", "09:00", loc)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	want := time.Date(2026, 3, 2, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("At = %v, want %v", got, want)
	}
}

func TestWeekdayTags(t *testing.T) {
	t.Parallel()
	d, ok := WeekdayTag("Wed")
	if !ok || d != time.Wednesday {
		t.Fatalf("WeekdayTag(Wed) = %v, %v", d, ok)
	}
	if _, ok := WeekdayTag("Funday"); ok {
		t.Fatal("expected unknown tag")
	}
	if TagForWeekday(time.Sunday) != "Sun" {
		t.Fatalf("TagForWeekday(Sunday) = %q", TagForWeekday(time.Sunday))
	}
}

func TestTrackNormalize(t *testing.T) {
	t.Parallel()
	tr := TrackRef{SongName: "a"}
	tr.Normalize()
	if tr.SongAvatar != DefaultAvatar {
		t.Fatalf("SongAvatar = %q", tr.SongAvatar)
	}
}
