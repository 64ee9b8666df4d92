// Package model holds the shared schedule domain types.
//
// Schedules are persisted as JSON; field names match the on-disk store files
// (schedules.json / songs.json) so existing data keeps loading.
package model

import (
	"errors"
	"fmt"
	"strings"
)

type RepeatType string

const (
	RepeatNone    RepeatType = "none"
	RepeatWeekly  RepeatType = "weekly"
	RepeatMonthly RepeatType = "monthly"
)

// DefaultAvatar is used when an uploaded track has no cover image.
const DefaultAvatar = "./Assets/Images/image.png"

// TrackRef is an immutable reference to an uploaded track. The engine never
// owns the audio bytes; SongSrc points into the served songs directory.
type TrackRef struct {
	SongName   string `json:"songName"`
	SongArtist string `json:"songArtist"`
	SongSrc    string `json:"songSrc"`
	SongAvatar string `json:"songAvatar,omitempty"`
}

// Normalize fills defaulted fields.
func (t *TrackRef) Normalize() {
	if strings.TrimSpace(t.SongAvatar) == "" {
		t.SongAvatar = DefaultAvatar
	}
}

// Schedule is the durable unit owned by the schedule store.
//
// Dates are "2006-01-02" and times-of-day are "HH:MM" (minute resolution),
// both kept as strings to match the store format; parse helpers live in
// clock.go.
type Schedule struct {
	ID         int64      `json:"id"`
	Name       string     `json:"scheduleName"`
	StartDate  string     `json:"startDate"`
	EndDate    string     `json:"endDate"`
	StartTime  string     `json:"startTime"`
	EndTime    string     `json:"endTime"`
	RepeatType RepeatType `json:"repeatType"`

	// Weekdays holds "Sun".."Sat" tags; only used when RepeatType is weekly.
	Weekdays []string `json:"weekdays,omitempty"`

	// MonthDays holds day-of-month values 1..31; only used when RepeatType is
	// monthly. When empty, the day-of-month of StartDate applies.
	MonthDays []int `json:"monthDays,omitempty"`

	Playlist []TrackRef `json:"playlist"`

	// Occurrences are derived by expansion and re-derived on every
	// reconciliation; they are persisted alongside the schedule only so the
	// store file stays self-describing.
	Occurrences []Occurrence `json:"occurrences,omitempty"`
}

// Occurrence is one concrete calendar-dated instantiation of a Schedule.
type Occurrence struct {
	ScheduleID int64  `json:"-"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

var (
	ErrInvalidSchedule = errors.New("invalid schedule")
)

// Validate checks the structural invariants a schedule must satisfy before
// expansion. Calendar validity of individual days is checked lazily by the
// expander (a bad day is skipped, not fatal).
func (s *Schedule) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidSchedule)
	}
	start, err := ParseDate(s.StartDate)
	if err != nil {
		return fmt.Errorf("%w: startDate: %v", ErrInvalidSchedule, err)
	}
	end, err := ParseDate(s.EndDate)
	if err != nil {
		return fmt.Errorf("%w: endDate: %v", ErrInvalidSchedule, err)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: endDate before startDate", ErrInvalidSchedule)
	}
	if _, err := ParseClock(s.StartTime); err != nil {
		return fmt.Errorf("%w: startTime: %v", ErrInvalidSchedule, err)
	}
	if _, err := ParseClock(s.EndTime); err != nil {
		return fmt.Errorf("%w: endTime: %v", ErrInvalidSchedule, err)
	}
	switch s.RepeatType {
	case RepeatNone, RepeatMonthly:
	case RepeatWeekly:
		if len(s.Weekdays) == 0 {
			return fmt.Errorf("%w: weekly repeat without weekdays", ErrInvalidSchedule)
		}
		for _, d := range s.Weekdays {
			if _, ok := WeekdayTag(d); !ok {
				return fmt.Errorf("%w: unknown weekday %q", ErrInvalidSchedule, d)
			}
		}
	case "":
		return fmt.Errorf("%w: missing repeatType", ErrInvalidSchedule)
	default:
		return fmt.Errorf("%w: unknown repeatType %q", ErrInvalidSchedule, s.RepeatType)
	}
	for _, d := range s.MonthDays {
		if d < 1 || d > 31 {
			return fmt.Errorf("%w: monthDay %d out of range", ErrInvalidSchedule, d)
		}
	}
	if len(s.Playlist) == 0 {
		return fmt.Errorf("%w: empty playlist", ErrInvalidSchedule)
	}
	return nil
}

// Normalize fills playlist defaults in place.
func (s *Schedule) Normalize() {
	for i := range s.Playlist {
		s.Playlist[i].Normalize()
	}
}
