package engine

import (
	"slices"
	"time"

	"ampsched/internal/model"
	logx "ampsched/pkg/logx"
)

// ExpandOptions tunes occurrence expansion.
type ExpandOptions struct {
	// NoneRepeatDaily controls the "none" repeat policy. When true (the
	// store's historical behavior) a non-repeating schedule yields one
	// occurrence per calendar day across its whole date range; when false
	// it yields a single occurrence on the first day.
	NoneRepeatDaily bool
}

// Expand turns a schedule definition into concrete occurrences.
//
// Malformed date or time fields never abort the expansion: the offending
// day is skipped with a warning and iteration continues. An empty result is
// the caller's concern (ErrNoOccurrences at proposal time), not an error
// here.
//
// Monthly repeat: an explicit MonthDays set is authoritative when present;
// otherwise the day-of-month of StartDate applies.
func Expand(s model.Schedule, opts ExpandOptions, log logx.Logger) []model.Occurrence {
	if log.IsZero() {
		log = logx.Nop()
	}

	start, err := model.ParseDate(s.StartDate)
	if err != nil {
		log.Warn("skipping schedule with malformed startDate",
			logx.Int64("schedule", s.ID), logx.Err(err))
		return nil
	}
	end, err := model.ParseDate(s.EndDate)
	if err != nil {
		log.Warn("skipping schedule with malformed endDate",
			logx.Int64("schedule", s.ID), logx.Err(err))
		return nil
	}
	if _, err := model.ParseClock(s.StartTime); err != nil {
		log.Warn("skipping schedule with malformed startTime",
			logx.Int64("schedule", s.ID), logx.Err(err))
		return nil
	}
	if _, err := model.ParseClock(s.EndTime); err != nil {
		log.Warn("skipping schedule with malformed endTime",
			logx.Int64("schedule", s.ID), logx.Err(err))
		return nil
	}

	var out []model.Occurrence
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		include := false
		switch s.RepeatType {
		case model.RepeatNone:
			include = opts.NoneRepeatDaily || day.Equal(start)
		case model.RepeatWeekly:
			include = slices.Contains(s.Weekdays, model.TagForWeekday(day.Weekday()))
		case model.RepeatMonthly:
			if len(s.MonthDays) > 0 {
				include = slices.Contains(s.MonthDays, day.Day())
			} else {
				include = day.Day() == start.Day()
			}
		default:
			log.Warn("unknown repeatType; skipping schedule",
				logx.Int64("schedule", s.ID), logx.String("repeat", string(s.RepeatType)))
			return nil
		}
		if !include {
			continue
		}
		out = append(out, model.Occurrence{
			ScheduleID: s.ID,
			Date:       day.Format(model.DateLayout),
			StartTime:  s.StartTime,
			EndTime:    s.EndTime,
		})
	}
	return out
}

// PruneExpired drops occurrences whose end instant is strictly in the past.
func PruneExpired(occs []model.Occurrence, now time.Time, loc *time.Location) []model.Occurrence {
	kept := occs[:0]
	for _, o := range occs {
		endAt, err := model.At(o.Date, o.EndTime, loc)
		if err != nil {
			// Unparseable end: keep it out of the pruned set, it can never fire.
			continue
		}
		if endAt.Before(now) {
			continue
		}
		kept = append(kept, o)
	}
	return kept
}
