package engine

import "ampsched/internal/model"

// Conflict identifies the existing occurrence a proposal collides with.
type Conflict struct {
	ScheduleID   int64  `json:"scheduleId"`
	ScheduleName string `json:"scheduleName"`
	Date         string `json:"date"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
}

// FindConflict reports the first overlap between the proposed occurrences
// and the occurrences of existing schedules, or nil when the proposal is
// clean. skipID excludes a schedule from the comparison so updates don't
// conflict with themselves.
//
// Two occurrences conflict iff they share a calendar date and their
// half-open intervals overlap: newStart < existingEnd && newEnd >
// existingStart. Zero-padded "HH:MM" strings order lexicographically, so
// plain string comparison is exact. Adjacent intervals (10:00-11:00 vs
// 11:00-12:00) do not conflict.
//
// O(existing x new); schedule counts are small, so no interval tree.
func FindConflict(newOccs []model.Occurrence, existing []model.Schedule, skipID int64) *Conflict {
	for _, sch := range existing {
		if sch.ID == skipID {
			continue
		}
		for _, ex := range sch.Occurrences {
			for _, no := range newOccs {
				if no.Date != ex.Date {
					continue
				}
				if no.StartTime < ex.EndTime && no.EndTime > ex.StartTime {
					return &Conflict{
						ScheduleID:   sch.ID,
						ScheduleName: sch.Name,
						Date:         ex.Date,
						StartTime:    ex.StartTime,
						EndTime:      ex.EndTime,
					}
				}
			}
		}
	}
	return nil
}
