package engine

import (
	"ampsched/internal/model"
	logx "ampsched/pkg/logx"
)

// Schedules returns the current durable schedule list.
func (s *Service) Schedules() ([]model.Schedule, error) {
	return s.sched.LoadAll()
}

// ProposeSchedule validates, expands, and conflict-checks a new schedule,
// then persists it. A zero ID is assigned from the clock (unix millis,
// matching the IDs historical store files carry).
func (s *Service) ProposeSchedule(sch model.Schedule) (model.Schedule, error) {
	sch.Normalize()
	if err := sch.Validate(); err != nil {
		return model.Schedule{}, err
	}
	if sch.ID == 0 {
		sch.ID = s.clock.Now().UnixMilli()
	}

	occs := Expand(sch, ExpandOptions{NoneRepeatDaily: s.cfg.NoneRepeatDaily}, s.log)
	if len(occs) == 0 {
		return model.Schedule{}, ErrNoOccurrences
	}
	sch.Occurrences = occs

	err := s.sched.Mutate(func(cur []model.Schedule) ([]model.Schedule, error) {
		if c := FindConflict(occs, cur, sch.ID); c != nil {
			return nil, &ConflictError{With: *c}
		}
		return append(cur, sch), nil
	})
	if err != nil {
		return model.Schedule{}, err
	}

	s.markCleanAndRebuild()
	s.log.Info("schedule accepted",
		logx.Int64("id", sch.ID), logx.String("name", sch.Name),
		logx.Int("occurrences", len(occs)))
	return sch, nil
}

// UpdateSchedule replaces an existing schedule, re-running expansion and
// the conflict check (the schedule never conflicts with itself).
func (s *Service) UpdateSchedule(id int64, sch model.Schedule) (model.Schedule, error) {
	sch.ID = id
	sch.Normalize()
	if err := sch.Validate(); err != nil {
		return model.Schedule{}, err
	}

	occs := Expand(sch, ExpandOptions{NoneRepeatDaily: s.cfg.NoneRepeatDaily}, s.log)
	if len(occs) == 0 {
		return model.Schedule{}, ErrNoOccurrences
	}
	sch.Occurrences = occs

	err := s.sched.Mutate(func(cur []model.Schedule) ([]model.Schedule, error) {
		at := -1
		for i := range cur {
			if cur[i].ID == id {
				at = i
				break
			}
		}
		if at < 0 {
			return nil, ErrNotFound
		}
		if c := FindConflict(occs, cur, id); c != nil {
			return nil, &ConflictError{With: *c}
		}
		cur[at] = sch
		return cur, nil
	})
	if err != nil {
		return model.Schedule{}, err
	}

	s.markCleanAndRebuild()
	s.log.Info("schedule updated", logx.Int64("id", id), logx.String("name", sch.Name))
	return sch, nil
}

// DeleteSchedule removes a schedule by ID.
func (s *Service) DeleteSchedule(id int64) error {
	err := s.sched.Mutate(func(cur []model.Schedule) ([]model.Schedule, error) {
		out := cur[:0]
		found := false
		for _, sch := range cur {
			if sch.ID == id {
				found = true
				continue
			}
			out = append(out, sch)
		}
		if !found {
			return nil, ErrNotFound
		}
		return out, nil
	})
	if err != nil {
		return err
	}

	s.markCleanAndRebuild()
	s.log.Info("schedule deleted", logx.Int64("id", id))
	return nil
}

// markCleanAndRebuild keeps an engine-side store write from echoing back
// through the change watcher, then schedules the rebuild it needs anyway.
func (s *Service) markCleanAndRebuild() {
	if s.watcher != nil {
		s.watcher.MarkClean()
	}
	s.RequestReconcile()
}
