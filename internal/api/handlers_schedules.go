package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ampsched/internal/model"
)

// scheduleRequest is the wire shape clients post. The playlist rides in
// "songs"; the persisted schedule stores it as "playlist".
type scheduleRequest struct {
	Name       string           `json:"scheduleName"`
	StartDate  string           `json:"startDate"`
	EndDate    string           `json:"endDate"`
	StartTime  string           `json:"startTime"`
	EndTime    string           `json:"endTime"`
	RepeatType model.RepeatType `json:"repeatType"`
	Weekdays   []string         `json:"weekdays"`
	MonthDays  []int            `json:"monthDays"`
	Songs      []model.TrackRef `json:"songs"`
}

func (req scheduleRequest) toSchedule() model.Schedule {
	return model.Schedule{
		Name:       req.Name,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		RepeatType: req.RepeatType,
		Weekdays:   req.Weekdays,
		MonthDays:  req.MonthDays,
		Playlist:   req.Songs,
	}
}

func (s *Server) handleListSchedules(w http.ResponseWriter, _ *http.Request) {
	schedules, err := s.eng.Schedules()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if schedules == nil {
		schedules = []model.Schedule{}
	}
	writeJSON(w, http.StatusOK, schedules)
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed schedule body")
		return
	}
	sch, err := s.eng.ProposeSchedule(req.toSchedule())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Schedule created successfully",
		"schedule": sch,
	})
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := scheduleID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid schedule id")
		return
	}
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed schedule body")
		return
	}
	sch, err := s.eng.UpdateSchedule(id, req.toSchedule())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Schedule updated successfully",
		"schedule": sch,
	})
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := scheduleID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid schedule id")
		return
	}
	if err := s.eng.DeleteSchedule(id); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Schedule deleted successfully"})
}

func scheduleID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
