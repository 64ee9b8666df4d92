package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"ampsched/internal/actuator"
	"ampsched/internal/history"
	logx "ampsched/pkg/logx"
)

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	upcoming := 10
	if raw := r.URL.Query().Get("upcoming"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 && n <= 100 {
			upcoming = n
		}
	}
	writeJSON(w, http.StatusOK, s.eng.Snapshot(upcoming))
}

type manualPlayRequest struct {
	Action string `json:"action"` // "play" | "pause" | "stop"
}

// handleManualPlay drives the amplifier directly, outside any schedule.
func (s *Server) handleManualPlay(w http.ResponseWriter, r *http.Request) {
	var req manualPlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	var err error
	switch req.Action {
	case "play":
		s.log.Info("manual play; amplifier ON")
		err = s.gw.SendOn(r.Context())
	case "pause", "stop":
		s.log.Info("manual stop; amplifier OFF")
		err = s.gw.SendOff(r.Context())
	default:
		writeError(w, http.StatusBadRequest, "Invalid action")
		return
	}
	if err != nil {
		if errors.Is(err, actuator.ErrThrottled) {
			writeError(w, http.StatusTooManyRequests, "actuator busy")
			return
		}
		s.log.Warn("manual actuation failed", logx.Err(err))
		writeError(w, http.StatusBadGateway, "amplifier unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Signal sent: " + req.Action})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		writeError(w, http.StatusNotFound, "history disabled")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	entries, err := s.hist.RecentTriggers(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "history unavailable")
		return
	}
	if entries == nil {
		entries = []history.TriggerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
