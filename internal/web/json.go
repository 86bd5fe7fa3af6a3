package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sweeney/timely/internal/logic"
	"github.com/sweeney/timely/internal/status"
	"github.com/sweeney/timely/internal/store"
)

// PreviewJSON is the response of /preview.json: one timer's state at a
// chosen instant, computed directly from its configuration.
type PreviewJSON struct {
	At    string           `json:"at"`
	Timer status.TimerJSON `json:"timer"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}

// handlePreview serves /preview.json?id=<timer>[&at=<RFC3339>].
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.timers == nil {
		http.NotFound(w, r)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "missing id"})
		return
	}

	at := s.now()
	if v := r.URL.Query().Get("at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorJSON{Error: "at must be RFC3339"})
			return
		}
		at = t
	}

	cfg, err := s.timers.Timer(id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorJSON{Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: err.Error()})
		return
	}

	cfg = s.pinEpoch(cfg)
	st, err := logic.ComputeStateWeekStart(cfg, at, s.timers.Settings().WeekStart())
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorJSON{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, PreviewJSON{
		At: at.UTC().Format(time.RFC3339),
		Timer: status.FormatTimer(status.Timer{
			ID:       cfg.ID,
			Name:     cfg.Name,
			Enabled:  cfg.Enabled,
			Duration: cfg.Duration,
			State:    st,
			HasState: true,
		}),
	})
}

// pinEpoch gives a now-mode timer without a start time the epoch the
// scheduler counts it from, recovered from the tracked state. A timer not
// tracked yet counts from the first preview that asked for it.
func (s *Server) pinEpoch(cfg logic.TimerConfig) logic.TimerConfig {
	if cfg.StartMode == logic.StartAligned || cfg.FixedStartTime != nil || !cfg.Enabled {
		return cfg
	}
	epoch, ok := s.trackedEpoch(cfg)
	if !ok {
		s.mu.Lock()
		epoch, ok = s.epochs[cfg.ID]
		if !ok {
			epoch = s.now()
			s.epochs[cfg.ID] = epoch
		}
		s.mu.Unlock()
	}
	cfg.FixedStartTime = &epoch
	return cfg
}

func (s *Server) trackedEpoch(cfg logic.TimerConfig) (time.Time, bool) {
	if s.tracker == nil {
		return time.Time{}, false
	}
	length, err := cfg.Duration.Length()
	if err != nil || length <= 0 {
		return time.Time{}, false
	}
	for _, t := range s.tracker.Snapshot().Timers {
		if t.ID == cfg.ID && t.HasState && t.State.IsActive {
			return t.State.CurrentCycleStart.Add(-time.Duration(t.State.CycleCount) * length), true
		}
	}
	return time.Time{}, false
}
