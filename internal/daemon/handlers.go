package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/flowzoneai/flowzone/internal/history"
	"github.com/flowzoneai/flowzone/internal/logger"
	"github.com/flowzoneai/flowzone/internal/session"
	"github.com/flowzoneai/flowzone/internal/store"
)

// Handlers serves the dashboard JSON API.
type Handlers struct {
	tracker   *session.Tracker
	store     store.Store
	version   string
	startedAt time.Time
}

// NewHandlers creates the API handlers.
func NewHandlers(tracker *session.Tracker, st store.Store, version string) *Handlers {
	return &Handlers{
		tracker:   tracker,
		store:     st,
		version:   version,
		startedAt: time.Now(),
	}
}

// Health reports daemon liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        h.version,
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"tracking":       h.tracker.Snapshot().State == session.StateActive,
	})
}

// Session returns the live session snapshot and its score history.
func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        h.tracker.Snapshot(),
		"score_history": h.tracker.ScoreHistory(),
	})
}

// StartSession begins tracking.
func (h *Handlers) StartSession(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.Start(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.Snapshot())
}

// StopSession ends the active session and returns its summary.
func (h *Handlers) StopSession(w http.ResponseWriter, r *http.Request) {
	summary, err := h.tracker.Stop()
	if err != nil {
		if errors.Is(err, session.ErrNoActiveSession) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"record":            summary.Record,
		"quality":           summary.Quality,
		"productivity":      history.FormatProductivity(summary.Record.ProductivityIndex),
		"streak":            summary.Streak,
		"streak_celebrated": summary.StreakCelebrated,
	})
}

// History returns the persisted session records, oldest first.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.Records()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"records": records,
	})
}

// Stats returns the aggregated trend statistics for the dashboard.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.Records()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	now := time.Now()
	summary := history.Summarize(records, history.DefaultSummaryWindow, now)

	weekly := make(map[string]int)
	for day, score := range history.WeeklyFlow(records, now) {
		weekly[day.String()] = score
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"summary": map[string]any{
			"sessions":          summary.Sessions,
			"total_minutes":     int(summary.TotalDuration.Minutes()),
			"mean_flow":         summary.MeanFlowScore,
			"deep_work_count":   summary.DeepWorkCount,
			"mean_productivity": summary.MeanProductivity,
		},
		"best_hours":  history.RankBestHours(records),
		"weekly_flow": weekly,
		"trends": map[string]float64{
			"duration":     history.TrendChange(records, history.MetricDuration),
			"avg_flow":     history.TrendChange(records, history.MetricAvgFlow),
			"productivity": history.TrendChange(records, history.MetricProductivity),
			"tab_switches": history.TrendChange(records, history.MetricTabSwitches),
		},
		"total_tab_switches": history.TotalTabSwitches(records),
	})
}

// Export streams the session history as CSV.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.Records()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="flowzone-sessions.csv"`)
	if err := history.ExportCSV(w, records); err != nil {
		logger.Warn().Err(err).Msg("CSV export failed mid-stream")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprint(err)})
}
