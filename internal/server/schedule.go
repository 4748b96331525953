package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/farukkamcici/ibb-transport-sub001/internal/schedule"
)

// scheduleParams reads and validates the station/direction query pair.
func scheduleParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	stationID, err := strconv.Atoi(r.URL.Query().Get("station"))
	if err != nil || stationID <= 0 {
		writeError(w, http.StatusBadRequest, "station must be a positive integer", nil)
		return 0, 0, false
	}
	directionID, err := strconv.Atoi(r.URL.Query().Get("direction"))
	if err != nil || directionID <= 0 {
		writeError(w, http.StatusBadRequest, "direction must be a positive integer", nil)
		return 0, 0, false
	}
	return stationID, directionID, true
}

// handleSchedule handles GET /api/metro/schedule?station=&direction=
// Returns a normalized departure board for one fetch.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	stationID, directionID, ok := scheduleParams(w, r)
	if !ok {
		return
	}

	data, err := s.up.Timetable(r.Context(), stationID, directionID)
	if err != nil {
		writeError(w, upstreamStatus(err), "failed to fetch schedule", map[string]interface{}{
			"station":   stationID,
			"direction": directionID,
			"internal":  err.Error(),
		})
		return
	}

	board := schedule.BuildBoard(data, stationID, directionID, time.Now())

	// Half the refresh cadence, so clients stay fresh without hammering.
	w.Header().Set("Cache-Control", "public, max-age=15, stale-while-revalidate=10")
	writeJSON(w, http.StatusOK, board)
}

// handleScheduleStream handles GET /api/metro/schedule/stream?station=&direction=
// Emits the watcher's snapshot as a server-sent event on every change.
func (s *Server) handleScheduleStream(w http.ResponseWriter, r *http.Request) {
	stationID, directionID, ok := scheduleParams(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", nil)
		return
	}

	opts := schedule.DefaultOptions()
	if s.cfg.RefreshInterval > 0 {
		opts.Interval = s.cfg.RefreshInterval
	}
	watcher := schedule.New(r.Context(), s.up, stationID, directionID, opts, s.log)
	defer func() {
		watcher.Stop()
		s.log.Debug().Str("watcher", watcher.ID()).Msg("schedule stream closed")
	}()

	s.log.Info().
		Str("watcher", watcher.ID()).
		Int("station", stationID).
		Int("direction", directionID).
		Msg("schedule stream opened")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, watcher.Snapshot()); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap := <-watcher.Updates():
			if err := writeEvent(w, snap); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, snap schedule.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
	return err
}
