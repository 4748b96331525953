package server

import (
	"io"
	"net/http"
)

// handleDuration handles POST /api/metro/duration
// The body and response are passed through to the upstream untouched.
func (s *Server) handleDuration(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	out, err := s.up.TravelDuration(r.Context(), body)
	if err != nil {
		writeError(w, upstreamStatus(err), "failed to fetch travel duration", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}
