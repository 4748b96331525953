package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/farukkamcici/ibb-transport-sub001/internal/metroapi"
)

// ErrorResponse is the JSON error envelope all endpoints share.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, details map[string]interface{}) {
	writeJSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// upstreamStatus maps a metro client failure to the facade's response code.
// Rate limiting passes through; everything else is a bad gateway.
func upstreamStatus(err error) int {
	var te *metroapi.TransportError
	if errors.As(err, &te) && te.Status == http.StatusTooManyRequests {
		return http.StatusTooManyRequests
	}
	return http.StatusBadGateway
}
