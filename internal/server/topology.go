package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/farukkamcici/ibb-transport-sub001/internal/metroapi"
)

type linesResponse struct {
	Lines []metroapi.Line `json:"lines"`
	Count int             `json:"count"`
}

type stationsResponse struct {
	Stations []metroapi.Station `json:"stations"`
	Count    int                `json:"count"`
}

type coordinatesResponse struct {
	Coordinates []metroapi.LatLng `json:"coordinates"`
	Count       int               `json:"count"`
}

type searchResponse struct {
	Query   string                  `json:"query"`
	Results []metroapi.StationMatch `json:"results"`
	Count   int                     `json:"count"`
}

// handleTopology handles GET /api/metro/topology
func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	n, err := s.topo.Network(r.Context())
	if err != nil {
		writeError(w, upstreamStatus(err), "failed to load network topology", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, n)
}

// handleLines handles GET /api/metro/lines
func (s *Server) handleLines(w http.ResponseWriter, r *http.Request) {
	lines, err := s.topo.Lines(r.Context())
	if err != nil {
		writeError(w, upstreamStatus(err), "failed to load lines", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, linesResponse{Lines: lines, Count: len(lines)})
}

// handleLine handles GET /api/metro/lines/{code}
func (s *Server) handleLine(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	line, ok, err := s.topo.Line(r.Context(), code)
	if err != nil {
		writeError(w, upstreamStatus(err), "failed to load line", map[string]interface{}{
			"lineCode": code,
			"internal": err.Error(),
		})
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "line not found", map[string]interface{}{
			"lineCode": code,
		})
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, line)
}

// handleLineStations handles GET /api/metro/lines/{code}/stations
func (s *Server) handleLineStations(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	stations, ok, err := s.topo.Stations(r.Context(), code)
	if err != nil {
		writeError(w, upstreamStatus(err), "failed to load stations", map[string]interface{}{
			"lineCode": code,
			"internal": err.Error(),
		})
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "line not found", map[string]interface{}{
			"lineCode": code,
		})
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, stationsResponse{Stations: stations, Count: len(stations)})
}

// handleLineCoordinates handles GET /api/metro/lines/{code}/coordinates
func (s *Server) handleLineCoordinates(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	coords, ok, err := s.topo.LineCoordinates(r.Context(), code)
	if err != nil {
		writeError(w, upstreamStatus(err), "failed to load line coordinates", map[string]interface{}{
			"lineCode": code,
			"internal": err.Error(),
		})
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "line not found", map[string]interface{}{
			"lineCode": code,
		})
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, coordinatesResponse{Coordinates: coords, Count: len(coords)})
}

// handleSearch handles GET /api/metro/stations/search?q=
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results, err := s.topo.SearchStations(r.Context(), query)
	if err != nil {
		writeError(w, upstreamStatus(err), "failed to search stations", map[string]interface{}{
			"query":    query,
			"internal": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: results, Count: len(results)})
}
