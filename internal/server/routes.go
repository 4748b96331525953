package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/farukkamcici/ibb-transport-sub001/internal/metroapi"
	"github.com/farukkamcici/ibb-transport-sub001/internal/routes"
)

type routeStopsResponse struct {
	Stops []routes.Stop `json:"stops"`
	Count int           `json:"count"`
}

type polylineResponse struct {
	Points []metroapi.LatLng `json:"points"`
	Count  int               `json:"count"`
}

type directionsResponse struct {
	Directions []routes.DirectionInfo `json:"directions"`
	Count      int                    `json:"count"`
}

// handleRouteStops handles GET /api/metro/routes/{code}/stops?direction=
func (s *Server) handleRouteStops(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	direction := r.URL.Query().Get("direction")

	stops := s.geo.RouteStops(r.Context(), code, direction)

	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, routeStopsResponse{Stops: stops, Count: len(stops)})
}

// handlePolyline handles GET /api/metro/routes/{code}/polyline?direction=
func (s *Server) handlePolyline(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	direction := r.URL.Query().Get("direction")

	points := s.geo.Polyline(r.Context(), code, direction)

	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, polylineResponse{Points: points, Count: len(points)})
}

// handleDirections handles GET /api/metro/routes/{code}/directions
func (s *Server) handleDirections(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	dirs := s.geo.Directions(r.Context(), code)

	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, directionsResponse{Directions: dirs, Count: len(dirs)})
}
