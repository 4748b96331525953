// Package server exposes the transit data layer over HTTP: topology reads,
// schedule boards (one-shot and streamed), route geometry, and favorites.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/farukkamcici/ibb-transport-sub001/internal/favorites"
	"github.com/farukkamcici/ibb-transport-sub001/internal/metroapi"
	"github.com/farukkamcici/ibb-transport-sub001/internal/routes"
)

// Topology is the station and line cache the handlers read from.
type Topology interface {
	Network(ctx context.Context) (*metroapi.Network, error)
	Lines(ctx context.Context) ([]metroapi.Line, error)
	Line(ctx context.Context, code string) (metroapi.Line, bool, error)
	Stations(ctx context.Context, code string) ([]metroapi.Station, bool, error)
	LineCoordinates(ctx context.Context, code string) ([]metroapi.LatLng, bool, error)
	SearchStations(ctx context.Context, query string) ([]metroapi.StationMatch, error)
	Cached() bool
}

// Geometry serves route sequences, polylines, and direction labels.
type Geometry interface {
	RouteStops(ctx context.Context, lineCode, direction string) []routes.Stop
	Polyline(ctx context.Context, lineCode, direction string) []metroapi.LatLng
	Directions(ctx context.Context, lineCode string) []routes.DirectionInfo
}

// Upstream is the slice of the metro client the facade calls directly.
type Upstream interface {
	Timetable(ctx context.Context, stationID, directionID int) (*metroapi.TimetableData, error)
	TravelDuration(ctx context.Context, query []byte) ([]byte, error)
}

// Config tunes the facade.
type Config struct {
	Addr            string
	AllowedOrigins  []string
	RefreshInterval time.Duration
}

// Server bundles the handlers and their dependencies.
type Server struct {
	cfg      Config
	topo     Topology
	geo      Geometry
	up       Upstream
	favs     favorites.Store
	validate *validator.Validate
	log      zerolog.Logger
}

// New creates a server with the given dependencies.
func New(cfg Config, topo Topology, geo Geometry, up Upstream, favs favorites.Store, log zerolog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		topo:     topo,
		geo:      geo,
		up:       up,
		favs:     favs,
		validate: validator.New(),
		log:      log.With().Str("component", "server").Logger(),
	}
}

// Router builds the chi router with logging, recovery, and CORS.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/metro", func(r chi.Router) {
		r.Get("/topology", s.handleTopology)
		r.Get("/lines", s.handleLines)
		r.Get("/lines/{code}", s.handleLine)
		r.Get("/lines/{code}/stations", s.handleLineStations)
		r.Get("/lines/{code}/coordinates", s.handleLineCoordinates)
		r.Get("/stations/search", s.handleSearch)
		r.Get("/schedule", s.handleSchedule)
		r.Get("/schedule/stream", s.handleScheduleStream)
		r.Get("/routes/{code}/stops", s.handleRouteStops)
		r.Get("/routes/{code}/polyline", s.handlePolyline)
		r.Get("/routes/{code}/directions", s.handleDirections)
		r.Post("/duration", s.handleDuration)
	})

	r.Route("/api/favorites", func(r chi.Router) {
		r.Get("/", s.handleListFavorites)
		r.Post("/", s.handleAddFavorite)
		r.Delete("/{lineCode}/{stationID}", s.handleRemoveFavorite)
	})

	return r
}

// Run serves until ctx is canceled, then drains connections for up to ten
// seconds.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
