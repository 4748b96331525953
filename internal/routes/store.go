// Package routes serves line geometry from the prebuilt static tables:
// ordered stop sequences per direction, their coordinates, and display
// labels for the direction banners.
package routes

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/farukkamcici/ibb-transport-sub001/internal/metroapi"
)

// DefaultDirection is used when a caller passes no direction key.
const DefaultDirection = "G"

// Loader fetches the two static tables the store is built from.
type Loader interface {
	StopCoordinates(ctx context.Context) (*metroapi.StopTable, error)
	RouteTable(ctx context.Context) (*metroapi.RouteTable, error)
}

// Stop is one entry of a route sequence with its resolved coordinates.
type Stop struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	District  string  `json:"district,omitempty"`
}

// DirectionInfo describes one serviced direction of a line.
type DirectionInfo struct {
	Direction string `json:"direction"`
	Terminal  string `json:"terminal"`
	Label     string `json:"label"`
}

// Store loads the static tables at most once and answers geometry queries
// from memory. A failed load leaves the store empty for its lifetime;
// accessors then return empty results rather than errors.
type Store struct {
	load  Loader
	log   zerolog.Logger
	group singleflight.Group

	mu     sync.RWMutex
	loaded bool
	stops  map[string]metroapi.StopInfo
	routes map[string]map[string][]string
}

// NewStore wraps a loader. Nothing is fetched until the first query.
func NewStore(load Loader, log zerolog.Logger) *Store {
	return &Store{
		load: load,
		log:  log.With().Str("component", "routes").Logger(),
	}
}

// ensure loads both tables exactly once; concurrent first callers share the
// load. Failures are absorbed into an empty store.
func (s *Store) ensure(ctx context.Context) {
	s.mu.RLock()
	done := s.loaded
	s.mu.RUnlock()
	if done {
		return
	}

	s.group.Do("static", func() (any, error) {
		s.mu.RLock()
		done := s.loaded
		s.mu.RUnlock()
		if done {
			return nil, nil
		}

		stops := map[string]metroapi.StopInfo{}
		routes := map[string]map[string][]string{}

		// The load is shared by every later caller, so it must not be
		// aborted by the first caller hanging up.
		ctx := context.WithoutCancel(ctx)

		st, err := s.load.StopCoordinates(ctx)
		if err == nil {
			var rt *metroapi.RouteTable
			rt, err = s.load.RouteTable(ctx)
			if err == nil {
				stops = st.Stops
				routes = rt.Routes
			}
		}
		if err != nil {
			s.log.Warn().Err(err).Msg("static geometry unavailable, serving empty routes")
		}

		s.mu.Lock()
		s.stops = stops
		s.routes = routes
		s.loaded = true
		s.mu.Unlock()
		return nil, nil
	})
}

// RouteStops resolves the stop sequence of a line and direction. Codes
// without known coordinates are skipped. An empty direction means the
// default.
func (s *Store) RouteStops(ctx context.Context, lineCode, direction string) []Stop {
	if direction == "" {
		direction = DefaultDirection
	}
	s.ensure(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := s.lineRoutes(lineCode)[direction]
	out := make([]Stop, 0, len(codes))
	for _, code := range codes {
		info, ok := s.stops[code]
		if !ok || info.Latitude == 0 || info.Longitude == 0 {
			continue
		}
		out = append(out, Stop{
			Code:      code,
			Name:      info.Name,
			Latitude:  info.Latitude,
			Longitude: info.Longitude,
			District:  info.District,
		})
	}
	return out
}

// Polyline projects the same sequence to [lat, lng] pairs.
func (s *Store) Polyline(ctx context.Context, lineCode, direction string) []metroapi.LatLng {
	stops := s.RouteStops(ctx, lineCode, direction)
	line := make([]metroapi.LatLng, 0, len(stops))
	for _, st := range stops {
		line = append(line, metroapi.LatLng{st.Latitude, st.Longitude})
	}
	return line
}

// Directions lists each serviced direction of a line with its terminal stop
// and banner label. Directions with no stops are omitted.
func (s *Store) Directions(ctx context.Context, lineCode string) []DirectionInfo {
	s.ensure(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []DirectionInfo{}
	for _, dir := range orderedKeys(s.lineRoutes(lineCode)) {
		codes := s.lineRoutes(lineCode)[dir]
		if len(codes) == 0 {
			continue
		}
		terminal := codes[len(codes)-1]
		if info, ok := s.stops[terminal]; ok && info.Name != "" {
			terminal = info.Name
		}
		out = append(out, DirectionInfo{
			Direction: dir,
			Terminal:  terminal,
			Label:     DirectionLabel(terminal),
		})
	}
	return out
}

// AvailableDirections lists the direction keys of a line as the route
// table declares them, default direction first. Keys with an empty stop
// sequence are included; Directions is the accessor that filters them.
func (s *Store) AvailableDirections(ctx context.Context, lineCode string) []string {
	s.ensure(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return orderedKeys(s.lineRoutes(lineCode))
}

// lineRoutes resolves a line's direction map, with the same M1 to M1A
// fallback the topology lookup applies. Caller holds s.mu.
func (s *Store) lineRoutes(code string) map[string][]string {
	if m, ok := s.routes[code]; ok {
		return m
	}
	if code == "M1" {
		return s.routes["M1A"]
	}
	return nil
}

// orderedKeys returns a direction map's keys with the default direction
// first and the rest sorted.
func orderedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if k == DefaultDirection {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if _, ok := m[DefaultDirection]; ok {
		keys = append([]string{DefaultDirection}, keys...)
	}
	return keys
}
