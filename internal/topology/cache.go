// Package topology caches the metro network snapshot and answers derived
// lookups over it without further I/O.
package topology

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/farukkamcici/ibb-transport-sub001/internal/metroapi"
)

// minSearchLen mirrors the remote search endpoint's minimum query length.
const minSearchLen = 2

// Fetcher loads the network snapshot from upstream.
type Fetcher interface {
	Topology(ctx context.Context) (*metroapi.Network, error)
}

// Cache holds the topology snapshot. The first access fetches it; concurrent
// first callers share one in-flight fetch and all see its result or its
// error. Failures are never cached.
type Cache struct {
	fetch Fetcher
	log   zerolog.Logger
	group singleflight.Group

	mu  sync.RWMutex
	net *metroapi.Network
}

// New creates an empty cache backed by the given fetcher.
func New(fetch Fetcher, log zerolog.Logger) *Cache {
	return &Cache{
		fetch: fetch,
		log:   log.With().Str("component", "topology").Logger(),
	}
}

// Network returns the cached snapshot, fetching it on first use.
func (c *Cache) Network(ctx context.Context) (*metroapi.Network, error) {
	c.mu.RLock()
	n := c.net
	c.mu.RUnlock()
	if n != nil {
		return n, nil
	}

	v, err, shared := c.group.Do("topology", func() (interface{}, error) {
		// A caller that lost the race to a completed flight reuses its result.
		c.mu.RLock()
		cached := c.net
		c.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		n, err := c.fetch.Topology(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.net = n
		c.mu.Unlock()
		c.log.Info().Int("lines", len(n.Lines)).Msg("topology loaded")
		return n, nil
	})
	if err != nil {
		c.log.Warn().Err(err).Bool("shared", shared).Msg("topology fetch failed")
		return nil, err
	}
	return v.(*metroapi.Network), nil
}

// Cached reports whether a snapshot is held, without triggering a fetch.
func (c *Cache) Cached() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.net != nil
}

// Refresh discards the snapshot and any in-flight fetch reference, then
// performs a clean fetch. On failure the cache stays empty and the next
// access refetches.
func (c *Cache) Refresh(ctx context.Context) error {
	c.group.Forget("topology")
	c.mu.Lock()
	c.net = nil
	c.mu.Unlock()

	_, err := c.Network(ctx)
	return err
}

// Lines returns all lines of the snapshot.
func (c *Cache) Lines(ctx context.Context) ([]metroapi.Line, error) {
	n, err := c.Network(ctx)
	if err != nil {
		return nil, err
	}
	return n.Lines, nil
}

// Line looks a line up by code. A request for "M1" falls back to "M1A" when
// no line carries the bare code. Absence is reported by the bool, not an
// error.
func (c *Cache) Line(ctx context.Context, code string) (metroapi.Line, bool, error) {
	n, err := c.Network(ctx)
	if err != nil {
		return metroapi.Line{}, false, err
	}
	if l, ok := findLine(n.Lines, code); ok {
		return l, true, nil
	}
	if code == "M1" {
		if l, ok := findLine(n.Lines, "M1A"); ok {
			return l, true, nil
		}
	}
	return metroapi.Line{}, false, nil
}

// LineByID scans the lines for a numeric id.
func (c *Cache) LineByID(ctx context.Context, id int) (metroapi.Line, bool, error) {
	n, err := c.Network(ctx)
	if err != nil {
		return metroapi.Line{}, false, err
	}
	for _, l := range n.Lines {
		if l.ID == id {
			return l, true, nil
		}
	}
	return metroapi.Line{}, false, nil
}

// Stations returns a line's stations in upstream order.
func (c *Cache) Stations(ctx context.Context, code string) ([]metroapi.Station, bool, error) {
	l, ok, err := c.Line(ctx, code)
	if err != nil || !ok {
		return nil, ok, err
	}
	return l.Stations, true, nil
}

// Station looks a single station up on a line.
func (c *Cache) Station(ctx context.Context, code string, stationID int) (metroapi.Station, bool, error) {
	l, ok, err := c.Line(ctx, code)
	if err != nil || !ok {
		return metroapi.Station{}, false, err
	}
	for _, s := range l.Stations {
		if s.ID == stationID {
			return s, true, nil
		}
	}
	return metroapi.Station{}, false, nil
}

// LineCoordinates projects a line's stations, sorted by ascending order, to
// [lat, lng] pairs. Stations with a missing coordinate are filtered out.
func (c *Cache) LineCoordinates(ctx context.Context, code string) ([]metroapi.LatLng, bool, error) {
	l, ok, err := c.Line(ctx, code)
	if err != nil || !ok {
		return nil, ok, err
	}

	stations := append([]metroapi.Station(nil), l.Stations...)
	sort.SliceStable(stations, func(i, j int) bool {
		return stations[i].Order < stations[j].Order
	})

	coords := make([]metroapi.LatLng, 0, len(stations))
	for _, s := range stations {
		if s.Latitude == 0 || s.Longitude == 0 {
			continue
		}
		coords = append(coords, metroapi.LatLng{s.Latitude, s.Longitude})
	}
	return coords, true, nil
}

// SearchStations matches the query case-insensitively against station name
// and description across all lines. Queries shorter than two characters
// yield an empty result without touching the snapshot.
func (c *Cache) SearchStations(ctx context.Context, query string) ([]metroapi.StationMatch, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if len([]rune(q)) < minSearchLen {
		return []metroapi.StationMatch{}, nil
	}

	n, err := c.Network(ctx)
	if err != nil {
		return nil, err
	}

	matches := []metroapi.StationMatch{}
	for _, l := range n.Lines {
		for _, s := range l.Stations {
			if !strings.Contains(strings.ToLower(s.Name), q) &&
				!strings.Contains(strings.ToLower(s.Description), q) {
				continue
			}
			matches = append(matches, metroapi.StationMatch{
				Station:   s,
				LineID:    l.ID,
				LineCode:  l.Code,
				LineName:  l.Name,
				LineColor: l.Color,
			})
		}
	}
	return matches, nil
}

func findLine(lines []metroapi.Line, code string) (metroapi.Line, bool) {
	for _, l := range lines {
		if l.Code == code {
			return l, true
		}
	}
	return metroapi.Line{}, false
}
