package routes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/farukkamcici/ibb-transport-sub001/internal/metroapi"
)

type fakeLoader struct {
	mu         sync.Mutex
	stopCalls  int
	routeCalls int
	delay      time.Duration
	stopErr    error
	routeErr   error
	stops      *metroapi.StopTable
	routes     *metroapi.RouteTable
}

func (f *fakeLoader) StopCoordinates(ctx context.Context) (*metroapi.StopTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.stopCalls++
	err := f.stopErr
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err != nil {
		return nil, err
	}
	return f.stops, nil
}

func (f *fakeLoader) RouteTable(ctx context.Context) (*metroapi.RouteTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.routeCalls++
	err := f.routeErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.routes, nil
}

func (f *fakeLoader) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls, f.routeCalls
}

func staticFixture() *fakeLoader {
	return &fakeLoader{
		stops: &metroapi.StopTable{
			GeneratedAt: "2025-03-01T04:00:00Z",
			Stops: map[string]metroapi.StopInfo{
				"KAD": {Name: "Kadıköy", Latitude: 40.9903, Longitude: 29.0249, District: "Kadıköy"},
				"AYR": {Name: "Ayrılık Çeşmesi", Latitude: 41.0003, Longitude: 29.0301},
				"TAV": {Name: "Tavşantepe Mah.", Latitude: 40.8796, Longitude: 29.3105},
				"NOC": {Name: "Depo"},
			},
		},
		routes: &metroapi.RouteTable{
			GeneratedAt: "2025-03-01T04:00:00Z",
			Routes: map[string]map[string][]string{
				"M4": {
					"G": {"KAD", "AYR", "ZZZ", "NOC", "TAV"},
					"D": {"TAV", "AYR", "KAD"},
					"X": {},
				},
				"M1A": {
					"G": {"AYR", "KAD"},
				},
			},
		},
	}
}

func TestDirectionLabel(t *testing.T) {
	tests := []struct {
		name     string
		terminal string
		want     string
	}{
		{"admin suffix stripped", "Kadıköy Mah.", "KADIKÖY YÖNÜ"},
		{"dotted capital", "Yenikapı", "YENİKAPI YÖNÜ"},
		{"long suffix", "Atatürk Mahallesi", "ATATÜRK YÖNÜ"},
		{"street suffix", "Bağcılar Caddesi", "BAĞCILAR YÖNÜ"},
		{"abbreviation without dot", "İstiklal Cad", "İSTİKLAL YÖNÜ"},
		{"lowercase input", "tavşantepe", "TAVŞANTEPE YÖNÜ"},
		{"suffix alone is kept", "Mahallesi", "MAHALLESİ YÖNÜ"},
		{"plain word untouched", "Hacıosman", "HACIOSMAN YÖNÜ"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DirectionLabel(tt.terminal); got != tt.want {
				t.Errorf("DirectionLabel(%q) = %q, want %q", tt.terminal, got, tt.want)
			}
		})
	}
}

func TestStoreLoadsOnce(t *testing.T) {
	f := staticFixture()
	f.delay = 30 * time.Millisecond
	s := NewStore(f, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RouteStops(context.Background(), "M4", "")
		}()
	}
	wg.Wait()
	s.RouteStops(context.Background(), "M4", "D")

	if sc, rc := f.counts(); sc != 1 || rc != 1 {
		t.Errorf("loaded %d/%d times, want 1/1", sc, rc)
	}
}

func TestRouteStopsJoin(t *testing.T) {
	s := NewStore(staticFixture(), zerolog.Nop())
	ctx := context.Background()

	got := s.RouteStops(ctx, "M4", "")
	wantCodes := []string{"KAD", "AYR", "TAV"}
	if len(got) != len(wantCodes) {
		t.Fatalf("got %d stops, want %d: %+v", len(got), len(wantCodes), got)
	}
	for i, code := range wantCodes {
		if got[i].Code != code {
			t.Errorf("stop[%d] = %q, want %q", i, got[i].Code, code)
		}
	}
	if got[0].Name != "Kadıköy" || got[0].District != "Kadıköy" {
		t.Errorf("stop info not joined: %+v", got[0])
	}

	line := s.Polyline(ctx, "M4", "D")
	want := []metroapi.LatLng{{40.8796, 29.3105}, {41.0003, 29.0301}, {40.9903, 29.0249}}
	if len(line) != len(want) {
		t.Fatalf("polyline has %d points, want %d", len(line), len(want))
	}
	for i := range want {
		if line[i] != want[i] {
			t.Errorf("point[%d] = %v, want %v", i, line[i], want[i])
		}
	}

	if pts := s.Polyline(ctx, "M7", ""); len(pts) != 0 {
		t.Errorf("unknown line should be empty, got %v", pts)
	}
}

func TestRouteStoreLineFallback(t *testing.T) {
	s := NewStore(staticFixture(), zerolog.Nop())

	got := s.RouteStops(context.Background(), "M1", "")
	if len(got) != 2 || got[0].Code != "AYR" {
		t.Errorf("M1 should fall back to M1A, got %+v", got)
	}
}

func TestDirections(t *testing.T) {
	s := NewStore(staticFixture(), zerolog.Nop())

	got := s.Directions(context.Background(), "M4")
	want := []DirectionInfo{
		{Direction: "G", Terminal: "Tavşantepe Mah.", Label: "TAVŞANTEPE YÖNÜ"},
		{Direction: "D", Terminal: "Kadıköy", Label: "KADIKÖY YÖNÜ"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d directions, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("direction[%d] = %+v, want %+v", i, got[i], w)
		}
	}
}

func TestDirectionsUnknownTerminalCode(t *testing.T) {
	f := staticFixture()
	f.routes.Routes["T1"] = map[string][]string{"G": {"AAA"}}
	s := NewStore(f, zerolog.Nop())

	got := s.Directions(context.Background(), "T1")
	if len(got) != 1 || got[0].Terminal != "AAA" || got[0].Label != "AAA YÖNÜ" {
		t.Errorf("unresolved terminal should fall back to its code, got %+v", got)
	}
}

func TestAvailableDirections(t *testing.T) {
	s := NewStore(staticFixture(), zerolog.Nop())
	ctx := context.Background()

	// The raw key set, empty sequences included; only Directions filters.
	if got := s.AvailableDirections(ctx, "M4"); len(got) != 3 || got[0] != "G" || got[1] != "D" || got[2] != "X" {
		t.Errorf("AvailableDirections(M4) = %v, want [G D X]", got)
	}
	if got := s.AvailableDirections(ctx, "M7"); len(got) != 0 {
		t.Errorf("AvailableDirections(M7) = %v, want empty", got)
	}
}

func TestLoadSurvivesCallerCancellation(t *testing.T) {
	f := staticFixture()
	s := NewStore(f, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := s.RouteStops(ctx, "M4", ""); len(got) != 3 {
		t.Errorf("load under a canceled caller returned %d stops, want 3", len(got))
	}
	if got := s.RouteStops(context.Background(), "M4", ""); len(got) != 3 {
		t.Errorf("store empty after a canceled first caller: %d stops", len(got))
	}
	if sc, rc := f.counts(); sc != 1 || rc != 1 {
		t.Errorf("loaded %d/%d times, want 1/1", sc, rc)
	}
}

func TestLoadFailureIsStickyAndEmpty(t *testing.T) {
	f := staticFixture()
	f.routeErr = errors.New("static host down")
	s := NewStore(f, zerolog.Nop())
	ctx := context.Background()

	if got := s.RouteStops(ctx, "M4", ""); len(got) != 0 {
		t.Fatalf("degraded store returned %+v", got)
	}

	// The backing data coming back does not revive this store.
	f.mu.Lock()
	f.routeErr = nil
	f.mu.Unlock()

	if got := s.Directions(ctx, "M4"); len(got) != 0 {
		t.Errorf("degraded store revived: %+v", got)
	}
	if _, rc := f.counts(); rc != 1 {
		t.Errorf("degraded store refetched: %d route loads", rc)
	}
}
