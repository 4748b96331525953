package metroapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, serverURL string, timeout time.Duration) *Client {
	t.Helper()
	return New(Config{
		BaseURL:   serverURL,
		Timeout:   timeout,
		RetryWait: 10 * time.Millisecond,
	}, zerolog.Nop())
}

func TestTopologyDecode(t *testing.T) {
	payload := `{"data": {
		"version": "2025.3",
		"generatedAt": "2025-03-01T00:00:00Z",
		"lines": [{
			"id": 1, "code": "M1A", "name": "Yenikapı - Atatürk Havalimanı",
			"description": {"tr": "Havalimanı hattı", "en": "Airport line"},
			"color": "#E32219",
			"hours": {"open": "06:00", "close": "00:00"},
			"stations": [
				{"id": 101, "name": "Yenikapı", "order": 1, "latitude": 41.0054, "longitude": 28.9500,
				 "elevator": true, "escalator": true,
				 "directions": [{"id": 1, "name": "Atatürk Havalimanı"}]}
			]
		}]
	}}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metro/topology" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	n, err := c.Topology(context.Background())
	if err != nil {
		t.Fatalf("Topology failed: %v", err)
	}

	if len(n.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(n.Lines))
	}
	line := n.Lines[0]
	if line.Code != "M1A" {
		t.Errorf("expected line code %q, got %q", "M1A", line.Code)
	}
	if line.Description.EN != "Airport line" {
		t.Errorf("expected english description %q, got %q", "Airport line", line.Description.EN)
	}
	if len(line.Stations) != 1 || line.Stations[0].Name != "Yenikapı" {
		t.Errorf("unexpected stations: %+v", line.Stations)
	}
	if len(line.Stations[0].Directions) != 1 || line.Stations[0].Directions[0].ID != 1 {
		t.Errorf("unexpected directions: %+v", line.Stations[0].Directions)
	}
}

func TestRetryOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	_, err := c.Topology(context.Background())
	if err == nil {
		t.Fatal("expected error after repeated 429, got nil")
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("expected exactly 2 requests (one retry), got %d", got)
	}

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if te.Status != http.StatusTooManyRequests {
		t.Errorf("expected status 429 on error, got %d", te.Status)
	}
}

func TestRetryOnTimeout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			time.Sleep(300 * time.Millisecond)
		}
		w.Write([]byte(`{"data": {"lines": []}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 50*time.Millisecond)
	n, err := c.Topology(context.Background())
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if n == nil {
		t.Fatal("expected topology, got nil")
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 requests (timeout then retry), got %d", got)
	}
}

func TestNoRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	_, err := c.Topology(context.Background())
	if err == nil {
		t.Fatal("expected error on 500, got nil")
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("expected a single request for a 500, got %d", got)
	}

	var te *TransportError
	if !errors.As(err, &te) || te.Status != http.StatusInternalServerError {
		t.Errorf("expected TransportError with status 500, got %v", err)
	}
}

func TestSearchShortCircuit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)

	tests := []struct {
		name      string
		query     string
		wantCalls int32
	}{
		{"empty", "", 0},
		{"single char", "k", 0},
		{"whitespace padded single char", "  k  ", 0},
		{"two chars", "ka", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls.Store(0)
			matches, err := c.SearchStations(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("SearchStations(%q) failed: %v", tt.query, err)
			}
			if matches == nil {
				t.Errorf("SearchStations(%q) returned nil, want empty slice", tt.query)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("SearchStations(%q) made %d requests, want %d", tt.query, got, tt.wantCalls)
			}
		})
	}
}

func TestScheduleRequestBody(t *testing.T) {
	var gotBody scheduleRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	c.now = func() time.Time {
		return time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)
	}

	if _, err := c.Timetable(context.Background(), 117, 2); err != nil {
		t.Fatalf("Timetable failed: %v", err)
	}

	if gotBody.BoardingStationID != 117 {
		t.Errorf("BoardingStationId = %d, want 117", gotBody.BoardingStationID)
	}
	if gotBody.DirectionID != 2 {
		t.Errorf("DirectionId = %d, want 2", gotBody.DirectionID)
	}
	if gotBody.DateTime != "2025-03-01T08:30:00Z" {
		t.Errorf("DateTime = %q, want RFC3339 of the injected clock", gotBody.DateTime)
	}
}

func TestStaticResources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/static/metro/stops.json":
			w.Write([]byte(`{"generatedAt": "2025-03-01T00:00:00Z", "stops": {
				"M4-01": {"name": "Kadıköy", "latitude": 40.9903, "longitude": 29.0303, "district": "Kadıköy"}
			}}`))
		case "/static/metro/routes.json":
			w.Write([]byte(`{"generatedAt": "2025-03-01T00:00:00Z", "routes": {
				"M4": {"G": ["M4-01"], "D": []}
			}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)

	stops, err := c.StopCoordinates(context.Background())
	if err != nil {
		t.Fatalf("StopCoordinates failed: %v", err)
	}
	if s, ok := stops.Stops["M4-01"]; !ok || s.Name != "Kadıköy" {
		t.Errorf("unexpected stop table: %+v", stops.Stops)
	}

	routes, err := c.RouteTable(context.Background())
	if err != nil {
		t.Fatalf("RouteTable failed: %v", err)
	}
	if seq := routes.Routes["M4"]["G"]; len(seq) != 1 || seq[0] != "M4-01" {
		t.Errorf("unexpected route table: %+v", routes.Routes)
	}
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short string unchanged", "tamam", 10, "tamam"},
		{"exact length unchanged", "abcd", 4, "abcd"},
		{"ascii cut", "abcdef", 4, "abcd..."},
		{"cut inside a rune backs up", "Tavşantepe", 4, "Tav..."},
		{"cut on a boundary keeps the rune", "şşş", 4, "şş..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) produced invalid UTF-8: %q", tt.in, tt.n, got)
			}
		})
	}
}
