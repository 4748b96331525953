package metroapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout bounds every upstream call, independent of any cache
	// timer on top of the client.
	DefaultTimeout = 10 * time.Second

	// DefaultRetryWait is the fixed delay before the single 429 retry.
	DefaultRetryWait = time.Second

	// minSearchLen is the shortest query the search endpoint accepts.
	// Shorter queries short-circuit to an empty result without a request.
	minSearchLen = 2
)

// Config carries the client knobs. Zero values fall back to defaults;
// StaticBaseURL falls back to BaseURL.
type Config struct {
	BaseURL       string
	StaticBaseURL string
	Timeout       time.Duration
	RetryWait     time.Duration
}

// Client talks to the transit data service. All methods honor the passed
// context and apply the shared retry policy: one retry on timeout, one
// retry after a fixed wait on HTTP 429, nothing else.
type Client struct {
	baseURL   string
	staticURL string
	http      *http.Client
	retryWait time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// New creates a client for the given service.
func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = DefaultRetryWait
	}
	staticURL := cfg.StaticBaseURL
	if staticURL == "" {
		staticURL = cfg.BaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		staticURL: strings.TrimRight(staticURL, "/"),
		http:      &http.Client{Timeout: cfg.Timeout},
		retryWait: cfg.RetryWait,
		now:       time.Now,
		log:       log.With().Str("component", "metroapi").Logger(),
	}
}

// Topology fetches the full network snapshot.
func (c *Client) Topology(ctx context.Context) (*Network, error) {
	raw, err := c.get(ctx, "topology", c.baseURL+"/metro/topology")
	if err != nil {
		return nil, err
	}
	n, err := unwrap[Network]("topology", raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Line fetches a single line by code.
func (c *Client) Line(ctx context.Context, code string) (*Line, error) {
	raw, err := c.get(ctx, "line", c.baseURL+"/metro/lines/"+url.PathEscape(code))
	if err != nil {
		return nil, err
	}
	l, err := unwrap[Line]("line", raw)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// LineStations fetches the stations of a line in service order.
func (c *Client) LineStations(ctx context.Context, code string) ([]Station, error) {
	raw, err := c.get(ctx, "line stations", c.baseURL+"/metro/lines/"+url.PathEscape(code)+"/stations")
	if err != nil {
		return nil, err
	}
	return unwrap[[]Station]("line stations", raw)
}

// LineCoordinates fetches the [lat, lng] projection of a line.
func (c *Client) LineCoordinates(ctx context.Context, code string) ([]LatLng, error) {
	raw, err := c.get(ctx, "line coordinates", c.baseURL+"/metro/lines/"+url.PathEscape(code)+"/coordinates")
	if err != nil {
		return nil, err
	}
	return unwrap[[]LatLng]("line coordinates", raw)
}

// SearchStations queries the remote station search. Queries shorter than
// two characters return an empty result without touching the network.
func (c *Client) SearchStations(ctx context.Context, query string) ([]StationMatch, error) {
	q := strings.TrimSpace(query)
	if len([]rune(q)) < minSearchLen {
		return []StationMatch{}, nil
	}
	raw, err := c.get(ctx, "search", c.baseURL+"/metro/stations/search?q="+url.QueryEscape(q))
	if err != nil {
		return nil, err
	}
	return unwrap[[]StationMatch]("search", raw)
}

// scheduleRequest is the fixed schedule query body. Field names are part of
// the upstream contract and must not change.
type scheduleRequest struct {
	BoardingStationID int    `json:"BoardingStationId"`
	DirectionID       int    `json:"DirectionId"`
	DateTime          string `json:"DateTime"`
}

// Timetable fetches the live schedule for a station and direction and
// classifies the dual-shape response once, at this boundary.
func (c *Client) Timetable(ctx context.Context, stationID, directionID int) (*TimetableData, error) {
	body, err := json.Marshal(scheduleRequest{
		BoardingStationID: stationID,
		DirectionID:       directionID,
		DateTime:          c.now().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("schedule: encode request: %w", err)
	}
	raw, err := c.post(ctx, "schedule", c.baseURL+"/metro/schedule", body)
	if err != nil {
		return nil, err
	}
	return decodeTimetable(raw)
}

// TravelDuration forwards an opaque travel-time query and returns the raw
// response body unmodified.
func (c *Client) TravelDuration(ctx context.Context, query []byte) ([]byte, error) {
	return c.post(ctx, "duration", c.baseURL+"/metro/duration", query)
}

// StopCoordinates fetches the static stop-coordinate table.
func (c *Client) StopCoordinates(ctx context.Context) (*StopTable, error) {
	raw, err := c.get(ctx, "stop coordinates", c.staticURL+"/static/metro/stops.json")
	if err != nil {
		return nil, err
	}
	var t StopTable
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("stop coordinates: decode: %w", err)
	}
	return &t, nil
}

// RouteTable fetches the static per-line stop-code sequences.
func (c *Client) RouteTable(ctx context.Context) (*RouteTable, error) {
	raw, err := c.get(ctx, "route table", c.staticURL+"/static/metro/routes.json")
	if err != nil {
		return nil, err
	}
	var t RouteTable
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("route table: decode: %w", err)
	}
	return &t, nil
}

func (c *Client) get(ctx context.Context, op, url string) ([]byte, error) {
	return c.do(ctx, op, http.MethodGet, url, nil)
}

func (c *Client) post(ctx context.Context, op, url string, body []byte) ([]byte, error) {
	return c.do(ctx, op, http.MethodPost, url, body)
}

// do runs one attempt plus at most one retry, then wraps any remaining
// failure as a TransportError.
func (c *Client) do(ctx context.Context, op, method, url string, body []byte) ([]byte, error) {
	data, err := c.attempt(ctx, method, url, body)
	if err == nil {
		return data, nil
	}

	switch {
	case ctx.Err() != nil:
		// Caller gave up; a retry cannot help.
	case isTimeout(err):
		c.log.Warn().Str("op", op).Msg("upstream timeout, retrying once")
		data, err = c.attempt(ctx, method, url, body)
	case statusCode(err) == http.StatusTooManyRequests:
		c.log.Warn().Str("op", op).Dur("wait", c.retryWait).Msg("upstream rate limited, retrying once")
		select {
		case <-time.After(c.retryWait):
		case <-ctx.Done():
			return nil, &TransportError{Op: op, Err: ctx.Err()}
		}
		data, err = c.attempt(ctx, method, url, body)
	}

	if err != nil {
		return nil, &TransportError{Op: op, Status: statusCode(err), Err: err}
	}
	return data, nil
}

func (c *Client) attempt(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode, body: truncate(string(data), 200)}
	}
	return data, nil
}

// envelope is the {"data": ...} wrapper around every JSON API response.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func unwrap[T any](op string, raw []byte) (T, error) {
	var out T
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return out, fmt.Errorf("%s: decode envelope: %w", op, err)
	}
	if len(env.Data) == 0 {
		return out, fmt.Errorf("%s: response has no data field", op)
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, fmt.Errorf("%s: decode payload: %w", op, err)
	}
	return out, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func statusCode(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back up to a rune boundary so upstream text is not cut mid-rune.
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
