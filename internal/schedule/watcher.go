package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/farukkamcici/ibb-transport-sub001/internal/metroapi"
	"github.com/farukkamcici/ibb-transport-sub001/internal/poll"
)

// DefaultInterval is the refresh cadence when Options carries none.
const DefaultInterval = 30 * time.Second

// Fetcher loads the classified timetable for a station and direction.
type Fetcher interface {
	Timetable(ctx context.Context, stationID, directionID int) (*metroapi.TimetableData, error)
}

// Options tunes a watcher. The zero value is a disabled, non-refreshing
// watcher; use DefaultOptions for the usual live behavior.
type Options struct {
	AutoRefresh bool
	Enabled     bool
	Interval    time.Duration
}

// DefaultOptions enables the watcher with periodic refresh at the default
// cadence.
func DefaultOptions() Options {
	return Options{AutoRefresh: true, Enabled: true, Interval: DefaultInterval}
}

// Snapshot is the three-state consumer view: loading before the first
// settle, then either an error or a board.
type Snapshot struct {
	Loading bool   `json:"loading"`
	Err     string `json:"error,omitempty"`
	Board   *Board `json:"board,omitempty"`
}

// Watcher keeps the board of one station-direction pair current. Results of
// a superseded or stopped cycle are discarded and never touch state.
type Watcher struct {
	id    string
	fetch Fetcher
	opts  Options
	log   zerolog.Logger
	now   func() time.Time

	root       context.Context
	rootCancel context.CancelFunc

	mu          sync.Mutex
	stationID   int
	directionID int
	gen         int
	snap        Snapshot
	task        *poll.Task
	stopped     bool
	updates     chan Snapshot
}

// New creates a watcher for the pair and, when enabled, starts fetching: an
// immediate fetch, then the configured cadence while AutoRefresh holds. The
// watcher stops when ctx ends or Stop is called.
func New(ctx context.Context, fetch Fetcher, stationID, directionID int, opts Options, log zerolog.Logger) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	root, cancel := context.WithCancel(ctx)
	w := &Watcher{
		id:          uuid.NewString(),
		fetch:       fetch,
		opts:        opts,
		now:         time.Now,
		root:        root,
		rootCancel:  cancel,
		stationID:   stationID,
		directionID: directionID,
		snap:        Snapshot{Loading: true},
		updates:     make(chan Snapshot, 1),
	}
	w.log = log.With().Str("component", "schedule").Str("watcher", w.id).Logger()

	if opts.Enabled {
		w.mu.Lock()
		w.startLocked()
		w.mu.Unlock()
	}
	return w
}

// ID identifies the watcher in logs and streams.
func (w *Watcher) ID() string { return w.id }

// startLocked launches the periodic task for the current generation and
// parameters. Caller holds w.mu.
func (w *Watcher) startLocked() {
	gen := w.gen
	stationID, directionID := w.stationID, w.directionID
	interval := w.opts.Interval
	if !w.opts.AutoRefresh {
		interval = 0
	}
	w.task = poll.Start(w.root, interval, func(ctx context.Context) {
		w.fetchInto(ctx, gen, stationID, directionID)
	})
}

// fetchInto performs one fetch and applies the result only if the watcher
// still runs the generation that started it.
func (w *Watcher) fetchInto(ctx context.Context, gen, stationID, directionID int) {
	data, err := w.fetch.Timetable(ctx, stationID, directionID)
	now := w.now()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped || gen != w.gen {
		w.log.Debug().Int("gen", gen).Msg("discarding stale schedule result")
		return
	}

	if err != nil {
		w.log.Warn().Err(err).Int("station", stationID).Int("direction", directionID).
			Msg("schedule fetch failed")
		w.snap = Snapshot{Err: err.Error()}
	} else {
		board := BuildBoard(data, stationID, directionID, now)
		w.snap = Snapshot{Board: &board}
	}
	w.publishLocked()
}

// publishLocked pushes the current snapshot to the updates channel,
// replacing an unread one. Caller holds w.mu.
func (w *Watcher) publishLocked() {
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- w.snap:
	default:
	}
}

// SetParams retargets the watcher. The running cycle is canceled, its late
// results are discarded, and a fresh cycle starts for the new pair.
func (w *Watcher) SetParams(stationID, directionID int) {
	w.mu.Lock()
	if w.stopped || (stationID == w.stationID && directionID == w.directionID) {
		w.mu.Unlock()
		return
	}
	w.gen++
	w.stationID = stationID
	w.directionID = directionID
	w.snap = Snapshot{Loading: true}
	old := w.task
	w.task = nil
	w.mu.Unlock()

	if old != nil {
		old.Stop()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.publishLocked()
	if w.opts.Enabled {
		w.startLocked()
	}
}

// Refresh forces one fetch outside the cadence.
func (w *Watcher) Refresh(ctx context.Context) {
	w.mu.Lock()
	if w.stopped || !w.opts.Enabled {
		w.mu.Unlock()
		return
	}
	gen, stationID, directionID := w.gen, w.stationID, w.directionID
	w.mu.Unlock()

	w.fetchInto(ctx, gen, stationID, directionID)
}

// Stop cancels the cycle and any in-flight request. Idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	task := w.task
	w.task = nil
	w.mu.Unlock()

	w.rootCancel()
	if task != nil {
		task.Stop()
	}
	w.log.Debug().Msg("watcher stopped")
}

// Snapshot returns the current three-state view.
func (w *Watcher) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap
}

// Updates yields the latest snapshot after each change; unread snapshots
// are replaced, never queued.
func (w *Watcher) Updates() <-chan Snapshot { return w.updates }

// NextTrains returns the first count arrivals of the current board, or none
// while loading or errored.
func (w *Watcher) NextTrains(count int) []Arrival {
	s := w.Snapshot()
	if s.Board == nil {
		return []Arrival{}
	}
	return s.Board.NextTrains(count)
}

// HasTrainsSoon reports whether the current board has an arrival within the
// window.
func (w *Watcher) HasTrainsSoon(withinMin int) bool {
	s := w.Snapshot()
	return s.Board != nil && s.Board.HasTrainsSoon(withinMin)
}
