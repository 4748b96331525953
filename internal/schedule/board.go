// Package schedule turns the upstream timetable feed into a normalized
// departure board and keeps it current per station and direction.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/farukkamcici/ibb-transport-sub001/internal/metroapi"
)

// DefaultSoonWindow is the HasTrainsSoon threshold in minutes when the
// caller passes none.
const DefaultSoonWindow = 5

// Arrival is one upcoming departure. RemainingMin is never negative.
type Arrival struct {
	ID           string `json:"id"`
	Destination  string `json:"destination"`
	TimeOfDay    string `json:"timeOfDay,omitempty"`
	RemainingMin int    `json:"remainingMin"`
}

// Board is the normalized view of one station-direction schedule at a point
// in time.
type Board struct {
	StationID   int             `json:"stationId"`
	DirectionID int             `json:"directionId"`
	Source      metroapi.Source `json:"source"`
	FetchedAt   time.Time       `json:"fetchedAt"`
	Arrivals    []Arrival       `json:"arrivals"`
}

// BuildBoard converts a classified timetable payload into a board, relative
// to now.
//
// Live entries keep their upstream identifiers and remaining minutes;
// entries with an absent or negative value drop, and the rest stable-sort
// ascending. Raw timetable entries come from the first row: each "HH:MM"
// departure is projected to minutes from now, past departures drop without
// wrapping to the next day, order is preserved, and identifiers derive
// deterministically from station, direction, and time string. An unknown
// payload yields an empty board.
func BuildBoard(data *metroapi.TimetableData, stationID, directionID int, now time.Time) Board {
	b := Board{
		StationID:   stationID,
		DirectionID: directionID,
		Source:      metroapi.SourceUnknown,
		FetchedAt:   now,
		Arrivals:    []Arrival{},
	}
	if data == nil {
		return b
	}
	b.Source = data.Source

	switch data.Source {
	case metroapi.SourceLive:
		for _, tr := range data.Live {
			if tr.RemainingMinutes == nil || *tr.RemainingMinutes < 0 {
				continue
			}
			b.Arrivals = append(b.Arrivals, Arrival{
				ID:           tr.TrainID,
				Destination:  tr.Destination,
				TimeOfDay:    tr.ScheduledTime,
				RemainingMin: *tr.RemainingMinutes,
			})
		}
		sort.SliceStable(b.Arrivals, func(i, j int) bool {
			return b.Arrivals[i].RemainingMin < b.Arrivals[j].RemainingMin
		})

	case metroapi.SourceTimetable:
		if len(data.Rows) == 0 {
			break
		}
		row := data.Rows[0]
		nowMin := now.Hour()*60 + now.Minute()
		for _, ts := range row.Times {
			depMin, ok := parseClock(ts)
			if !ok {
				continue
			}
			remaining := depMin - nowMin
			if remaining < 0 {
				continue
			}
			b.Arrivals = append(b.Arrivals, Arrival{
				ID:           fmt.Sprintf("tt-%d-%d-%s", stationID, directionID, ts),
				Destination:  row.Destination,
				TimeOfDay:    ts,
				RemainingMin: remaining,
			})
		}
	}
	return b
}

// NextTrains returns the first count arrivals.
func (b Board) NextTrains(count int) []Arrival {
	if count <= 0 || len(b.Arrivals) == 0 {
		return []Arrival{}
	}
	if count > len(b.Arrivals) {
		count = len(b.Arrivals)
	}
	return append([]Arrival(nil), b.Arrivals[:count]...)
}

// HasTrainsSoon reports whether the nearest arrival is within withinMin
// minutes. Non-positive withinMin applies the default window.
func (b Board) HasTrainsSoon(withinMin int) bool {
	if withinMin <= 0 {
		withinMin = DefaultSoonWindow
	}
	if len(b.Arrivals) == 0 {
		return false
	}
	return b.Arrivals[0].RemainingMin <= withinMin
}

// parseClock parses "HH:MM" into minutes of day.
func parseClock(s string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, false
	}
	return hh*60 + mm, true
}
