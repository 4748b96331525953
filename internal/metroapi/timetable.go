package metroapi

import (
	"encoding/json"
	"fmt"
)

// Source tags which upstream shape produced a timetable payload.
type Source string

const (
	// SourceLive is the arrival list with per-train remaining minutes.
	SourceLive Source = "live"
	// SourceTimetable is the nested departure-time table.
	SourceTimetable Source = "timetable"
	// SourceUnknown is anything matching neither shape; it normalizes to an
	// empty board, not an error.
	SourceUnknown Source = "unknown"
)

// LiveTrain is one entry of the live arrival shape.
type LiveTrain struct {
	TrainID          string `json:"trainId"`
	Destination      string `json:"destination"`
	RemainingMinutes *int   `json:"remainingMinutes"`
	ScheduledTime    string `json:"scheduledTime"`
}

// TimetableRow is one entry of the raw timetable shape. Only the first row
// carries the departure times and destination label.
type TimetableRow struct {
	Direction   string   `json:"direction"`
	Destination string   `json:"destination"`
	Times       []string `json:"times"`
}

// TimetableData is the schedule response after classification. Exactly one
// of Live and Rows is populated, matching Source.
type TimetableData struct {
	Source Source
	Live   []LiveTrain
	Rows   []TimetableRow
}

// scheduleItem is the permissive union row used to classify the response
// once; missing fields stay at zero values.
type scheduleItem struct {
	TrainID          string   `json:"trainId"`
	Destination      string   `json:"destination"`
	RemainingMinutes *int     `json:"remainingMinutes"`
	ScheduledTime    string   `json:"scheduledTime"`
	Direction        string   `json:"direction"`
	Times            []string `json:"times"`
}

// decodeTimetable classifies the dual-shape schedule payload. A list whose
// entries carry numeric remaining minutes is live data; a list whose first
// entry carries departure-time strings is a raw timetable; anything else,
// including a payload that is not a list at all, is tagged unknown. Only a
// body that is not valid JSON is an error.
func decodeTimetable(raw []byte) (*TimetableData, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("schedule: decode envelope: %w", err)
	}

	var items []scheduleItem
	if len(env.Data) == 0 || json.Unmarshal(env.Data, &items) != nil || len(items) == 0 {
		return &TimetableData{Source: SourceUnknown}, nil
	}

	live := false
	for _, it := range items {
		if it.RemainingMinutes != nil {
			live = true
			break
		}
	}

	switch {
	case live:
		trains := make([]LiveTrain, 0, len(items))
		for _, it := range items {
			trains = append(trains, LiveTrain{
				TrainID:          it.TrainID,
				Destination:      it.Destination,
				RemainingMinutes: it.RemainingMinutes,
				ScheduledTime:    it.ScheduledTime,
			})
		}
		return &TimetableData{Source: SourceLive, Live: trains}, nil

	case len(items[0].Times) > 0:
		rows := make([]TimetableRow, 0, len(items))
		for _, it := range items {
			rows = append(rows, TimetableRow{
				Direction:   it.Direction,
				Destination: it.Destination,
				Times:       it.Times,
			})
		}
		return &TimetableData{Source: SourceTimetable, Rows: rows}, nil

	default:
		return &TimetableData{Source: SourceUnknown}, nil
	}
}
