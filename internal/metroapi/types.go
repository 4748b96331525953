package metroapi

// LatLng is a [latitude, longitude] pair.
type LatLng [2]float64

// Network is the full metro topology snapshot served by the transit API.
type Network struct {
	Version     string `json:"version"`
	GeneratedAt string `json:"generatedAt"`
	Lines       []Line `json:"lines"`
}

// Description carries the localized line description pair.
type Description struct {
	TR string `json:"tr"`
	EN string `json:"en"`
}

// Hours is a line's operating window, "HH:MM" local time.
type Hours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Line is one metro line with its stations in service order.
type Line struct {
	ID          int         `json:"id"`
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Description Description `json:"description"`
	Color       string      `json:"color"`
	Hours       Hours       `json:"hours"`
	Stations    []Station   `json:"stations"`
}

// Station is one stop on a line. Order is the 1-based position along the
// line; a zero latitude or longitude means the coordinate is unknown.
type Station struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Order       int         `json:"order"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	Elevator    bool        `json:"elevator"`
	Escalator   bool        `json:"escalator"`
	Directions  []Direction `json:"directions"`
}

// Direction is a travel direction selectable at a station. The ID is what
// the schedule endpoint expects as DirectionId.
type Direction struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// StationMatch is a search hit annotated with its line.
type StationMatch struct {
	Station   Station `json:"station"`
	LineID    int     `json:"lineId"`
	LineCode  string  `json:"lineCode"`
	LineName  string  `json:"lineName"`
	LineColor string  `json:"lineColor"`
}

// StopInfo is one entry of the static stop-coordinate table, keyed by stop
// code in StopTable.
type StopInfo struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	District  string  `json:"district"`
}

// StopTable is the static stop-coordinate document.
type StopTable struct {
	GeneratedAt string              `json:"generatedAt"`
	Stops       map[string]StopInfo `json:"stops"`
}

// RouteTable is the static per-line, per-direction stop-code sequence
// document. Direction keys are "G" (outbound) and "D" (return).
type RouteTable struct {
	GeneratedAt string                         `json:"generatedAt"`
	Routes      map[string]map[string][]string `json:"routes"`
}
