// Package favorites persists user-pinned stations, keyed by line code and
// station id.
package favorites

import (
	"context"
	"time"
)

// Favorite is one pinned station.
type Favorite struct {
	LineCode    string    `json:"lineCode"`
	StationID   int       `json:"stationId"`
	StationName string    `json:"stationName"`
	AddedAt     time.Time `json:"addedAt"`
}

// Store persists favorites. Implementations are safe for concurrent use.
type Store interface {
	Add(ctx context.Context, f Favorite) error
	Remove(ctx context.Context, lineCode string, stationID int) error
	List(ctx context.Context) ([]Favorite, error)
	IsFavorite(ctx context.Context, lineCode string, stationID int) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open selects the backend: Postgres when a database URL is configured,
// the local SQLite file otherwise.
func Open(databaseURL, sqlitePath string) (Store, error) {
	if databaseURL != "" {
		return NewPostgresStore(databaseURL)
	}
	return NewSQLiteStore(sqlitePath)
}
