package favorites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS favorites (
	line_code    TEXT NOT NULL,
	station_id   INTEGER NOT NULL,
	station_name TEXT NOT NULL,
	added_at     TEXT NOT NULL,
	PRIMARY KEY (line_code, station_id)
);
`

// SQLiteStore keeps favorites in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database with WAL mode and foreign keys enabled
// and creates the schema when missing.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal=WAL&_fk=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection; SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Add saves a favorite. Adding an existing pair updates its name and
// timestamp.
func (s *SQLiteStore) Add(ctx context.Context, f Favorite) error {
	if f.AddedAt.IsZero() {
		f.AddedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO favorites (line_code, station_id, station_name, added_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (line_code, station_id) DO UPDATE SET
			station_name = excluded.station_name,
			added_at = excluded.added_at
	`
	_, err := s.db.ExecContext(ctx, query, f.LineCode, f.StationID, f.StationName, f.AddedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save favorite: %w", err)
	}
	return nil
}

// Remove deletes a favorite. Removing an absent pair is not an error.
func (s *SQLiteStore) Remove(ctx context.Context, lineCode string, stationID int) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE line_code = ? AND station_id = ?`, lineCode, stationID)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

// List returns all favorites, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Favorite, error) {
	query := `
		SELECT line_code, station_id, station_name, added_at
		FROM favorites
		ORDER BY datetime(added_at) DESC, line_code, station_id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var favs []Favorite
	for rows.Next() {
		var f Favorite
		var addedAtStr string
		if err := rows.Scan(&f.LineCode, &f.StationID, &f.StationName, &addedAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan favorite row: %w", err)
		}
		// SQLite stores timestamps as RFC3339 strings.
		if t, err := time.Parse(time.RFC3339, addedAtStr); err == nil {
			f.AddedAt = t
		}
		favs = append(favs, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorite rows: %w", err)
	}

	return favs, nil
}

// IsFavorite reports whether the pair is pinned.
func (s *SQLiteStore) IsFavorite(ctx context.Context, lineCode string, stationID int) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM favorites WHERE line_code = ? AND station_id = ?`, lineCode, stationID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query favorite: %w", err)
	}
	return true, nil
}

// Ping checks the connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
