package favorites

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS favorites (
	line_code    TEXT NOT NULL,
	station_id   INTEGER NOT NULL,
	station_name TEXT NOT NULL,
	added_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (line_code, station_id)
)
`

// PostgresStore keeps favorites in Postgres via a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, pings, and creates the schema when missing.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(context.Background(), postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Add saves a favorite. Adding an existing pair updates its name and
// timestamp.
func (s *PostgresStore) Add(ctx context.Context, f Favorite) error {
	if f.AddedAt.IsZero() {
		f.AddedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO favorites (line_code, station_id, station_name, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (line_code, station_id) DO UPDATE SET
			station_name = EXCLUDED.station_name,
			added_at = EXCLUDED.added_at
	`
	if _, err := s.pool.Exec(ctx, query, f.LineCode, f.StationID, f.StationName, f.AddedAt); err != nil {
		return fmt.Errorf("failed to save favorite: %w", err)
	}
	return nil
}

// Remove deletes a favorite. Removing an absent pair is not an error.
func (s *PostgresStore) Remove(ctx context.Context, lineCode string, stationID int) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM favorites WHERE line_code = $1 AND station_id = $2`, lineCode, stationID)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

// List returns all favorites, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]Favorite, error) {
	query := `
		SELECT line_code, station_id, station_name, added_at
		FROM favorites
		ORDER BY added_at DESC, line_code, station_id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var favs []Favorite
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.LineCode, &f.StationID, &f.StationName, &f.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite row: %w", err)
		}
		favs = append(favs, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorite rows: %w", err)
	}

	return favs, nil
}

// IsFavorite reports whether the pair is pinned.
func (s *PostgresStore) IsFavorite(ctx context.Context, lineCode string, stationID int) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM favorites WHERE line_code = $1 AND station_id = $2`, lineCode, stationID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query favorite: %w", err)
	}
	return true, nil
}

// Ping checks the pool.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
