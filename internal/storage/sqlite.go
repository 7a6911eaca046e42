package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Liev03/DOexpertSystem/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS readings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	temperature REAL NOT NULL,
	ph REAL NOT NULL,
	dissolved_oxygen REAL NOT NULL,
	ammonia REAL NOT NULL,
	salinity REAL NOT NULL,
	turbidity REAL,
	fish_type TEXT NOT NULL DEFAULT 'standard',
	recorded_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_readings_recorded_at ON readings(recorded_at);`

const readingColumns = "id, temperature, ph, dissolved_oxygen, ammonia, salinity, turbidity, fish_type, recorded_at"

// SQLiteStore implements ReadingStore on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database file, creating it and the schema when
// missing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; one pooled connection avoids
	// SQLITE_BUSY under concurrent HTTP and MQTT writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log := logger.WithComponent("storage")
	log.Info().
		Str("path", path).
		Msg("sqlite store ready")
	return &SQLiteStore{db: db}, nil
}

// Save inserts the reading and assigns its row ID.
func (s *SQLiteStore) Save(ctx context.Context, r *Reading) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO readings (temperature, ph, dissolved_oxygen, ammonia, salinity, turbidity, fish_type, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Temperature, r.PH, r.DissolvedOxygen, r.Ammonia, r.Salinity, r.Turbidity, r.FishType, r.RecordedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read insert id: %w", err)
	}
	r.ID = id
	return nil
}

// Latest returns the newest reading by recorded time.
func (s *SQLiteStore) Latest(ctx context.Context) (*Reading, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+readingColumns+`
		FROM readings
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1`)
	r, err := scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoReadings
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest reading: %w", err)
	}
	return r, nil
}

// Recent returns up to n readings, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]*Reading, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+readingColumns+`
		FROM readings
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent readings: %w", err)
	}
	defer rows.Close()

	var readings []*Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return readings, nil
}

// Ping verifies the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReading(row rowScanner) (*Reading, error) {
	var r Reading
	var turbidity sql.NullFloat64
	if err := row.Scan(
		&r.ID,
		&r.Temperature,
		&r.PH,
		&r.DissolvedOxygen,
		&r.Ammonia,
		&r.Salinity,
		&turbidity,
		&r.FishType,
		&r.RecordedAt,
	); err != nil {
		return nil, err
	}
	if turbidity.Valid {
		v := turbidity.Float64
		r.Turbidity = &v
	}
	return &r, nil
}
