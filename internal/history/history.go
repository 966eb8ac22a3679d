// Package history keeps a log of produced estimates in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

// Entry is one recorded estimate.
type Entry struct {
	ID             int64     `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	ImagePath      string    `json:"image_path,omitempty"`
	Category       string    `json:"category"`
	Setting        string    `json:"setting"`
	X1             float64   `json:"x1"`
	Y1             float64   `json:"y1"`
	X2             float64   `json:"x2"`
	Y2             float64   `json:"y2"`
	Method         string    `json:"method"`
	ReferenceLabel *int      `json:"reference_label,omitempty"`
	AreaM2         float64   `json:"area_m2"`
}

// Store persists entries.
type Store struct {
	db *sql.DB
}

// Open connects to the sqlite database at dsn and creates the schema if
// needed. ":memory:" is supported; the pool is limited to one connection so
// the in-memory database is shared.
func Open(dsn string) (*Store, error) {
	if !strings.Contains(dsn, "_busy_timeout") {
		if strings.Contains(dsn, "?") {
			dsn += "&_busy_timeout=5000"
		} else {
			dsn += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}
	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
    CREATE TABLE IF NOT EXISTS estimates (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        created_at INTEGER NOT NULL,
        image_path TEXT NOT NULL DEFAULT '',
        category TEXT NOT NULL,
        setting TEXT NOT NULL,
        x1 REAL NOT NULL,
        y1 REAL NOT NULL,
        x2 REAL NOT NULL,
        y2 REAL NOT NULL,
        method TEXT NOT NULL,
        reference_label INTEGER,
        area_m2 REAL NOT NULL
    );
    `)
	return err
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts e and returns its id. A zero CreatedAt is set to now.
func (s *Store) Record(ctx context.Context, e *Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	var ref sql.NullInt64
	if e.ReferenceLabel != nil {
		ref = sql.NullInt64{Int64: int64(*e.ReferenceLabel), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO estimates (created_at, image_path, category, setting, x1, y1, x2, y2, method, reference_label, area_m2)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.CreatedAt.UnixNano(), e.ImagePath, e.Category, e.Setting,
		e.X1, e.Y1, e.X2, e.Y2, e.Method, ref, e.AreaM2)
	if err != nil {
		return 0, fmt.Errorf("failed to record estimate: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read estimate id: %w", err)
	}
	e.ID = id
	return id, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, image_path, category, setting, x1, y1, x2, y2, method, reference_label, area_m2
         FROM estimates ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e       Entry
			created int64
			ref     sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &created, &e.ImagePath, &e.Category, &e.Setting,
			&e.X1, &e.Y1, &e.X2, &e.Y2, &e.Method, &ref, &e.AreaM2); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.CreatedAt = time.Unix(0, created)
		if ref.Valid {
			label := int(ref.Int64)
			e.ReferenceLabel = &label
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
