package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

type sqliteAdapter struct {
	db   *sql.DB
	name string
}

var _ Adapter = (*sqliteAdapter)(nil)

// NewSQLiteAdapter returns an Adapter backed by a SQLite database using a
// pure Go driver (no CGO). Each namespace stores its snapshot in a single
// row, so multiple caches can share one database file. If dbPath is empty
// or ":memory:", an in-memory database is used.
func NewSQLiteAdapter(dbPath, namespace string) (Adapter, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "cache: open snapshot db")
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "cache: enable WAL")
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		namespace TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "cache: create snapshots table")
	}

	return &sqliteAdapter{db: db, name: namespace}, nil
}

func (a *sqliteAdapter) Load(ctx context.Context) ([]Record, error) {
	var payload []byte
	err := a.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE namespace = ?`, a.name,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "cache: read snapshot row")
	}
	var records []Record
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, errors.Wrap(err, "cache: decode snapshot row")
	}
	return records, nil
}

func (a *sqliteAdapter) Save(ctx context.Context, records []Record) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return errors.Wrap(err, "cache: encode snapshot")
	}
	_, err = a.db.ExecContext(ctx,
		`INSERT INTO snapshots (namespace, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		a.name, payload, time.Now().UnixNano(),
	)
	return errors.Wrap(err, "cache: write snapshot row")
}

func (a *sqliteAdapter) Close() error {
	return a.db.Close()
}
