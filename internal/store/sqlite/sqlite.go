package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/leandromarcosmoreira/ClawController/internal/state"
	"github.com/leandromarcosmoreira/ClawController/internal/store"
)

// DefaultName is the row key used for the watchdog state document.
const DefaultName = "gateway_watchdog"

// DB implements store.Store for SQLite (modernc.org/sqlite driver, CGO-free).
// DSN is a filesystem path to the SQLite database file. Use ":memory:" for in-memory.
type DB struct {
	db   *sql.DB
	dsn  string
	name string
}

// New opens a SQLite database at path and ensures the schema exists.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases alive between calls
	d.SetMaxOpenConns(1)
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	s := &DB{db: d, dsn: p, name: DefaultName}
	if err := s.EnsureSchema(context.Background()); err != nil {
		_ = d.Close()
		return nil, err
	}
	return s, nil
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS watchdog_state(
		name TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`)
	return err
}

func (s *DB) Location() string { return "sqlite://" + s.dsn }

func (s *DB) Load(ctx context.Context) (state.State, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM watchdog_state WHERE name=?;`, s.name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return state.State{}, store.ErrNotFound
	}
	if err != nil {
		return state.State{}, err
	}
	return state.Decode([]byte(doc))
}

func (s *DB) Save(ctx context.Context, st state.State) error {
	b, err := state.Encode(st)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO watchdog_state(name, document, updated_at)
		VALUES(?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			document=excluded.document,
			updated_at=excluded.updated_at;`,
		s.name, string(b), time.Now().UTC())
	return err
}

func (s *DB) Close() error { return s.db.Close() }
