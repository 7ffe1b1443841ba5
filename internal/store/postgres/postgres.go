package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/leandromarcosmoreira/ClawController/internal/state"
	"github.com/leandromarcosmoreira/ClawController/internal/store"
)

// DefaultName is the row key used for the watchdog state document.
const DefaultName = "gateway_watchdog"

// DB implements store.Store on PostgreSQL through pgx's database/sql driver.
// The connection is opened lazily; the schema is created on first use.
type DB struct {
	db   *sql.DB
	dsn  string
	name string

	mu     sync.Mutex
	schema bool
}

func New(dsn string) (*DB, error) {
	d := strings.TrimSpace(dsn)
	if d == "" {
		return nil, errors.New("empty PostgreSQL DSN")
	}
	db, err := sql.Open("pgx", d)
	if err != nil {
		return nil, err
	}
	return &DB{db: db, dsn: d, name: DefaultName}, nil
}

func (p *DB) EnsureSchema(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.schema {
		return nil
	}
	_, err := p.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS watchdog_state(
		name TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);`)
	if err != nil {
		return err
	}
	p.schema = true
	return nil
}

// Location hides credentials embedded in the DSN.
func (p *DB) Location() string {
	if i := strings.Index(p.dsn, "@"); i >= 0 {
		if j := strings.Index(p.dsn, "://"); j >= 0 && j < i {
			return p.dsn[:j+3] + "***" + p.dsn[i:]
		}
	}
	return p.dsn
}

func (p *DB) Load(ctx context.Context) (state.State, error) {
	if err := p.EnsureSchema(ctx); err != nil {
		return state.State{}, err
	}
	var doc string
	err := p.db.QueryRowContext(ctx, `SELECT document FROM watchdog_state WHERE name=$1;`, p.name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return state.State{}, store.ErrNotFound
	}
	if err != nil {
		return state.State{}, err
	}
	return state.Decode([]byte(doc))
}

func (p *DB) Save(ctx context.Context, st state.State) error {
	if err := p.EnsureSchema(ctx); err != nil {
		return err
	}
	b, err := state.Encode(st)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO watchdog_state(name, document, updated_at)
		VALUES($1, $2, $3)
		ON CONFLICT(name) DO UPDATE SET
			document=EXCLUDED.document,
			updated_at=EXCLUDED.updated_at;`,
		p.name, string(b), time.Now().UTC())
	return err
}

func (p *DB) Close() error { return p.db.Close() }
