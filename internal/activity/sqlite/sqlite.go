package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/leandromarcosmoreira/ClawController/internal/activity"
)

// timeLayout has a fixed-width fraction so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Sink writes activity entries to the activity_log table of a SQLite database.
type Sink struct {
	db *sql.DB
}

// New creates a new SQLite activity sink.
// DSN format:
//   - "sqlite:///path/to/file.db"
//   - "sqlite://:memory:"
//   - "/path/to/file.db" (without prefix)
//   - ":memory:" (in-memory database)
func New(dsn string) (*Sink, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("empty SQLite DSN")
	}
	if strings.HasPrefix(strings.ToLower(dsn), "sqlite://") {
		dsn = dsn[len("sqlite://"):]
	}
	if dir := filepath.Dir(dsn); dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// :memory: is per connection
	db.SetMaxOpenConns(1)

	sink := &Sink{db: db}
	if err := sink.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sink, nil
}

func (s *Sink) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS activity_log(
			id TEXT PRIMARY KEY,
			activity_type TEXT NOT NULL,
			agent_id TEXT,
			task_id TEXT,
			description TEXT,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_activity_log_created_at ON activity_log(created_at);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (s *Sink) Send(ctx context.Context, e activity.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log(id, activity_type, agent_id, task_id, description, created_at)
		VALUES(?, ?, ?, ?, ?, ?);`,
		e.ID, string(e.Type), nullable(e.AgentID), nullable(e.TaskID), e.Description,
		e.CreatedAt.UTC().Format(timeLayout))
	return err
}

// Recent returns up to limit entries, newest first.
func (s *Sink) Recent(ctx context.Context, limit int) ([]activity.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, activity_type, agent_id, task_id, description, created_at
		FROM activity_log ORDER BY created_at DESC, rowid DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []activity.Entry
	for rows.Next() {
		var (
			e                    activity.Entry
			typ, created         string
			agent, task, descrip sql.NullString
		)
		if err := rows.Scan(&e.ID, &typ, &agent, &task, &descrip, &created); err != nil {
			return nil, err
		}
		e.Type = activity.Type(typ)
		e.AgentID = agent.String
		e.TaskID = task.String
		e.Description = descrip.String
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Sink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
