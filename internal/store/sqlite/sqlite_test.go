package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/leandromarcosmoreira/ClawController/internal/state"
	"github.com/leandromarcosmoreira/ClawController/internal/store"
)

func TestSQLiteStateRoundTrip(t *testing.T) {
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	if _, err := db.Load(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty table, got %v", err)
	}

	now := time.Now().UTC()
	st := state.Default()
	st.HealthStatus = state.HealthHealthy
	st.LastHealthy = now
	st.UptimeStart = now.Add(-time.Hour)
	if err := db.Save(ctx, st); err != nil {
		t.Fatalf("save: %v", err)
	}

	// overwrite: the table keeps a single row
	st.CrashCount = 1
	if err := db.Save(ctx, st); err != nil {
		t.Fatalf("save again: %v", err)
	}
	got, err := db.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != st {
		t.Fatalf("unexpected state:\nwant=%+v\n got=%+v", st, got)
	}
	var rows int
	if err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM watchdog_state`).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row, got %d", rows)
	}
}

func TestSQLiteFileLocation(t *testing.T) {
	p := filepath.Join(t.TempDir(), "state.db")
	db, err := New(p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()
	if db.Location() != "sqlite://"+p {
		t.Fatalf("unexpected location %q", db.Location())
	}
}
