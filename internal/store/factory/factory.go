package factory

import (
	"errors"
	"strings"

	"github.com/leandromarcosmoreira/ClawController/internal/store"
	"github.com/leandromarcosmoreira/ClawController/internal/store/file"
	pg "github.com/leandromarcosmoreira/ClawController/internal/store/postgres"
	sq "github.com/leandromarcosmoreira/ClawController/internal/store/sqlite"
)

// New selects a store implementation based on location.
// Supported:
//   - sqlite:   "sqlite://<path>" or "sqlite://:memory:"
//   - postgres: DSN starting with "postgres://" or "postgresql://"
//   - anything else is a path to a JSON state file
func New(location string) (store.Store, error) {
	d := strings.TrimSpace(location)
	ld := strings.ToLower(d)
	if ld == "" {
		return nil, errors.New("empty state location")
	}
	if strings.HasPrefix(ld, "postgres://") || strings.HasPrefix(ld, "postgresql://") {
		return pg.New(d)
	}
	if strings.HasPrefix(ld, "sqlite://") {
		return sq.New(d[len("sqlite://"):])
	}
	return file.New(d)
}
