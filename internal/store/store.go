package store

import (
	"context"
	"errors"

	"github.com/leandromarcosmoreira/ClawController/internal/state"
)

// ErrNotFound is returned by Load when no state has been persisted yet.
var ErrNotFound = errors.New("watchdog state not found")

// Store persists the single watchdog state document.
// Implementations must be safe for concurrent use.
type Store interface {
	Load(ctx context.Context) (state.State, error)
	Save(ctx context.Context, s state.State) error
	// Location describes where the state lives (file path or DSN) for status output.
	Location() string
	Close() error
}
