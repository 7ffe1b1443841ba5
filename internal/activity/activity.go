package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type classifies an activity log entry.
type Type string

const (
	GatewayCrash         Type = "gateway_crash"
	GatewayRestart       Type = "gateway_restart"
	GatewayRestartFailed Type = "gateway_restart_failed"
	GatewayRecovery      Type = "gateway_recovery"
	MonitorError         Type = "monitor_error"
	WatchdogStarted      Type = "watchdog_started"
	WatchdogStopped      Type = "watchdog_stopped"
	ManualRestart        Type = "manual_restart"
)

// AgentID identifies the watchdog as the author of its entries.
const AgentID = "gateway_watchdog"

// Entry is one row of the activity log.
type Entry struct {
	ID          string    `json:"id"`
	Type        Type      `json:"activity_type"`
	AgentID     string    `json:"agent_id,omitempty"`
	TaskID      string    `json:"task_id,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewEntry builds an entry authored by the watchdog with a fresh id.
func NewEntry(t Type, description string, at time.Time) Entry {
	return Entry{
		ID:          uuid.NewString(),
		Type:        t,
		AgentID:     AgentID,
		Description: description,
		CreatedAt:   at.UTC(),
	}
}

// Sink is a destination for activity entries.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Entry) error
}

// Lister is implemented by sinks that can read entries back, newest first.
type Lister interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// ErrNotListable is returned by Multi.Recent when no sink can be read back.
var ErrNotListable = errors.New("no listable activity sink configured")

// Multi fans an entry out to every sink.
type Multi []Sink

func (m Multi) Send(ctx context.Context, e Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recent is served by the first sink that implements Lister.
func (m Multi) Recent(ctx context.Context, limit int) ([]Entry, error) {
	for _, s := range m {
		if l, ok := s.(Lister); ok {
			return l.Recent(ctx, limit)
		}
	}
	return nil, ErrNotListable
}

// Close closes every sink that has a Close method.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
