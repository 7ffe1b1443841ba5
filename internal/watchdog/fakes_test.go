package watchdog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/leandromarcosmoreira/ClawController/internal/activity"
	"github.com/leandromarcosmoreira/ClawController/internal/probe"
	"github.com/leandromarcosmoreira/ClawController/internal/restart"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// scriptedProber returns healthy or unhealthy according to the flag.
type scriptedProber struct {
	mu      sync.Mutex
	healthy bool
	message string
	calls   int
	panics  bool
}

func (p *scriptedProber) set(healthy bool, msg string) {
	p.mu.Lock()
	p.healthy, p.message = healthy, msg
	p.mu.Unlock()
}

func (p *scriptedProber) Check(context.Context) probe.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.panics {
		panic("probe exploded")
	}
	if p.healthy {
		return probe.Result{Healthy: true, Message: probe.HealthyMessage}
	}
	return probe.Result{Message: p.message}
}

func (p *scriptedProber) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type countingRestarter struct {
	mu      sync.Mutex
	calls   int
	success bool
}

func (r *countingRestarter) Restart(context.Context) restart.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.success {
		return restart.Result{Success: true, Message: "restarted"}
	}
	return restart.Result{Message: restart.UnsupportedMessage}
}

func (r *countingRestarter) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return n.err
}

func (n *recordingNotifier) count(substr string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.msgs {
		if strings.Contains(m, substr) {
			c++
		}
	}
	return c
}

const (
	crashMarker    = "OpenClaw Gateway has crashed"
	recoveryMarker = "Gateway Recovery"
)

type memorySink struct {
	mu      sync.Mutex
	entries []activity.Entry
	err     error
}

func (s *memorySink) Send(_ context.Context, e activity.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *memorySink) types() []activity.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]activity.Type, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Type)
	}
	return out
}

func (s *memorySink) count(t activity.Type) int {
	c := 0
	for _, got := range s.types() {
		if got == t {
			c++
		}
	}
	return c
}

type panickingSink struct{}

func (panickingSink) Send(context.Context, activity.Entry) error { panic("sink exploded") }

var errDisk = errors.New("disk full")
