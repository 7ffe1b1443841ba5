package state

import (
	"encoding/json"
	"fmt"
	"time"
)

// Health is the last classified health of the gateway.
type Health string

const (
	HealthUnknown Health = "unknown"
	HealthHealthy Health = "healthy"
	HealthCrashed Health = "crashed"
)

func (h Health) Valid() bool {
	switch h {
	case HealthUnknown, HealthHealthy, HealthCrashed:
		return true
	}
	return false
}

// State is the watchdog's durable bookkeeping.
// Zero timestamps mean "absent". All timestamps are kept in UTC.
type State struct {
	LastCheck           time.Time
	LastHealthy         time.Time
	LastCrash           time.Time
	UptimeStart         time.Time
	CrashCount          int
	RestartCount        int
	ConsecutiveFailures int
	LastNotification    time.Time
	TotalUptimeHours    float64
	HealthStatus        Health
}

// Default returns the state used when nothing has been persisted yet.
func Default() State {
	return State{HealthStatus: HealthUnknown}
}

// Document is the persisted form of State. Keys match the state file
// written by earlier versions of the controller, whose offset-less
// timestamps decode as UTC.
type Document struct {
	LastCheck           *string `json:"last_check"`
	LastHealthy         *string `json:"last_healthy"`
	LastCrash           *string `json:"last_crash"`
	UptimeStart         *string `json:"uptime_start"`
	CrashCount          int     `json:"crash_count"`
	RestartCount        int     `json:"restart_count"`
	ConsecutiveFailures int     `json:"consecutive_failures"`
	LastNotification    *string `json:"last_notification"`
	TotalUptimeHours    float64 `json:"total_uptime_hours"`
	HealthStatus        string  `json:"health_status"`
}

// TimeLayout is RFC 3339 with nanoseconds; UTC values render with a "Z" offset.
const TimeLayout = time.RFC3339Nano

func formatTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(TimeLayout)
	return &s
}

// legacyLayouts are offset-less timestamps written by earlier controllers; they are read as UTC.
var legacyLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTime(field string, s *string) (time.Time, error) {
	if s == nil || *s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(TimeLayout, *s)
	if err == nil {
		return t.UTC(), nil
	}
	for _, layout := range legacyLayouts {
		if lt, lerr := time.ParseInLocation(layout, *s, time.UTC); lerr == nil {
			return lt, nil
		}
	}
	return time.Time{}, fmt.Errorf("field %s: %w", field, err)
}

// ToDocument converts the in-memory state to its persisted form.
func (s State) ToDocument() Document {
	h := s.HealthStatus
	if h == "" {
		h = HealthUnknown
	}
	return Document{
		LastCheck:           formatTime(s.LastCheck),
		LastHealthy:         formatTime(s.LastHealthy),
		LastCrash:           formatTime(s.LastCrash),
		UptimeStart:         formatTime(s.UptimeStart),
		CrashCount:          s.CrashCount,
		RestartCount:        s.RestartCount,
		ConsecutiveFailures: s.ConsecutiveFailures,
		LastNotification:    formatTime(s.LastNotification),
		TotalUptimeHours:    s.TotalUptimeHours,
		HealthStatus:        string(h),
	}
}

// FromDocument validates a persisted document and converts it back.
func FromDocument(d Document) (State, error) {
	var (
		s   State
		err error
	)
	if s.LastCheck, err = parseTime("last_check", d.LastCheck); err != nil {
		return State{}, err
	}
	if s.LastHealthy, err = parseTime("last_healthy", d.LastHealthy); err != nil {
		return State{}, err
	}
	if s.LastCrash, err = parseTime("last_crash", d.LastCrash); err != nil {
		return State{}, err
	}
	if s.UptimeStart, err = parseTime("uptime_start", d.UptimeStart); err != nil {
		return State{}, err
	}
	if s.LastNotification, err = parseTime("last_notification", d.LastNotification); err != nil {
		return State{}, err
	}
	if d.CrashCount < 0 || d.RestartCount < 0 || d.ConsecutiveFailures < 0 {
		return State{}, fmt.Errorf("negative counter in state document")
	}
	if d.TotalUptimeHours < 0 {
		return State{}, fmt.Errorf("negative total_uptime_hours %v", d.TotalUptimeHours)
	}
	s.CrashCount = d.CrashCount
	s.RestartCount = d.RestartCount
	s.ConsecutiveFailures = d.ConsecutiveFailures
	s.TotalUptimeHours = d.TotalUptimeHours
	s.HealthStatus = Health(d.HealthStatus)
	if s.HealthStatus == "" {
		s.HealthStatus = HealthUnknown
	}
	if !s.HealthStatus.Valid() {
		return State{}, fmt.Errorf("unknown health_status %q", d.HealthStatus)
	}
	return s, nil
}

// Encode renders the state as an indented JSON document.
func Encode(s State) ([]byte, error) {
	return json.MarshalIndent(s.ToDocument(), "", "  ")
}

// Decode parses a JSON document produced by Encode.
func Decode(b []byte) (State, error) {
	var d Document
	if err := json.Unmarshal(b, &d); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	return FromDocument(d)
}

// StreakHours returns the length of the current healthy streak at now.
func (s State) StreakHours(now time.Time) float64 {
	if s.UptimeStart.IsZero() {
		return 0
	}
	d := now.Sub(s.UptimeStart)
	if d < 0 {
		return 0
	}
	return d.Hours()
}
