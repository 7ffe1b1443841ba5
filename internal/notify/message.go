package notify

import (
	"fmt"
	"strings"
	"time"
)

// CrashInfo describes one crash for CrashMessage.
type CrashInfo struct {
	CrashTime           time.Time
	ErrorMessage        string
	UptimeHours         float64
	TotalCrashes        int
	ConsecutiveFailures int
	RestartAttempts     int
	RestartSuccess      bool
}

// RecoveryInfo describes one recovery for RecoveryMessage.
type RecoveryInfo struct {
	RecoveryTime  time.Time
	Downtime      time.Duration
	Method        string
	TotalRestarts int
}

// Recovery methods.
const (
	MethodAutoRestart = "Auto-restart"
	MethodHealthCheck = "Health check"
)

// Urgency picks the headline for the number of consecutive failures.
func Urgency(consecutive int) string {
	switch {
	case consecutive == 1:
		return "🟡 Gateway Crash Detected"
	case consecutive >= 3:
		return "🔴 CRITICAL: Repeated Gateway Crashes"
	default:
		return "🟠 Gateway Crash (Multiple Failures)"
	}
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.UTC().Format(time.RFC3339)
}

func CrashMessage(c CrashInfo) string {
	var b strings.Builder
	b.WriteString(Urgency(c.ConsecutiveFailures))
	b.WriteString("\n\n**OpenClaw Gateway has crashed**\n")
	fmt.Fprintf(&b, "**Detected at:** %s\n", stamp(c.CrashTime))
	errMsg := c.ErrorMessage
	if errMsg == "" {
		errMsg = "Unknown error"
	}
	fmt.Fprintf(&b, "**Error:** %s", errMsg)
	if c.UptimeHours > 0 {
		fmt.Fprintf(&b, "\n**Uptime before crash:** %.1f hours", c.UptimeHours)
	}
	if c.RestartAttempts > 0 {
		if c.RestartSuccess {
			fmt.Fprintf(&b, "\n✅ **Auto-restart:** Successful after %d attempts", c.RestartAttempts)
		} else {
			fmt.Fprintf(&b, "\n❌ **Auto-restart:** Failed after %d attempts", c.RestartAttempts)
		}
	}
	fmt.Fprintf(&b, "\n**Total crashes:** %d\n", c.TotalCrashes)
	fmt.Fprintf(&b, "**Consecutive failures:** %d\n\n", c.ConsecutiveFailures)
	b.WriteString("**Status:** Gateway monitoring will continue attempting recovery.\n\n")
	b.WriteString("**Manual intervention may be needed if auto-restart continues to fail.**\n")
	b.WriteString("Check OpenClaw logs: `openclaw logs --follow`\n")
	b.WriteString("Manual restart: `openclaw gateway restart`\n\n")
	b.WriteString("View watchdog status in ClawController dashboard.")
	return b.String()
}

func RecoveryMessage(r RecoveryInfo) string {
	method := r.Method
	if method == "" {
		method = MethodAutoRestart
	}
	var b strings.Builder
	b.WriteString("✅ Gateway Recovery\n\n**OpenClaw Gateway is back online**\n")
	fmt.Fprintf(&b, "**Recovered at:** %s\n", stamp(r.RecoveryTime))
	fmt.Fprintf(&b, "**Downtime:** %.1f minutes\n", r.Downtime.Minutes())
	fmt.Fprintf(&b, "**Recovery method:** %s\n\n", method)
	b.WriteString("**Status:** Gateway monitoring resumed.\n")
	fmt.Fprintf(&b, "**Total restarts:** %d\n\n", r.TotalRestarts)
	b.WriteString("Gateway is now healthy and operational.")
	return b.String()
}
