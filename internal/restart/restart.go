package restart

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/leandromarcosmoreira/ClawController/internal/env"
)

// Result reports whether a restart attempt succeeded.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Action tries to bring the gateway back.
type Action interface {
	Restart(ctx context.Context) Result
}

// UnsupportedMessage is returned by Unsupported.
const UnsupportedMessage = "Restart not supported in this environment"

// Unsupported is the default action: it always fails.
type Unsupported struct{}

func (Unsupported) Restart(context.Context) Result {
	return Result{Message: UnsupportedMessage}
}

// Command runs a shell command; exit status 0 means success.
// Env entries are merged over the process environment with ${VAR} expansion.
type Command struct {
	Script  string
	Timeout time.Duration
	Env     []string
}

func (c Command) Restart(ctx context.Context) Result {
	if strings.TrimSpace(c.Script) == "" {
		return Result{Message: "restart command is empty"}
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	// #nosec G204
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", c.Script)
	if len(c.Env) > 0 {
		cmd.Env = env.FromOS().Merge(c.Env)
	}
	// children of the shell may hold the output pipe open after a kill
	cmd.WaitDelay = time.Second
	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{Message: fmt.Sprintf("restart command timed out after %s", c.Timeout)}
		}
		if output != "" {
			return Result{Message: fmt.Sprintf("restart command failed: %v: %s", err, output)}
		}
		return Result{Message: fmt.Sprintf("restart command failed: %v", err)}
	}
	if output == "" {
		output = "restart command completed"
	}
	return Result{Success: true, Message: output}
}

// FromScript returns Command when script is set, otherwise Unsupported.
func FromScript(script string, timeout time.Duration, environ ...string) Action {
	if strings.TrimSpace(script) == "" {
		return Unsupported{}
	}
	return Command{Script: script, Timeout: timeout, Env: environ}
}
