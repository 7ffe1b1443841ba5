//go:build !windows

package restart

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestUnsupportedAlwaysFails(t *testing.T) {
	res := Unsupported{}.Restart(context.Background())
	if res.Success || res.Message != UnsupportedMessage {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCommandSuccess(t *testing.T) {
	res := Command{Script: "echo restarted", Timeout: 5 * time.Second}.Restart(context.Background())
	if !res.Success || res.Message != "restarted" {
		t.Fatalf("unexpected result: %+v", res)
	}
	res = Command{Script: "true"}.Restart(context.Background())
	if !res.Success || res.Message != "restart command completed" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCommandFailure(t *testing.T) {
	res := Command{Script: "echo nope >&2; exit 3", Timeout: 5 * time.Second}.Restart(context.Background())
	if res.Success {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(res.Message, "exit status 3") || !strings.Contains(res.Message, "nope") {
		t.Fatalf("unexpected message: %q", res.Message)
	}
	if res := (Command{Script: "  "}).Restart(context.Background()); res.Success {
		t.Fatalf("empty script must fail")
	}
}

func TestCommandTimeout(t *testing.T) {
	res := Command{Script: "exec sleep 5", Timeout: 50 * time.Millisecond}.Restart(context.Background())
	if res.Success || !strings.Contains(res.Message, "timed out") {
		t.Fatalf("expected timeout, got %+v", res)
	}
}

func TestCommandEnvironment(t *testing.T) {
	t.Setenv("CLAWWATCH_BASE", "base")
	res := Command{
		Script:  `echo "$GW_UNIT:$CLAWWATCH_BASE"`,
		Timeout: 5 * time.Second,
		Env:     []string{"GW_UNIT=openclaw-${CLAWWATCH_BASE}"},
	}.Restart(context.Background())
	if !res.Success || res.Message != "openclaw-base:base" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestFromScript(t *testing.T) {
	if _, ok := FromScript("", time.Second).(Unsupported); !ok {
		t.Fatalf("empty script should select Unsupported")
	}
	if c, ok := FromScript("systemctl restart gw", time.Second).(Command); !ok || c.Timeout != time.Second {
		t.Fatalf("expected Command, got %#v", c)
	}
	if c, ok := FromScript("x", time.Second, "A=1").(Command); !ok || len(c.Env) != 1 {
		t.Fatalf("expected env to be carried, got %#v", c)
	}
}
