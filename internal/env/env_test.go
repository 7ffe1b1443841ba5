package env

import (
	"strings"
	"testing"
)

func lookup(list []string, k string) (string, bool) {
	for _, kv := range list {
		if strings.HasPrefix(kv, k+"=") {
			return kv[len(k)+1:], true
		}
	}
	return "", false
}

func TestMergeOverridesAndExpands(t *testing.T) {
	e := FromList([]string{"HOME=/home/gw", "PATH=/usr/bin", "=broken", "noequals"})
	out := e.Merge([]string{"PATH=/opt/gw/bin:${PATH}", "GW_HOME=${HOME}/openclaw", "EMPTY=${MISSING}"})

	cases := map[string]string{
		"HOME":    "/home/gw",
		"PATH":    "/opt/gw/bin:/usr/bin",
		"GW_HOME": "/home/gw/openclaw",
		"EMPTY":   "",
	}
	for k, want := range cases {
		got, ok := lookup(out, k)
		if !ok || got != want {
			t.Fatalf("%s = %q (present=%v), want %q", k, got, ok, want)
		}
	}
	if len(out) != 4 {
		t.Fatalf("malformed entries must be dropped: %v", out)
	}
	for i := 1; i < len(out); i++ {
		if out[i-1] > out[i] {
			t.Fatalf("output not sorted: %v", out)
		}
	}
}

func TestMergeLeavesShellVariablesAlone(t *testing.T) {
	out := FromList(nil).Merge([]string{"CMD=echo $HOME ${", "X=a}b"})
	if v, _ := lookup(out, "CMD"); v != "echo $HOME ${" {
		t.Fatalf("unexpected CMD %q", v)
	}
	if v, _ := lookup(out, "X"); v != "a}b" {
		t.Fatalf("unexpected X %q", v)
	}
}

func TestFromOS(t *testing.T) {
	t.Setenv("CLAWWATCH_ENV_TEST", "yes")
	if v, ok := FromOS().Lookup("CLAWWATCH_ENV_TEST"); !ok || v != "yes" {
		t.Fatalf("expected process env to be captured, got %q %v", v, ok)
	}
}

// FuzzMerge checks Merge never emits malformed pairs and never loses an override key.
func FuzzMerge(f *testing.F) {
	f.Add([]byte("A=1\nB=${A}-x"), []byte("C=${B}-y"))
	f.Add([]byte("FOO=bar"), []byte("FOO=${FOO}"))
	f.Add([]byte("X=$Y"), []byte("Y=${X}"))

	f.Fuzz(func(t *testing.T, baseB, overB []byte) {
		base := strings.Split(string(baseB), "\n")
		over := strings.Split(string(overB), "\n")
		if len(base) > 20 {
			base = base[:20]
		}
		if len(over) > 20 {
			over = over[:20]
		}
		out := FromList(base).Merge(over)
		for _, kv := range out {
			if !strings.Contains(kv, "=") || strings.HasPrefix(kv, "=") {
				t.Fatalf("bad pair: %q", kv)
			}
		}
		for _, kv := range over {
			if k, _, ok := split(kv); ok {
				if _, found := lookup(out, k); !found {
					t.Fatalf("override %q missing from %v", k, out)
				}
			}
		}
	})
}
