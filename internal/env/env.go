package env

import (
	"os"
	"sort"
	"strings"
)

// Env composes the environment handed to child commands: a base taken from
// the process environment overlaid with explicit KEY=VALUE entries.
type Env struct {
	base map[string]string
}

// FromOS snapshots the current process environment.
func FromOS() *Env {
	return FromList(os.Environ())
}

// FromList builds an Env from "KEY=VALUE" entries. Malformed entries are skipped.
func FromList(kvs []string) *Env {
	e := &Env{base: make(map[string]string, len(kvs))}
	for _, kv := range kvs {
		if k, v, ok := split(kv); ok {
			e.base[k] = v
		}
	}
	return e
}

// Lookup returns the base value for k.
func (e *Env) Lookup(k string) (string, bool) {
	v, ok := e.base[k]
	return v, ok
}

// Merge applies overrides on top of the base and returns a sorted "KEY=VALUE"
// list. ${VAR} references in override values are expanded against the merged
// map in a single pass; unknown references expand to the empty string.
func (e *Env) Merge(overrides []string) []string {
	m := make(map[string]string, len(e.base)+len(overrides))
	for k, v := range e.base {
		m[k] = v
	}
	raw := make(map[string]string, len(overrides))
	for _, kv := range overrides {
		if k, v, ok := split(kv); ok {
			m[k] = v
			raw[k] = v
		}
	}
	for k, v := range raw {
		m[k] = expand(v, m)
	}
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func split(kv string) (string, string, bool) {
	i := strings.IndexByte(kv, '=')
	if i <= 0 {
		return "", "", false
	}
	return kv[:i], kv[i+1:], true
}

// expand replaces ${VAR} only; a bare $VAR is left untouched so shell
// scripts keep their own variables.
func expand(s string, m map[string]string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	var b strings.Builder
	for {
		i := strings.Index(s, "${")
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		j := strings.IndexByte(s[i+2:], '}')
		if j < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		b.WriteString(m[s[i+2:i+2+j]])
		s = s[i+2+j+1:]
	}
}
