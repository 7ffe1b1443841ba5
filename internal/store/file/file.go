package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/leandromarcosmoreira/ClawController/internal/state"
	"github.com/leandromarcosmoreira/ClawController/internal/store"
)

// DefaultPath is where the controller keeps its state unless configured otherwise.
const DefaultPath = "data/gateway_watchdog_state.json"

// Store keeps the state as a JSON document on the local filesystem.
type Store struct {
	path string
}

// New returns a file store for path. The parent directory is created if missing.
func New(path string) (*Store, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty state file path")
	}
	// Mitigate G304: sanitize user-provided path by cleaning it before use.
	p = filepath.Clean(p)
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &Store{path: p}, nil
}

func (s *Store) Location() string { return s.path }

func (s *Store) Load(ctx context.Context) (state.State, error) {
	if err := ctx.Err(); err != nil {
		return state.State{}, err
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return state.State{}, store.ErrNotFound
		}
		return state.State{}, err
	}
	return state.Decode(b)
}

// Save writes the document to a temporary file and renames it into place
// so a crash mid-write never leaves a truncated state file behind.
func (s *Store) Save(ctx context.Context, st state.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := state.Encode(st)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func (s *Store) Close() error { return nil }
