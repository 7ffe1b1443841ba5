package watchdog

import (
	"context"
	"os"

	"github.com/leandromarcosmoreira/ClawController/internal/state"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

type failingStore struct{}

func (failingStore) Load(context.Context) (state.State, error) { return state.State{}, errDisk }
func (failingStore) Save(context.Context, state.State) error    { return errDisk }
func (failingStore) Location() string                           { return "nowhere" }
func (failingStore) Close() error                               { return nil }
