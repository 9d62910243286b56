package testing

import (
	"context"

	"github.com/imamik/fleetstack/internal/config"
	"github.com/imamik/fleetstack/internal/materializer/memory"
	"github.com/imamik/fleetstack/internal/state"
)

// Fixture is an in-memory deployment target: a simulated provider and a
// journal store that share nothing with other fixtures.
type Fixture struct {
	Config       *config.Config
	Materializer *memory.Materializer
	Store        *state.MemoryStore
}

// NewFixture creates a fixture for cfg.
func NewFixture(cfg *config.Config, opts ...memory.Option) *Fixture {
	return &Fixture{
		Config:       cfg,
		Materializer: memory.New(opts...),
		Store:        state.NewMemoryStore(),
	}
}

// Snapshot returns the journal currently stored for the fixture's topology.
func (f *Fixture) Snapshot(ctx context.Context) (*state.Snapshot, error) {
	return f.Store.Load(ctx, f.Config.Name)
}
