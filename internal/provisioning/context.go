package provisioning

import (
	"context"
	"fmt"
	"os"

	"github.com/imamik/fleetstack/internal/config"
	"github.com/imamik/fleetstack/internal/materializer"
	"github.com/imamik/fleetstack/internal/state"
	"github.com/imamik/fleetstack/internal/topology"
)

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Config       *config.Config
	Topology     *topology.Topology
	State        *State
	Materializer materializer.Materializer
	Store        state.Store
	Observer     Observer
	Logger       Logger
	Timeouts     *config.Timeouts
	Metrics      *Metrics

	// Owner identifies this run in the topology lease.
	Owner string
}

// NewContext creates a new provisioning context.
func NewContext(
	ctx context.Context,
	cfg *config.Config,
	m materializer.Materializer,
	store state.Store,
	observer Observer,
) *Context {
	return &Context{
		Context:      ctx,
		Config:       cfg,
		State:        NewState(),
		Materializer: m,
		Store:        store,
		Observer:     observer,
		Logger:       observer,
		Timeouts:     config.LoadTimeouts(),
		Owner:        defaultOwner(),
	}
}

// WithContext returns a shallow copy of c bound to ctx.
func (c *Context) WithContext(ctx context.Context) *Context {
	out := *c
	out.Context = ctx
	return &out
}

func defaultOwner() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s/%d", host, os.Getpid())
}
