package provisioning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/imamik/fleetstack/internal/materializer"
	"github.com/imamik/fleetstack/internal/state"
	"github.com/imamik/fleetstack/internal/topology"
)

// journal is the run's view of the persisted snapshot. Every change is
// saved immediately so that an interrupted run leaves a usable record.
type journal struct {
	mu    sync.Mutex
	store state.Store
	snap  *state.Snapshot
}

func loadJournal(ctx context.Context, store state.Store, topologyName string) (*journal, error) {
	snap, err := store.Load(ctx, topologyName)
	if err != nil {
		return nil, fmt.Errorf("failed to load state of %s: %w", topologyName, err)
	}
	return &journal{store: store, snap: snap}, nil
}

func (j *journal) entry(key topology.Key) (state.Entry, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snap.Get(key)
}

// record stores the latest result of key. A result without an identity
// keeps the identity recorded earlier.
func (j *journal) record(ctx context.Context, key topology.Key, hash string, deps []topology.Key, res materializer.Result) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	prev, _ := j.snap.Get(key)
	e := state.Entry{
		Key:        key,
		Identity:   res.Identity,
		Hash:       hash,
		Status:     res.Status,
		Reason:     res.Reason,
		Attributes: res.Attributes,
		DependsOn:  deps,
		UpdatedAt:  time.Now().UTC(),
	}
	if e.Identity == "" {
		e.Identity = prev.Identity
	}
	if e.Attributes == nil {
		e.Attributes = prev.Attributes
	}
	j.snap.Put(e)
	return j.save(ctx)
}

func (j *journal) remove(ctx context.Context, key topology.Key) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.snap.Remove(key)
	return j.save(ctx)
}

func (j *journal) keys() []topology.Key {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snap.Keys()
}

func (j *journal) snapshot() *state.Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snap.Clone()
}

// save must be called with mu held. It survives cancellation of ctx so that
// the last observed result is never lost.
func (j *journal) save(ctx context.Context) error {
	if err := j.store.Save(context.WithoutCancel(ctx), j.snap); err != nil {
		return fmt.Errorf("failed to save state of %s: %w", j.snap.Topology, err)
	}
	return nil
}
