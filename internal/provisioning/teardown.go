package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imamik/fleetstack/internal/config"
	"github.com/imamik/fleetstack/internal/materializer"
	"github.com/imamik/fleetstack/internal/topology"
	"github.com/imamik/fleetstack/internal/util/async"
	"github.com/imamik/fleetstack/internal/util/retry"
)

const phaseTeardown = "teardown"

// TeardownPhase removes recorded entities in reverse dependency order:
// an entity is deleted only once everything recorded as depending on it is
// gone. A failed deletion blocks the deletion of its dependencies.
type TeardownPhase struct {
	// Region limits teardown to one region's sub-topology. Empty removes
	// the whole topology. The replicated table is never part of a region.
	Region string
}

// NewTeardownPhase creates a teardown of region, or of everything when
// region is empty.
func NewTeardownPhase(region string) *TeardownPhase {
	return &TeardownPhase{Region: region}
}

// Name implements the Phase interface.
func (t *TeardownPhase) Name() string {
	return phaseTeardown
}

// Provision implements the Phase interface.
func (t *TeardownPhase) Provision(ctx *Context) (err error) {
	topo := ctx.Topology
	if topo == nil {
		return errors.New("topology has not been built; run the validation phase first")
	}

	start := time.Now()
	defer func() { ctx.Metrics.observeRun(OperationTeardown, err, time.Since(start)) }()

	if t.Region == topology.GlobalRegion {
		return config.Errorf("region", "the replicated table is global; destroy the whole topology to remove it")
	}

	lease, err := ctx.Store.Lock(ctx, topo.Name, ctx.Owner)
	if err != nil {
		return err
	}
	defer releaseLease(ctx, lease)

	j, err := loadJournal(ctx, ctx.Store, topo.Name)
	if err != nil {
		return err
	}

	var scope []topology.Key
	for _, k := range j.keys() {
		if t.Region == "" || k.Region == t.Region {
			scope = append(scope, k)
		}
	}

	if t.Region != "" && len(scope) == 0 && len(topo.Graph().InRegion(t.Region)) == 0 {
		return config.Errorf("region", "region %q is not part of topology %s", t.Region, topo.Name)
	}
	if len(scope) == 0 {
		ctx.Observer.Printf("[Teardown] Nothing recorded for %s", t.describe(topo.Name))
		return nil
	}

	ctx.Observer.Printf("[Teardown] Removing %d entities of %s", len(scope), t.describe(topo.Name))
	if err := deleteEntries(ctx, j, phaseTeardown, scope); err != nil {
		return err
	}
	ctx.State.Outputs = OutputsFromSnapshot(topo, j.snapshot())
	return nil
}

func (t *TeardownPhase) describe(name string) string {
	if t.Region == "" {
		return name
	}
	return fmt.Sprintf("%s in %s", name, t.Region)
}

// deleteEntries removes keys from the materializer and the journal. The
// order comes from the dependencies recorded in the journal, so entries no
// longer declared in the topology are ordered too.
func deleteEntries(ctx *Context, j *journal, phase string, keys []topology.Key) error {
	inScope := make(map[topology.Key]bool, len(keys))
	for _, k := range keys {
		inScope[k] = true
	}

	dependents := make(map[topology.Key][]topology.Key)
	for _, k := range keys {
		e, _ := j.entry(k)
		for _, d := range e.DependsOn {
			if inScope[d] {
				dependents[d] = append(dependents[d], k)
			}
		}
	}

	tasks := make([]async.Task, 0, len(keys))
	for _, k := range keys {
		tasks = append(tasks, async.Task{
			Name:  k.String(),
			After: keyNames(dependents[k]),
			Func: func(c context.Context) error {
				return deleteEntry(ctx.WithContext(c), j, phase, k)
			},
		})
	}

	results, err := async.Run(ctx, tasks, ctx.Config.Concurrency)
	if err != nil {
		return fmt.Errorf("failed to schedule teardown of %s: %w", ctx.Topology.Name, err)
	}

	var failed, blocked []topology.Key
	errs := make(map[topology.Key]error)
	for _, k := range keys {
		err, ok := results[k.String()]
		if !ok || err == nil {
			continue
		}
		errs[k] = err
		if async.IsSkipped(err) {
			blocked = append(blocked, k)
		} else {
			failed = append(failed, k)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &PartialTeardownError{Topology: ctx.Topology.Name, Failed: failed, Blocked: blocked, Errors: errs}
}

func deleteEntry(ctx *Context, j *journal, phase string, key topology.Key) error {
	e, ok := j.entry(key)
	if !ok {
		return nil
	}
	// Never realized: there is nothing remote to remove.
	if e.Identity == "" {
		return j.remove(ctx, key)
	}

	LogResourceDeleting(ctx.Observer, phase, key)
	target := materializer.Target{Key: key, Identity: e.Identity}

	opCtx, cancel := context.WithTimeout(ctx, ctx.Timeouts.Delete)
	defer cancel()

	attempts := 0
	var last materializer.Result
	err := retry.WithExponentialBackoff(opCtx, func(c context.Context) error {
		attempts++
		return retry.Poll(c, ctx.Timeouts.PollInterval, func(c context.Context) (bool, error) {
			res, err := ctx.Materializer.Delete(c, target)
			if err != nil {
				return false, err
			}
			last = res
			switch res.Status {
			case materializer.StatusComplete:
				return true, nil
			case materializer.StatusFailed:
				return false, &MaterializationFailure{Key: key, Attempts: attempts, Reason: res.Reason}
			default:
				return false, nil
			}
		})
	}, retryOptions(ctx, phase, key)...)

	if err != nil {
		failure := &MaterializationFailure{Key: key, Attempts: attempts, Reason: last.Reason, Err: err}
		LogResourceFailed(ctx.Observer, phase, key, failure)
		return failure
	}

	ctx.State.recordResult(key, last)
	if err := j.remove(ctx, key); err != nil {
		return err
	}
	LogResourceDeleted(ctx.Observer, phase, key)
	return nil
}
