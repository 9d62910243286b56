package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imamik/fleetstack/internal/materializer"
	"github.com/imamik/fleetstack/internal/state"
	"github.com/imamik/fleetstack/internal/topology"
	"github.com/imamik/fleetstack/internal/util/async"
	"github.com/imamik/fleetstack/internal/util/retry"
)

const phaseMaterialize = "materialize"

// Assembler walks the topology graph and materializes every entity after
// its dependencies. Independent branches run concurrently up to
// Config.Concurrency. Entities the journal records as complete with an
// identical hash are not touched again, so a re-run after an interruption
// resumes where the previous run stopped.
type Assembler struct{}

// NewAssembler creates the materialize phase.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Name implements the Phase interface.
func (a *Assembler) Name() string {
	return phaseMaterialize
}

// Provision implements the Phase interface.
func (a *Assembler) Provision(ctx *Context) (err error) {
	topo := ctx.Topology
	if topo == nil {
		return errors.New("topology has not been built; run the validation phase first")
	}

	start := time.Now()
	defer func() { ctx.Metrics.observeRun(OperationApply, err, time.Since(start)) }()

	lease, err := ctx.Store.Lock(ctx, topo.Name, ctx.Owner)
	if err != nil {
		return err
	}
	defer releaseLease(ctx, lease)

	j, err := loadJournal(ctx, ctx.Store, topo.Name)
	if err != nil {
		return err
	}

	graph := topo.Graph()
	order, err := graph.TopologicalOrder()
	if err != nil {
		return err
	}

	tasks := make([]async.Task, 0, len(order))
	for _, key := range order {
		tasks = append(tasks, async.Task{
			Name:  key.String(),
			After: keyNames(graph.Dependencies(key)),
			Func: func(c context.Context) error {
				return a.materialize(ctx.WithContext(c), j, key)
			},
		})
	}

	results, err := async.Run(ctx, tasks, ctx.Config.Concurrency)
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", topo.Name, err)
	}

	report := classify(ctx, order, results)
	ctx.Metrics.setEntities(report)
	ctx.State.Outputs = OutputsFromSnapshot(topo, j.snapshot())

	if !report.done() {
		return &PartialFailureError{
			Topology: topo.Name,
			Failed:   report.failed,
			Blocked:  report.blocked,
			Pending:  report.pending,
			Errors:   report.errors,
			Outputs:  ctx.State.Outputs,
		}
	}

	return a.prune(ctx, j)
}

// materialize realizes one entity. Pending results are re-applied every
// PollInterval; failures are retried with backoff until the budget runs out.
func (a *Assembler) materialize(ctx *Context, j *journal, key topology.Key) error {
	entity, ok := ctx.Topology.Graph().Get(key)
	if !ok {
		return retry.Fatal(fmt.Errorf("entity %s is not part of topology %s", key, ctx.Topology.Name))
	}
	hash, err := topology.Digest(entity)
	if err != nil {
		return retry.Fatal(fmt.Errorf("failed to digest %s: %w", key, err))
	}

	deps := entity.Dependencies()
	inputs := make(map[topology.Key]string, len(deps))
	for _, d := range deps {
		e, ok := j.entry(d)
		if !ok || e.Status != materializer.StatusComplete || e.Identity == "" {
			return retry.Fatal(&topology.DependencyNotReadyError{Entity: key, Dependency: d, Status: string(e.Status)})
		}
		inputs[d] = e.Identity
	}

	if e, ok := j.entry(key); ok && e.Complete(hash) {
		ctx.State.recordResult(key, materializer.Result{Identity: e.Identity, Status: e.Status, Attributes: e.Attributes})
		LogResourceExists(ctx.Observer, phaseMaterialize, key, e.Identity)
		return nil
	}

	LogResourceCreating(ctx.Observer, phaseMaterialize, key)
	desired := materializer.Desired{
		Key:    key,
		Spec:   entity,
		Hash:   hash,
		Inputs: inputs,
		Tags:   topology.TagsOf(entity),
	}

	opCtx, cancel := context.WithTimeout(ctx, ctx.Timeouts.Create)
	defer cancel()

	attempts := 0
	var last materializer.Result
	err = retry.WithExponentialBackoff(opCtx, func(c context.Context) error {
		attempts++
		return retry.Poll(c, ctx.Timeouts.PollInterval, func(c context.Context) (bool, error) {
			res, err := ctx.Materializer.CreateOrUpdate(c, desired)
			if err != nil {
				if topology.IsDependencyNotReady(err) {
					return false, retry.Fatal(err)
				}
				return false, err
			}
			last = res
			ctx.State.recordResult(key, res)
			if err := j.record(c, key, hash, deps, res); err != nil {
				return false, err
			}
			switch res.Status {
			case materializer.StatusComplete:
				return true, nil
			case materializer.StatusFailed:
				return false, &MaterializationFailure{Key: key, Attempts: attempts, Reason: res.Reason}
			default:
				LogResourcePending(ctx.Observer, phaseMaterialize, key, res.Identity)
				return false, nil
			}
		})
	}, retryOptions(ctx, phaseMaterialize, key)...)

	if err == nil {
		LogResourceCreated(ctx.Observer, phaseMaterialize, key, last.Identity)
		return nil
	}

	// An interrupted run leaves the last observed status in the journal.
	if ctx.Err() != nil {
		return err
	}

	failure := &MaterializationFailure{Key: key, Attempts: attempts, Reason: last.Reason, Err: err}
	if last.Status != materializer.StatusFailed {
		failed := materializer.Result{Identity: last.Identity, Status: materializer.StatusFailed, Reason: err.Error()}
		ctx.State.recordResult(key, failed)
		if jerr := j.record(ctx, key, hash, deps, failed); jerr != nil {
			failure.Err = errors.Join(err, jerr)
		}
	}
	LogResourceFailed(ctx.Observer, phaseMaterialize, key, failure)
	return failure
}

// prune removes templates that a complete run replaced by a revision with
// new content. Every other recorded entity missing from the declaration is
// kept and reported: removing it is left to an explicit teardown.
func (a *Assembler) prune(ctx *Context, j *journal) error {
	topo := ctx.Topology
	graph := topo.Graph()
	declared := map[string]bool{topology.GlobalRegion: true, topo.Access.Node.Region: true}
	for _, r := range topo.FleetRegions() {
		declared[r] = true
	}

	var superseded, retained, orphaned []topology.Key
	for _, k := range j.keys() {
		if _, ok := graph.Get(k); ok {
			continue
		}
		switch {
		case !declared[k.Region]:
			orphaned = append(orphaned, k)
		case supersededTemplate(topo, k):
			superseded = append(superseded, k)
		default:
			retained = append(retained, k)
		}
	}

	// A replaced template still referenced by a kept entity stays as well.
	inUse := make(map[topology.Key]bool)
	for _, keys := range [][]topology.Key{retained, orphaned} {
		for _, k := range keys {
			e, _ := j.entry(k)
			for _, d := range e.DependsOn {
				inUse[d] = true
			}
		}
	}
	stale := superseded[:0]
	for _, k := range superseded {
		if inUse[k] {
			retained = append(retained, k)
			continue
		}
		stale = append(stale, k)
	}

	if len(orphaned) > 0 {
		ctx.Observer.Printf("[Materialize] %d recorded entities belong to undeclared regions; run destroy --region to remove them", len(orphaned))
	}
	if len(retained) > 0 {
		ctx.Observer.Printf("[Materialize] %d recorded entities are no longer declared and were left in place; run destroy to remove them", len(retained))
	}
	ctx.State.mu.Lock()
	ctx.State.Retained = append(ctx.State.Retained, orphaned...)
	ctx.State.Retained = append(ctx.State.Retained, retained...)
	ctx.State.mu.Unlock()

	if len(stale) == 0 {
		return nil
	}

	ctx.Observer.Printf("[Materialize] Pruning %d superseded templates", len(stale))
	if err := deleteEntries(ctx, j, phaseMaterialize, stale); err != nil {
		return err
	}
	ctx.State.mu.Lock()
	ctx.State.Pruned = append(ctx.State.Pruned, stale...)
	ctx.State.mu.Unlock()
	return nil
}

// supersededTemplate reports whether k is an earlier revision of a template
// the topology declares.
func supersededTemplate(topo *topology.Topology, k topology.Key) bool {
	if k.Kind != topology.KindTemplate {
		return false
	}
	for _, key := range topo.Graph().InRegion(k.Region) {
		e, _ := topo.Graph().Get(key)
		if t, ok := e.(*topology.ComputeTemplate); ok && t.Supersedes(k) {
			return true
		}
	}
	return false
}

// runReport sorts the entities of a run by outcome.
type runReport struct {
	complete []topology.Key
	failed   []topology.Key
	blocked  []topology.Key
	pending  []topology.Key
	errors   map[topology.Key]error
}

func (r *runReport) done() bool {
	return len(r.failed) == 0 && len(r.blocked) == 0 && len(r.pending) == 0
}

// classify maps task results back to keys. Once the run is cancelled,
// everything that did not finish is pending; otherwise work skipped
// because a dependency failed is blocked.
func classify(ctx context.Context, keys []topology.Key, results async.Results) *runReport {
	r := &runReport{errors: make(map[topology.Key]error)}
	cancelled := ctx.Err() != nil
	for _, k := range keys {
		err, ok := results[k.String()]
		if !ok || err == nil {
			r.complete = append(r.complete, k)
			continue
		}
		r.errors[k] = err
		switch {
		case cancelled && (isCancellation(err) || async.IsSkipped(err)):
			r.pending = append(r.pending, k)
		case async.IsSkipped(err):
			r.blocked = append(r.blocked, k)
		default:
			r.failed = append(r.failed, k)
		}
	}
	return r
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// retryOptions builds the backoff policy of one entity operation from the
// configured timeouts.
func retryOptions(ctx *Context, phase string, key topology.Key) []retry.Option {
	opts := []retry.Option{
		retry.WithMaxRetries(ctx.Timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(ctx.Timeouts.RetryInitialDelay),
		retry.WithMaxDelay(ctx.Timeouts.RetryMaxDelay),
		retry.WithOnRetry(func(attempt int, err error) {
			LogResourceRetrying(ctx.Observer, phase, key, attempt, err)
			ctx.Metrics.retried(string(key.Kind))
		}),
	}
	if ctx.Timeouts.RetryMultiplier >= 1 {
		opts = append(opts, retry.WithMultiplier(ctx.Timeouts.RetryMultiplier))
	}
	return opts
}

func releaseLease(ctx *Context, lease state.Lease) {
	if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
		ctx.Observer.Printf("[State] Failed to release lease of %s: %v", ctx.Topology.Name, err)
	}
}

func keyNames(keys []topology.Key) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.String())
	}
	return out
}
