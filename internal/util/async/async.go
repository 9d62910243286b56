package async

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string

	// After names the tasks that must succeed before this one starts.
	After []string

	Func func(context.Context) error
}

// SkippedError is recorded for a task that never started, either because a
// task it waits on did not succeed or because the context ended first.
type SkippedError struct {
	Task  string
	Cause error
}

func (e *SkippedError) Error() string {
	return fmt.Sprintf("%s not started: %v", e.Task, e.Cause)
}

func (e *SkippedError) Unwrap() error {
	return e.Cause
}

// IsSkipped reports whether err marks a task that never started.
func IsSkipped(err error) bool {
	var s *SkippedError
	return errors.As(err, &s)
}

// Results maps task names to their errors. Tasks that succeeded have no
// entry.
type Results map[string]error

// Err joins every failure that is not a skip, in name order.
func (r Results) Err() error {
	names := make([]string, 0, len(r))
	for name, err := range r {
		if !IsSkipped(err) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	errs := make([]error, 0, len(names))
	for _, name := range names {
		errs = append(errs, fmt.Errorf("%s: %w", name, r[name]))
	}
	return errors.Join(errs...)
}

// Run executes tasks in dependency order, running independent tasks
// concurrently. At most limit tasks run at once; limit <= 0 means no
// bound. It returns once every task has finished or been skipped.
//
// The returned error is only set when the task set itself is invalid:
// duplicate names, unknown After references or a cycle.
//
// Example:
//
//	results, err := async.Run(ctx, []async.Task{
//	    {Name: "network", Func: createNetwork},
//	    {Name: "fleet", After: []string{"network"}, Func: createFleet},
//	}, 4)
func Run(ctx context.Context, tasks []Task, limit int) (Results, error) {
	if err := validate(tasks); err != nil {
		return nil, err
	}
	results := make(Results)
	if len(tasks) == 0 {
		return results, nil
	}

	byName := make(map[string]Task, len(tasks))
	waiting := make(map[string]int, len(tasks))
	dependents := make(map[string][]string)
	for _, t := range tasks {
		byName[t.Name] = t
		waiting[t.Name] = len(t.After)
		for _, a := range t.After {
			dependents[a] = append(dependents[a], t.Name)
		}
	}

	type result struct {
		name string
		err  error
	}
	done := make(chan result, len(tasks))

	var sem chan struct{}
	if limit > 0 {
		sem = make(chan struct{}, limit)
	}

	running := 0
	launch := func(name string) {
		running++
		task := byName[name]
		go func() {
			if sem != nil {
				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					done <- result{name: name, err: &SkippedError{Task: name, Cause: ctx.Err()}}
					return
				}
				defer func() { <-sem }()
			}
			if err := ctx.Err(); err != nil {
				done <- result{name: name, err: &SkippedError{Task: name, Cause: err}}
				return
			}
			done <- result{name: name, err: task.Func(ctx)}
		}()
	}

	// skip marks name and everything downstream of it as not started.
	var skip func(name string, cause error)
	skip = func(name string, cause error) {
		if _, already := results[name]; already {
			return
		}
		results[name] = &SkippedError{Task: name, Cause: cause}
		for _, d := range dependents[name] {
			skip(d, fmt.Errorf("%s did not succeed", name))
		}
	}

	for _, t := range tasks {
		if waiting[t.Name] == 0 {
			launch(t.Name)
		}
	}

	for running > 0 {
		res := <-done
		running--

		if res.err != nil {
			results[res.name] = res.err
			for _, d := range dependents[res.name] {
				skip(d, fmt.Errorf("%s did not succeed", res.name))
			}
			continue
		}
		for _, d := range dependents[res.name] {
			if _, skipped := results[d]; skipped {
				continue
			}
			waiting[d]--
			if waiting[d] == 0 {
				launch(d)
			}
		}
	}

	return results, nil
}

func validate(tasks []Task) error {
	names := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.Name == "" {
			return errors.New("task name is required")
		}
		if names[t.Name] {
			return fmt.Errorf("duplicate task %q", t.Name)
		}
		if t.Func == nil {
			return fmt.Errorf("task %q has no function", t.Name)
		}
		names[t.Name] = true
	}
	for _, t := range tasks {
		for _, a := range t.After {
			if !names[a] {
				return fmt.Errorf("task %q waits on unknown task %q", t.Name, a)
			}
		}
	}

	// Kahn's algorithm: every task must become ready eventually.
	indegree := make(map[string]int, len(tasks))
	dependents := make(map[string][]string)
	for _, t := range tasks {
		indegree[t.Name] = len(t.After)
		for _, a := range t.After {
			dependents[a] = append(dependents[a], t.Name)
		}
	}
	var ready []string
	for _, t := range tasks {
		if indegree[t.Name] == 0 {
			ready = append(ready, t.Name)
		}
	}
	seen := 0
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		seen++
		for _, d := range dependents[name] {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}
	if seen != len(tasks) {
		return errors.New("tasks contain a dependency cycle")
	}
	return nil
}
