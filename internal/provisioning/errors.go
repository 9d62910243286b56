package provisioning

import (
	"errors"
	"fmt"
	"strings"

	"github.com/imamik/fleetstack/internal/topology"
)

// MaterializationFailure reports an entity that could not be realized or
// removed within its retry budget.
type MaterializationFailure struct {
	Key      topology.Key
	Attempts int
	Reason   string
	Err      error
}

func (e *MaterializationFailure) Error() string {
	msg := fmt.Sprintf("%s failed after %d attempts", e.Key, e.Attempts)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil && (e.Reason == "" || !strings.Contains(e.Err.Error(), e.Reason)) {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MaterializationFailure) Unwrap() error {
	return e.Err
}

// PartialFailureError is returned when a run ends with entities that are
// not complete. Failed entities exhausted their retries; blocked entities
// were never attempted because a dependency failed; pending entities were
// interrupted by cancellation and resume on the next run.
type PartialFailureError struct {
	Topology string
	Failed   []topology.Key
	Blocked  []topology.Key
	Pending  []topology.Key
	Errors   map[topology.Key]error

	// Outputs covers the regions that did complete.
	Outputs *Outputs
}

func (e *PartialFailureError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "topology %s is incomplete: %d failed, %d blocked, %d pending",
		e.Topology, len(e.Failed), len(e.Blocked), len(e.Pending))
	for _, k := range e.Failed {
		fmt.Fprintf(&b, "\n  failed: %v", e.Errors[k])
	}
	for _, k := range e.Blocked {
		fmt.Fprintf(&b, "\n  blocked: %s", k)
	}
	return b.String()
}

// Unwrap exposes the per-entity errors to errors.Is and errors.As.
func (e *PartialFailureError) Unwrap() []error {
	out := make([]error, 0, len(e.Errors))
	for _, k := range append(append(append([]topology.Key(nil), e.Failed...), e.Pending...), e.Blocked...) {
		if err, ok := e.Errors[k]; ok {
			out = append(out, err)
		}
	}
	return out
}

// IsPartialFailure reports whether err is or wraps a PartialFailureError.
func IsPartialFailure(err error) bool {
	var pf *PartialFailureError
	return errors.As(err, &pf)
}

// PartialTeardownError is returned when teardown could not remove every
// entity. A dependency of a failed entity is blocked and left in place.
type PartialTeardownError struct {
	Topology string
	Failed   []topology.Key
	Blocked  []topology.Key
	Errors   map[topology.Key]error
}

func (e *PartialTeardownError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "teardown of %s is incomplete: %d failed, %d blocked",
		e.Topology, len(e.Failed), len(e.Blocked))
	for _, k := range e.Failed {
		fmt.Fprintf(&b, "\n  failed: %v", e.Errors[k])
	}
	for _, k := range e.Blocked {
		fmt.Fprintf(&b, "\n  blocked: %s", k)
	}
	return b.String()
}

// Unwrap exposes the per-entity errors to errors.Is and errors.As.
func (e *PartialTeardownError) Unwrap() []error {
	out := make([]error, 0, len(e.Errors))
	for _, k := range append(append([]topology.Key(nil), e.Failed...), e.Blocked...) {
		if err, ok := e.Errors[k]; ok {
			out = append(out, err)
		}
	}
	return out
}

// IsPartialTeardown reports whether err is or wraps a PartialTeardownError.
func IsPartialTeardown(err error) bool {
	var pt *PartialTeardownError
	return errors.As(err, &pt)
}
