package topology

import (
	"errors"
	"fmt"
)

// DependencyNotReadyError reports an attempt to materialize an entity whose
// dependency has not been fully realized.
type DependencyNotReadyError struct {
	Entity     Key
	Dependency Key
	Status     string
}

func (e *DependencyNotReadyError) Error() string {
	return fmt.Sprintf("%s: dependency %s is not ready (status %q)", e.Entity, e.Dependency, e.Status)
}

// IsDependencyNotReady reports whether err is or wraps a DependencyNotReadyError.
func IsDependencyNotReady(err error) bool {
	var dn *DependencyNotReadyError
	return errors.As(err, &dn)
}

// CycleError reports a dependency cycle. Path starts and ends at the same key.
type CycleError struct {
	Path []Key
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %v", e.Path)
}
