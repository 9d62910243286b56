// Package materializer defines the boundary between the topology core and
// the external system that turns a desired entity into a running resource.
//
// Every call is a long-running remote operation. A Result reports whether
// the resource is pending, complete or failed; pending resources are
// re-applied by the caller until they settle. Implementations must be
// idempotent by entity key: re-applying a complete entity never creates a
// second resource.
package materializer
