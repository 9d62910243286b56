package materializer

import (
	"context"
	"maps"

	"github.com/imamik/fleetstack/internal/topology"
)

// Status is the state of a remote operation.
type Status string

// Operation statuses.
const (
	StatusPending  Status = "pending"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Result attributes reported for edges.
const (
	AttrDNSName      = "dns_name"
	AttrHostedZoneID = "hosted_zone_id"
)

// Desired is what the core asks a materializer to realize.
type Desired struct {
	Key  topology.Key
	Spec topology.Entity

	// Hash is the content digest of Spec.
	Hash string

	// Inputs holds the realized identity of every dependency of Spec.
	Inputs map[topology.Key]string

	Tags map[string]string
}

// Input returns the realized identity of dependency k.
func (d Desired) Input(k topology.Key) string {
	return d.Inputs[k]
}

// Target identifies a realized resource to delete.
type Target struct {
	Key      topology.Key
	Identity string
}

// Result is the outcome of one call.
type Result struct {
	Identity   string
	Status     Status
	Reason     string
	Attributes map[string]string
}

// Clone returns a copy of r that shares no maps with it.
func (r Result) Clone() Result {
	r.Attributes = maps.Clone(r.Attributes)
	return r
}

// Materializer turns desired entities into resources.
//
// A returned error means the call itself did not go through; a Result with
// StatusFailed means the provider rejected or lost the resource. Both are
// retried by the caller.
type Materializer interface {
	CreateOrUpdate(ctx context.Context, desired Desired) (Result, error)
	Delete(ctx context.Context, target Target) (Result, error)
}
