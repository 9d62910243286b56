package provisioning

import (
	"fmt"

	"github.com/imamik/fleetstack/internal/topology"
)

// ValidationError represents a configuration validation error or warning.
type ValidationError struct {
	Field    string // Configuration field that failed validation
	Message  string // Human-readable error message
	Severity string // "error" or "warning"
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", ve.Severity, ve.Field, ve.Message)
}

// IsError returns true if this is an error (not a warning).
func (ve ValidationError) IsError() bool {
	return ve.Severity == "error"
}

// ValidationPhase checks the configuration and builds the topology. Nothing
// remote is touched when it fails.
type ValidationPhase struct{}

// NewValidationPhase creates a new validation phase.
func NewValidationPhase() *ValidationPhase {
	return &ValidationPhase{}
}

// Name implements the Phase interface.
func (vp *ValidationPhase) Name() string {
	return "validation"
}

// Provision implements the Phase interface.
func (vp *ValidationPhase) Provision(ctx *Context) error {
	ctx.Observer.Printf("[Validation] Running pre-flight validation...")

	if err := ctx.Config.Validate(); err != nil {
		return err
	}

	topo, err := topology.Build(ctx.Config)
	if err != nil {
		return err
	}
	ctx.Topology = topo

	for _, w := range Warnings(topo) {
		ctx.Observer.Event(Event{
			Type:    EventValidationWarning,
			Phase:   vp.Name(),
			Message: w.Message,
			Fields:  map[string]string{"field": w.Field},
		})
	}

	ctx.Observer.Printf("[Validation] %d entities across %d regions", topo.Graph().Len(), len(topo.Regions))
	return nil
}

// Warnings returns the trade-offs of a valid topology that an operator
// should know about.
func Warnings(topo *topology.Topology) []ValidationError {
	var out []ValidationError
	for _, r := range topo.Regions {
		if r.Edge.Open() {
			out = append(out, ValidationError{
				Field:    fmt.Sprintf("edge[%s]", r.Region),
				Message:  fmt.Sprintf("edge %s accepts traffic from %s", r.Edge.Name, topology.AnyIPv4),
				Severity: "warning",
			})
		}
		if r.Network.NATGateways() == 1 && r.Network.AZCount > 1 {
			out = append(out, ValidationError{
				Field:    fmt.Sprintf("network[%s]", r.Region),
				Message:  fmt.Sprintf("network %s spans %d zones behind a single NAT", r.Network.Name, r.Network.AZCount),
				Severity: "warning",
			})
		}
		if r.Network.AZCount == 1 {
			out = append(out, ValidationError{
				Field:    fmt.Sprintf("network[%s].az_count", r.Region),
				Message:  fmt.Sprintf("fleet %s runs in a single availability zone", r.Compute.Fleet.Name),
				Severity: "warning",
			})
		}
	}
	return out
}
