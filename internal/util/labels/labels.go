package labels

// Standard tag keys.
const (
	// KeyTopology identifies which topology a resource belongs to
	KeyTopology = "fleetstack:topology"

	// KeyRegion is the region a resource was declared in
	KeyRegion = "fleetstack:region"

	// KeyRole identifies the role of a resource (data, app, edge, access)
	KeyRole = "fleetstack:role"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "fleetstack:managed-by"
)

// Role values
const (
	RoleData    = "data"
	RoleNetwork = "network"
	RoleApp     = "app"
	RoleEdge    = "edge"
	RoleAccess  = "access"
)

// ManagedByFleetstack is the managed-by value of every resource.
const ManagedByFleetstack = "fleetstack"

// LabelBuilder provides a fluent interface for building resource tags.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the topology name pre-set.
func NewLabelBuilder(topology string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyTopology:  topology,
			KeyManagedBy: ManagedByFleetstack,
		},
	}
}

// WithRegion adds the region tag.
func (lb *LabelBuilder) WithRegion(region string) *LabelBuilder {
	lb.labels[KeyRegion] = region
	return lb
}

// WithRole adds a role tag.
func (lb *LabelBuilder) WithRole(role string) *LabelBuilder {
	lb.labels[KeyRole] = role
	return lb
}

// Merge adds all labels from the provided map. Standard keys set by the
// builder are not overridden.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		if _, reserved := lb.labels[k]; reserved && isStandardKey(k) {
			continue
		}
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

func isStandardKey(k string) bool {
	switch k {
	case KeyTopology, KeyRegion, KeyRole, KeyManagedBy:
		return true
	}
	return false
}
