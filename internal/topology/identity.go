package topology

import "slices"

// ComputeServicePrincipal is the trust principal of node identities.
const ComputeServicePrincipal = "ec2.amazonaws.com"

// GrantKind separates data access from operator access.
type GrantKind string

// Grant kinds.
const (
	GrantData       GrantKind = "data"
	GrantManagement GrantKind = "management"
)

// Grant is one capability attached to an identity.
type Grant struct {
	Kind    GrantKind
	Actions []string

	// Target is the entity the grant applies to. The zero key means every
	// resource ("*").
	Target Key
}

// readWriteDataActions is the action set of a read-write grant on a table.
var readWriteDataActions = []string{
	"dynamodb:BatchGetItem",
	"dynamodb:GetRecords",
	"dynamodb:GetShardIterator",
	"dynamodb:Query",
	"dynamodb:GetItem",
	"dynamodb:Scan",
	"dynamodb:ConditionCheckItem",
	"dynamodb:BatchWriteItem",
	"dynamodb:PutItem",
	"dynamodb:UpdateItem",
	"dynamodb:DeleteItem",
	"dynamodb:DescribeTable",
}

// managementActions open the remote-session channel used for operator
// introspection.
var managementActions = []string{
	"ssmmessages:*",
	"ssm:UpdateInstanceInformation",
	"ec2messages:*",
}

// ReadWriteGrant returns a read-write data grant on table.
func ReadWriteGrant(table Key) Grant {
	return Grant{Kind: GrantData, Actions: slices.Clone(readWriteDataActions), Target: table}
}

// ManagementGrant returns the fixed management-channel grant.
func ManagementGrant() Grant {
	return Grant{Kind: GrantManagement, Actions: slices.Clone(managementActions)}
}

// Identity is a capability principal bound to a compute role.
type Identity struct {
	Name           string
	Region         string
	TrustPrincipal string
	Grants         []Grant
	Tags           map[string]string `hash:"ignore"`
}

// Key implements Entity.
func (i *Identity) Key() Key {
	return Key{Kind: KindIdentity, Region: i.Region, Name: i.Name}
}

// Dependencies implements Entity. An identity depends on every entity it
// holds a targeted grant on.
func (i *Identity) Dependencies() []Key {
	var deps []Key
	for _, g := range i.Grants {
		if !g.Target.IsZero() && !slices.Contains(deps, g.Target) {
			deps = append(deps, g.Target)
		}
	}
	return deps
}

// HasDataGrantOn reports whether the identity holds any data grant on target.
func (i *Identity) HasDataGrantOn(target Key) bool {
	for _, g := range i.Grants {
		if g.Kind == GrantData && g.Target == target {
			return true
		}
	}
	return false
}

// DataGrants returns the identity's data grants.
func (i *Identity) DataGrants() []Grant {
	var out []Grant
	for _, g := range i.Grants {
		if g.Kind == GrantData {
			out = append(out, g)
		}
	}
	return out
}

// HasManagementGrant reports whether the identity can open a management
// session.
func (i *Identity) HasManagementGrant() bool {
	for _, g := range i.Grants {
		if g.Kind == GrantManagement {
			return true
		}
	}
	return false
}
