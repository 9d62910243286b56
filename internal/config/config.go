package config

import "time"

// Config is the desired topology of one fleetstack deployment.
type Config struct {
	// Name identifies the topology. It prefixes every resource name and
	// keys the state journal.
	Name string `yaml:"name"`

	// PrimaryRegion hosts the table. Defaults to the first fleet region.
	PrimaryRegion string `yaml:"primary_region,omitempty"`

	// Regions lists the regions that receive a Network, Fleet and Edge.
	Regions []string `yaml:"regions"`

	// AccessRegion hosts the bastion node. Must not be a fleet region.
	AccessRegion string `yaml:"access_region"`

	Table            TableConfig              `yaml:"table,omitempty"`
	Network          NetworkConfig            `yaml:"network,omitempty"`
	NetworkOverrides map[string]NetworkConfig `yaml:"network_overrides,omitempty"`
	Fleet            FleetConfig              `yaml:"fleet,omitempty"`
	Edge             EdgeConfig               `yaml:"edge,omitempty"`
	Access           AccessConfig             `yaml:"access,omitempty"`

	// RegionCapacity adds or overrides availability-zone counts per region.
	RegionCapacity map[string]int `yaml:"region_capacity,omitempty"`

	State        StateConfig `yaml:"state,omitempty"`
	Materializer string      `yaml:"materializer,omitempty"`

	// Account is the 12-digit cloud account id embedded in the identifiers
	// of materialized resources. Empty uses the materializer's default.
	Account string `yaml:"account,omitempty"`

	// Concurrency bounds how many independent entities materialize at once.
	Concurrency int `yaml:"concurrency,omitempty"`

	// Tags are merged into the tags of every resource.
	Tags map[string]string `yaml:"tags,omitempty"`
}

// TableConfig describes the globally replicated table.
type TableConfig struct {
	Name string `yaml:"name,omitempty"`

	// ReplicaRegions defaults to Regions when omitted. An explicit empty
	// list is kept as-is and rejected by validation.
	ReplicaRegions []string     `yaml:"replica_regions,omitempty"`
	PartitionKey   KeyAttribute `yaml:"partition_key,omitempty"`
	BillingMode    string       `yaml:"billing_mode,omitempty"`
}

// KeyAttribute is a table key attribute.
type KeyAttribute struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // S, N or B
}

// NetworkConfig describes one regional network.
type NetworkConfig struct {
	CIDR    string       `yaml:"cidr,omitempty"`
	AZCount int          `yaml:"az_count,omitempty"`
	Tiers   []TierConfig `yaml:"tiers,omitempty"`
}

// TierConfig describes a subnet tier. One subnet is carved per AZ.
type TierConfig struct {
	Name       string `yaml:"name"`
	Visibility string `yaml:"visibility"`
	Mask       int    `yaml:"mask"`
}

// ImageConfig selects the base machine image.
type ImageConfig struct {
	Family       string `yaml:"family,omitempty"`
	Architecture string `yaml:"architecture,omitempty"`
}

// FleetConfig describes the per-region auto-scaling fleet.
type FleetConfig struct {
	InstanceType string      `yaml:"instance_type,omitempty"`
	Image        ImageConfig `yaml:"image,omitempty"`

	// Payload is the inline startup script. PayloadFile is read relative to
	// the config file when Payload is empty.
	Payload     string `yaml:"payload,omitempty"`
	PayloadFile string `yaml:"payload_file,omitempty"`

	MinCapacity      int           `yaml:"min_capacity,omitempty"`
	MaxCapacity      int           `yaml:"max_capacity,omitempty"`
	HealthCheckGrace time.Duration `yaml:"health_check_grace,omitempty"`
}

// EdgeConfig describes the public load balancer in front of each fleet.
type EdgeConfig struct {
	ListenPort      int           `yaml:"listen_port,omitempty"`
	BackendPort     int           `yaml:"backend_port,omitempty"`
	SessionAffinity time.Duration `yaml:"session_affinity,omitempty"`

	// Open admits all inbound traffic on the listener. Defaults to true.
	// When false, only AllowedCIDRs may connect.
	Open         *bool    `yaml:"open,omitempty"`
	AllowedCIDRs []string `yaml:"allowed_cidrs,omitempty"`
}

// AccessConfig describes the bastion node.
type AccessConfig struct {
	Network      NetworkConfig `yaml:"network,omitempty"`
	Tier         string        `yaml:"tier,omitempty"`
	InstanceType string        `yaml:"instance_type,omitempty"`
	Image        ImageConfig   `yaml:"image,omitempty"`
	InstanceName string        `yaml:"instance_name,omitempty"`
}

// StateConfig selects where the resume journal and run lease live.
type StateConfig struct {
	Backend string        `yaml:"backend,omitempty"`
	Path    string        `yaml:"path,omitempty"`
	S3      S3StateConfig `yaml:"s3,omitempty"`
}

// S3StateConfig configures the S3 state backend. Credentials fall back to
// the default AWS credential chain when AccessKey is empty.
type S3StateConfig struct {
	Bucket       string `yaml:"bucket,omitempty"`
	Prefix       string `yaml:"prefix,omitempty"`
	Region       string `yaml:"region,omitempty"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	AccessKey    string `yaml:"access_key,omitempty"`
	SecretKey    string `yaml:"secret_key,omitempty"`
	UsePathStyle bool   `yaml:"use_path_style,omitempty"`
}

// NetworkFor returns the network configuration of a fleet region, with
// per-region overrides applied field by field.
func (c *Config) NetworkFor(region string) NetworkConfig {
	n := c.Network
	o, ok := c.NetworkOverrides[region]
	if !ok {
		return n
	}
	if o.CIDR != "" {
		n.CIDR = o.CIDR
	}
	if o.AZCount != 0 {
		n.AZCount = o.AZCount
	}
	if len(o.Tiers) > 0 {
		n.Tiers = o.Tiers
	}
	return n
}

// ReplicaSet returns the regions the table is replicated to, including the
// primary region.
func (c *Config) ReplicaSet() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range append([]string{c.PrimaryRegion}, c.Table.ReplicaRegions...) {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// EdgeOpen reports whether the edge listener is open to the world.
func (c *Config) EdgeOpen() bool {
	return c.Edge.Open == nil || *c.Edge.Open
}
