package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"
)

// Validate checks the configuration and returns every ConfigurationError
// found, joined. Network address plans are checked later by the network
// descriptor, which owns subnet carving.
func (c *Config) Validate() error {
	var errs []error

	if c.Name == "" {
		errs = append(errs, Errorf("name", "topology name is required"))
	}

	errs = append(errs, c.validateRegions()...)
	errs = append(errs, c.validateTable()...)
	errs = append(errs, c.validateFleet()...)
	errs = append(errs, c.validateEdge()...)
	errs = append(errs, c.validateState()...)

	if c.Concurrency < 0 {
		errs = append(errs, Errorf("concurrency", "must be positive, got %d", c.Concurrency))
	}
	if c.Materializer != "" && c.Materializer != MaterializerMemory {
		errs = append(errs, Errorf("materializer", "unknown materializer %q", c.Materializer))
	}
	if c.Account != "" && !isAccountID(c.Account) {
		errs = append(errs, Errorf("account", "account id must be 12 digits, got %q", c.Account))
	}

	return errors.Join(errs...)
}

func (c *Config) validateRegions() []error {
	var errs []error

	if len(c.Regions) == 0 {
		errs = append(errs, Errorf("regions", "at least one fleet region is required"))
	}

	seen := make(map[string]bool)
	for _, r := range c.Regions {
		if seen[r] {
			errs = append(errs, Errorf("regions", "region %q listed more than once", r))
		}
		seen[r] = true
		if _, ok := c.AZCapacity(r); !ok {
			errs = append(errs, Errorf("regions", "unknown region %q (known: %s; add others to region_capacity)", r, strings.Join(KnownRegions(), ", ")))
		}
	}

	switch {
	case c.AccessRegion == "":
		errs = append(errs, Errorf("access_region", "access region is required"))
	case seen[c.AccessRegion]:
		errs = append(errs, Errorf("access_region", "access region %q must differ from every fleet region", c.AccessRegion))
	default:
		if _, ok := c.AZCapacity(c.AccessRegion); !ok {
			errs = append(errs, Errorf("access_region", "unknown region %q (known: %s; add others to region_capacity)", c.AccessRegion, strings.Join(KnownRegions(), ", ")))
		}
	}

	for region := range c.NetworkOverrides {
		if !seen[region] {
			errs = append(errs, Errorf("network_overrides", "override for %q which is not a fleet region", region))
		}
	}

	for region, n := range c.RegionCapacity {
		if n <= 0 {
			errs = append(errs, Errorf("region_capacity", "region %q must have at least one availability zone", region))
		}
	}

	return errs
}

func (c *Config) validateTable() []error {
	var errs []error

	if c.Table.Name == "" {
		errs = append(errs, Errorf("table.name", "table name is required"))
	}
	if c.PrimaryRegion == "" {
		errs = append(errs, Errorf("primary_region", "primary region is required"))
	}

	if len(c.Regions) > 0 && len(c.Table.ReplicaRegions) == 0 {
		errs = append(errs, Errorf("table.replica_regions", "replica set is empty but %d fleet(s) reference the table", len(c.Regions)))
	} else {
		replicas := c.ReplicaSet()
		for _, r := range c.Regions {
			if !slices.Contains(replicas, r) {
				errs = append(errs, Errorf("table.replica_regions", "fleet region %q is not in the table replica set %v", r, replicas))
			}
		}
	}

	switch c.Table.PartitionKey.Type {
	case "S", "N", "B":
	default:
		errs = append(errs, Errorf("table.partition_key.type", "must be one of S, N, B, got %q", c.Table.PartitionKey.Type))
	}

	switch c.Table.BillingMode {
	case "PAY_PER_REQUEST", "PROVISIONED":
	default:
		errs = append(errs, Errorf("table.billing_mode", "must be PAY_PER_REQUEST or PROVISIONED, got %q", c.Table.BillingMode))
	}

	return errs
}

func (c *Config) validateFleet() []error {
	var errs []error
	f := c.Fleet

	if f.MinCapacity < MinFleetCapacity {
		errs = append(errs, Errorf("fleet.min_capacity", "must be at least %d for availability, got %d", MinFleetCapacity, f.MinCapacity))
	}
	if f.MaxCapacity < f.MinCapacity {
		errs = append(errs, Errorf("fleet.max_capacity", "must be >= min_capacity (%d), got %d", f.MinCapacity, f.MaxCapacity))
	}
	if f.InstanceType == "" {
		errs = append(errs, Errorf("fleet.instance_type", "instance type is required"))
	}
	if f.HealthCheckGrace < 0 {
		errs = append(errs, Errorf("fleet.health_check_grace", "must not be negative"))
	}
	if err := validateArchitecture("fleet.image.architecture", f.Image.Architecture); err != nil {
		errs = append(errs, err)
	}
	if err := validateArchitecture("access.image.architecture", c.Access.Image.Architecture); err != nil {
		errs = append(errs, err)
	}

	return errs
}

func (c *Config) validateEdge() []error {
	var errs []error
	e := c.Edge

	if err := validatePort("edge.listen_port", e.ListenPort); err != nil {
		errs = append(errs, err)
	}
	if err := validatePort("edge.backend_port", e.BackendPort); err != nil {
		errs = append(errs, err)
	}
	if e.SessionAffinity <= 0 || e.SessionAffinity > MaxSessionAffinity {
		errs = append(errs, Errorf("edge.session_affinity", "must be between 1s and %v, got %v", MaxSessionAffinity, e.SessionAffinity))
	}

	if !c.EdgeOpen() && len(e.AllowedCIDRs) == 0 {
		errs = append(errs, Errorf("edge.allowed_cidrs", "a closed listener needs at least one allowed CIDR"))
	}
	for _, cidr := range e.AllowedCIDRs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errs = append(errs, Errorf("edge.allowed_cidrs", "invalid CIDR %q: %v", cidr, err))
		}
	}

	return errs
}

func (c *Config) validateState() []error {
	switch c.State.Backend {
	case StateBackendFile, StateBackendMemory, "":
		return nil
	case StateBackendS3:
		if c.State.S3.Bucket == "" {
			return []error{Errorf("state.s3.bucket", "bucket is required for the s3 backend")}
		}
		return nil
	default:
		return []error{Errorf("state.backend", "unknown backend %q", c.State.Backend)}
	}
}

func validatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return Errorf(field, "port %d out of range 1-65535", port)
	}
	return nil
}

func validateArchitecture(field, arch string) error {
	switch arch {
	case "arm64", "x86_64":
		return nil
	default:
		return &ConfigurationError{Field: field, Message: fmt.Sprintf("must be arm64 or x86_64, got %q", arch)}
	}
}

func isAccountID(s string) bool {
	if len(s) != 12 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
