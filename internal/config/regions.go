package config

import (
	"sort"
)

// regionCapacity is the number of availability zones usable for subnets
// in each known region.
var regionCapacity = map[string]int{
	"us-east-1":      6,
	"us-east-2":      3,
	"us-west-1":      2,
	"us-west-2":      4,
	"ca-central-1":   3,
	"sa-east-1":      3,
	"eu-west-1":      3,
	"eu-west-2":      3,
	"eu-west-3":      3,
	"eu-central-1":   3,
	"eu-north-1":     3,
	"eu-south-1":     3,
	"ap-south-1":     3,
	"ap-northeast-1": 3,
	"ap-northeast-2": 4,
	"ap-southeast-1": 3,
	"ap-southeast-2": 3,
	"me-south-1":     3,
	"af-south-1":     3,
}

// AZCapacity returns how many availability zones region offers.
// Entries in the config's region_capacity take precedence.
func (c *Config) AZCapacity(region string) (int, bool) {
	if n, ok := c.RegionCapacity[region]; ok {
		return n, true
	}
	n, ok := regionCapacity[region]
	return n, ok
}

// KnownRegions returns the built-in region names, sorted.
func KnownRegions() []string {
	out := make([]string, 0, len(regionCapacity))
	for r := range regionCapacity {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
