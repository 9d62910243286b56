// Package labels provides consistent tagging for topology resources.
//
// Every realized resource carries the topology it belongs to, its region
// and its role, so that resources can be found and reclaimed even without
// the state journal.
//
// Standard tag keys use the fleetstack: prefix for namespacing.
package labels
