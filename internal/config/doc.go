// Package config defines the configuration model of a fleetstack topology.
//
// A [Config] is loaded from fleetstack.yaml, defaulted with
// [Config.ApplyDefaults] and checked with [Config.Validate]. Every problem
// found is a [ConfigurationError]: fatal, never retried, and always
// reported before any infrastructure call is made.
//
// Timeouts and retry policy are not part of the file; they come from
// FLEETSTACK_* environment variables via [LoadTimeouts].
package config
