// Package provisioning materializes and tears down topologies.
//
// # Phases
//
//   - validation: checks the configuration and builds the Topology
//   - materialize: the Assembler walks the dependency graph
//   - teardown: removes a topology or one region in reverse order
//
// # Core Types
//
// Context carries configuration, the Topology, the materializer, the state
// store and the Observer. Phase defines a step with Name() and Provision().
// State accumulates the outputs of a run.
//
// A run owns its topology through the state store's lease and records
// every result in the journal, so that an interrupted run can be resumed
// by the next one without creating anything twice.
package provisioning
