// Package topology models the infrastructure of one fleetstack deployment
// as a graph of typed entities.
//
// A Topology holds one ReplicatedTable, one Network/Fleet/Edge triple per
// target region and one AccessNode in a separate region. Entities refer to
// each other by Key only; the realized identity of a dependency is handed
// over at materialization time. Descriptors (NewNetwork, NewFleet, NewEdge,
// NewAccessNode) validate their inputs and return a
// config.ConfigurationError before anything is created.
//
// Graph orders entities so that every entity follows its dependencies;
// the provisioning package walks that order to materialize or tear down.
package topology
