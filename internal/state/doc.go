// Package state keeps the resume journal of a topology and the lease that
// makes one run its only owner.
//
// The journal records, per entity, the realized identity, the spec hash
// and the last status. A run skips entities whose entry is complete with
// the same hash, so an interrupted run resumes forward without creating
// duplicates. Backends: memory (tests), file and S3.
package state
