// Package naming provides consistent names for topology resources.
//
// Resource names follow the pattern {topology}-{region}-{role}, so that
// two regions of the same topology never collide and every resource of a
// region can be found by prefix.
package naming
