// Package resolve computes the service closure for one task: the requested
// services plus their transitive dependencies in first-seen order, the
// owning-module set, the union of required vendor inputs, and the
// non-fatal issues found while validating the task row against them.
package resolve
