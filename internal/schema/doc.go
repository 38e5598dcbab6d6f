// Package schema implements the normalization engine: a JSON-compatible
// value model, template derivation from canonical default instances, and the
// type-aware recursive merge that reconciles arbitrary vendor payloads
// against a service's canonical shape.
//
// All operations are pure functions over immutable values, so they are safe
// to invoke concurrently across tasks without locking.
package schema
