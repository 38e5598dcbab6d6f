// Package registry holds the static service and porting tables: which
// services exist, which module owns each, what each service requires, how
// its vendor inputs are injected, and which call executes its porting
// logic.
//
// Tables are compiled once from CUE spec files at process start and are
// read-only afterwards, so any number of tasks may resolve against the same
// Registry concurrently without locking.
package registry
