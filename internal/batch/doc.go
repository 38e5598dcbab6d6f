// Package batch runs the resolve/assemble pipeline over a set of tasks
// with a bounded worker pool. Results come back in input order regardless
// of completion order.
package batch
