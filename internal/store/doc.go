// Package store provides durable SQLite storage for task rows and porting
// source revisions, plus CSV import for tabular task exports.
package store
