// Package cli implements the portforge command tree: validate, resolve,
// import, and generate.
package cli
