// Package escape implements the source re-escaping transducer: a single
// left-to-right scan that rewrites literal newlines inside quoted string
// regions of a source fragment into escaped form, so the fragment can be
// spliced into a generated document as one text block without a real
// newline prematurely terminating any string literal.
//
// Comments and code outside strings pass through byte-identical.
package escape
