// Package rewrite walks the saved documents and points every internal link
// at its mirrored location.
//
// For each anchor element the pass parses the original href, locates the
// target page in the graph, and asks the resolver chain for the relative
// replacement. Links that resolve to no registered page pass through
// untouched, so outbound links keep working from the mirror. Failures are
// per-file: a document that cannot be read or written is recorded and
// skipped, never fatal to the pass.
package rewrite
