// Package blockid maps raw 32-character hex block identifiers to the
// canonical dashed form rendered on a page, so that rewritten anchors match
// the anchor attributes actually present in the saved document.
//
// The mapping for each page is persisted as a small sidecar file next to the
// saved document. The sidecar is an optimization, never a requirement: a
// missing or corrupt sidecar degrades silently to a structural reformat of
// the raw identifier, which is always safe because raw identifiers have a
// fixed validated length.
package blockid
