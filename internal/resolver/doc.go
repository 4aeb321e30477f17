// Package resolver computes every path or anchor a rewritten link needs.
//
// # Architecture
//
// Resolution is polymorphic over a small strategy interface. The Factory
// tries strategies in a fixed priority order and the first one that supports
// the link context wins:
//
//   - Intra: anchor-only links and links from a page to itself
//   - Inter: links between two different registered pages
//   - External: links whose target is unknown, passed through untouched
//
// A fourth strategy, Filesystem, is never selected automatically. It is
// invoked explicitly during planning to compute the output path a page is
// saved under, independent of any link between two pages.
//
// # Path algorithm
//
// Inter-page resolution works purely on the cached path-segment lists carried
// by each node: find the longest common prefix, emit one "../" per remaining
// source segment, then descend through the remaining target segments to the
// canonical document filename. Because segments are computed once during
// discovery and serialized with the node, resolution never needs to walk a
// parent chain.
package resolver
