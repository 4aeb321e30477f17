// Package discover builds the page graph by breadth-first search from the
// root URL.
//
// The search is strictly level-synchronous: every node at depth d is probed
// before any node at depth d+1. That ordering is load-bearing. Path
// resolution caches each node's segment chain at registration, which is only
// sound if a node's final parent chain is fixed the moment its depth is
// assigned, and that in turn holds only if no URL can be discovered twice at
// different depths.
//
// Discovery runs on a single logical thread against one shared browser
// session. The registry inside the page graph is the only shared state, and
// it is mutated sequentially.
package discover
