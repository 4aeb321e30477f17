// Package model defines the core data structures shared across webmirror:
// discovered pages, classified edges between them, and the download tasks
// dispatched to worker processes.
//
// All types in this package are plain data. They carry JSON tags because the
// discovery and execution phases may run in different processes, so every
// structure must survive a serialization round trip without losing the
// information needed to resolve paths between pages.
//
// Design decision: PageNode references its parent and children by ID string
// rather than by pointer. The discovered site forms a tree with back and
// cross links layered on top, and pointer-based back references would create
// reference cycles that complicate serialization. Arena-style storage (nodes
// held in a map, linked by IDs) keeps every structure acyclic and flat.
package model
