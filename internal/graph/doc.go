// Package graph stores the discovered site as a page graph: a spanning tree
// of FORWARD edges plus the BACK and CROSS links layered on top of it.
//
// The graph is built sequentially during discovery and becomes read-only once
// discovery finishes. It round-trips through a flat JSON snapshot because the
// discovery and execution phases may run in different processes.
package graph
