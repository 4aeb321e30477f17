package graph

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shinych/webmirror/internal/model"
)

// Snapshot is the flat, serializable form of a PageGraph.
//
// Nodes and edges are sorted so that encoding is deterministic; the tree
// structure (ChildIDs order, parent links) is carried inside the nodes
// themselves and fully reconstructs the indexes on restore.
type Snapshot struct {
	RootID string               `json:"root_id"`
	Nodes  []*model.PageNode    `json:"nodes"`
	Edges  []model.EdgeMetadata `json:"edges"`
}

// Snapshot produces the flat form of the graph.
func (g *PageGraph) Snapshot() *Snapshot {
	snap := &Snapshot{
		RootID: g.rootID,
		Nodes:  g.Nodes(),
		Edges:  g.Edges(),
	}
	sort.Slice(snap.Nodes, func(i, j int) bool {
		if snap.Nodes[i].Depth != snap.Nodes[j].Depth {
			return snap.Nodes[i].Depth < snap.Nodes[j].Depth
		}
		return snap.Nodes[i].ID < snap.Nodes[j].ID
	})
	sort.Slice(snap.Edges, func(i, j int) bool {
		if snap.Edges[i].SourceID != snap.Edges[j].SourceID {
			return snap.Edges[i].SourceID < snap.Edges[j].SourceID
		}
		return snap.Edges[i].TargetID < snap.Edges[j].TargetID
	})
	return snap
}

// Restore rebuilds a PageGraph from its flat form.
func Restore(snap *Snapshot) (*PageGraph, error) {
	g := New()
	g.rootID = snap.RootID
	for _, n := range snap.Nodes {
		if _, ok := g.nodes[n.ID]; ok {
			return nil, fmt.Errorf("snapshot contains duplicate node %s", n.ID)
		}
		g.nodes[n.ID] = n
		g.urlIndex[model.NormalizeURL(n.URL)] = n.ID
	}
	if snap.RootID != "" {
		if _, ok := g.nodes[snap.RootID]; !ok {
			return nil, fmt.Errorf("snapshot root %s has no node", snap.RootID)
		}
	}
	for _, meta := range snap.Edges {
		if _, ok := g.nodes[meta.SourceID]; !ok {
			return nil, fmt.Errorf("edge source %s has no node", meta.SourceID)
		}
		if _, ok := g.nodes[meta.TargetID]; !ok {
			return nil, fmt.Errorf("edge target %s has no node", meta.TargetID)
		}
		g.addEdge(meta)
	}
	return g, nil
}

// MarshalJSON encodes the graph as its snapshot.
func (g *PageGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Snapshot())
}

// UnmarshalJSON decodes a snapshot and restores the graph in place.
func (g *PageGraph) UnmarshalJSON(data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	restored, err := Restore(&snap)
	if err != nil {
		return err
	}
	*g = *restored
	return nil
}
