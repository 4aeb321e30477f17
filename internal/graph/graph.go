package graph

import (
	"errors"
	"fmt"

	"github.com/shinych/webmirror/internal/model"
)

// ErrURLRegistered is returned when a URL is registered a second time.
// The first registration of a URL is final; later sightings of the same URL
// must be recorded as edges, never as new nodes.
var ErrURLRegistered = errors.New("url already registered to a node")

// PageGraph is the aggregate store of discovered pages and classified edges.
//
// Nodes are held in a map keyed by page ID and linked by ID strings, never by
// pointers, so the whole structure stays acyclic and serializes flat. The
// urlIndex provides the registry lookup discovery performs before deciding
// whether a link spawns a new node.
//
// The graph is mutated only by the single-threaded discovery phase; after
// discovery it is read-only and safe for concurrent readers.
type PageGraph struct {
	// nodes maps page ID to node.
	nodes map[string]*model.PageNode

	// urlIndex maps normalized URL to page ID.
	urlIndex map[string]string

	// edges maps source ID to target IDs in discovery order.
	edges map[string][]string

	// edgeMeta maps "src\x00dst" to classification metadata.
	edgeMeta map[string]model.EdgeMetadata

	// rootID is the ID of the discovery root, empty until registered.
	rootID string
}

// New creates an empty page graph.
func New() *PageGraph {
	return &PageGraph{
		nodes:    make(map[string]*model.PageNode),
		urlIndex: make(map[string]string),
		edges:    make(map[string][]string),
		edgeMeta: make(map[string]model.EdgeMetadata),
	}
}

func edgeKey(srcID, dstID string) string {
	return srcID + "\x00" + dstID
}

// Register adds a new node for a not-yet-registered URL and wires it under
// its parent with a FORWARD edge. The root is registered with an empty
// parentID.
//
// Returns ErrURLRegistered if the URL already has a node: callers must check
// NodeByURL first and record a classified edge instead of registering.
func (g *PageGraph) Register(node *model.PageNode) error {
	normalized := model.NormalizeURL(node.URL)
	if id, ok := g.urlIndex[normalized]; ok {
		return fmt.Errorf("%w: %s -> %s", ErrURLRegistered, normalized, id)
	}
	if _, ok := g.nodes[node.ID]; ok {
		return fmt.Errorf("%w: duplicate id %s", ErrURLRegistered, node.ID)
	}

	g.nodes[node.ID] = node
	g.urlIndex[normalized] = node.ID

	if node.ParentID == "" {
		g.rootID = node.ID
		return nil
	}

	parent, ok := g.nodes[node.ParentID]
	if !ok {
		return fmt.Errorf("parent %s not registered for %s", node.ParentID, node.ID)
	}
	parent.ChildIDs = append(parent.ChildIDs, node.ID)
	g.addEdge(model.EdgeMetadata{
		SourceID:   parent.ID,
		TargetID:   node.ID,
		Type:       model.EdgeForward,
		DepthDelta: node.Depth - parent.Depth,
	})
	return nil
}

// RecordEdge stores a classified non-tree edge between two registered nodes.
// Duplicate (src,dst) pairs keep their first classification.
func (g *PageGraph) RecordEdge(meta model.EdgeMetadata) {
	if _, ok := g.edgeMeta[edgeKey(meta.SourceID, meta.TargetID)]; ok {
		return
	}
	g.addEdge(meta)
}

func (g *PageGraph) addEdge(meta model.EdgeMetadata) {
	g.edges[meta.SourceID] = append(g.edges[meta.SourceID], meta.TargetID)
	g.edgeMeta[edgeKey(meta.SourceID, meta.TargetID)] = meta
}

// Node returns the node for a page ID, or nil.
func (g *PageGraph) Node(id string) *model.PageNode {
	return g.nodes[id]
}

// NodeByURL returns the node registered for a URL, or nil. The URL is
// normalized before lookup, so fragment and trailing-slash variants of a
// registered URL still resolve to its node.
func (g *PageGraph) NodeByURL(rawURL string) *model.PageNode {
	id, ok := g.urlIndex[model.NormalizeURL(rawURL)]
	if !ok {
		return nil
	}
	return g.nodes[id]
}

// Root returns the discovery root node, or nil before registration.
func (g *PageGraph) Root() *model.PageNode {
	if g.rootID == "" {
		return nil
	}
	return g.nodes[g.rootID]
}

// Len returns the number of registered nodes.
func (g *PageGraph) Len() int {
	return len(g.nodes)
}

// Nodes returns all registered nodes in unspecified order.
func (g *PageGraph) Nodes() []*model.PageNode {
	out := make([]*model.PageNode, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// EdgeMeta returns the classification for the (src,dst) edge if recorded.
func (g *PageGraph) EdgeMeta(srcID, dstID string) (model.EdgeMetadata, bool) {
	meta, ok := g.edgeMeta[edgeKey(srcID, dstID)]
	return meta, ok
}

// Edges returns every recorded edge's metadata in unspecified order.
func (g *PageGraph) Edges() []model.EdgeMetadata {
	out := make([]model.EdgeMetadata, 0, len(g.edgeMeta))
	for _, meta := range g.edgeMeta {
		out = append(out, meta)
	}
	return out
}

// IsAncestor reports whether candidate lies on node's parent chain.
// The walk is bounded by node depth, so a corrupted parent chain cannot
// loop forever.
func (g *PageGraph) IsAncestor(node *model.PageNode, candidateID string) bool {
	cur := node
	for i := 0; cur != nil && cur.ParentID != "" && i <= node.Depth; i++ {
		if cur.ParentID == candidateID {
			return true
		}
		cur = g.nodes[cur.ParentID]
	}
	return false
}
