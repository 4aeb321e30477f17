package model

// EdgeType classifies a discovered link relative to the discovery tree.
type EdgeType string

// Edge classifications.
//
// Only FORWARD edges create new nodes. BACK and CROSS edges are recorded as
// metadata so that the link-rewrite pass can still resolve them to relative
// paths, but they never alter the tree shape.
const (
	// EdgeForward is the link that first introduced its target as a new
	// node. Exactly one FORWARD edge points at every non-root node.
	EdgeForward EdgeType = "FORWARD"

	// EdgeBack is a self-loop or a link to an ancestor of the source,
	// typically navigation or breadcrumb links.
	EdgeBack EdgeType = "BACK"

	// EdgeCross is a link to an already-registered node that is neither
	// the source itself nor one of its ancestors.
	EdgeCross EdgeType = "CROSS"
)

// EdgeMetadata describes one classified edge between two registered pages.
type EdgeMetadata struct {
	// SourceID and TargetID name the edge endpoints.
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`

	// Type is the classification of this edge.
	Type EdgeType `json:"type"`

	// DepthDelta is target depth minus source depth.
	DepthDelta int `json:"depth_delta"`

	// IsAncestor is true when the target lies on the source's parent chain.
	IsAncestor bool `json:"is_ancestor"`
}
