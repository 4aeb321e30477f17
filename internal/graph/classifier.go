package graph

import "github.com/shinych/webmirror/internal/model"

// Classify classifies a link between two already-registered nodes.
//
// Rules, in order: a self-loop is BACK; a link to an ancestor of the source
// is BACK with IsAncestor set; any other link to a registered node is CROSS.
// FORWARD edges are never produced here: the discovery orchestrator records
// FORWARD itself at the moment a link first introduces an unregistered URL.
//
// Classification has no side effects on the tree. Its only purpose is
// metadata for diagnostics and later path resolution.
func (g *PageGraph) Classify(source, target *model.PageNode) model.EdgeMetadata {
	meta := model.EdgeMetadata{
		SourceID:   source.ID,
		TargetID:   target.ID,
		DepthDelta: target.Depth - source.Depth,
	}

	switch {
	case source.ID == target.ID:
		meta.Type = model.EdgeBack
	case g.IsAncestor(source, target.ID):
		meta.Type = model.EdgeBack
		meta.IsAncestor = true
	default:
		meta.Type = model.EdgeCross
	}
	return meta
}
