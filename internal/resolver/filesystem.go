package resolver

import (
	"path/filepath"

	"github.com/shinych/webmirror/internal/model"
)

// Filesystem computes the output path a page's document is saved under. It
// is not part of the automatic strategy chain: planning invokes it explicitly
// for every node, once, before execution starts, which is what makes the
// output tree conflict-free across workers.
type Filesystem struct {
	// OutputRoot is the absolute root of the mirror tree.
	OutputRoot string
}

// OutputPath returns the absolute document path for a node: the output root
// joined with the node's sanitized path segments and the canonical filename.
// The root node (empty segment list) is saved directly under the output root.
func (r *Filesystem) OutputPath(node *model.PageNode) string {
	parts := make([]string, 0, len(node.PathSegments)+2)
	parts = append(parts, r.OutputRoot)
	parts = append(parts, node.PathSegments...)
	parts = append(parts, DocumentFilename)
	return filepath.Join(parts...)
}

// Kind returns the strategy identity.
func (r *Filesystem) Kind() Kind {
	return KindFilesystem
}
