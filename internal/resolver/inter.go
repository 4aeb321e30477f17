package resolver

import "strings"

// Inter resolves links between two different registered pages by relating
// their cached path-segment chains.
type Inter struct{}

// Supports reports true when source and target are both valid registered
// pages and not the same page.
func (r *Inter) Supports(ctx Context) bool {
	return ctx.Source.Valid() && ctx.Target.Valid() && ctx.Source.ID != ctx.Target.ID
}

// Resolve emits one "../" per source segment beyond the longest common
// prefix, then the target's remaining segments, terminating in the canonical
// document filename. A formatted anchor is appended when the link addresses
// a block.
//
// The same construction covers all shapes: child to root yields only
// up-tokens and the bare filename, root to child yields only down-segments,
// and divergent branches climb to the fork before descending.
func (r *Inter) Resolve(ctx Context) string {
	src := ctx.Source.PathSegments
	dst := ctx.Target.PathSegments

	common := 0
	for common < len(src) && common < len(dst) && src[common] == dst[common] {
		common++
	}

	var b strings.Builder
	for i := common; i < len(src); i++ {
		b.WriteString("../")
	}
	for i := common; i < len(dst); i++ {
		b.WriteString(dst[i])
		b.WriteString("/")
	}
	b.WriteString(DocumentFilename)
	b.WriteString(anchor(ctx))
	return b.String()
}

// Kind returns the strategy identity.
func (r *Inter) Kind() Kind {
	return KindInter
}
