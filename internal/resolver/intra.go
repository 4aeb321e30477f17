package resolver

import "strings"

// Intra resolves links that stay on the current page: anchor-only hrefs and
// links from a page to itself.
type Intra struct{}

// Supports reports true for anchor-only hrefs regardless of target, and for
// any link whose source and target are the same registered page.
func (r *Intra) Supports(ctx Context) bool {
	if strings.HasPrefix(ctx.Href, "#") {
		return true
	}
	return ctx.Source.Valid() && ctx.Target.Valid() && ctx.Source.ID == ctx.Target.ID
}

// Resolve returns a bare formatted anchor when a block is addressed, or an
// empty href (a link to the current location) otherwise.
func (r *Intra) Resolve(ctx Context) string {
	return anchor(ctx)
}

// Kind returns the strategy identity.
func (r *Intra) Kind() Kind {
	return KindIntra
}
