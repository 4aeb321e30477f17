package resolver

// External handles links that do not resolve to a registered page. The
// original URL passes through untouched so that outbound links keep working
// from the mirror.
type External struct{}

// Supports reports true when the target is absent or lacks a valid
// identifier.
func (r *External) Supports(ctx Context) bool {
	return !ctx.Target.Valid()
}

// Resolve returns the original href unchanged. True passthrough: the URL is
// never rewritten, re-encoded or normalized.
func (r *External) Resolve(ctx Context) string {
	return ctx.Href
}

// Kind returns the strategy identity.
func (r *External) Kind() Kind {
	return KindExternal
}
