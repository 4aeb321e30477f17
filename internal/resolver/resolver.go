package resolver

import (
	"log/slog"

	"github.com/shinych/webmirror/internal/blockid"
	"github.com/shinych/webmirror/internal/model"
)

// DocumentFilename is the canonical filename every page is saved under.
const DocumentFilename = "index.html"

// Kind identifies a resolution strategy.
type Kind string

// Resolution strategy kinds.
const (
	KindIntra      Kind = "intra"
	KindInter      Kind = "inter"
	KindExternal   Kind = "external"
	KindFilesystem Kind = "filesystem"
)

// Context carries everything a strategy needs to resolve one link.
type Context struct {
	// Source is the page the link appears on.
	Source *model.PageNode

	// Target is the registered page the link points at, nil if the link
	// does not resolve to a registered page.
	Target *model.PageNode

	// Href is the original link attribute value.
	Href string

	// BlockID is the raw block identifier extracted from the link's
	// fragment, empty if the link has none.
	BlockID string

	// BlockMaps looks up the extracted block map for a page ID. May be
	// nil; resolution then always uses the structural anchor fallback.
	BlockMaps BlockMapCache
}

// BlockMapCache provides per-page block maps to anchor formatting.
type BlockMapCache interface {
	// BlockMap returns the block map for a page, or nil if unavailable.
	BlockMap(pageID string) blockid.Map
}

// Strategy resolves link contexts it declares support for.
type Strategy interface {
	// Supports reports whether this strategy can resolve the context.
	Supports(ctx Context) bool

	// Resolve computes the replacement href for the context.
	Resolve(ctx Context) string

	// Kind returns the strategy's identity for logging.
	Kind() Kind
}

// Factory selects the first strategy that supports a link context.
//
// The priority order is fixed: Intra, Inter, External. External supports
// every context with an invalid target, so the chain only falls through
// entirely for contexts that pair a valid target with an unresolvable shape;
// those are logged as warnings and passed through unchanged rather than
// failing the rewrite pass.
type Factory struct {
	chain  []Strategy
	logger *slog.Logger
}

// NewFactory creates a factory with the standard strategy chain.
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		chain: []Strategy{
			&Intra{},
			&Inter{},
			&External{},
		},
		logger: logger,
	}
}

// Resolve picks the first supporting strategy and resolves the context.
// The second return value is the strategy kind that handled the link.
func (f *Factory) Resolve(ctx Context) (string, Kind) {
	for _, s := range f.chain {
		if s.Supports(ctx) {
			return s.Resolve(ctx), s.Kind()
		}
	}
	f.logger.Warn("no resolver claimed link, passing through",
		"href", ctx.Href,
		"source", sourceID(ctx),
	)
	return ctx.Href, ""
}

func sourceID(ctx Context) string {
	if ctx.Source != nil {
		return ctx.Source.ID
	}
	return ""
}

// anchor formats the context's block ID as a fragment suffix, preferring the
// target page's extracted block map over the structural reformat.
func anchor(ctx Context) string {
	if ctx.BlockID == "" {
		return ""
	}
	var m blockid.Map
	if ctx.BlockMaps != nil && ctx.Target != nil {
		m = ctx.BlockMaps.BlockMap(ctx.Target.ID)
	}
	return "#" + blockid.FormattedID(ctx.BlockID, m)
}
