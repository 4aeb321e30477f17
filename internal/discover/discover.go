package discover

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/shinych/webmirror/internal/graph"
	"github.com/shinych/webmirror/internal/model"
	"github.com/shinych/webmirror/internal/resolver"
)

// Prober renders one page far enough to read its title and outbound links.
// It is implemented by the browser layer; tests substitute fakes.
type Prober interface {
	Probe(ctx context.Context, url string) (ProbeResult, error)
}

// ProbeResult is what discovery needs from one rendered page.
type ProbeResult struct {
	// Title is the rendered page title.
	Title string

	// OutboundLinks are the absolute URLs of all links found on the page,
	// in document order.
	OutboundLinks []string
}

// Orchestrator drives depth-synchronous BFS over a Prober and builds the
// page graph.
type Orchestrator struct {
	prober Prober
	logger *slog.Logger

	// internalHost limits tree growth to one site. Links to other hosts
	// are ignored during discovery; the rewrite pass later passes them
	// through as external.
	internalHost string

	// usedSegments tracks the path segments claimed under each parent so
	// sibling pages never collide on one output directory. Keyed by
	// parent ID.
	usedSegments map[string]map[string]bool
}

// New creates a discovery orchestrator. A nil logger falls back to
// slog.Default.
func New(prober Prober, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		prober:       prober,
		logger:       logger,
		usedSegments: make(map[string]map[string]bool),
	}
}

// Discover probes the site level by level from rootURL down to maxDepth and
// returns the completed page graph, including rejected BACK and CROSS edges,
// which later still need resolvable paths.
//
// Per outbound link the registry is consulted before anything else: a URL
// that is already registered anywhere in the graph is recorded only as a
// classified edge, never as a new child. This check specifically catches
// navigation links that target already-placed ancestors or siblings. Only a
// not-yet-registered URL spawns a tree edge. When a URL is reachable from
// two nodes within the same level, whichever source is processed first wins.
//
// A probe failure leaves its node in the tree as a childless leaf and the
// crawl continues; discovery fails as a whole only when the root URL itself
// is invalid or the context is cancelled.
func (o *Orchestrator) Discover(ctx context.Context, rootURL string, maxDepth int) (*graph.PageGraph, error) {
	g := graph.New()

	host, err := hostOf(rootURL)
	if err != nil {
		return nil, fmt.Errorf("invalid root url %q: %w", rootURL, err)
	}
	o.internalHost = host

	root := &model.PageNode{
		ID:           model.PageIDFromURL(rootURL),
		URL:          model.NormalizeURL(rootURL),
		Depth:        0,
		PathSegments: []string{},
	}
	if err := g.Register(root); err != nil {
		return nil, fmt.Errorf("register root: %w", err)
	}

	frontier := []*model.PageNode{root}
	for depth := 0; len(frontier) > 0 && (maxDepth < 0 || depth < maxDepth); depth++ {
		o.logger.Info("probing level",
			"depth", depth,
			"nodes", len(frontier),
			"registered", g.Len(),
		)

		var next []*model.PageNode
		for _, node := range frontier {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			children, err := o.probeNode(ctx, g, node)
			if err != nil {
				// The node stays in the tree as a childless leaf.
				o.logger.Warn("probe failed, keeping leaf",
					"url", node.URL,
					"depth", node.Depth,
					"error", err,
				)
				continue
			}
			next = append(next, children...)
		}

		if maxDepth >= 0 && depth+1 >= maxDepth && len(next) > 0 {
			o.logger.Info("depth limit reached, frontier left unexpanded",
				"max_depth", maxDepth,
				"unexpanded", len(next),
			)
		}
		frontier = next
	}

	o.logger.Info("discovery complete", "pages", g.Len())
	return g, nil
}

// probeNode probes one page, finalizes its path segment from the rendered
// title, and registers its children. It returns the new child nodes for the
// next BFS level.
func (o *Orchestrator) probeNode(ctx context.Context, g *graph.PageGraph, node *model.PageNode) ([]*model.PageNode, error) {
	res, err := o.prober.Probe(ctx, node.URL)
	if err != nil {
		return nil, err
	}

	node.Title = res.Title
	if node.IsRoot() && node.Title == "" {
		node.Title = "Index"
	}
	o.finalizeSegment(node)

	var children []*model.PageNode
	for _, link := range res.OutboundLinks {
		target := g.NodeByURL(link)
		if target != nil {
			// Already placed: record the classified edge only.
			g.RecordEdge(g.Classify(node, target))
			continue
		}

		host, err := hostOf(link)
		if err != nil || host != o.internalHost {
			continue
		}

		child, err := o.registerChild(g, node, link)
		if err != nil {
			o.logger.Warn("could not register child",
				"parent", node.URL,
				"url", link,
				"error", err,
			)
			continue
		}
		children = append(children, child)
	}
	return children, nil
}

// registerChild creates and registers a new child node under parent. The
// child carries a provisional segment derived from its URL until its own
// probe supplies the title; the parent's chain it extends is already final
// because the parent was probed first.
func (o *Orchestrator) registerChild(g *graph.PageGraph, parent *model.PageNode, link string) (*model.PageNode, error) {
	segment := o.claimSegment(parent.ID, segmentForURL(link))

	segments := make([]string, 0, len(parent.PathSegments)+1)
	segments = append(segments, parent.PathSegments...)
	segments = append(segments, segment)

	child := &model.PageNode{
		ID:           model.PageIDFromURL(link),
		URL:          model.NormalizeURL(link),
		Depth:        parent.Depth + 1,
		ParentID:     parent.ID,
		PathSegments: segments,
	}
	if err := g.Register(child); err != nil {
		o.releaseSegment(parent.ID, segment)
		return nil, err
	}
	return child, nil
}

// finalizeSegment replaces a node's provisional URL-derived segment with the
// sanitized rendered title. Nodes that are never probed (depth-limit leaves,
// probe failures) keep their provisional segment, which is already unique
// among siblings.
func (o *Orchestrator) finalizeSegment(node *model.PageNode) {
	if node.IsRoot() || node.Title == "" {
		return
	}
	last := len(node.PathSegments) - 1
	provisional := node.PathSegments[last]
	titled := resolver.SanitizeSegment(node.Title)
	if titled == provisional {
		return
	}
	o.releaseSegment(node.ParentID, provisional)
	node.PathSegments[last] = o.claimSegment(node.ParentID, titled)
}

// claimSegment reserves a segment under a parent, disambiguating collisions
// with a numeric suffix.
func (o *Orchestrator) claimSegment(parentID, segment string) string {
	used := o.usedSegments[parentID]
	if used == nil {
		used = make(map[string]bool)
		o.usedSegments[parentID] = used
	}
	candidate := segment
	for i := 2; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s-%d", segment, i)
	}
	used[candidate] = true
	return candidate
}

func (o *Orchestrator) releaseSegment(parentID, segment string) {
	if used := o.usedSegments[parentID]; used != nil {
		delete(used, segment)
	}
}

// trailingIDPattern matches a raw or dashed page identifier suffix on a URL
// path element, with its leading separator.
var trailingIDPattern = regexp.MustCompile(`[-_]?([0-9a-fA-F]{32}|[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})$`)

// segmentForURL derives a provisional path segment from a URL's last path
// element: the embedded page identifier is dropped, URL escapes are decoded,
// and the rest is sanitized like a title.
func segmentForURL(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return resolver.SanitizeSegment(link)
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		base = u.Host
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	base = trailingIDPattern.ReplaceAllString(base, "")
	if base == "" {
		base = path.Base(u.Path)
	}
	return resolver.SanitizeSegment(strings.ReplaceAll(base, "-", " "))
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}
	return strings.ToLower(u.Host), nil
}
