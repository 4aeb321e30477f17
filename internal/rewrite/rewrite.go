package rewrite

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/shinych/webmirror/internal/blockid"
	"github.com/shinych/webmirror/internal/graph"
	"github.com/shinych/webmirror/internal/model"
	"github.com/shinych/webmirror/internal/resolver"
)

// Rewriter mutates link attributes in saved documents.
type Rewriter struct {
	graph   *graph.PageGraph
	factory *resolver.Factory
	fs      *resolver.Filesystem
	logger  *slog.Logger

	// blockMaps lazily loads each page's sidecar once. Guarded by mu
	// because pages rewrite concurrently.
	mu        sync.Mutex
	blockMaps map[string]blockid.Map
}

// maxConcurrentRewrites bounds how many documents are parsed at once.
const maxConcurrentRewrites = 8

// New creates a Rewriter over a completed graph. outputRoot is the mirror
// root the pages were saved under.
func New(g *graph.PageGraph, outputRoot string, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{
		graph:     g,
		factory:   resolver.NewFactory(logger),
		fs:        &resolver.Filesystem{OutputRoot: outputRoot},
		logger:    logger,
		blockMaps: make(map[string]blockid.Map),
	}
}

// Result summarizes one rewrite pass.
type Result struct {
	// PagesRewritten counts documents rewritten in place.
	PagesRewritten int

	// LinksRewritten counts anchor hrefs that changed.
	LinksRewritten int

	// Failures maps page IDs to the error that skipped them.
	Failures map[string]string
}

// Run rewrites every saved document in the graph in place. Documents are
// independent, so they rewrite concurrently.
func (r *Rewriter) Run() *Result {
	res := &Result{Failures: make(map[string]string)}

	var resMu sync.Mutex
	var eg errgroup.Group
	eg.SetLimit(maxConcurrentRewrites)

	for _, node := range r.graph.Nodes() {
		node := node
		eg.Go(func() error {
			changed, err := r.rewritePage(node)

			resMu.Lock()
			defer resMu.Unlock()
			if err != nil {
				// Per-file failure: record it and keep going.
				r.logger.Warn("rewrite skipped page",
					"page", node.ID,
					"url", node.URL,
					"error", err,
				)
				res.Failures[node.ID] = err.Error()
				return nil
			}
			res.PagesRewritten++
			res.LinksRewritten += changed
			return nil
		})
	}
	_ = eg.Wait() // Workers never return errors; failures land in res.

	return res
}

// rewritePage loads one saved document, rewrites its anchors, and saves it
// back. Returns how many hrefs changed.
func (r *Rewriter) rewritePage(node *model.PageNode) (int, error) {
	docPath := r.fs.OutputPath(node)
	f, err := os.Open(docPath) //nolint:gosec // Path is derived from our own plan
	if err != nil {
		return 0, fmt.Errorf("open document: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(f)
	closeErr := f.Close()
	if err != nil {
		return 0, fmt.Errorf("parse document: %w", err)
	}
	if closeErr != nil {
		return 0, closeErr
	}

	changed := 0
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		replacement := r.resolveHref(node, href)
		if replacement != href {
			sel.SetAttr("href", replacement)
			changed++
		}
	})

	if changed == 0 {
		return 0, nil
	}

	html, err := doc.Html()
	if err != nil {
		return 0, fmt.Errorf("serialize document: %w", err)
	}
	if err := os.WriteFile(docPath, []byte(html), 0600); err != nil {
		return 0, fmt.Errorf("save document: %w", err)
	}
	return changed, nil
}

// resolveHref builds the resolver context for one link and returns the
// replacement href.
func (r *Rewriter) resolveHref(source *model.PageNode, href string) string {
	ctx := resolver.Context{
		Source:    source,
		Href:      href,
		BlockMaps: r,
	}

	if strings.HasPrefix(href, "#") {
		// Same-page anchor: the target is the page itself.
		ctx.Target = source
		ctx.BlockID = rawBlockID(strings.TrimPrefix(href, "#"))
	} else if u, err := url.Parse(href); err == nil {
		ctx.BlockID = rawBlockID(u.Fragment)
		// Authored hrefs may be host-relative ("/about") or
		// path-relative; resolve them against the page they appear on
		// before the registry lookup, or an internal link slips
		// through as external.
		lookup := href
		if !u.IsAbs() {
			if base, err := url.Parse(source.URL); err == nil {
				lookup = base.ResolveReference(u).String()
			}
		}
		ctx.Target = r.graph.NodeByURL(lookup)
	}

	out, _ := r.factory.Resolve(ctx)
	return out
}

// rawBlockID returns the fragment's raw block form, or empty when the
// fragment is not a block identifier.
func rawBlockID(fragment string) string {
	raw, ok := blockid.RawID(fragment)
	if !ok {
		return ""
	}
	return raw
}

// BlockMap implements resolver.BlockMapCache by loading each page's sidecar
// on first use.
func (r *Rewriter) BlockMap(pageID string) blockid.Map {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.blockMaps[pageID]; ok {
		return m
	}
	node := r.graph.Node(pageID)
	if node == nil {
		return nil
	}
	m := blockid.LoadSidecar(r.fs.OutputPath(node))
	r.blockMaps[pageID] = m
	return m
}
