package discover

import (
	"context"
	"errors"
	"testing"

	"github.com/shinych/webmirror/internal/model"
)

// fakeProber serves canned probe results keyed by normalized URL.
type fakeProber struct {
	pages map[string]ProbeResult
	fail  map[string]bool
	order []string
}

func (p *fakeProber) Probe(_ context.Context, url string) (ProbeResult, error) {
	p.order = append(p.order, url)
	if p.fail[url] {
		return ProbeResult{}, errors.New("render timed out")
	}
	res, ok := p.pages[url]
	if !ok {
		return ProbeResult{}, errors.New("no such page")
	}
	return res, nil
}

// site builds a prober for a small documentation site with navigation links
// back to the root on every page:
//
//	root ── a ── a1
//	     └─ b
func site() *fakeProber {
	return &fakeProber{
		pages: map[string]ProbeResult{
			"https://s.example/": {
				Title:         "Index",
				OutboundLinks: []string{"https://s.example/a", "https://s.example/b"},
			},
			"https://s.example/a": {
				Title: "Alpha",
				OutboundLinks: []string{
					"https://s.example/",   // nav back-link to root
					"https://s.example/a1", // real child
					"https://s.example/b",  // cross link to sibling branch
				},
			},
			"https://s.example/b": {
				Title:         "Beta",
				OutboundLinks: []string{"https://s.example/", "https://s.example/a"},
			},
			"https://s.example/a1": {
				Title:         "Alpha One",
				OutboundLinks: []string{"https://s.example/", "https://s.example/a"},
			},
		},
		fail: map[string]bool{},
	}
}

// TestDiscoverTree tests tree construction and edge classification.
func TestDiscoverTree(t *testing.T) {
	t.Parallel()

	g, err := New(site(), nil).Discover(context.Background(), "https://s.example/", -1)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}

	if g.Len() != 4 {
		t.Fatalf("expected 4 pages, got %d", g.Len())
	}

	t.Run("depth invariant holds", func(t *testing.T) {
		for _, n := range g.Nodes() {
			if n.IsRoot() {
				continue
			}
			parent := g.Node(n.ParentID)
			if parent == nil || n.Depth != parent.Depth+1 {
				t.Errorf("node %s violates depth invariant", n.URL)
			}
		}
	})

	t.Run("back-links never re-parent placed nodes", func(t *testing.T) {
		a := g.NodeByURL("https://s.example/a")
		if a == nil || a.ParentID != g.Root().ID {
			t.Fatal("a must stay a child of root")
		}
		// b links to a, but a was registered at the same level first.
		b := g.NodeByURL("https://s.example/b")
		if b.ParentID != g.Root().ID {
			t.Fatal("b must stay a child of root")
		}
		meta, ok := g.EdgeMeta(b.ID, a.ID)
		if !ok || meta.Type != model.EdgeCross {
			t.Errorf("b->a = %+v, expected recorded CROSS edge", meta)
		}
	})

	t.Run("nav links to root become BACK edges", func(t *testing.T) {
		a := g.NodeByURL("https://s.example/a")
		meta, ok := g.EdgeMeta(a.ID, g.Root().ID)
		if !ok || meta.Type != model.EdgeBack || !meta.IsAncestor {
			t.Errorf("a->root = %+v, expected BACK ancestor edge", meta)
		}
	})

	t.Run("path segments follow the sanitized title chain", func(t *testing.T) {
		a1 := g.NodeByURL("https://s.example/a1")
		if len(a1.PathSegments) != 2 || a1.PathSegments[0] != "Alpha" || a1.PathSegments[1] != "Alpha One" {
			t.Errorf("a1 segments = %v", a1.PathSegments)
		}
		if len(g.Root().PathSegments) != 0 {
			t.Errorf("root segments = %v, expected empty", g.Root().PathSegments)
		}
	})
}

// TestDiscoverLevelOrder tests strict level-synchronous probing.
func TestDiscoverLevelOrder(t *testing.T) {
	t.Parallel()

	p := site()
	if _, err := New(p, nil).Discover(context.Background(), "https://s.example/", -1); err != nil {
		t.Fatalf("discover: %v", err)
	}

	depthOf := map[string]int{
		"https://s.example/":   0,
		"https://s.example/a":  1,
		"https://s.example/b":  1,
		"https://s.example/a1": 2,
	}
	last := -1
	for _, url := range p.order {
		d := depthOf[url]
		if d < last {
			t.Fatalf("probe order %v regresses in depth", p.order)
		}
		last = d
	}
}

// TestDiscoverMaxDepth tests that the frontier stays unexpanded at the limit.
func TestDiscoverMaxDepth(t *testing.T) {
	t.Parallel()

	p := site()
	g, err := New(p, nil).Discover(context.Background(), "https://s.example/", 1)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}

	if g.Len() != 3 {
		t.Errorf("expected root plus two leaves, got %d", g.Len())
	}
	if g.NodeByURL("https://s.example/a1") != nil {
		t.Error("depth-2 page must not be registered at max depth 1")
	}
	a := g.NodeByURL("https://s.example/a")
	if len(a.ChildIDs) != 0 {
		t.Error("frontier node must remain an unexpanded leaf")
	}
}

// TestDiscoverProbeFailure tests that failed probes leave childless leaves.
func TestDiscoverProbeFailure(t *testing.T) {
	t.Parallel()

	p := site()
	p.fail["https://s.example/a"] = true

	g, err := New(p, nil).Discover(context.Background(), "https://s.example/", -1)
	if err != nil {
		t.Fatalf("discover must continue past probe failures, got %v", err)
	}

	a := g.NodeByURL("https://s.example/a")
	if a == nil {
		t.Fatal("failed page must stay registered as a leaf")
	}
	if len(a.ChildIDs) != 0 {
		t.Error("failed page must have no children")
	}
	// a1 is only reachable through a, so it must not exist.
	if g.NodeByURL("https://s.example/a1") != nil {
		t.Error("children of a failed page must not be discovered")
	}
	// b is unaffected.
	if g.NodeByURL("https://s.example/b") == nil {
		t.Error("sibling branch must survive an unrelated probe failure")
	}
}

// TestDiscoverDuplicateTitles tests sibling segment disambiguation.
func TestDiscoverDuplicateTitles(t *testing.T) {
	t.Parallel()

	p := &fakeProber{
		pages: map[string]ProbeResult{
			"https://s.example/": {
				Title:         "Index",
				OutboundLinks: []string{"https://s.example/x", "https://s.example/y"},
			},
			"https://s.example/x": {Title: "Page"},
			"https://s.example/y": {Title: "Page"},
		},
		fail: map[string]bool{},
	}

	g, err := New(p, nil).Discover(context.Background(), "https://s.example/", -1)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}

	x := g.NodeByURL("https://s.example/x")
	y := g.NodeByURL("https://s.example/y")
	if x.PathSegments[0] == y.PathSegments[0] {
		t.Errorf("siblings share segment %q", x.PathSegments[0])
	}
}

// TestDiscoverIgnoresExternalHosts tests that other hosts never join the tree.
func TestDiscoverIgnoresExternalHosts(t *testing.T) {
	t.Parallel()

	p := &fakeProber{
		pages: map[string]ProbeResult{
			"https://s.example/": {
				Title:         "Index",
				OutboundLinks: []string{"https://elsewhere.example/page", "mailto:x@example.com"},
			},
		},
		fail: map[string]bool{},
	}

	g, err := New(p, nil).Discover(context.Background(), "https://s.example/", -1)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if g.Len() != 1 {
		t.Errorf("expected only the root, got %d nodes", g.Len())
	}
}

// TestDiscoverInvalidRoot tests the one fatal discovery error.
func TestDiscoverInvalidRoot(t *testing.T) {
	t.Parallel()

	if _, err := New(site(), nil).Discover(context.Background(), "not a url", -1); err == nil {
		t.Fatal("expected error for invalid root URL")
	}
}
