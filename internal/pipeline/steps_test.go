package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/shinych/webmirror/internal/database"
	"github.com/shinych/webmirror/internal/discover"
	"github.com/shinych/webmirror/internal/model"
)

// fakeProber serves a fixed two-level site.
type fakeProber struct {
	pages map[string]discover.ProbeResult
}

func (p *fakeProber) Probe(_ context.Context, url string) (discover.ProbeResult, error) {
	res, ok := p.pages[url]
	if !ok {
		return discover.ProbeResult{}, fmt.Errorf("no such page: %s", url)
	}
	return res, nil
}

func newFakeProber() *fakeProber {
	return &fakeProber{pages: map[string]discover.ProbeResult{
		"https://s.example/": {
			Title:         "Index",
			OutboundLinks: []string{"https://s.example/a", "https://s.example/b"},
		},
		"https://s.example/a": {Title: "Alpha"},
		"https://s.example/b": {Title: "Beta"},
	}}
}

// capturingProber is a fakeProber whose browser session holds cookies.
type capturingProber struct {
	*fakeProber
	cookies []model.Cookie
	err     error
}

func (p *capturingProber) CaptureCookies(_ context.Context) ([]model.Cookie, error) {
	return p.cookies, p.err
}

// TestDiscoverCapturesSessionCookies tests that cookies the site set
// during discovery are merged with the configured ones for the workers.
func TestDiscoverCapturesSessionCookies(t *testing.T) {
	t.Parallel()

	t.Run("captured cookies win, configured ones survive", func(t *testing.T) {
		t.Parallel()

		state := testState()
		state.Cookies = []model.Cookie{
			{Name: "token_v2", Value: "from-flag", Domain: "s.example", Path: "/"},
			{Name: "extra", Value: "kept", Domain: "s.example", Path: "/"},
		}
		prober := &capturingProber{
			fakeProber: newFakeProber(),
			cookies: []model.Cookie{
				{Name: "token_v2", Value: "refreshed", Domain: "s.example", Path: "/"},
				{Name: "csrf", Value: "set-by-site", Domain: "s.example", Path: "/"},
			},
		}

		if err := NewDiscoverStep(prober, nil).Do(context.Background(), state); err != nil {
			t.Fatalf("discover: %v", err)
		}

		byName := make(map[string]string)
		for _, c := range state.Cookies {
			byName[c.Name] = c.Value
		}
		if byName["token_v2"] != "refreshed" {
			t.Errorf("token_v2 = %q, expected the captured value", byName["token_v2"])
		}
		if byName["csrf"] != "set-by-site" {
			t.Error("cookie set during discovery must reach the workers")
		}
		if byName["extra"] != "kept" {
			t.Error("configured cookie absent from the session must survive")
		}
	})

	t.Run("capture failure keeps configured cookies", func(t *testing.T) {
		t.Parallel()

		state := testState()
		state.Cookies = []model.Cookie{
			{Name: "token_v2", Value: "from-flag", Domain: "s.example", Path: "/"},
		}
		prober := &capturingProber{
			fakeProber: newFakeProber(),
			err:        fmt.Errorf("browser gone"),
		}

		if err := NewDiscoverStep(prober, nil).Do(context.Background(), state); err != nil {
			t.Fatalf("discover: %v", err)
		}
		if len(state.Cookies) != 1 || state.Cookies[0].Value != "from-flag" {
			t.Errorf("cookies = %+v, expected the configured set untouched", state.Cookies)
		}
	})
}

// TestDiscoverThenPlan tests the discovery and planning steps end to end.
func TestDiscoverThenPlan(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	state := testState()
	state.Config.OutputDir = t.TempDir()

	if err := NewDiscoverStep(newFakeProber(), nil).Do(ctx, state); err != nil {
		t.Fatalf("discover: %v", err)
	}
	if state.Graph == nil || state.Graph.Len() != 3 {
		t.Fatalf("graph = %v", state.Graph)
	}

	if err := NewPlanStep(nil).Do(ctx, state); err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(state.Tasks) != 3 {
		t.Fatalf("planned %d tasks, expected 3", len(state.Tasks))
	}

	// Root first, then children ordered by ID.
	root := state.Tasks[0]
	if root.URL != "https://s.example/" {
		t.Errorf("first task = %q, expected the root", root.URL)
	}
	if !filepath.IsAbs(root.SavePath) {
		t.Errorf("save path must be absolute: %q", root.SavePath)
	}
	if filepath.Base(root.SavePath) != "index.html" {
		t.Errorf("save path = %q", root.SavePath)
	}

	seen := make(map[string]bool)
	for _, task := range state.Tasks {
		if seen[task.SavePath] {
			t.Errorf("duplicate save path %q", task.SavePath)
		}
		seen[task.SavePath] = true
		if task.Attempts != 0 {
			t.Errorf("fresh task has attempts = %d", task.Attempts)
		}
	}
}

// TestPlanPersistsGraph tests that planning saves the tree to the database.
func TestPlanPersistsGraph(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	state := testState()
	state.Config.OutputDir = t.TempDir()

	mdb, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = mdb.Close() })
	state.DB = mdb

	if err := NewDiscoverStep(newFakeProber(), nil).Do(ctx, state); err != nil {
		t.Fatal(err)
	}
	if err := NewPlanStep(nil).Do(ctx, state); err != nil {
		t.Fatal(err)
	}

	if state.RunID == 0 {
		t.Fatal("plan should begin a run")
	}
	restored, err := mdb.LoadGraph(ctx, state.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if restored == nil || restored.Len() != 3 {
		t.Errorf("persisted graph = %v", restored)
	}
}

// TestRewriteStepRequiresTree tests the gate on the rewrite pass.
func TestRewriteStepRequiresTree(t *testing.T) {
	t.Parallel()

	state := testState()
	if err := NewRewriteStep(nil).Do(context.Background(), state); !errors.Is(err, ErrNoPageTree) {
		t.Errorf("Do() = %v, expected ErrNoPageTree", err)
	}
}

// TestRewriteStepEmptyMirror tests rewriting a tree with no files on disk.
func TestRewriteStepEmptyMirror(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	state := testState()
	state.Config.OutputDir = t.TempDir()

	if err := NewDiscoverStep(newFakeProber(), nil).Do(ctx, state); err != nil {
		t.Fatal(err)
	}
	if err := NewRewriteStep(nil).Do(ctx, state); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	// Nothing was downloaded, so every page is a per-file failure, not an
	// abort.
	if state.RewriteResult == nil {
		t.Fatal("rewrite result missing")
	}
	if len(state.RewriteResult.Failures) != 3 {
		t.Errorf("failures = %d, expected 3", len(state.RewriteResult.Failures))
	}
}

// TestBuildSummaryDepthCounts tests the depth histogram assembly.
func TestBuildSummaryDepthCounts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	state := testState()
	if err := NewDiscoverStep(newFakeProber(), nil).Do(ctx, state); err != nil {
		t.Fatal(err)
	}

	summary := buildSummary(state)
	if summary.PagesTotal != 3 {
		t.Errorf("PagesTotal = %d", summary.PagesTotal)
	}
	if summary.DepthCounts[0] != 1 || summary.DepthCounts[1] != 2 {
		t.Errorf("DepthCounts = %v", summary.DepthCounts)
	}
}
