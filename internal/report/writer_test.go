package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// testSummary builds a summary with one failure of each kind.
func testSummary() *Summary {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Summary{
		RootURL:         "https://notes.example.com/",
		OutputDir:       "/tmp/mirror",
		StartedAt:       started,
		FinishedAt:      started.Add(95 * time.Second),
		PagesTotal:      12,
		PagesDownloaded: 11,
		DownloadFailures: map[string]string{
			"29d979ee1aa84a6c92b7a5c0d1e2f3a4": "render timeout",
		},
		Requeues:       2,
		Crashes:        1,
		Respawns:       1,
		PagesRewritten: 11,
		LinksRewritten: 37,
		RewriteFailures: map[string]string{
			"11111111111111111111111111111111": "parse document: unexpected EOF",
		},
		DepthCounts: map[int]int{0: 1, 1: 4, 2: 7},
	}
}

// TestSummaryAccessors tests the derived summary values.
func TestSummaryAccessors(t *testing.T) {
	t.Parallel()

	s := testSummary()
	if s.Duration() != 95*time.Second {
		t.Errorf("Duration() = %v", s.Duration())
	}
	if s.FailedCount() != 1 {
		t.Errorf("FailedCount() = %d", s.FailedCount())
	}
	if s.Clean() {
		t.Error("summary with failures should not be clean")
	}

	depths := s.Depths()
	if len(depths) != 3 || depths[0] != 0 || depths[2] != 2 {
		t.Errorf("Depths() = %v", depths)
	}

	clean := &Summary{PagesTotal: 1, PagesDownloaded: 1}
	if !clean.Clean() {
		t.Error("summary without failures should be clean")
	}
}

// TestSimpleWriter tests the human-readable output.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("default output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(testSummary()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"https://notes.example.com/",
			"Pages discovered:  12",
			"Pages downloaded:  11",
			"render timeout",
			"parse document: unexpected EOF",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "depth 1:") {
			t.Error("depth histogram should only appear in verbose output")
		}
	})

	t.Run("verbose adds depth histogram", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(testSummary()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if !strings.Contains(buf.String(), "depth 1: 4") {
			t.Errorf("verbose output missing depth histogram:\n%s", buf.String())
		}
	})

	t.Run("aborted run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		s := &Summary{RootURL: "https://x.example/", Aborted: true, Error: "no confirmed page tree"}
		if _, err := NewSimpleWriter(&buf).Write(s); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if !strings.Contains(buf.String(), "ABORTED: no confirmed page tree") {
			t.Errorf("aborted output:\n%s", buf.String())
		}
	})
}

// TestMarkdownWriter tests the Markdown output structure.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewMarkdownWriter(&buf).Write(testSummary())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n == 0 {
		t.Error("Write() reported zero bytes")
	}

	out := buf.String()
	for _, want := range []string{
		"# webmirror Report",
		"## Run Summary",
		"## Pages by Depth",
		"## Download Failures",
		"## Rewrite Failures",
		"`29d979ee1aa84a6c92b7a5c0d1e2f3a4`",
		"mermaid",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

// TestJSONWriter tests that JSON output round-trips.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(testSummary()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var decoded Summary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.PagesTotal != 12 || decoded.LinksRewritten != 37 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.DownloadFailures["29d979ee1aa84a6c92b7a5c0d1e2f3a4"] != "render timeout" {
		t.Error("failures did not round-trip")
	}
}

// TestMultiWriter tests fan-out to multiple writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))
	if _, err := mw.Write(testSummary()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if a.Len() == 0 || b.Len() == 0 {
		t.Error("both writers should receive output")
	}
}
