package model

import (
	"strings"
	"testing"
)

// TestPageIDFromURL tests stable page identifier derivation.
func TestPageIDFromURL(t *testing.T) {
	t.Parallel()

	t.Run("uses raw hex suffix when present", func(t *testing.T) {
		t.Parallel()

		id := PageIDFromURL("https://site.example/Page-29d979ee1aa84a6c92b7a5c0d1e2f3a4")
		if id != "29d979ee1aa84a6c92b7a5c0d1e2f3a4" {
			t.Errorf("got %q, expected raw hex suffix", id)
		}
	})

	t.Run("strips dashes from dashed suffix", func(t *testing.T) {
		t.Parallel()

		id := PageIDFromURL("https://site.example/29d979ee-1aa8-4a6c-92b7-a5c0d1e2f3a4")
		if id != "29d979ee1aa84a6c92b7a5c0d1e2f3a4" {
			t.Errorf("got %q, expected dashes stripped", id)
		}
	})

	t.Run("lowercases uppercase hex", func(t *testing.T) {
		t.Parallel()

		id := PageIDFromURL("https://site.example/Page-29D979EE1AA84A6C92B7A5C0D1E2F3A4")
		if id != "29d979ee1aa84a6c92b7a5c0d1e2f3a4" {
			t.Errorf("got %q, expected lowercase", id)
		}
	})

	t.Run("falls back to URL hash without hex suffix", func(t *testing.T) {
		t.Parallel()

		id := PageIDFromURL("https://site.example/about")
		if len(id) != 32 {
			t.Errorf("expected 32-char hash prefix, got %q", id)
		}
		if strings.ToLower(id) != id {
			t.Errorf("expected lowercase hash, got %q", id)
		}
	})

	t.Run("fragment does not change identity", func(t *testing.T) {
		t.Parallel()

		a := PageIDFromURL("https://site.example/about")
		b := PageIDFromURL("https://site.example/about#section")
		if a != b {
			t.Errorf("fragment changed page identity: %q vs %q", a, b)
		}
	})
}

// TestNormalizeURL tests URL canonicalization for registry lookups.
func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in   string
		want string
	}{
		"drops fragment":         {"https://a.example/p#frag", "https://a.example/p"},
		"trims trailing slash":   {"https://a.example/p/", "https://a.example/p"},
		"keeps bare root slash":  {"https://a.example/", "https://a.example/"},
		"lowercases scheme host": {"HTTPS://A.Example/P", "https://a.example/P"},
	}

	for name, tt := range tests {
		name, tt := name, tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := NormalizeURL(tt.in); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, expected %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestPageNodeValid tests node validity checks used by path resolution.
func TestPageNodeValid(t *testing.T) {
	t.Parallel()

	var nilNode *PageNode
	if nilNode.Valid() {
		t.Error("nil node must not be valid")
	}
	if (&PageNode{}).Valid() {
		t.Error("node without ID must not be valid")
	}
	if !(&PageNode{ID: "abc"}).Valid() {
		t.Error("node with ID must be valid")
	}
}
