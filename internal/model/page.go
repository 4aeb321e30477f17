package model

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
)

// rawPageIDPattern matches the 32-character lowercase hex identifier that
// script-rendered document platforms embed at the end of a page URL, with or
// without UUID dashes.
var rawPageIDPattern = regexp.MustCompile(`([0-9a-fA-F]{32}|[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})$`)

// PageNode represents one discovered page in the mirror hierarchy.
//
// A node is created exactly once, when its URL is first seen during discovery,
// and its position in the tree never changes afterwards. This "first discovery
// wins" rule is what keeps navigation and breadcrumb links from re-parenting
// pages that were already placed.
//
// PathSegments is the sanitized chain of ancestor titles from the root down to
// this node. It is computed once at registration and carried through
// serialization so that code on the far side of a process boundary never needs
// to walk a parent chain that may not have been transferred.
type PageNode struct {
	// ID is a stable identifier derived from the page's canonical URL.
	ID string `json:"id"`

	// URL is the normalized URL the page was discovered under.
	URL string `json:"url"`

	// Title is the page title reported by the prober. May be annotated
	// after discovery, but the node's position never changes.
	Title string `json:"title"`

	// Depth is the BFS level the node was discovered at. Root is 0.
	Depth int `json:"depth"`

	// ParentID is the ID of the node whose FORWARD edge introduced this
	// page. Empty for the root.
	ParentID string `json:"parent_id,omitempty"`

	// ChildIDs lists this node's children in discovery order.
	ChildIDs []string `json:"child_ids,omitempty"`

	// PathSegments is the sanitized title chain from root to this node.
	// The root's segment list is empty.
	PathSegments []string `json:"path_segments"`
}

// IsRoot reports whether the node is the discovery root.
func (n *PageNode) IsRoot() bool {
	return n.ParentID == ""
}

// Valid reports whether the node carries a usable identifier.
// The External path resolver treats nodes that fail this check as
// unresolvable and passes their URLs through untouched.
func (n *PageNode) Valid() bool {
	return n != nil && n.ID != ""
}

// PageIDFromURL derives a stable page identifier from a URL.
//
// If the URL path ends in a raw 32-hex page identifier (dashed or not), that
// identifier is used directly, lowercased and with dashes stripped, because it
// is the platform's own canonical name for the page. Otherwise the identifier
// is a SHA-256 prefix of the normalized URL, which is stable across runs.
func PageIDFromURL(rawURL string) string {
	normalized := NormalizeURL(rawURL)
	if u, err := url.Parse(normalized); err == nil {
		if m := rawPageIDPattern.FindString(u.Path); m != "" {
			return strings.ToLower(strings.ReplaceAll(m, "-", ""))
		}
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:16])
}

// NormalizeURL canonicalizes a URL for registry lookups: fragments are
// dropped (they address blocks within a page, not pages), trailing slashes
// are trimmed, and the scheme and host are lowercased.
//
// Two links that normalize to the same string always refer to the same page,
// so discovery uses the normalized form as the registry key.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String()
}
