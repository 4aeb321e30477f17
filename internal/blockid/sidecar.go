package blockid

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// SidecarName is the block map file written next to each saved document.
const SidecarName = ".blockmap.json"

// SidecarPath returns the sidecar location for a saved document path.
func SidecarPath(documentPath string) string {
	return filepath.Join(filepath.Dir(documentPath), SidecarName)
}

// SaveSidecar persists a page's block map next to its saved document.
// An empty map writes no file so that pages without anchors stay clean.
func SaveSidecar(documentPath string, m Map) error {
	if len(m) == 0 {
		return nil
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(SidecarPath(documentPath), data, 0600)
}

// LoadSidecar restores a page's block map from its sidecar.
//
// A missing or corrupt sidecar returns an empty map and no error: anchor
// resolution falls back to the structural reformat, and correctness of
// anchors is never load-bearing for whether a page is reachable.
func LoadSidecar(documentPath string) Map {
	data, err := os.ReadFile(SidecarPath(documentPath))
	if err != nil {
		return Map{}
	}
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return Map{}
	}
	return m
}
