package report

import (
	"sort"
	"time"
)

// Summary collects everything a finished run reports on.
type Summary struct {
	// RootURL is the page the mirror was rooted at.
	RootURL string `json:"rootUrl"`

	// OutputDir is the mirror root on disk.
	OutputDir string `json:"outputDir"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	// PagesTotal is the number of pages discovery registered.
	PagesTotal int `json:"pagesTotal"`

	// PagesDownloaded is the number of pages saved to disk.
	PagesDownloaded int `json:"pagesDownloaded"`

	// DownloadFailures maps page IDs to the error that exhausted their
	// retries.
	DownloadFailures map[string]string `json:"downloadFailures,omitempty"`

	// Requeues, Crashes and Respawns summarize worker pool churn.
	Requeues int `json:"requeues"`
	Crashes  int `json:"crashes"`
	Respawns int `json:"respawns"`

	// PagesRewritten and LinksRewritten summarize the rewrite pass.
	PagesRewritten int `json:"pagesRewritten"`
	LinksRewritten int `json:"linksRewritten"`

	// RewriteFailures maps page IDs to the error that skipped them in
	// the rewrite pass.
	RewriteFailures map[string]string `json:"rewriteFailures,omitempty"`

	// DepthCounts maps tree depth to the number of pages at that depth.
	DepthCounts map[int]int `json:"depthCounts,omitempty"`

	// Aborted is true when the run stopped before producing a mirror.
	Aborted bool `json:"aborted"`

	// Error describes why an aborted run stopped.
	Error string `json:"error,omitempty"`
}

// Duration returns the run's wall-clock duration.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() || s.StartedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// FailedCount returns the number of pages that failed permanently.
func (s *Summary) FailedCount() int {
	return len(s.DownloadFailures)
}

// Clean reports whether the run completed with no failures of any kind.
func (s *Summary) Clean() bool {
	return !s.Aborted && len(s.DownloadFailures) == 0 && len(s.RewriteFailures) == 0
}

// Depths returns the depths present in DepthCounts in ascending order.
func (s *Summary) Depths() []int {
	depths := make([]int, 0, len(s.DepthCounts))
	for d := range s.DepthCounts {
		depths = append(depths, d)
	}
	sort.Ints(depths)
	return depths
}

// sortedKeys returns a failure map's page IDs in stable order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
