package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display at the end of a run.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because it works in all terminals and pipes cleanly to
// files or other tools.
type SimpleWriter struct {
	baseWriter

	// verbose enables per-page failure detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with per-page failure detail.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 60) + "\n")
	sb.WriteString("webmirror run summary\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&sb, "Root URL:    %s\n", summary.RootURL)
	fmt.Fprintf(&sb, "Output:      %s\n", summary.OutputDir)
	if d := summary.Duration(); d > 0 {
		fmt.Fprintf(&sb, "Duration:    %s\n", d.Round(time.Second))
	}
	sb.WriteString("\n")

	if summary.Aborted {
		fmt.Fprintf(&sb, "ABORTED: %s\n", summary.Error)
		return w.output.Write([]byte(sb.String()))
	}

	fmt.Fprintf(&sb, "Pages discovered:  %d\n", summary.PagesTotal)
	fmt.Fprintf(&sb, "Pages downloaded:  %d\n", summary.PagesDownloaded)
	fmt.Fprintf(&sb, "Pages failed:      %d\n", summary.FailedCount())
	fmt.Fprintf(&sb, "Links rewritten:   %d\n", summary.LinksRewritten)
	if summary.Requeues > 0 || summary.Crashes > 0 {
		fmt.Fprintf(&sb, "Worker retries:    %d requeues, %d crashes, %d respawns\n",
			summary.Requeues, summary.Crashes, summary.Respawns)
	}

	if w.verbose && len(summary.DepthCounts) > 0 {
		sb.WriteString("\nPages by depth:\n")
		for _, d := range summary.Depths() {
			fmt.Fprintf(&sb, "  depth %d: %d\n", d, summary.DepthCounts[d])
		}
	}

	if len(summary.DownloadFailures) > 0 {
		sb.WriteString("\nDownload failures:\n")
		for _, id := range sortedKeys(summary.DownloadFailures) {
			fmt.Fprintf(&sb, "  %s: %s\n", id, summary.DownloadFailures[id])
		}
	}

	if len(summary.RewriteFailures) > 0 {
		sb.WriteString("\nRewrite failures:\n")
		for _, id := range sortedKeys(summary.RewriteFailures) {
			fmt.Fprintf(&sb, "  %s: %s\n", id, summary.RewriteFailures[id])
		}
	}

	return w.output.Write([]byte(sb.String()))
}
