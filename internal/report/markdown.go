package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	if summary.Aborted {
		md.Cautionf("Run aborted: %s", summary.Error)
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	w.writeCounts(md, summary)
	w.writeDepths(md, summary)
	w.writeFailures(md, summary)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *Summary) {
	md.H1("webmirror Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Root URL", "`" + summary.RootURL + "`"},
			{"Output", "`" + summary.OutputDir + "`"},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration().String()},
			{"Status", w.statusText(summary)},
		},
	})
	md.PlainText("")
}

// statusText returns the status text based on the summary state.
func (w *MarkdownWriter) statusText(summary *Summary) string {
	if summary.Aborted {
		return "❌ Aborted - " + summary.Error
	}
	if !summary.Clean() {
		return "⚠️ Complete (with failures)"
	}
	return "✅ Complete"
}

// writeCounts writes the download and rewrite counters.
func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, summary *Summary) {
	md.H2("Run Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Pages discovered", strconv.Itoa(summary.PagesTotal)},
			{"Pages downloaded", strconv.Itoa(summary.PagesDownloaded)},
			{"Pages failed", strconv.Itoa(summary.FailedCount())},
			{"Pages rewritten", strconv.Itoa(summary.PagesRewritten)},
			{"Links rewritten", strconv.Itoa(summary.LinksRewritten)},
			{"Task requeues", strconv.Itoa(summary.Requeues)},
			{"Worker crashes", strconv.Itoa(summary.Crashes)},
			{"Worker respawns", strconv.Itoa(summary.Respawns)},
		},
	})
	md.PlainText("")

	if summary.PagesDownloaded > 0 || summary.FailedCount() > 0 {
		w.writePieChart(md, summary)
	}
	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart of download outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Download Outcomes"),
		piechart.WithShowData(true),
	)

	if summary.PagesDownloaded > 0 {
		chart.LabelAndIntValue("Downloaded", uint64(summary.PagesDownloaded))
	}
	if n := summary.FailedCount(); n > 0 {
		chart.LabelAndIntValue("Failed", uint64(n))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *Summary) {
	switch {
	case summary.FailedCount() > 0:
		md.Warningf(
			"%d page(s) failed to download after retries. Their links are left pointing at the live site.",
			summary.FailedCount(),
		)
	case len(summary.RewriteFailures) > 0:
		md.Importantf(
			"%d page(s) were downloaded but could not be rewritten. Their links still point at the live site.",
			len(summary.RewriteFailures),
		)
	default:
		md.Tip("Mirror is complete and self-contained.")
	}
	md.PlainText("")
}

// writeDepths writes the pages-by-depth table.
func (w *MarkdownWriter) writeDepths(md *markdown.Markdown, summary *Summary) {
	if len(summary.DepthCounts) == 0 {
		return
	}

	md.H2("Pages by Depth")
	md.PlainText("")

	rows := make([][]string, 0, len(summary.DepthCounts))
	for _, d := range summary.Depths() {
		rows = append(rows, []string{strconv.Itoa(d), strconv.Itoa(summary.DepthCounts[d])})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Depth", "Pages"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes the per-page failure tables.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, summary *Summary) {
	writeTable := func(title string, failures map[string]string) {
		if len(failures) == 0 {
			return
		}
		md.H2(title)
		md.PlainText("")

		rows := make([][]string, 0, len(failures))
		for _, id := range sortedKeys(failures) {
			rows = append(rows, []string{"`" + id + "`", failures[id]})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Page", "Error"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	writeTable("Download Failures", summary.DownloadFailures)
	writeTable("Rewrite Failures", summary.RewriteFailures)
}
