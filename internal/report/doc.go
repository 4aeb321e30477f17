// Package report renders run summaries for terminal display, Markdown
// documentation, and JSON tool integration.
package report
