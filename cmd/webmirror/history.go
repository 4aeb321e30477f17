package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shinych/webmirror/internal/config"
	"github.com/shinych/webmirror/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [root-url]",
		Short: "List recorded mirror runs",
		Long: `History lists the runs recorded in the database, most recent first.
With a root URL argument, only runs for that site are shown; --failed
additionally lists the pages whose download failed in the latest run.

Examples:
  # All recorded runs
  webmirror history

  # Runs for one site
  webmirror history https://notes.example.com/

  # Pages that failed in the latest run for a site
  webmirror history --failed https://notes.example.com/`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory the run database is read from")
	cmd.Flags().Bool("failed", false,
		"List the failed pages of the latest run (requires a root URL)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	showFailed, err := cmd.Flags().GetBool("failed")
	if err != nil {
		return err
	}

	var rootURL string
	if len(args) == 1 {
		rootURL = args[0]
	}
	if showFailed && rootURL == "" {
		return fmt.Errorf("--failed requires a root URL argument")
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no run history: %w", err)
	}
	defer db.Close()

	if showFailed {
		return printFailedPages(cmd, db, rootURL)
	}
	return printRuns(cmd, db, rootURL)
}

// printRuns writes the run table for a site, or all sites when rootURL
// is empty.
func printRuns(cmd *cobra.Command, db *database.MirrorDB, rootURL string) error {
	runs, err := db.RunHistory(cmd.Context(), rootURL)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tPAGES\tFAILED\tLINKS\tROOT")
	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
			run.ID,
			run.StartedAt.Format("2006-01-02 15:04"),
			run.Status,
			run.PagesTotal,
			run.PagesFailed,
			run.LinksRewritten,
			run.RootURL,
		)
	}
	return w.Flush()
}

// printFailedPages writes the failed-page table for the latest run of a
// site.
func printFailedPages(cmd *cobra.Command, db *database.MirrorDB, rootURL string) error {
	run, err := db.LatestRun(cmd.Context(), rootURL)
	if err != nil {
		return err
	}
	if run == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	pages, err := db.FailedPages(cmd.Context(), run.ID)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Run %d: no failed pages.\n", run.ID)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "DEPTH\tATTEMPTS\tURL\tERROR")
	for _, page := range pages {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n",
			page.Depth,
			page.Attempts,
			page.URL,
			page.Error,
		)
	}
	return w.Flush()
}
