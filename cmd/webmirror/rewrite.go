package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shinych/webmirror/internal/config"
	"github.com/shinych/webmirror/internal/database"
	"github.com/shinych/webmirror/internal/log"
	"github.com/shinych/webmirror/internal/rewrite"
)

// NewRewriteCmd creates the rewrite command.
func NewRewriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewrite <root-url>",
		Short: "Re-run the link rewrite pass over an existing mirror",
		Long: `Rewrite restores the page tree of the latest recorded run for the
given root URL and rewrites the links in the saved documents again.
Useful after an aborted run, when some pages were downloaded but the
rewrite pass never reached them.

Examples:
  # Rewrite the mirror of the latest run
  webmirror rewrite https://notes.example.com/

  # Mirror tree lives in a custom directory
  webmirror rewrite -o archive https://notes.example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: runRewriteCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory the mirrored tree was written under")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory the run database is read from")

	return cmd
}

// runRewriteCmd executes the rewrite command.
func runRewriteCmd(cmd *cobra.Command, args []string) error {
	rootURL := args[0]

	outputDir, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	logger := log.NewLogger(os.Stderr, getVerboseFlag(cmd))

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no recorded runs: %w", err)
	}
	defer db.Close()

	run, err := db.LatestRun(cmd.Context(), rootURL)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("no recorded run for %s", rootURL)
	}

	g, err := db.LoadGraph(cmd.Context(), run.ID)
	if err != nil {
		return fmt.Errorf("restore page tree: %w", err)
	}
	if g == nil {
		return fmt.Errorf("run %d has no page tree snapshot", run.ID)
	}

	outputRoot, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}

	res := rewrite.New(g, outputRoot, logger).Run()

	fmt.Fprintf(cmd.OutOrStdout(), "Rewrote %d links across %d pages.\n",
		res.LinksRewritten, res.PagesRewritten)
	if len(res.Failures) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%d pages could not be rewritten.\n", len(res.Failures))
	}
	return nil
}
