package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shinych/webmirror/internal/browser"
	"github.com/shinych/webmirror/internal/config"
	"github.com/shinych/webmirror/internal/database"
	"github.com/shinych/webmirror/internal/log"
	"github.com/shinych/webmirror/internal/model"
	"github.com/shinych/webmirror/internal/pipeline"
	"github.com/shinych/webmirror/internal/pool"
	"github.com/shinych/webmirror/internal/report"
)

// NewMirrorCmd creates the mirror command.
func NewMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror <url>",
		Short: "Mirror a site into a static document tree",
		Long: `Mirror downloads the page at <url> and everything it links to on the
same host, breadth-first, into a directory tree named after page titles.
Each page becomes <path>/index.html; links between downloaded pages are
rewritten to relative paths so the mirror works offline.

Examples:
  # Mirror a public site
  webmirror mirror https://notes.example.com/

  # Mirror an authenticated site
  webmirror mirror --cookie "token_v2=..." https://notes.example.com/

  # Limit depth and write a Markdown report
  webmirror mirror -d 2 --report report.md https://notes.example.com/

Configuration file (.webmirror) example:
  sites:
    notes.example.com:
      cookie: "token_v2=abc123"
      depth: -1
      pageWaitMillis: 3000`,
		Args: cobra.ExactArgs(1),
		RunE: runMirrorCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory the mirrored tree is written under")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link depth to follow (negative means unlimited)")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent browser worker processes")
	cmd.Flags().Int("retries", config.DefaultMaxRetries,
		"Times a failed download is retried before giving up")
	cmd.Flags().Duration("page-timeout", config.DefaultPageTimeout,
		"Maximum time to render one page")
	cmd.Flags().Duration("page-wait", config.DefaultPageWait,
		"Settle delay after a page reports ready")
	cmd.Flags().String("cookie", "",
		`Session cookie header, e.g. "token_v2=abc123"`)
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webmirror in current or home directory)")
	cmd.Flags().String("report", "",
		"Write a Markdown run report to this file")
	cmd.Flags().Bool("json", false,
		"Print the run summary as JSON instead of text")
	cmd.Flags().Bool("no-db", false,
		"Do not record the run in the database")

	return cmd
}

// runMirrorCmd executes the mirror command.
func runMirrorCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	return runMirror(ctx, cfg, logger, jsonOut)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.RootURL = args[0]
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.Workers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}

	cfg.MaxRetries, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}

	cfg.PageTimeout, err = cmd.Flags().GetDuration("page-timeout")
	if err != nil {
		return nil, err
	}

	cfg.PageWait, err = cmd.Flags().GetDuration("page-wait")
	if err != nil {
		return nil, err
	}

	cfg.Cookie, err = cmd.Flags().GetString("cookie")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report")
	if err != nil {
		return nil, err
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB
	cfg.DBDir = config.XDGDataDir()

	// Load per-site overrides from the config file.
	// If the user explicitly named a config file, error when it is
	// missing; otherwise silently run without one.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.ApplySiteOverrides(cmd.Flags().Changed)

	return cfg, nil
}

// runMirror executes the full pipeline: discover, plan, execute, rewrite,
// report.
func runMirror(ctx context.Context, cfg *config.Config, logger *slog.Logger, jsonOut bool) error {
	state := &pipeline.RunState{
		Config:    cfg,
		StartedAt: time.Now(),
	}

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			logger.Warn("run history disabled", "error", err)
		} else {
			state.DB = db
			defer db.Close()
		}
	}

	rootURL, err := url.Parse(cfg.RootURL)
	if err != nil {
		return fmt.Errorf("invalid root URL: %w", err)
	}
	state.Cookies = model.ParseCookieHeader(cfg.Cookie, rootURL.Hostname())

	// One long-lived browser session drives discovery; the download phase
	// uses separate worker processes.
	session := browser.NewSession(logger,
		browser.WithPageTimeout(cfg.PageTimeout),
		browser.WithPageWait(cfg.PageWait),
	)
	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer session.Close()

	if len(state.Cookies) > 0 {
		if err := session.SetCookies(ctx, state.Cookies); err != nil {
			return fmt.Errorf("failed to install cookies: %w", err)
		}
	}

	launcher, err := workerLauncher(cfg)
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewDiscoverStep(session, logger),
		pipeline.NewPlanStep(logger),
		pipeline.NewExecuteStep(launcher, logger,
			pool.WithSize(cfg.Workers),
			pool.WithMaxRetries(cfg.MaxRetries),
			pool.WithPageWait(cfg.PageWait),
		),
		pipeline.NewRewriteStep(logger),
	)

	runErr := p.Execute(ctx, state)

	// The report runs even for failed pipelines so the user always sees
	// what happened.
	writers, cleanup, err := reportWriters(cfg, jsonOut)
	if err != nil {
		logger.Error("report writers unavailable", "error", err)
	} else {
		defer cleanup()
		if err := pipeline.NewReportStep(logger, writers...).Do(ctx, state); err != nil {
			logger.Error("report failed", "error", err)
		}
	}

	return runErr
}

// workerLauncher builds the launcher that re-invokes this binary as a
// worker process.
func workerLauncher(cfg *config.Config) (pool.Launcher, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	args := []string{"worker", "--page-timeout", cfg.PageTimeout.String()}
	if cfg.Verbose {
		args = append(args, "--verbose")
	}
	return &pool.ExecLauncher{Path: exe, Args: args}, nil
}

// reportWriters assembles the summary writers: stdout always, plus a
// Markdown file when requested. The returned cleanup closes the file.
func reportWriters(cfg *config.Config, jsonOut bool) ([]report.Writer, func(), error) {
	var writers []report.Writer
	if jsonOut {
		writers = append(writers, report.NewJSONWriter(os.Stdout, report.WithPrettyPrint()))
	} else {
		writers = append(writers, report.NewSimpleWriter(os.Stdout, report.WithVerbose(cfg.Verbose)))
	}

	cleanup := func() {}
	if cfg.ReportFile != "" {
		if dir := filepath.Dir(cfg.ReportFile); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("create report directory: %w", err)
			}
		}
		f, err := os.Create(cfg.ReportFile) //nolint:gosec // User-provided report path is intentional
		if err != nil {
			return nil, nil, fmt.Errorf("create report file: %w", err)
		}
		writers = append(writers, report.NewMarkdownWriter(f))
		cleanup = func() { _ = f.Close() }
	}

	return writers, cleanup, nil
}
