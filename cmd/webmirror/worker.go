package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shinych/webmirror/internal/browser"
	"github.com/shinych/webmirror/internal/config"
	"github.com/shinych/webmirror/internal/log"
	"github.com/shinych/webmirror/internal/pool"
)

// NewWorkerCmd creates the hidden worker command. The mirror command
// re-invokes this binary with "worker" for each pool process; it is never
// meant to be run by hand.
func NewWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "worker",
		Short:  "Run as a download worker process",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE:   runWorkerCmd,
	}

	cmd.Flags().Duration("page-timeout", config.DefaultPageTimeout,
		"Maximum time to render one page")

	return cmd
}

// runWorkerCmd speaks the worker protocol on stdin/stdout until the
// orchestrator shuts it down. Logs go to stderr as JSON so the parent can
// aggregate them with its own.
func runWorkerCmd(cmd *cobra.Command, _ []string) error {
	pageTimeout, err := cmd.Flags().GetDuration("page-timeout")
	if err != nil {
		return err
	}

	logger := log.NewJSONLogger(os.Stderr, getVerboseFlag(cmd))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SIGTERM is the orchestrator's graceful stop after the SHUTDOWN
	// grace period.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	session := browser.NewSession(logger, browser.WithPageTimeout(pageTimeout))
	runner := pool.NewRunner(session, os.Stdin, os.Stdout, logger)
	return runner.Run(ctx)
}
