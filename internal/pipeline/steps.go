package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/shinych/webmirror/internal/database"
	"github.com/shinych/webmirror/internal/discover"
	"github.com/shinych/webmirror/internal/model"
	"github.com/shinych/webmirror/internal/pool"
	"github.com/shinych/webmirror/internal/report"
	"github.com/shinych/webmirror/internal/resolver"
	"github.com/shinych/webmirror/internal/rewrite"
)

// ErrNoPageTree is returned by the execution step when discovery produced
// no confirmed page tree. Downloading without a tree would write files to
// unplanned paths, so this is the one condition that hard-stops a run.
var ErrNoPageTree = errors.New("no confirmed page tree: refusing to download")

// CookieCapturer reads the cookies a browser session holds. Probers that
// implement it have their session cookies captured once after discovery
// and broadcast to the download workers, so cookies the site set while
// rendering reach the workers too.
type CookieCapturer interface {
	CaptureCookies(ctx context.Context) ([]model.Cookie, error)
}

// DiscoverStep walks the site breadth-first and builds the page tree.
type DiscoverStep struct {
	// prober renders pages and extracts their outbound links.
	prober discover.Prober

	// logger for structured logging.
	logger *slog.Logger
}

// NewDiscoverStep creates a discovery step driven by the given prober.
func NewDiscoverStep(prober discover.Prober, logger *slog.Logger) *DiscoverStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscoverStep{prober: prober, logger: logger}
}

// Name returns the step name.
func (s *DiscoverStep) Name() string {
	return "discover"
}

// Do executes discovery and stores the tree in the state.
func (s *DiscoverStep) Do(ctx context.Context, state *RunState) error {
	orchestrator := discover.New(s.prober, s.logger)
	g, err := orchestrator.Discover(ctx, state.Config.RootURL, state.Config.MaxDepth)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	state.Graph = g
	s.logger.Info("discovery complete", "pages", g.Len())

	if capturer, ok := s.prober.(CookieCapturer); ok {
		captured, err := capturer.CaptureCookies(ctx)
		if err != nil {
			s.logger.Warn("session cookies not captured", "error", err)
		} else {
			state.Cookies = model.MergeCookies(captured, state.Cookies)
		}
	}
	return nil
}

// PlanStep fixes every page's output path, builds the download task list,
// and persists the tree to the run database.
//
// Paths are fixed here, before any worker starts, so no two workers can
// ever target the same file and the rewrite pass computes relative links
// against the same layout the downloads used.
type PlanStep struct {
	logger *slog.Logger
}

// NewPlanStep creates a planning step.
func NewPlanStep(logger *slog.Logger) *PlanStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanStep{logger: logger}
}

// Name returns the step name.
func (s *PlanStep) Name() string {
	return "plan"
}

// Do executes the planning step.
func (s *PlanStep) Do(ctx context.Context, state *RunState) error {
	if state.Graph == nil {
		return ErrNoPageTree
	}

	outputRoot, err := filepath.Abs(state.Config.OutputDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}
	fs := &resolver.Filesystem{OutputRoot: outputRoot}

	nodes := state.Graph.Nodes()
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Depth != nodes[j].Depth {
			return nodes[i].Depth < nodes[j].Depth
		}
		return nodes[i].ID < nodes[j].ID
	})

	tasks := make([]model.DownloadTask, 0, len(nodes))
	for _, node := range nodes {
		tasks = append(tasks, model.DownloadTask{
			PageID:   node.ID,
			URL:      node.URL,
			SavePath: fs.OutputPath(node),
		})
	}
	state.Tasks = tasks

	if state.DB != nil {
		runID, err := state.DB.BeginRun(ctx, state.Config.RootURL)
		if err != nil {
			s.logger.Warn("run not persisted", "error", err)
			state.DB = nil
			return nil
		}
		state.RunID = runID
		if err := state.DB.SaveGraph(ctx, runID, state.Graph); err != nil {
			s.logger.Warn("graph not persisted", "error", err)
		}
	}

	s.logger.Info("plan ready", "tasks", len(tasks), "output", outputRoot)
	return nil
}

// ExecuteStep downloads every planned page through the worker pool.
type ExecuteStep struct {
	// launcher spawns worker processes.
	launcher pool.Launcher

	// poolOpts configure the pool (size, retries, backoff).
	poolOpts []pool.Option

	logger *slog.Logger
}

// NewExecuteStep creates an execution step.
func NewExecuteStep(launcher pool.Launcher, logger *slog.Logger, poolOpts ...pool.Option) *ExecuteStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecuteStep{launcher: launcher, poolOpts: poolOpts, logger: logger}
}

// Name returns the step name.
func (s *ExecuteStep) Name() string {
	return "execute"
}

// Do executes the download phase. It refuses to run without a confirmed
// page tree and a plan.
func (s *ExecuteStep) Do(ctx context.Context, state *RunState) error {
	if state.Graph == nil || state.Graph.Len() == 0 || len(state.Tasks) == 0 {
		return ErrNoPageTree
	}

	p := pool.New(s.launcher, s.logger, s.poolOpts...)
	result, err := p.Run(ctx, state.Tasks, state.Cookies)
	if result != nil {
		state.PoolResult = result
		s.recordOutcomes(ctx, state, result)
	}
	if err != nil {
		return fmt.Errorf("download phase failed: %w", err)
	}

	s.logger.Info("downloads complete",
		"succeeded", result.Stats.Succeeded,
		"failed", result.Stats.Failed,
		"requeues", result.Stats.Requeues,
	)
	return nil
}

// recordOutcomes writes per-page download results to the run database.
func (s *ExecuteStep) recordOutcomes(ctx context.Context, state *RunState, result *pool.RunResult) {
	if state.DB == nil {
		return
	}
	for _, page := range result.Pages {
		status := database.PageStatusDownloaded
		if page.Err != "" {
			status = database.PageStatusFailed
		}
		if err := state.DB.MarkPageResult(ctx, state.RunID, page.PageID, status, page.Attempts, page.SavePath, page.Err); err != nil {
			s.logger.Warn("page outcome not persisted", "page", page.PageID, "error", err)
		}
	}
}

// RewriteStep converts absolute links in the saved documents to relative
// mirror-internal paths.
type RewriteStep struct {
	logger *slog.Logger
}

// NewRewriteStep creates a rewrite step.
func NewRewriteStep(logger *slog.Logger) *RewriteStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &RewriteStep{logger: logger}
}

// Name returns the step name.
func (s *RewriteStep) Name() string {
	return "rewrite"
}

// Do executes the rewrite pass over every saved document.
func (s *RewriteStep) Do(ctx context.Context, state *RunState) error {
	if state.Graph == nil {
		return ErrNoPageTree
	}

	outputRoot, err := filepath.Abs(state.Config.OutputDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}

	state.RewriteResult = rewrite.New(state.Graph, outputRoot, s.logger).Run()
	s.logger.Info("rewrite complete",
		"pages", state.RewriteResult.PagesRewritten,
		"links", state.RewriteResult.LinksRewritten,
		"failures", len(state.RewriteResult.Failures),
	)
	return nil
}

// ReportStep assembles the run summary, writes it to the configured
// writers, and closes out the run in the database. It is appended even for
// runs that failed earlier so the user always sees what happened.
type ReportStep struct {
	// writers receive the summary. Typically a SimpleWriter on stdout,
	// optionally joined by a MarkdownWriter on a file.
	writers []report.Writer

	logger *slog.Logger
}

// NewReportStep creates a report step writing to the given writers.
func NewReportStep(logger *slog.Logger, writers ...report.Writer) *ReportStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportStep{writers: writers, logger: logger}
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Do assembles and writes the summary.
func (s *ReportStep) Do(ctx context.Context, state *RunState) error {
	summary := buildSummary(state)
	state.Summary = summary

	if state.DB != nil {
		status := database.RunStatusComplete
		if summary.Aborted {
			status = database.RunStatusAborted
		}
		if err := state.DB.FinishRun(ctx, state.RunID, status,
			summary.PagesTotal, summary.FailedCount(), summary.LinksRewritten); err != nil {
			s.logger.Warn("run outcome not persisted", "error", err)
		}
	}

	for _, w := range s.writers {
		if _, err := w.Write(summary); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

// buildSummary folds the accumulated state into one report.Summary.
func buildSummary(state *RunState) *report.Summary {
	summary := &report.Summary{
		RootURL:    state.Config.RootURL,
		OutputDir:  state.Config.OutputDir,
		StartedAt:  state.StartedAt,
		FinishedAt: time.Now(),
	}

	if state.Err != nil {
		summary.Aborted = true
		summary.Error = state.Err.Error()
	}

	if state.Graph != nil {
		summary.PagesTotal = state.Graph.Len()
		summary.DepthCounts = make(map[int]int)
		for _, node := range state.Graph.Nodes() {
			summary.DepthCounts[node.Depth]++
		}
	}

	if state.PoolResult != nil {
		summary.PagesDownloaded = state.PoolResult.Stats.Succeeded
		summary.Requeues = state.PoolResult.Stats.Requeues
		summary.Crashes = state.PoolResult.Stats.Crashes
		summary.Respawns = state.PoolResult.Stats.Respawns
		for _, page := range state.PoolResult.Pages {
			if page.Err != "" {
				if summary.DownloadFailures == nil {
					summary.DownloadFailures = make(map[string]string)
				}
				summary.DownloadFailures[page.PageID] = page.Err
			}
		}
	}

	if state.RewriteResult != nil {
		summary.PagesRewritten = state.RewriteResult.PagesRewritten
		summary.LinksRewritten = state.RewriteResult.LinksRewritten
		if len(state.RewriteResult.Failures) > 0 {
			summary.RewriteFailures = state.RewriteResult.Failures
		}
	}

	return summary
}
