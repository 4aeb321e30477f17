package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/shinych/webmirror/internal/config"
	"github.com/shinych/webmirror/internal/database"
	"github.com/shinych/webmirror/internal/graph"
	"github.com/shinych/webmirror/internal/model"
	"github.com/shinych/webmirror/internal/pool"
	"github.com/shinych/webmirror/internal/report"
	"github.com/shinych/webmirror/internal/rewrite"
)

// RunState carries everything the steps accumulate over one mirror run.
type RunState struct {
	// Config is the validated run configuration.
	Config *config.Config

	// Graph is the discovered page tree, set by the discovery step.
	Graph *graph.PageGraph

	// Tasks is the download plan, set by the planning step.
	Tasks []model.DownloadTask

	// Cookies are broadcast to every worker before downloads begin.
	Cookies []model.Cookie

	// DB is the run database, nil when persistence is disabled.
	DB *database.MirrorDB

	// RunID identifies this run in the database.
	RunID int64

	// PoolResult is the download outcome, set by the execution step.
	PoolResult *pool.RunResult

	// RewriteResult is the link-rewrite outcome.
	RewriteResult *rewrite.Result

	// Summary is assembled by the report step.
	Summary *report.Summary

	// StartedAt is when the run began.
	StartedAt time.Time

	// Err records the failure that stopped the run, nil on success.
	Err error
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the accumulated state.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state
// 2. It provides a Name() method for logging and debugging
// 3. It's more extensible for future features
type Step interface {
	// Do executes the pipeline step.
	// Returns an error if the step fails critically; non-critical
	// failures should be recorded in the state and return nil.
	Do(ctx context.Context, state *RunState) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution even
// when a step fails.
//
// Design decision: The default is to stop on error because a failed step
// usually starves the next one of its input (no tree means nothing to
// download, nothing downloaded means nothing to rewrite). The report step
// is appended by the caller even on failure so the user always sees a
// summary.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
// It respects context cancellation and logs each step's execution.
//
// Design decision: We check context.Done() before each step rather than
// during, because steps handle their own timeouts. This allows graceful
// cleanup between steps while still respecting cancellation.
//
// Returns the first error encountered if continueOnError is false,
// or nil if all steps complete (errors are recorded in the state).
func (p *Pipeline) Execute(ctx context.Context, state *RunState) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			state.Err = ctx.Err()
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step", "step", step.Name())

		if err := step.Do(ctx, state); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"error", err,
			)
			state.Err = err

			if !p.continueOnError {
				return err
			}
		} else {
			p.logger.Debug("step completed", "step", step.Name())
		}
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
