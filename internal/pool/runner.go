package pool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shinych/webmirror/internal/ipc"
	"github.com/shinych/webmirror/internal/model"
)

// Renderer is the browser session a worker process drives. Implemented by
// the browser package; tests substitute fakes.
type Renderer interface {
	// Start brings up the browser session.
	Start(ctx context.Context) error

	// SetCookies installs the broadcast session cookies.
	SetCookies(ctx context.Context, cookies []model.Cookie) error

	// Render renders the task's page, writes the document and its block
	// map sidecar under the task's save path, and reports what was
	// written.
	Render(ctx context.Context, task model.DownloadTask) (ipc.ResultData, error)

	// Close tears the session down.
	Close() error
}

// PageWaitSetter is implemented by renderers whose settle delay can be
// tuned by the orchestrator's INIT message.
type PageWaitSetter interface {
	SetPageWait(d time.Duration)
}

// Runner is the worker-process side of the protocol: it reads messages from
// the orchestrator, drives the renderer, and answers with READY and RESULT.
type Runner struct {
	renderer Renderer
	decoder  *ipc.Decoder
	encoder  *ipc.Encoder
	logger   *slog.Logger

	workerID int
}

// NewRunner creates a worker runner on the given streams, normally the
// process's stdin and stdout.
func NewRunner(renderer Renderer, in io.Reader, out io.Writer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		renderer: renderer,
		decoder:  ipc.NewDecoder(in),
		encoder:  ipc.NewEncoder(out),
		logger:   logger,
	}
}

// Run processes messages until SHUTDOWN, stream close, or context
// cancellation.
//
// A render failure is reported inside a RESULT payload and the loop
// continues: a failed task never takes the worker down. Only transport
// errors and a failing INIT are fatal to the process.
func (r *Runner) Run(ctx context.Context) error {
	defer func() {
		if err := r.renderer.Close(); err != nil {
			r.logger.Warn("renderer close failed", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		env, payload, err := r.decoder.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Orchestrator went away; exit quietly.
				return nil
			}
			return fmt.Errorf("worker %d receive: %w", r.workerID, err)
		}

		switch env.Type {
		case ipc.MsgInit:
			init := payload.(ipc.InitPayload)
			r.workerID = init.WorkerID
			if s, ok := r.renderer.(PageWaitSetter); ok && init.PageWaitMillis > 0 {
				s.SetPageWait(time.Duration(init.PageWaitMillis) * time.Millisecond)
			}
			if err := r.renderer.Start(ctx); err != nil {
				return fmt.Errorf("worker %d renderer start: %w", r.workerID, err)
			}
			if err := r.encoder.Send(ipc.MsgReady, ipc.ReadyPayload{WorkerID: r.workerID}); err != nil {
				return err
			}
			r.logger.Info("worker ready", "worker", r.workerID)

		case ipc.MsgSetCookies:
			cookies := payload.(ipc.SetCookiesPayload).Cookies
			if err := r.renderer.SetCookies(ctx, cookies); err != nil {
				r.logger.Warn("cookie install failed", "worker", r.workerID, "error", err)
			}

		case ipc.MsgDownload:
			dl := payload.(ipc.DownloadPayload)
			if err := r.encoder.Encode(r.handleDownload(ctx, dl)); err != nil {
				return err
			}

		case ipc.MsgShutdown:
			r.logger.Info("worker shutting down", "worker", r.workerID)
			return nil

		default:
			return fmt.Errorf("worker %d: unexpected %s from orchestrator", r.workerID, env.Type)
		}
	}
}

// handleDownload runs one task and builds its RESULT envelope. Task errors
// travel in the payload, never as protocol failures.
func (r *Runner) handleDownload(ctx context.Context, dl ipc.DownloadPayload) ipc.Envelope {
	result := ipc.ResultPayload{
		TaskType: "download",
		TaskID:   dl.Task.TaskID,
		PageID:   dl.Task.PageID,
	}

	if len(dl.Cookies) > 0 {
		if err := r.renderer.SetCookies(ctx, dl.Cookies); err != nil {
			r.logger.Warn("cookie install failed", "worker", r.workerID, "error", err)
		}
	}

	data, err := r.renderer.Render(ctx, dl.Task)
	if err != nil {
		result.Error = err.Error()
		r.logger.Warn("render failed",
			"worker", r.workerID,
			"task", dl.Task.TaskID,
			"url", dl.Task.URL,
			"error", err,
		)
	} else {
		result.Data = &data
	}

	env, err := ipc.NewEnvelope(ipc.MsgResult, result)
	if err != nil {
		// Unreachable with well-formed result payloads.
		env, _ = ipc.NewEnvelope(ipc.MsgResult, ipc.ResultPayload{
			TaskType: "download",
			TaskID:   dl.Task.TaskID,
			Error:    err.Error(),
		})
	}
	return env
}
