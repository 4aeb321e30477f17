package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shinych/webmirror/internal/ipc"
	"github.com/shinych/webmirror/internal/model"
)

// Defaults for pool behavior.
const (
	// DefaultSize is the default number of worker processes.
	DefaultSize = 4

	// DefaultMaxRetries bounds how often one task is requeued after a
	// failure before it becomes a permanent per-page failure.
	DefaultMaxRetries = 2

	// DefaultBackoffBase is the first retry delay; each further retry
	// doubles it.
	DefaultBackoffBase = 2 * time.Second
)

// ErrAllWorkersLost is returned when every worker has crashed, the respawn
// budget is exhausted, and tasks remain.
var ErrAllWorkersLost = errors.New("all workers lost with tasks remaining")

// Pool dispatches download tasks across isolated worker processes.
type Pool struct {
	launcher Launcher
	logger   *slog.Logger

	size           int
	maxRetries     int
	backoffBase    time.Duration
	respawn        bool
	respawnBudget  int
	shutdownGrace  time.Duration
	pageWaitMillis int
}

// Option configures a Pool.
type Option func(*Pool)

// WithSize sets the number of worker processes.
func WithSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.size = n
		}
	}
}

// WithMaxRetries sets how many times a failed task is requeued before it is
// recorded as a permanent per-page failure.
func WithMaxRetries(n int) Option {
	return func(p *Pool) {
		if n >= 0 {
			p.maxRetries = n
		}
	}
}

// WithBackoffBase sets the initial retry delay. Each retry doubles it.
func WithBackoffBase(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.backoffBase = d
		}
	}
}

// WithRespawn controls whether a crashed worker's process is replaced by a
// fresh one. The replacement budget equals the pool size.
func WithRespawn(enabled bool) Option {
	return func(p *Pool) {
		p.respawn = enabled
	}
}

// WithPageWait sets the settle delay broadcast to workers in the INIT
// message, in case the renderer's default does not fit the site.
func WithPageWait(d time.Duration) Option {
	return func(p *Pool) {
		if d >= 0 {
			p.pageWaitMillis = int(d / time.Millisecond)
		}
	}
}

// WithShutdownGrace sets the delay between the advisory SHUTDOWN message and
// the forced terminate of workers that have not exited.
func WithShutdownGrace(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.shutdownGrace = d
		}
	}
}

// New creates a Pool. The launcher spawns worker processes; tests substitute
// in-memory launchers. A nil logger falls back to slog.Default.
func New(launcher Launcher, logger *slog.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		launcher:      launcher,
		logger:        logger,
		size:          DefaultSize,
		maxRetries:    DefaultMaxRetries,
		backoffBase:   DefaultBackoffBase,
		respawn:       true,
		shutdownGrace: DefaultShutdownGrace,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.respawnBudget = p.size
	return p
}

// PageResult is the final outcome for one page's download.
type PageResult struct {
	PageID   string
	URL      string
	SavePath string
	Bytes    int64
	Title    string
	Attempts int

	// Err is the permanent failure message, empty on success.
	Err string
}

// Stats aggregates pool-level counters for the run report.
type Stats struct {
	Dispatched int
	Succeeded  int
	Failed     int
	Requeues   int
	Crashes    int
	Respawns   int
}

// RunResult is everything the execution phase produced.
type RunResult struct {
	Pages []PageResult
	Stats Stats
}

// worker is the pool's record for one process. Owned exclusively by the
// scheduling loop; reader goroutines only ever touch their own transport.
type worker struct {
	id        int
	transport Transport
	state     WorkerState
	current   *model.DownloadTask
}

// event is one message, or transport failure, from a worker's reader
// goroutine.
type event struct {
	worker  *worker
	env     ipc.Envelope
	payload any
	err     error
}

// run carries the mutable state of one Run invocation.
type run struct {
	pool    *Pool
	cookies []model.Cookie

	workers        map[int]*worker
	nextID         int
	initialWorkers int

	pending  []model.DownloadTask
	inflight int
	delayed  int

	events  chan event
	requeue chan model.DownloadTask

	results map[string]*PageResult
	stats   Stats
}

// Run downloads every task and blocks until the queue is drained, the
// context is cancelled, or all workers are lost. Every page ends in exactly
// one result: success or a permanent failure after bounded retries.
//
// The cookies are broadcast read-only to every worker and accompany each
// DOWNLOAD dispatch.
func (p *Pool) Run(ctx context.Context, tasks []model.DownloadTask, cookies []model.Cookie) (*RunResult, error) {
	if len(tasks) == 0 {
		return &RunResult{}, nil
	}

	r := &run{
		pool:    p,
		cookies: cookies,
		workers: make(map[int]*worker),
		pending: append([]model.DownloadTask(nil), tasks...),
		events:  make(chan event, p.size*4),
		requeue: make(chan model.DownloadTask, len(tasks)),
		results: make(map[string]*PageResult, len(tasks)),
	}

	workerCount := p.size
	if workerCount > len(tasks) {
		workerCount = len(tasks)
	}
	r.initialWorkers = workerCount
	for i := 0; i < workerCount; i++ {
		if err := r.spawn(ctx); err != nil {
			r.shutdown()
			return nil, err
		}
	}

	if err := r.loop(ctx); err != nil {
		r.shutdown()
		return nil, err
	}
	r.shutdown()

	return r.collect(tasks), nil
}

// loop is the scheduling loop. It owns all worker records.
func (r *run) loop(ctx context.Context) error {
	for {
		r.dispatchAll(ctx)

		if len(r.pending) == 0 && r.inflight == 0 && r.delayed == 0 {
			return nil
		}
		if len(r.workers) == 0 {
			if !r.canRespawn() {
				return fmt.Errorf("%w: %d pending", ErrAllWorkersLost, len(r.pending)+r.inflight+r.delayed)
			}
			if err := r.spawn(ctx); err != nil {
				return fmt.Errorf("%w: respawn failed: %v", ErrAllWorkersLost, err)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-r.requeue:
			r.delayed--
			r.pending = append(r.pending, task)
		case ev := <-r.events:
			r.handleEvent(ctx, ev)
		}
	}
}

// dispatchAll assigns queued tasks to idle workers until one side runs out.
func (r *run) dispatchAll(ctx context.Context) {
	for len(r.pending) > 0 {
		w := r.idleWorker()
		if w == nil {
			return
		}
		task := r.pending[0]
		r.pending = r.pending[1:]
		r.dispatch(ctx, w, task)
	}
}

func (r *run) idleWorker() *worker {
	for _, w := range r.workers {
		if w.state == StateIdle {
			return w
		}
	}
	return nil
}

// dispatch sends one task to an idle worker and marks it BUSY immediately.
func (r *run) dispatch(ctx context.Context, w *worker, task model.DownloadTask) {
	task.Attempts++
	task.StampTaskID(w.id, time.Now())

	env, err := ipc.NewEnvelope(ipc.MsgDownload, ipc.DownloadPayload{
		Task:    task,
		Cookies: r.cookies,
	})
	if err != nil {
		// Marshalling our own task never fails in practice; treat it as
		// a permanent task failure rather than a worker fault.
		r.completeFailure(task, fmt.Sprintf("encode task: %v", err))
		return
	}

	w.state = StateBusy
	w.current = &task
	r.inflight++
	r.stats.Dispatched++

	r.pool.logger.Debug("task dispatched",
		"worker", w.id,
		"task", task.TaskID,
		"page", task.PageID,
		"attempt", task.Attempts,
	)

	if err := w.transport.Send(env); err != nil {
		r.crashWorker(ctx, w, fmt.Errorf("send failed: %w", err))
	}
}

// handleEvent advances the state machine for one worker message.
func (r *run) handleEvent(ctx context.Context, ev event) {
	w := ev.worker
	if _, alive := r.workers[w.id]; !alive {
		return
	}
	if ev.err != nil {
		r.crashWorker(ctx, w, ev.err)
		return
	}

	switch ev.env.Type {
	case ipc.MsgReady:
		if w.state != StateInitializing {
			r.pool.logger.Warn("unexpected READY", "worker", w.id, "state", w.state)
			return
		}
		w.state = StateIdle
		r.pool.logger.Debug("worker ready", "worker", w.id)

	case ipc.MsgResult:
		res, ok := ev.payload.(ipc.ResultPayload)
		if !ok || w.state != StateBusy || w.current == nil {
			r.crashWorker(ctx, w, fmt.Errorf("protocol violation: RESULT in state %s", w.state))
			return
		}
		task := *w.current
		w.current = nil
		w.state = StateIdle
		r.inflight--

		if res.Error != "" {
			r.retryOrFail(task, res.Error)
			return
		}
		r.completeSuccess(task, res)

	default:
		r.crashWorker(ctx, w, fmt.Errorf("protocol violation: unexpected %s from worker", ev.env.Type))
	}
}

// crashWorker handles process exit or transport failure: the in-flight task
// (if any) is requeued exactly once, the record becomes CRASHED and is
// evicted, and a replacement may be spawned.
func (r *run) crashWorker(ctx context.Context, w *worker, cause error) {
	r.pool.logger.Error("worker crashed",
		"worker", w.id,
		"state", w.state,
		"error", cause,
	)
	r.stats.Crashes++

	if w.state == StateBusy && w.current != nil {
		task := *w.current
		w.current = nil
		r.inflight--
		r.retryOrFail(task, fmt.Sprintf("worker crashed: %v", cause))
	}

	w.state = StateCrashed
	delete(r.workers, w.id)
	go func() {
		_ = w.transport.Wait()
	}()

	if r.canRespawn() && len(r.pending)+r.inflight+r.delayed > 0 {
		if err := r.spawn(ctx); err != nil {
			r.pool.logger.Error("respawn failed", "error", err)
		}
	}
}

func (r *run) canRespawn() bool {
	return r.pool.respawn && r.stats.Respawns < r.pool.respawnBudget
}

// spawn launches one worker process, sends INIT and the cookie broadcast,
// and starts its reader goroutine.
func (r *run) spawn(ctx context.Context) error {
	id := r.nextID
	r.nextID++
	if id >= r.initialWorkers {
		r.stats.Respawns++
	}

	transport, err := r.pool.launcher.Launch(ctx, id)
	if err != nil {
		return fmt.Errorf("launch worker %d: %w", id, err)
	}
	w := &worker{id: id, transport: transport, state: StateInitializing}
	r.workers[id] = w

	if err := r.send(w, ipc.MsgInit, ipc.InitPayload{WorkerID: id, PageWaitMillis: r.pool.pageWaitMillis}); err != nil {
		return err
	}
	if err := r.send(w, ipc.MsgSetCookies, ipc.SetCookiesPayload{Cookies: r.cookies}); err != nil {
		return err
	}

	go r.read(w)
	r.pool.logger.Info("worker spawned", "worker", id)
	return nil
}

func (r *run) send(w *worker, t ipc.MessageType, payload any) error {
	env, err := ipc.NewEnvelope(t, payload)
	if err != nil {
		return err
	}
	if err := w.transport.Send(env); err != nil {
		return fmt.Errorf("send %s to worker %d: %w", t, w.id, err)
	}
	return nil
}

// read pumps one worker's messages into the event channel until the
// transport fails or closes.
func (r *run) read(w *worker) {
	for {
		env, err := w.transport.Receive()
		if err != nil {
			r.events <- event{worker: w, err: err}
			return
		}
		payload, err := env.DecodePayload()
		if err != nil {
			r.events <- event{worker: w, err: err}
			return
		}
		r.events <- event{worker: w, env: env, payload: payload}
	}
}

// retryOrFail requeues a failed task with exponential backoff, or records a
// permanent failure once the retry budget is spent.
func (r *run) retryOrFail(task model.DownloadTask, cause string) {
	if task.Attempts > r.pool.maxRetries {
		r.completeFailure(task, cause)
		return
	}

	backoff := r.pool.backoffBase << (task.Attempts - 1)
	r.delayed++
	r.stats.Requeues++
	r.pool.logger.Warn("task requeued",
		"page", task.PageID,
		"attempt", task.Attempts,
		"backoff", backoff,
		"error", cause,
	)

	requeued := task
	time.AfterFunc(backoff, func() {
		r.requeue <- requeued
	})
}

func (r *run) completeSuccess(task model.DownloadTask, res ipc.ResultPayload) {
	r.stats.Succeeded++
	pr := &PageResult{
		PageID:   task.PageID,
		URL:      task.URL,
		SavePath: task.SavePath,
		Attempts: task.Attempts,
	}
	if res.Data != nil {
		pr.SavePath = res.Data.SavePath
		pr.Bytes = res.Data.Bytes
		pr.Title = res.Data.Title
	}
	r.results[task.PageID] = pr
}

func (r *run) completeFailure(task model.DownloadTask, cause string) {
	r.stats.Failed++
	r.pool.logger.Error("page failed permanently",
		"page", task.PageID,
		"url", task.URL,
		"attempts", task.Attempts,
		"error", cause,
	)
	r.results[task.PageID] = &PageResult{
		PageID:   task.PageID,
		URL:      task.URL,
		SavePath: task.SavePath,
		Attempts: task.Attempts,
		Err:      cause,
	}
}

// collect orders results by the original task order.
func (r *run) collect(tasks []model.DownloadTask) *RunResult {
	out := &RunResult{Stats: r.stats, Pages: make([]PageResult, 0, len(tasks))}
	for _, task := range tasks {
		if pr, ok := r.results[task.PageID]; ok {
			out.Pages = append(out.Pages, *pr)
		}
	}
	return out
}

// shutdown tells every live worker to exit, waits out the grace period, and
// force-terminates stragglers.
func (r *run) shutdown() {
	if len(r.workers) == 0 {
		return
	}
	for _, w := range r.workers {
		if err := r.send(w, ipc.MsgShutdown, nil); err != nil {
			r.pool.logger.Debug("shutdown send failed", "worker", w.id, "error", err)
		}
	}

	deadline := time.NewTimer(r.pool.shutdownGrace)
	defer deadline.Stop()

	for len(r.workers) > 0 {
		select {
		case ev := <-r.events:
			if ev.err != nil {
				// Reader finished: the worker exited.
				delete(r.workers, ev.worker.id)
				go func(w *worker) {
					_ = w.transport.Wait()
				}(ev.worker)
			}
		case <-deadline.C:
			for id, w := range r.workers {
				r.pool.logger.Warn("force terminating worker", "worker", id)
				_ = w.transport.Signal(true)
				delete(r.workers, id)
				go func(w *worker) {
					_ = w.transport.Wait()
				}(w)
			}
		}
	}
}
