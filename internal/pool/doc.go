// Package pool parallelizes the download phase across isolated worker
// processes.
//
// # Architecture
//
// Each worker is one operating-system process owning one browser session,
// reached over a duplex newline-delimited JSON channel (the worker's stdin
// and stdout pipes). The pool holds a proxy record per worker and drives a
// small state machine: INITIALIZING until the worker reports READY, then
// IDLE and BUSY as tasks are dispatched and answered, and CRASHED when the
// process exits or the transport fails. CRASHED is terminal for a process
// instance; the pool may respawn a replacement process under a fresh record.
//
// Design decision: workers are processes, not goroutines, on purpose. A
// browser crash takes down only its own worker process; the orchestrator and
// the other workers keep running. Collapsing workers into threads would turn
// that fault boundary into a shared fate.
//
// The scheduling loop is a single goroutine that owns every worker record.
// Reader goroutines pump incoming messages into one event channel, so no
// lock is needed around worker state. A worker crash mid-task requeues the
// task with bounded, exponentially backed-off retries; a task-level error
// reported in a RESULT leaves the worker healthy.
package pool
