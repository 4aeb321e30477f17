package pool

// WorkerState is the lifecycle state of one worker process.
type WorkerState string

// Worker lifecycle states.
const (
	// StateInitializing covers spawn until the worker reports READY.
	StateInitializing WorkerState = "INITIALIZING"

	// StateIdle means the worker is available for dispatch.
	StateIdle WorkerState = "IDLE"

	// StateBusy means a task is in flight on this worker.
	StateBusy WorkerState = "BUSY"

	// StateCrashed is terminal for this process instance. The worker is
	// evicted from the available set; a replacement may be respawned.
	StateCrashed WorkerState = "CRASHED"
)
