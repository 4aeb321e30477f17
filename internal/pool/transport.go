package pool

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/shinych/webmirror/internal/ipc"
)

// Transport is the duplex message channel to one worker process.
type Transport interface {
	// Send writes one envelope to the worker.
	Send(env ipc.Envelope) error

	// Receive blocks for the next envelope from the worker. It returns
	// io.EOF when the worker's output closes, which the pool interprets
	// as process exit.
	Receive() (ipc.Envelope, error)

	// Signal asks the process to terminate, escalating from a polite
	// signal to a kill when force is set.
	Signal(force bool) error

	// Wait blocks until the process has exited and releases it.
	Wait() error
}

// Launcher spawns worker processes. The pool depends on this interface so
// tests can substitute in-memory workers.
type Launcher interface {
	Launch(ctx context.Context, workerID int) (Transport, error)
}

// ExecLauncher spawns real worker processes: the webmirror binary re-invoked
// with its hidden worker subcommand, stdin and stdout wired as the IPC
// channel. Stderr is inherited so worker logs interleave with the
// orchestrator's.
type ExecLauncher struct {
	// Path is the executable to spawn, normally os.Executable().
	Path string

	// Args are the arguments selecting worker mode, e.g. ["worker"].
	Args []string
}

// Launch starts one worker process.
func (l *ExecLauncher) Launch(ctx context.Context, workerID int) (Transport, error) {
	cmd := exec.CommandContext(ctx, l.Path, l.Args...) //nolint:gosec // Path is our own binary
	cmd.Stderr = os.Stderr                             // stdout is the protocol channel; logs go to stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("worker %d stdin: %w", workerID, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("worker %d stdout: %w", workerID, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker %d: %w", workerID, err)
	}

	return &execTransport{
		cmd:     cmd,
		stdin:   stdin,
		encoder: ipc.NewEncoder(stdin),
		decoder: ipc.NewDecoder(stdout),
	}, nil
}

type execTransport struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	encoder *ipc.Encoder
	decoder *ipc.Decoder
}

func (t *execTransport) Send(env ipc.Envelope) error {
	return t.encoder.Encode(env)
}

func (t *execTransport) Receive() (ipc.Envelope, error) {
	return t.decoder.Decode()
}

func (t *execTransport) Signal(force bool) error {
	if t.cmd.Process == nil {
		return nil
	}
	if force {
		return t.cmd.Process.Kill()
	}
	return t.cmd.Process.Signal(syscall.SIGTERM)
}

func (t *execTransport) Wait() error {
	_ = t.stdin.Close()
	return t.cmd.Wait()
}

// DefaultShutdownGrace is how long the pool waits between the advisory
// SHUTDOWN and the forced terminate of a worker that has not exited.
const DefaultShutdownGrace = 5 * time.Second
