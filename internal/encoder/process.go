package encoder

import (
	"errors"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Process is the handle to one running encoder. It satisfies session.Handle.
type Process struct {
	cmd       *exec.Cmd
	command   string
	startedAt time.Time
	done      chan struct{}
	exitCode  atomic.Int32

	terminating atomic.Bool

	mu         sync.Mutex
	lastOutput string
}

func newProcess(cmd *exec.Cmd, command string, startedAt time.Time) *Process {
	p := &Process{
		cmd:       cmd,
		command:   command,
		startedAt: startedAt,
		done:      make(chan struct{}),
	}
	p.exitCode.Store(-1)
	return p
}

// PID returns the operating system process ID.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// StartedAt returns when the process was spawned.
func (p *Process) StartedAt() time.Time {
	return p.startedAt
}

// Done is closed after the process has exited and been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitCode returns the exit code, or -1 while the process is running.
// A process killed by a signal reports 128 plus the signal number.
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// Command returns the invocation as a printable string.
func (p *Process) Command() string {
	return p.command
}

// LastOutput returns the most recent line the encoder printed.
func (p *Process) LastOutput() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastOutput
}

func (p *Process) setLastOutput(line string) {
	p.mu.Lock()
	p.lastOutput = line
	p.mu.Unlock()
}

func (p *Process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// exitCodeFromError extracts the exit code from a Wait error.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
		return exitErr.ExitCode()
	}
	return 1
}
