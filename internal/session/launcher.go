package session

import "time"

// Handle is an owned reference to a running encoder instance.
type Handle interface {
	PID() int
	StartedAt() time.Time
	// Done is closed once the encoder has exited and been reaped.
	Done() <-chan struct{}
	// ExitCode is -1 until Done is closed.
	ExitCode() int
}

// Launcher starts and terminates encoder instances. Launch either returns a
// usable handle or an error with no process left behind. Terminate requests
// the instance stop and returns without waiting for it to exit.
type Launcher interface {
	Launch(cfg StreamConfig) (Handle, error)
	Terminate(h Handle) error
}
