package encoder

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/smazurov/livecast/internal/ffmpeg"
	"github.com/smazurov/livecast/internal/logging"
	"github.com/smazurov/livecast/internal/session"
)

const defaultGracefulTimeout = 5 * time.Second

// Options configures a ProcessLauncher.
type Options struct {
	// Binary is the encoder executable. Defaults to "ffmpeg".
	Binary string

	// InputFormat and InputDevice select the capture input. Empty values
	// fall back to the ffmpeg package defaults.
	InputFormat string
	InputDevice string

	// GracefulTimeout is how long a terminated encoder gets to exit after
	// SIGINT before its process group is killed. Defaults to 5s.
	GracefulTimeout time.Duration

	// KillByNameFallback terminates by executable name (pkill/taskkill)
	// when the owned process cannot be signalled.
	KillByNameFallback bool

	// Logger for launcher operations. Defaults to the "encoder" module logger.
	Logger logging.Logger

	// OutputLogger receives the encoder's stdout/stderr, one record per line.
	// Defaults to the "ffmpeg" module logger.
	OutputLogger logging.Logger
}

// StopWait is how long a caller should wait for a terminated encoder to be
// gone: the graceful timeout plus time for the forced kill to land.
func (o Options) StopWait() time.Duration {
	graceful := o.GracefulTimeout
	if graceful <= 0 {
		graceful = defaultGracefulTimeout
	}
	return graceful + killSettleTime
}

// killSettleTime covers SIGKILL delivery and reaping after escalation.
const killSettleTime = time.Second

// ProcessLauncher spawns ffmpeg as a child process. It implements
// session.Launcher.
type ProcessLauncher struct {
	opts         Options
	logger       logging.Logger
	outputLogger logging.Logger
	now          func() time.Time
}

// NewProcessLauncher creates a launcher.
func NewProcessLauncher(opts Options) *ProcessLauncher {
	if opts.GracefulTimeout <= 0 {
		opts.GracefulTimeout = defaultGracefulTimeout
	}
	l := &ProcessLauncher{
		opts:         opts,
		logger:       opts.Logger,
		outputLogger: opts.OutputLogger,
		now:          time.Now,
	}
	if l.logger == nil {
		l.logger = logging.GetLogger("encoder")
	}
	if l.outputLogger == nil {
		l.outputLogger = logging.GetLogger("ffmpeg")
	}
	return l
}

// Params maps a session config onto encoder parameters. Resolution and the
// audio/video switches do not reach the encoder.
func (l *ProcessLauncher) Params(cfg session.StreamConfig) ffmpeg.Params {
	return ffmpeg.Params{
		Binary:      l.opts.Binary,
		InputFormat: l.opts.InputFormat,
		InputDevice: l.opts.InputDevice,
		Bitrate:     cfg.Bitrate,
		Destination: cfg.Destination,
	}
}

// Command returns the invocation Launch would run for cfg.
func (l *ProcessLauncher) Command(cfg session.StreamConfig) string {
	return ffmpeg.BuildCommand(l.Params(cfg))
}

// Launch spawns the encoder in its own process group and starts streaming
// its output to the output logger. The returned handle is a *Process.
func (l *ProcessLauncher) Launch(cfg session.StreamConfig) (session.Handle, error) {
	params := l.Params(cfg)
	binary := ffmpeg.Binary(params)
	command := ffmpeg.BuildCommand(params)

	cmd := exec.Command(binary, ffmpeg.BuildArgs(params)...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, l.launchError(binary, fmt.Errorf("stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, l.launchError(binary, fmt.Errorf("stderr pipe: %w", err))
	}

	if err := cmd.Start(); err != nil {
		return nil, l.launchError(binary, err)
	}

	p := newProcess(cmd, command, l.now())
	l.logger.Info("Encoder started", "pid", p.PID(), "command", command)

	outputDone := make(chan struct{}, 2)
	go func() {
		l.streamOutput(p, stdout, "stdout")
		outputDone <- struct{}{}
	}()
	go func() {
		l.streamOutput(p, stderr, "stderr")
		outputDone <- struct{}{}
	}()
	go l.reap(p, outputDone)

	return p, nil
}

func (l *ProcessLauncher) launchError(binary string, err error) error {
	l.logger.Error("Failed to start encoder", "binary", binary, "error", err)
	return &LaunchError{Kind: SpawnFailed, Binary: binary, Err: err}
}

// reap drains both output pipes, then waits for the process so Wait never
// races the readers.
func (l *ProcessLauncher) reap(p *Process, outputDone <-chan struct{}) {
	<-outputDone
	<-outputDone

	err := p.cmd.Wait()
	code := exitCodeFromError(err)
	p.exitCode.Store(int32(code))
	close(p.done)

	if p.terminating.Load() {
		l.logger.Info("Encoder exited", "pid", p.PID(), "exit_code", code)
		return
	}
	l.logger.Warn("Encoder exited unexpectedly",
		"pid", p.PID(),
		"exit_code", code,
		"uptime", time.Since(p.startedAt).Round(time.Millisecond),
		"last_output", p.LastOutput())
}

// Terminate sends SIGINT to the encoder and returns without waiting for it to
// exit. If the encoder is still alive after the graceful timeout its process
// group is killed. A handle whose process already exited terminates
// successfully.
func (l *ProcessLauncher) Terminate(h session.Handle) error {
	p, ok := h.(*Process)
	if !ok || p == nil {
		return &TerminateError{Kind: TerminateFailed, Err: ErrForeignHandle}
	}

	if p.exited() {
		l.logger.Debug("Encoder already exited", "pid", p.PID(), "exit_code", p.ExitCode())
		return nil
	}

	p.terminating.Store(true)
	l.logger.Info("Sending SIGINT to encoder", "pid", p.PID())

	err := p.cmd.Process.Signal(syscall.SIGINT)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrProcessDone):
		return nil
	case l.opts.KillByNameFallback:
		l.logger.Warn("Failed to signal encoder, falling back to kill by name", "pid", p.PID(), "error", err)
		if fallbackErr := l.killByName(); fallbackErr != nil {
			return &TerminateError{Kind: TerminateFailed, PID: p.PID(), Err: errors.Join(err, fallbackErr)}
		}
	default:
		p.terminating.Store(false)
		return &TerminateError{Kind: TerminateFailed, PID: p.PID(), Err: err}
	}

	go l.escalate(p)
	return nil
}

// escalate kills the process group if the encoder ignores SIGINT.
func (l *ProcessLauncher) escalate(p *Process) {
	timer := time.NewTimer(l.opts.GracefulTimeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return
	case <-timer.C:
	}

	l.logger.Warn("Graceful shutdown timeout, forcing kill", "pid", p.PID(), "timeout", l.opts.GracefulTimeout)
	if err := syscall.Kill(-p.PID(), syscall.SIGKILL); err != nil {
		if killErr := p.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
			l.logger.Error("Failed to kill encoder", "pid", p.PID(), "error", killErr)
		}
	}
}

// killByName terminates every process running the encoder binary.
func (l *ProcessLauncher) killByName() error {
	name, args := killByNameCommand(runtime.GOOS, ffmpeg.Binary(ffmpeg.Params{Binary: l.opts.Binary}))
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

func killByNameCommand(goos, binary string) (string, []string) {
	image := filepath.Base(binary)
	if goos == "windows" {
		if !strings.HasSuffix(strings.ToLower(image), ".exe") {
			image += ".exe"
		}
		return "taskkill", []string{"/f", "/im", image}
	}
	return "pkill", []string{"-INT", "-x", image}
}

// maxOutputLine bounds a single encoder output line.
const maxOutputLine = 1 << 20

// streamOutput logs each output line at the level ffmpeg tagged it with.
func (l *ProcessLauncher) streamOutput(p *Process, reader io.Reader, source string) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 4096), maxOutputLine)
	scanner.Split(scanOutputLines)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		p.setLastOutput(line)

		level, msg := ffmpeg.ParseLogLevel(line)
		switch level {
		case "panic", "fatal", "error":
			l.outputLogger.Error(msg, "pid", p.PID())
		case "warning":
			l.outputLogger.Warn(msg, "pid", p.PID())
		case "verbose", "debug", "trace":
			l.outputLogger.Debug(msg, "pid", p.PID())
		default:
			l.outputLogger.Info(msg, "pid", p.PID())
		}
	}

	if err := scanner.Err(); err != nil {
		l.logger.Warn("Error reading encoder output", "source", source, "error", err)
		// The encoder blocks on a full pipe, so keep reading until it closes.
		_, _ = io.Copy(io.Discard, reader)
	}
}

// scanOutputLines is bufio.ScanLines that also ends a line at a bare '\r'.
// ffmpeg rewrites its progress line in place with '\r' and never sends '\n'.
// A "\r\n" pair yields an extra empty token, which callers skip.
func scanOutputLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
