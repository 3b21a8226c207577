package control

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/smazurov/livecast/internal/logging"
	"github.com/smazurov/livecast/internal/session"
	"github.com/smazurov/livecast/internal/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Stream defaults applied to every start request.
const (
	DefaultResolution = "1920x1080"
	DefaultBitrate    = 5000
)

// ErrCodeInvalidInput is reported for requests rejected before reaching the
// session.
const ErrCodeInvalidInput = "INVALID_INPUT"

// CommandError is returned by facade commands. Error returns the localized
// message meant for the user; Code and Cause are for programs and logs.
type CommandError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CommandError) Error() string {
	return e.Message
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}

// Session is the part of session.Manager the facade drives.
type Session interface {
	Start(cfg session.StreamConfig) error
	Stop() error
	Status() session.Status
}

// Facade exposes the user-facing commands: start, stop and stats.
type Facade struct {
	session Session
	store   *stats.Store
	locale  language.Tag
	printer *message.Printer
	logger  *slog.Logger
}

// Option configures a Facade.
type Option func(*Facade)

// WithLocale selects the message language, e.g. "pt-BR" or "en".
func WithLocale(locale string) Option {
	return func(f *Facade) {
		f.locale = MatchLocale(locale)
	}
}

// WithLogger sets the logger. Default is the "control" module logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Facade) {
		f.logger = logger
	}
}

// New creates a facade over a session and a stats store.
func New(s Session, store *stats.Store, opts ...Option) *Facade {
	f := &Facade{
		session: s,
		store:   store,
		locale:  MatchLocale(DefaultLocale),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logging.GetLogger("control")
	}
	f.printer = newPrinter(f.locale)
	return f
}

// Locale returns the resolved message locale.
func (f *Facade) Locale() language.Tag {
	return f.locale
}

// StartStreaming starts a session to destination at bitrate kbps using the
// default resolution with audio and video enabled.
func (f *Facade) StartStreaming(destination string, bitrate uint32) (string, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return "", f.invalid(msgDestinationMissing)
	}
	if bitrate == 0 {
		return "", f.invalid(msgBitrateInvalid)
	}

	cfg := session.StreamConfig{
		Destination:  destination,
		Bitrate:      bitrate,
		Resolution:   DefaultResolution,
		AudioEnabled: true,
		VideoEnabled: true,
	}

	if err := f.session.Start(cfg); err != nil {
		f.logger.Debug("Start command failed", "destination", destination, "bitrate", bitrate, "error", err)
		return "", f.commandError(err, msgStartFailed)
	}
	return f.printer.Sprintf(msgStarted), nil
}

// StopStreaming stops the active session.
func (f *Facade) StopStreaming() (string, error) {
	if err := f.session.Stop(); err != nil {
		f.logger.Debug("Stop command failed", "error", err)
		return "", f.commandError(err, msgStopFailed)
	}
	return f.printer.Sprintf(msgStopped), nil
}

// GetStats returns the current statistics snapshot. It does not touch the
// session and never waits on a start or stop in progress.
func (f *Facade) GetStats() stats.StreamStats {
	return f.store.Get()
}

// Status returns the session snapshot.
func (f *Facade) Status() session.Status {
	return f.session.Status()
}

func (f *Facade) invalid(key string) *CommandError {
	return &CommandError{Code: ErrCodeInvalidInput, Message: f.printer.Sprintf(key)}
}

// commandError maps a session error to its localized user message. Launch
// and termination failures carry the underlying diagnostic.
func (f *Facade) commandError(err error, failureKey string) *CommandError {
	code := session.CodeOf(err)
	var msg string
	switch code {
	case session.ErrCodeAlreadyActive:
		msg = f.printer.Sprintf(msgAlreadyActive)
	case session.ErrCodeNotActive:
		msg = f.printer.Sprintf(msgNotActive)
	default:
		msg = f.printer.Sprintf(failureKey, diagnostic(err))
	}
	return &CommandError{Code: code, Message: msg, Cause: err}
}

// diagnostic returns the innermost cause text of a session error.
func diagnostic(err error) string {
	var se *session.SessionError
	if errors.As(err, &se) && se.Cause != nil {
		return se.Cause.Error()
	}
	return err.Error()
}
