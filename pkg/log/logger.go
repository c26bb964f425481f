// Custom logging utility used internally all over Tabcast.

package log

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger acts as a wrapper for zerolog with custom features.
type Logger interface {
	// WithCtx returns a sub-logger based of root logger with added context.
	WithCtx(context.Context) Logger
	// WithTab returns a sub-logger annotated with session and tab identifiers.
	WithTab(sessionID string, tabID uint64) Logger
	// Info level log starts a log message with INFO level.
	Info() *zerolog.Event
	// Debug level log starts a log message with DEBUG level.
	Debug() *zerolog.Event
	// Warn level log starts a log message with WARNING level.
	Warn() *zerolog.Event
	// Error level log starts a log message with ERROR level.
	Error() *zerolog.Event
	// Fatal level log starts a log message with FATAL level.
	Fatal() *zerolog.Event
}

type logger struct {
	zerolog.Logger
}

func init() {
	// setting configurations for logger
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// Output of Logger based on what environment Tabcast is being run on.
func output() io.Writer {
	if os.Getenv("ENV") == "DEV" {
		// Set output of Logger to prettified ConsoleOutput for local environment
		return zerolog.ConsoleWriter{Out: os.Stdout}
	}
	// ConsoleWriter prettifies log, inefficient in prod
	return os.Stdout
}

// Creates a new logger instance for other packages to use the internal zerolog.
func New(version string) Logger {
	return NewWithWriter(version, output())
}

// NewWithWriter creates a logger writing to w, useful in tests.
func NewWithWriter(version string, w io.Writer) Logger {
	return &logger{zerolog.New(w).With().Str("Version", version).Timestamp().Caller().Stack().Logger()}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &logger{zerolog.Nop()}
}

// SetLevel parses level and applies it globally, falling back to info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// Returns a sub-logger by adding additional requestID context to it.
// Helps in debugging issues.
func (l *logger) WithCtx(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}
	requestID, _ := ctx.Value("ReqID").(string)
	if requestID != "" {
		return &logger{l.With().Str("ReqID", requestID).Logger()}
	}
	return l
}

func (l *logger) WithTab(sessionID string, tabID uint64) Logger {
	return &logger{l.With().Str("Session", sessionID).Uint64("Tab", tabID).Logger()}
}
