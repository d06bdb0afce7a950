// Package logging defines the structured logger used across torfetch.
//
// Library packages accept a Logger and fall back to Nop() so callers never
// have to configure logging. The CLI wires a zerolog-backed logger.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Logger provides structured logging with optional key-value pairs.
type Logger interface {
	// Debug logs debug-level messages with optional key-value pairs.
	Debug(msg string, keysAndValues ...interface{})

	// Info logs info-level messages with optional key-value pairs.
	Info(msg string, keysAndValues ...interface{})

	// Warn logs warning-level messages with optional key-value pairs.
	Warn(msg string, keysAndValues ...interface{})

	// Error logs error-level messages with optional key-value pairs.
	Error(msg string, keysAndValues ...interface{})
}

// noopLogger is a Logger implementation that does nothing.
type noopLogger struct{}

func (n *noopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (n *noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (n *noopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (n *noopLogger) Error(msg string, keysAndValues ...interface{}) {}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &noopLogger{}
}

// OrNop returns l, or Nop() when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// LevelForVerbosity maps a -v count to a zerolog level.
func LevelForVerbosity(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// ZerologLogger adapts a zerolog.Logger to Logger.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerolog creates a console logger writing to w at the level selected by
// verbosity. Caller information is added from verbosity 2 up.
func NewZerolog(w io.Writer, verbosity int) *ZerologLogger {
	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
	}
	ctx := zerolog.New(console).Level(LevelForVerbosity(verbosity)).With().Timestamp()
	if verbosity >= 2 {
		ctx = ctx.Caller()
	}
	return &ZerologLogger{zl: ctx.Logger()}
}

// FromZerolog wraps an existing zerolog.Logger.
func FromZerolog(zl zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{zl: zl}
}

// With returns a child logger tagged with component.
func (l *ZerologLogger) With(component string) *ZerologLogger {
	return &ZerologLogger{zl: l.zl.With().Str("component", component).Logger()}
}

func (l *ZerologLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(l.zl.Debug(), msg, keysAndValues)
}

func (l *ZerologLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log(l.zl.Info(), msg, keysAndValues)
}

func (l *ZerologLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(l.zl.Warn(), msg, keysAndValues)
}

func (l *ZerologLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log(l.zl.Error(), msg, keysAndValues)
}

// log attaches keysAndValues in pairs. A trailing key without a value is
// logged under "!BADKEY".
func (l *ZerologLogger) log(ev *zerolog.Event, msg string, keysAndValues []interface{}) {
	if ev == nil {
		return
	}
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = "!BADKEY"
		}
		if i+1 >= len(keysAndValues) {
			ev = ev.Interface("!BADKEY", keysAndValues[i])
			break
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			ev = ev.AnErr(key, err)
			continue
		}
		ev = ev.Interface(key, keysAndValues[i+1])
	}
	ev.Msg(msg)
}
