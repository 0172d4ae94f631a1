package log

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/hmmgo/pkg/errors"
)

// ZerologLogger implements Logger on top of zerolog.
type ZerologLogger struct {
	zl    zerolog.Logger
	level Level
}

// Config controls construction of a ZerologLogger.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	Output io.Writer
}

// NewZerologLogger builds a Logger writing JSON (or console) lines to cfg.Output.
// An empty Output means os.Stderr, an unknown Level is an error.
func NewZerologLogger(cfg Config) (*ZerologLogger, error) {
	level := LevelInfo
	if cfg.Level != "" {
		var ok bool
		level, ok = ParseLevel(cfg.Level)
		if !ok {
			return nil, errors.NewValidationError("level", "must be one of debug, info, warn, error", cfg.Level)
		}
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(output).
		Level(toZerologLevel(level)).
		With().
		Timestamp().
		Logger()

	return &ZerologLogger{zl: zl, level: level}, nil
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() *ZerologLogger {
	return &ZerologLogger{zl: zerolog.Nop(), level: LevelError + 1}
}

func toZerologLevel(l Level) zerolog.Level {
	switch {
	case l <= LevelDebug:
		return zerolog.DebugLevel
	case l <= LevelInfo:
		return zerolog.InfoLevel
	case l <= LevelWarn:
		return zerolog.WarnLevel
	case l <= LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}

func (l *ZerologLogger) Debug(msg string, fields ...any) {
	l.zl.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Info(msg string, fields ...any) {
	l.zl.Info().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Warn(msg string, fields ...any) {
	l.zl.Warn().Fields(fields).Msg(msg)
}

// Error logs at error level; a leading error value is attached with Err.
func (l *ZerologLogger) Error(msg string, fields ...any) {
	ev := l.zl.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = ev.Err(err)
			fields = fields[1:]
		}
	}
	ev.Fields(fields).Msg(msg)
}

func (l *ZerologLogger) With(fields ...any) Logger {
	return &ZerologLogger{
		zl:    l.zl.With().Fields(fields).Logger(),
		level: l.level,
	}
}

func (l *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return level >= l.level
}

// WarnSink returns a function suitable for errors.SetZerologWarnFunc.
// Warnings that implement zerolog.LogObjectMarshaler are embedded as structured fields.
func (l *ZerologLogger) WarnSink() func(error) {
	return func(w error) {
		ev := l.zl.Warn()
		if obj, ok := w.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(obj)
		}
		ev.Msg(w.Error())
	}
}

var (
	globalMu     sync.RWMutex
	globalLogger Logger = NewNopLogger()
)

// GetLogger returns the process-wide default logger. It discards output until
// SetLogger is called.
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetLogger replaces the process-wide default logger. When l is a
// *ZerologLogger it also becomes the sink for errors.Warn.
func SetLogger(l Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
	if zl, ok := l.(*ZerologLogger); ok {
		errors.SetZerologWarnFunc(zl.WarnSink())
	} else {
		errors.SetZerologWarnFunc(nil)
	}
}
