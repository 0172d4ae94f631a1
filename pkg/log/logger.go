package log

import (
	"fmt"
	"log/slog"
	"os"
)

// SetupLogger configures the slog default logger with a JSON handler wrapped
// by ErrFmtHandler so that cockroachdb stack traces are emitted alongside
// error attributes.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{Key: "severity", Value: attr.Value}
			case slog.MessageKey:
				attr = slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	}
	handler := slog.NewJSONHandler(os.Stdout, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	slog.SetDefault(slog.New(errFmtHandler))
}

// ToLogLevel converts a level name into a slog.Level. It panics on unknown names.
func ToLogLevel(level string) slog.Level {
	l, ok := ParseLevel(level)
	if !ok {
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
	return slog.Level(l)
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
