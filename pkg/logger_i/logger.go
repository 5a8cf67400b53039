package logger_i

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/akolanti/doctutor/internal/config"
)

// Logger resolves slog.Default on every call so loggers declared at package
// level pick up the handler Init installs later.
type Logger struct {
	attrs []any
}

// Init installs the process-wide handler: JSON in prod, text otherwise.
func Init(isProd bool, level slog.Level) {
	InitWithWriter(os.Stdout, isProd, level)
}

func InitWithWriter(w io.Writer, isProd bool, level slog.Level) {
	options := &slog.HandlerOptions{
		Level:     level,
		AddSource: isProd,
	}

	var handler slog.Handler
	if isProd {
		handler = slog.NewJSONHandler(w, options)
	} else {
		handler = slog.NewTextHandler(w, options)
	}
	slog.SetDefault(slog.New(handler))
}

func NewLogger(section string) *Logger {
	return &Logger{attrs: []any{"component", section}}
}

func (l *Logger) inner() *slog.Logger {
	return slog.Default().With(l.attrs...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.inner().Info(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.inner().Log(context.Background(), slog.LevelError, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.inner().Log(context.Background(), slog.LevelWarn, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.inner().Log(context.Background(), slog.LevelDebug, msg, args...)
}

func (l *Logger) With(args ...any) *Logger {
	attrs := make([]any, 0, len(l.attrs)+len(args))
	attrs = append(attrs, l.attrs...)
	return &Logger{attrs: append(attrs, args...)}
}

// FromContext tags the logger with the trace id carried by ctx, if any.
func (l *Logger) FromContext(ctx context.Context) *Logger {
	if trace := TraceID(ctx); trace != "" {
		return l.With(config.TRACE_ID_KEY, trace)
	}
	return l
}

// TraceID returns the trace id stored under config.TRACE_ID_KEY or "".
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}
