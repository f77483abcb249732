package logger

import (
	"log/slog"
	"os"
)

var log *slog.Logger

// Init configures the global logger. Development gets a readable text handler
// at debug level; production gets JSON at info level.
func Init(env string) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if env == "development" {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log = slog.New(handler)
	slog.SetDefault(log)
}

func get() *slog.Logger {
	if log == nil {
		Init("development")
	}
	return log
}

func Debug(msg string, args ...any) { get().Debug(msg, args...) }
func Info(msg string, args ...any)  { get().Info(msg, args...) }
func Warn(msg string, args ...any)  { get().Warn(msg, args...) }
func Error(msg string, args ...any) { get().Error(msg, args...) }

// Fatal logs at error level and exits.
func Fatal(msg string, args ...any) {
	get().Error(msg, args...)
	os.Exit(1)
}

// With returns a logger carrying extra fields.
func With(args ...any) *slog.Logger {
	return get().With(args...)
}

// WithError returns a logger carrying the error field.
func WithError(err error) *slog.Logger {
	return get().With("error", err.Error())
}
