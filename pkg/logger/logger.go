package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Logger defines the interface for logging in verboten.
// It provides standard logging levels and a mechanism to add structured context.
type Logger interface {
	// Debug logs a message at the debug level.
	Debug(msg string, args ...any)
	// Info logs a message at the info level.
	Info(msg string, args ...any)
	// Warn logs a message at the warning level.
	Warn(msg string, args ...any)
	// Error logs a message at the error level.
	Error(msg string, args ...any)
	// With returns a new Logger with the given structured context added.
	With(args ...any) Logger
}

// Extra levels understood by ParseLevel on top of the slog ones.
const (
	LevelTrace = slog.LevelDebug - 4
	LevelOff   = slog.LevelError + 64
)

// Default rotation settings used when Options.File is set.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Options describes where and how a Logger writes.
// When File is empty records go to Writer, or stdout when Writer is nil.
type Options struct {
	Level      string
	Format     string // "json" (default) or "text"
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Writer     io.Writer
}

// ParseLevel maps a level name to a slog level.
// Supported levels are "off", "error", "warn", "info", "debug" and "trace".
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "off":
		return LevelOff, nil
	case "error":
		return slog.LevelError, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "trace":
		return LevelTrace, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// New builds a Logger from opts. The returned Closer releases the log file,
// if any, and must be closed when the process is done logging.
func New(opts Options) (Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if opts.Writer != nil {
		out = opts.Writer
	}
	if opts.File != "" {
		rot := &lj.Logger{
			Filename:   opts.File,
			MaxSize:    valOr(opts.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(opts.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(opts.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   opts.Compress,
		}
		out, closer = rot, rot
	}

	hopts := &slog.HandlerOptions{
		Level: level,
		// Add source file info for better debugging
		AddSource: true,
	}
	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "json":
		handler = slog.NewJSONHandler(out, hopts)
	case "text":
		handler = slog.NewTextHandler(out, hopts)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	return &wrapper{l: slog.New(handler)}, closer, nil
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &wrapper{l: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: LevelOff}))}
}

type wrapper struct {
	l *slog.Logger
}

func (w *wrapper) Debug(msg string, args ...any) { w.l.Debug(msg, args...) }
func (w *wrapper) Info(msg string, args ...any)  { w.l.Info(msg, args...) }
func (w *wrapper) Warn(msg string, args ...any)  { w.l.Warn(msg, args...) }
func (w *wrapper) Error(msg string, args ...any) { w.l.Error(msg, args...) }
func (w *wrapper) With(args ...any) Logger       { return &wrapper{l: w.l.With(args...)} }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Personal.AI order the ending
