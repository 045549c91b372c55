// Package logging builds the structured loggers used by the trainer.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options describe how to configure a logger instance.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// RotationOptions controls log file rotation.
type RotationOptions struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultRotation keeps a few small files.
var DefaultRotation = RotationOptions{MaxSizeMB: 5, MaxBackups: 3, MaxAgeDays: 14}

// New creates a structured logger backed by slog.
func New(opts Options) (*slog.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	handler, err := newHandler(out, opts.Format, lvl)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

// FileLogger is a logger writing to a rotating file. Close flushes and
// releases the file.
type FileLogger struct {
	Logger *slog.Logger
	Path   string
	writer io.WriteCloser
}

// Close closes the log file.
func (f *FileLogger) Close() error {
	if f == nil || f.writer == nil {
		return nil
	}
	return f.writer.Close()
}

// NewFile creates a logger writing to path through lumberjack, so log output
// never reaches the terminal the TUI is drawing on.
func NewFile(path string, opts Options, rotation RotationOptions) (*FileLogger, error) {
	if path == "" {
		return nil, fmt.Errorf("log path is empty")
	}
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rotation.MaxSizeMB,
		MaxBackups: rotation.MaxBackups,
		MaxAge:     rotation.MaxAgeDays,
		Compress:   rotation.Compress,
	}
	handler, err := newHandler(w, opts.Format, lvl)
	if err != nil {
		if cerr := w.Close(); cerr != nil {
			_ = cerr
		}
		return nil, err
	}
	return &FileLogger{Logger: slog.New(handler), Path: path, writer: w}, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHandler(out io.Writer, format string, lvl slog.Leveler) (slog.Handler, error) {
	handlerOpts := slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: replaceTimeAttr,
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return slog.NewJSONHandler(out, &handlerOpts), nil
	case "console", "text":
		return slog.NewTextHandler(out, &handlerOpts), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}
}

// ParseLevel maps debug, info, warn and error to a slog level. Empty means info.
func ParseLevel(level string) (slog.Leveler, error) {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		lvl = slog.LevelInfo
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unsupported log level %q", level)
	}
	var levelVar slog.LevelVar
	levelVar.Set(lvl)
	return &levelVar, nil
}

func replaceTimeAttr(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key == slog.TimeKey && attr.Value.Kind() == slog.KindTime {
		attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
	}
	return attr
}
