// Package logging holds the module-wide slog logger.
//
// Libraries log through Logger() and stay silent until a command installs a
// real logger with SetLogger or Setup.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
)

const (
	logFileName = "fixmatrix.log"
	maxLogSize  = 10 * 1024 * 1024
)

// nopHandler drops everything; Enabled false skips message formatting
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger installs l for all packages, nil restores silence
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the active logger
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// Setup routes debug logs to dir/fixmatrix.log, rotating it to .old once it
// grows past 10MB. With debug off logging is discarded and nil is returned.
// The caller closes the returned file.
func Setup(debug bool, dir string) (*os.File, error) {
	if !debug {
		SetLogger(nil)
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("log dir: %w", err)
	}

	logPath := filepath.Join(dir, logFileName)
	if info, err := os.Stat(logPath); err == nil && info.Size() > maxLogSize {
		// rotation failure only costs the old log
		_ = os.Rename(logPath, logPath+".old")
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("log file: %w", err)
	}

	SetLogger(NewLogger(file, slog.LevelDebug))
	return file, nil
}

// NewLogger builds a text logger at level writing to w
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
