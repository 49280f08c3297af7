// Package output provides terminal output utilities: logging, styles and
// spinners.
package output

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// LogConfig controls logger construction.
type LogConfig struct {
	// Verbose enables debug level, timestamps and caller reporting.
	Verbose bool

	// Timestamps controls whether timestamps are shown. nil means on.
	// Verbose forces timestamps on.
	Timestamps *bool

	// Writer is the log destination. nil means os.Stderr.
	Writer io.Writer
}

var (
	mu     sync.RWMutex
	logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, TimeFormat: "15:04:05"})
)

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// SetupLogging configures the package logger.
func SetupLogging(cfg LogConfig) {
	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}

	timestamps := true
	if cfg.Timestamps != nil {
		timestamps = *cfg.Timestamps
	}
	if cfg.Verbose {
		timestamps = true
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	l := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: timestamps,
		ReportCaller:    cfg.Verbose,
		TimeFormat:      "15:04:05",
	})

	mu.Lock()
	logger = l
	mu.Unlock()
}

// Logger returns the package logger. Components take it as a dependency
// instead of calling the package-level helpers.
func Logger() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// RunLogger returns a child logger prefixed with a short run identifier.
func RunLogger(base *log.Logger, runID string) *log.Logger {
	if base == nil {
		base = Logger()
	}
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	return base.WithPrefix(StyleDim.Render("run:" + short))
}

// Debug logs a debug message.
func Debug(msg string, keyvals ...interface{}) {
	Logger().Debug(msg, keyvals...)
}

// Info logs an info message.
func Info(msg string, keyvals ...interface{}) {
	Logger().Info(msg, keyvals...)
}

// Warn logs a warning message.
func Warn(msg string, keyvals ...interface{}) {
	Logger().Warn(msg, keyvals...)
}

// Error logs an error message.
func Error(msg string, keyvals ...interface{}) {
	Logger().Error(msg, keyvals...)
}

// Println prints a message to stdout with a newline.
func Println(msg string) {
	os.Stdout.WriteString(msg + "\n")
}
