// Package logger provides leveled logging for the CLI and the data adapters.
package logger

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Logger defines a simple interface for logging.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
}

// Level is a logging severity. Messages below the configured level are discarded.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// ParseLevel maps "debug", "info", "warn", "error" and "fatal" to a Level.
// Unknown values fall back to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

const flags = log.Ldate | log.Ltime | log.Lshortfile

// defaultLogger is a simple logger implementation using the standard log package.
type defaultLogger struct {
	mu          sync.RWMutex
	debugLogger *log.Logger
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	fatalLogger *log.Logger
}

// NewLogger creates a Logger writing debug/info to stdout and warn/error/fatal to stderr.
func NewLogger(logLevel string) Logger {
	return NewWithWriters(logLevel, os.Stdout, os.Stderr)
}

// NewWithWriters creates a Logger with explicit destinations, mainly for tests.
func NewWithWriters(logLevel string, out, errOut io.Writer) Logger {
	l := &defaultLogger{}
	l.configure(ParseLevel(logLevel), out, errOut)
	return l
}

func (l *defaultLogger) configure(level Level, out, errOut io.Writer) {
	pick := func(min Level, w io.Writer, prefix string) *log.Logger {
		if level > min {
			return log.New(io.Discard, "", 0)
		}
		return log.New(w, prefix, flags)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugLogger = pick(LevelDebug, out, "DEBUG: ")
	l.infoLogger = pick(LevelInfo, out, "INFO:  ")
	l.warnLogger = pick(LevelWarn, errOut, "WARN:  ")
	l.errorLogger = pick(LevelError, errOut, "ERROR: ")
	// Fatal is never discarded.
	l.fatalLogger = log.New(errOut, "FATAL: ", flags)
}

func (l *defaultLogger) get(which func(*defaultLogger) *log.Logger) *log.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return which(l)
}

func (l *defaultLogger) Debug(args ...interface{}) {
	l.get(func(d *defaultLogger) *log.Logger { return d.debugLogger }).Println(args...)
}

func (l *defaultLogger) Debugf(format string, args ...interface{}) {
	l.get(func(d *defaultLogger) *log.Logger { return d.debugLogger }).Printf(format, args...)
}

func (l *defaultLogger) Info(args ...interface{}) {
	l.get(func(d *defaultLogger) *log.Logger { return d.infoLogger }).Println(args...)
}

func (l *defaultLogger) Infof(format string, args ...interface{}) {
	l.get(func(d *defaultLogger) *log.Logger { return d.infoLogger }).Printf(format, args...)
}

func (l *defaultLogger) Warn(args ...interface{}) {
	l.get(func(d *defaultLogger) *log.Logger { return d.warnLogger }).Println(args...)
}

func (l *defaultLogger) Warnf(format string, args ...interface{}) {
	l.get(func(d *defaultLogger) *log.Logger { return d.warnLogger }).Printf(format, args...)
}

func (l *defaultLogger) Error(args ...interface{}) {
	l.get(func(d *defaultLogger) *log.Logger { return d.errorLogger }).Println(args...)
}

func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	l.get(func(d *defaultLogger) *log.Logger { return d.errorLogger }).Printf(format, args...)
}

func (l *defaultLogger) Fatal(args ...interface{}) {
	l.get(func(d *defaultLogger) *log.Logger { return d.fatalLogger }).Fatalln(args...)
}

func (l *defaultLogger) Fatalf(format string, args ...interface{}) {
	l.get(func(d *defaultLogger) *log.Logger { return d.fatalLogger }).Fatalf(format, args...)
}

// Global std logger instance, "info" by default.
var std = NewLogger("info").(*defaultLogger)

// SetGlobalLogLevel reconfigures the global std logger's level.
func SetGlobalLogLevel(logLevel string) {
	std.configure(ParseLevel(logLevel), os.Stdout, os.Stderr)
}

// SetGlobalOutput redirects the global logger, keeping the given level.
func SetGlobalOutput(logLevel string, out, errOut io.Writer) {
	std.configure(ParseLevel(logLevel), out, errOut)
}

// Debug logs a debug message using the global std logger.
func Debug(args ...interface{}) {
	std.Debug(args...)
}

// Debugf logs a debug message with formatting.
func Debugf(format string, args ...interface{}) {
	std.Debugf(format, args...)
}

// Info logs an informational message using the global std logger.
func Info(args ...interface{}) {
	std.Info(args...)
}

// Infof logs an informational message with formatting.
func Infof(format string, args ...interface{}) {
	std.Infof(format, args...)
}

// Warn logs a warning.
func Warn(args ...interface{}) {
	std.Warn(args...)
}

// Warnf logs a warning with formatting.
func Warnf(format string, args ...interface{}) {
	std.Warnf(format, args...)
}

// Error logs an error message.
func Error(args ...interface{}) {
	std.Error(args...)
}

// Errorf logs an error message with formatting.
func Errorf(format string, args ...interface{}) {
	std.Errorf(format, args...)
}

// Fatal logs a fatal error message and exits.
func Fatal(args ...interface{}) {
	std.Fatal(args...)
}

// Fatalf logs a fatal error message with formatting and exits.
func Fatalf(format string, args ...interface{}) {
	std.Fatalf(format, args...)
}
