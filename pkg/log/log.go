// Package log is a thin wrapper around the standard library logger adding
// named per-process-component loggers (ForService), Warn/Debug levels, and
// debug enablement globally or per component.
//
// Usage:
//
//	l := log.ForService("gateway")
//	l.Infof("listening on %s", addr)
//	l.Debugf("frame: %s", data) // printed only when debug is enabled
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"sync"
	"sync/atomic"
)

const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelDebug = "DEBUG"
)

// Logger is a named logger. Obtain instances via ForService.
type Logger struct {
	name string
	std  *stdlog.Logger
}

var (
	globalDebug  atomic.Bool
	serviceDebug sync.Map // map[string]*atomic.Bool

	mu      sync.Mutex
	out     io.Writer = os.Stderr
	loggers           = make(map[string]*Logger)
)

// ForService returns (and memoizes) the logger for the given component name.
func ForService(name string) *Logger {
	if name == "" {
		name = "unknown"
	}
	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[name]; ok {
		return l
	}
	l := &Logger{
		name: name,
		std:  stdlog.New(out, "", stdlog.LstdFlags|stdlog.Lmicroseconds),
	}
	loggers[name] = l
	return l
}

// SetOutput redirects all existing and future loggers to w.
func SetOutput(w io.Writer) {
	if w == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	out = w
	for _, l := range loggers {
		l.std.SetOutput(w)
	}
}

// SetGlobalDebug enables or disables debug logging for every logger.
func SetGlobalDebug(enabled bool) {
	globalDebug.Store(enabled)
}

// EnableDebugFor enables debug logging for one component only.
func EnableDebugFor(name string) {
	v, _ := serviceDebug.LoadOrStore(name, &atomic.Bool{})
	v.(*atomic.Bool).Store(true)
}

// DisableDebugFor disables a per-component debug override.
func DisableDebugFor(name string) {
	if v, ok := serviceDebug.Load(name); ok {
		v.(*atomic.Bool).Store(false)
	}
}

// DebugEnabledFor reports whether debug output is active for name.
func DebugEnabledFor(name string) bool {
	if globalDebug.Load() {
		return true
	}
	if v, ok := serviceDebug.Load(name); ok {
		return v.(*atomic.Bool).Load()
	}
	return false
}

func (l *Logger) logLine(level, msg string) {
	l.std.Println(level + " [" + l.name + ">] " + msg)
}

// Infof logs an informational message with Sprintf semantics.
func (l *Logger) Infof(format string, args ...any) {
	l.logLine(LevelInfo, fmt.Sprintf(format, args...))
}

// Warnf logs a warning.
func (l *Logger) Warnf(format string, args ...any) {
	l.logLine(LevelWarn, fmt.Sprintf(format, args...))
}

// Errorf logs an error.
func (l *Logger) Errorf(format string, args ...any) {
	l.logLine(LevelError, fmt.Sprintf(format, args...))
}

// Debugf logs a debug message when debug is enabled globally or for this
// logger's component.
func (l *Logger) Debugf(format string, args ...any) {
	if !DebugEnabledFor(l.name) {
		return
	}
	l.logLine(LevelDebug, fmt.Sprintf(format, args...))
}
