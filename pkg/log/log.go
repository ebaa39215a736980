// Package log is a small module-aware wrapper around log/slog.
//
// Debug output is gated per module so that decoding a large jar with
// debug logging on only reports the parts being investigated. The other
// levels are never filtered by module.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// Modules
const (
	ClassFile = "classfile"
	Classpath = "classpath"
	Javap     = "javap"
	CLI       = "cli"
)

var root atomic.Pointer[slog.Logger]

var (
	modulesMu sync.RWMutex
	modules   = map[string]bool{
		ClassFile: false,
		Classpath: true,
		Javap:     true,
		CLI:       true,
	}
)

func init() {
	root.Store(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// ParseLevel converts a level name such as "debug" or "WARN" to a slog level.
func ParseLevel(lvl string) (slog.Level, error) {
	switch strings.ToUpper(lvl) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid level: %s", lvl)
	}
}

// InitLogger installs a text handler writing to w at the given level.
func InitLogger(w io.Writer, level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// SetDefault replaces the root logger.
func SetDefault(l *slog.Logger) {
	root.Store(l)
}

// Root returns the root logger.
func Root() *slog.Logger {
	return root.Load()
}

// EnableModule enables debug logging for the specified module.
func EnableModule(module string) {
	modulesMu.Lock()
	defer modulesMu.Unlock()
	modules[module] = true
}

// DisableModule disables debug logging for the specified module.
func DisableModule(module string) {
	modulesMu.Lock()
	defer modulesMu.Unlock()
	modules[module] = false
}

// EnableModules enables debug logging for a comma-separated list of
// modules. "all" enables every known module.
func EnableModules(list string) {
	for _, m := range strings.Split(list, ",") {
		m = strings.TrimSpace(m)
		switch m {
		case "":
		case "all":
			modulesMu.Lock()
			for k := range modules {
				modules[k] = true
			}
			modulesMu.Unlock()
		default:
			EnableModule(m)
		}
	}
}

func isModuleEnabled(module string) bool {
	modulesMu.RLock()
	defer modulesMu.RUnlock()
	return modules[module]
}

// Debug logs at debug level if the module is enabled.
func Debug(module string, msg string, ctx ...any) {
	if !isModuleEnabled(module) {
		return
	}
	write(slog.LevelDebug, module, msg, ctx)
}

func Info(module string, msg string, ctx ...any) {
	write(slog.LevelInfo, module, msg, ctx)
}

func Warn(module string, msg string, ctx ...any) {
	write(slog.LevelWarn, module, msg, ctx)
}

func write(level slog.Level, module, msg string, ctx []any) {
	l := Root()
	if !l.Enabled(context.Background(), level) {
		return
	}
	l.Log(context.Background(), level, msg, append([]any{"module", module}, ctx...)...)
}
