package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/evanschultz/tackboard/internal/config"
)

// defaultDevLogDir is relative to the nearest go.mod or .git ancestor.
const defaultDevLogDir = ".tackboard/log"

// runtimeLogger writes styled lines to the console and, in dev mode, logfmt lines to a rotating file.
type runtimeLogger struct {
	console *charmLog.Logger
	file    *charmLog.Logger
	rotator *lumberjack.Logger
	muted   bool
}

// newRuntimeLogger builds the console sink and, when dev mode enables it, the rotating file sink.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, cfg config.LoggingConfig) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}
	l := &runtimeLogger{console: newSink(stderr, appName, level, charmLog.TextFormatter)}
	if !devMode || !cfg.DevFile.Enabled {
		return l, nil
	}

	path, err := devLogFilePath(cfg.DevFile.Dir, appName)
	if err != nil {
		return nil, fmt.Errorf("resolve dev log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	l.rotator = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.DevFile.MaxSizeMB,
		MaxBackups: cfg.DevFile.MaxBackups,
		LocalTime:  true,
	}
	l.file = newSink(l.rotator, appName, level, charmLog.LogfmtFormatter)
	return l, nil
}

func newSink(w io.Writer, prefix string, level charmLog.Level, f charmLog.Formatter) *charmLog.Logger {
	return charmLog.NewWithOptions(w, charmLog.Options{
		Level:           level,
		Prefix:          prefix,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       f,
	})
}

// DevLogPath is empty unless the file sink is active.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil || l.rotator == nil {
		return ""
	}
	return l.rotator.Filename
}

// Close flushes and closes the rotating file.
func (l *runtimeLogger) Close() error {
	if l == nil || l.rotator == nil {
		return nil
	}
	return l.rotator.Close()
}

// SetConsoleEnabled mutes the console while a full-screen program owns the terminal.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l != nil {
		l.muted = !enabled
	}
}

func (l *runtimeLogger) consoleActive() bool {
	return l != nil && !l.muted
}

// SetLevel applies level to every sink.
func (l *runtimeLogger) SetLevel(raw string) error {
	level, err := charmLog.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("parse logging level %q: %w", raw, err)
	}
	l.each(func(sink *charmLog.Logger) { sink.SetLevel(level) }, true)
	return nil
}

// primary returns the sink handed to components that take a single logger: the console when it
// is enabled, else the dev file, else a discard logger.
func (l *runtimeLogger) primary() *charmLog.Logger {
	switch {
	case l.consoleActive():
		return l.console
	case l != nil && l.file != nil:
		return l.file
	default:
		return charmLog.New(io.Discard)
	}
}

func (l *runtimeLogger) Debug(msg string, kv ...any) {
	l.each(func(s *charmLog.Logger) { s.Debug(msg, kv...) }, false)
}

func (l *runtimeLogger) Info(msg string, kv ...any) {
	l.each(func(s *charmLog.Logger) { s.Info(msg, kv...) }, false)
}

func (l *runtimeLogger) Warn(msg string, kv ...any) {
	l.each(func(s *charmLog.Logger) { s.Warn(msg, kv...) }, false)
}

func (l *runtimeLogger) Error(msg string, kv ...any) {
	l.each(func(s *charmLog.Logger) { s.Error(msg, kv...) }, false)
}

// each calls fn for the file sink and the console; a muted console is skipped unless all is set.
func (l *runtimeLogger) each(fn func(*charmLog.Logger), all bool) {
	if l == nil {
		return
	}
	if l.console != nil && (all || !l.muted) {
		fn(l.console)
	}
	if l.file != nil {
		fn(l.file)
	}
}

// devLogFilePath places relative dirs under the workspace root so every subcommand shares one file.
func devLogFilePath(dir, appName string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = defaultDevLogDir
	}
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working dir: %w", err)
		}
		dir = filepath.Join(workspaceRootFrom(cwd), dir)
	}
	return filepath.Join(filepath.Clean(dir), sanitizeLogFileStem(appName)+".log"), nil
}

// workspaceRootFrom walks up from start to the first dir holding go.mod or .git; start itself when none does.
func workspaceRootFrom(start string) string {
	start = filepath.Clean(strings.TrimSpace(start))
	for dir := start; ; {
		if hasWorkspaceMarker(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

func hasWorkspaceMarker(dir string) bool {
	for _, marker := range []string{"go.mod", ".git"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// sanitizeLogFileStem turns an app name into one file-name segment.
func sanitizeLogFileStem(appName string) string {
	stem := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, strings.TrimSpace(appName))
	if stem = strings.Trim(stem, "-"); stem == "" {
		return "tackboard"
	}
	return stem
}
