// Package obslog provides structured, session-scoped logging for the
// runtime's core components, adapted from the teacher's pkg/logging:
// every process gets one log file per run, named after a process-wide
// session ID, with components tagging their own lines.
package obslog

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger writes leveled, timestamped lines tagged with a component name.
type Logger struct {
	sessionID string
	component string
	file      *os.File
	logger    *log.Logger
	mu        sync.Mutex
	logPath   string
	closeOnce sync.Once
	debug     bool
}

var (
	processSessionID     string
	processSessionIDOnce sync.Once

	logDir     string
	initOnce   sync.Once
	initErr    error
)

func getProcessSessionID() string {
	processSessionIDOnce.Do(func() {
		processSessionID = uuid.New().String()
	})
	return processSessionID
}

func resolveLogDir() error {
	initOnce.Do(func() {
		dir := os.Getenv("BROWSER_LOG_DIR")
		if dir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				initErr = fmt.Errorf("resolve home directory: %w", err)
				return
			}
			dir = filepath.Join(homeDir, ".voyager", "logs")
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			initErr = fmt.Errorf("create log directory %s: %w", dir, err)
			return
		}
		logDir = dir
	})
	return initErr
}

// New creates a logger for the given component, writing to
// BROWSER_LOG_DIR/<session-id>-voyager.log (shared across components in one
// process). Falls back to stderr, returning the error alongside the logger,
// if the directory or file can't be created.
func New(component string) (*Logger, error) {
	debug := strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug")

	if err := resolveLogDir(); err != nil {
		return fallback(component, debug, err), err
	}

	sessID := getProcessSessionID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-voyager.log", sessID))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fallback(component, debug, fmt.Errorf("open log file: %w", err)), err
	}

	return &Logger{
		sessionID: sessID,
		component: component,
		file:      file,
		logger:    log.New(file, "", 0),
		logPath:   logPath,
		debug:     debug,
	}, nil
}

func fallback(component string, debug bool, cause error) *Logger {
	l := log.New(os.Stderr, fmt.Sprintf("[%s] ", component), log.LstdFlags)
	l.Printf("WARNING: file logging unavailable (%v), falling back to stderr", cause)
	return &Logger{
		sessionID: getProcessSessionID(),
		component: component,
		logger:    l,
		debug:     debug,
	}
}

func (l *Logger) format(level, message string) string {
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	return fmt.Sprintf("[%s] [%s] [%s] %s", ts, l.component, level, message)
}

func (l *Logger) write(level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Println(l.format(level, fmt.Sprintf(format, v...)))
}

// Debugf logs at debug level; only emitted when LOG_LEVEL=debug.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if !l.debug {
		return
	}
	l.write("DEBUG", format, v...)
}

func (l *Logger) Infof(format string, v ...interface{})  { l.write("INFO", format, v...) }
func (l *Logger) Warnf(format string, v ...interface{})  { l.write("WARN", format, v...) }
func (l *Logger) Errorf(format string, v ...interface{}) { l.write("ERROR", format, v...) }

// Writer exposes the underlying sink for components that need an io.Writer.
func (l *Logger) Writer() io.Writer {
	if l.file != nil {
		return l.file
	}
	return os.Stderr
}

func (l *Logger) SessionID() string { return l.sessionID }
func (l *Logger) LogPath() string   { return l.logPath }

// Close closes the underlying file. Safe to call multiple times or on a
// stderr-fallback logger.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}
