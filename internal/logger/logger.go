// Package logger is a small levelled logger with key=value fields and
// size/age based file rotation. Console output goes to stderr so it never
// mixes with command output or the TUI.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level, defaulting to INFO
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// F is a shorthand for creating a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Config holds logger configuration
type Config struct {
	Level      Level  // Minimum log level
	FilePath   string // Path to log file, empty for none
	MaxSize    int64  // Max size in bytes before rotation (default: 10MB)
	MaxAge     int    // Max age in days (default: 7)
	MaxBackups int    // Max number of backup files (default: 5)
	Console    bool   // Mirror entries to stderr
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	logPath := ""
	if home != "" {
		logPath = filepath.Join(home, ".wbs", "logs", "wbs.log")
	}

	return Config{
		Level:      INFO,
		FilePath:   logPath,
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxAge:     7,
		MaxBackups: 5,
		Console:    false, // Keeps the TUI clean
	}
}

// output is shared by a logger and every logger derived from it
type output struct {
	mu      sync.Mutex
	config  Config
	file    *os.File
	console io.Writer
}

// Logger is the main logger instance
type Logger struct {
	out    *output
	fields []Field
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Init initializes the global logger. Only the first call has any effect.
func Init(config Config) error {
	var err error
	once.Do(func() {
		globalLogger, err = New(config)
	})
	return err
}

// New creates a new logger instance
func New(config Config) (*Logger, error) {
	if config.MaxSize <= 0 {
		config.MaxSize = DefaultConfig().MaxSize
	}
	out := &output{config: config}
	if config.Console {
		out.console = os.Stderr
	}

	if config.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out.file = file

		if err := out.rotateIfNeeded(); err != nil {
			return nil, err
		}
	}

	return &Logger{out: out}, nil
}

// rotateIfNeeded must be called with o.mu held
func (o *output) rotateIfNeeded() error {
	if o.file == nil {
		return nil
	}

	info, err := o.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() >= o.config.MaxSize {
		return o.rotate()
	}
	if o.config.MaxAge > 0 && info.Size() > 0 && time.Since(info.ModTime()) > time.Duration(o.config.MaxAge)*24*time.Hour {
		return o.rotate()
	}
	return nil
}

// rotate shifts wbs.log.N to wbs.log.N+1 and starts a fresh file.
// Must be called with o.mu held.
func (o *output) rotate() error {
	if o.file != nil {
		o.file.Close()
	}

	path := o.config.FilePath
	if o.config.MaxBackups > 0 {
		os.Remove(fmt.Sprintf("%s.%d", path, o.config.MaxBackups))
		for i := o.config.MaxBackups - 1; i >= 1; i-- {
			os.Rename(fmt.Sprintf("%s.%d", path, i), fmt.Sprintf("%s.%d", path, i+1))
		}
		if _, err := os.Stat(path); err == nil {
			if err := os.Rename(path, path+".1"); err != nil {
				return err
			}
		}
	} else {
		os.Remove(path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		o.file = nil
		return err
	}
	o.file = file
	return nil
}

func (o *output) write(entry string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.rotateIfNeeded()
	if o.file != nil {
		o.file.WriteString(entry)
	}
	if o.console != nil {
		io.WriteString(o.console, entry)
	}
}

// log writes a log entry. depth counts frames from log to the caller being
// reported.
func (l *Logger) log(depth int, level Level, msg string, fields []Field) {
	if level < l.out.config.Level {
		return
	}

	_, file, line, ok := runtime.Caller(depth)
	caller := "???"
	if ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s: %s", time.Now().Format("2006-01-02 15:04:05.000"), level, caller, msg)
	if len(l.fields)+len(fields) > 0 {
		b.WriteString(" |")
		for _, f := range l.fields {
			fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
		}
		for _, f := range fields {
			fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
		}
	}
	b.WriteByte('\n')

	l.out.write(b.String())
}

// WithFields creates a new logger with preset fields
func (l *Logger) WithFields(fields ...Field) *Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{out: l.out, fields: merged}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) {
	l.log(2, DEBUG, msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) {
	l.log(2, INFO, msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(2, WARN, msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Field) {
	l.log(2, ERROR, msg, fields)
}

// Close closes the log file
func (l *Logger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if l.out.file != nil {
		err := l.out.file.Close()
		l.out.file = nil
		return err
	}
	return nil
}

// Global logger functions

// Debug logs a debug message using the global logger
func Debug(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.log(2, DEBUG, msg, fields)
	}
}

// Info logs an info message using the global logger
func Info(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.log(2, INFO, msg, fields)
	}
}

// Warn logs a warning message using the global logger
func Warn(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.log(2, WARN, msg, fields)
	}
}

// Error logs an error message using the global logger
func Error(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.log(2, ERROR, msg, fields)
	}
}

// WithFields creates a new logger with preset fields using the global logger
func WithFields(fields ...Field) *Logger {
	if globalLogger != nil {
		return globalLogger.WithFields(fields...)
	}
	return nil
}

// Close closes the global logger
func Close() error {
	if globalLogger != nil {
		return globalLogger.Close()
	}
	return nil
}

// GetConfig returns the current logger configuration
func GetConfig() Config {
	if globalLogger != nil {
		return globalLogger.out.config
	}
	return DefaultConfig()
}
