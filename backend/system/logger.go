package system

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes structured JSON lines to stdout and a daily log file.
type Logger struct {
	mu     sync.Mutex
	file   *os.File
	sugar  *zap.SugaredLogger
	level  zap.AtomicLevel
	logDir string
	date   string
	now    func() time.Time
}

// Global logger instance
var globalLogger *Logger

// fallback is used before InitLogger runs (and in tests).
var fallback = zap.NewNop().Sugar()

func init() {
	if l, err := zap.NewDevelopment(); err == nil {
		fallback = l.Sugar()
	}
}

// InitLogger initializes the global logger. level is one of
// debug, info, warn, error; anything else means info.
func InitLogger(logDir, level string) error {
	if logDir == "" {
		logDir = "./logs"
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &Logger{
		logDir: logDir,
		level:  zap.NewAtomicLevelAt(parseLevel(level)),
		now:    time.Now,
	}
	if err := l.rotateIfNeeded(); err != nil {
		return err
	}

	globalLogger = l
	return nil
}

func parseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// rotateIfNeeded opens a new file when the date changes.
func (l *Logger) rotateIfNeeded() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.now().Format("2006-01-02")
	if l.date == today && l.file != nil {
		return nil
	}

	logPath := filepath.Join(l.logDir, fmt.Sprintf("inteqt-%s.log", today))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)

	// Also write to stdout for the container/systemd journal
	core := zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), l.level),
		zapcore.NewCore(enc.Clone(), zapcore.AddSync(file), l.level),
	)

	if l.sugar != nil {
		_ = l.sugar.Sync()
	}
	if l.file != nil {
		l.file.Close()
	}

	l.file = file
	l.sugar = zap.New(core).Sugar()
	l.date = today
	return nil
}

// Log writes a log entry.
func (l *Logger) Log(level zapcore.Level, format string, args ...interface{}) {
	if l == nil {
		fallback.Logf(level, format, args...)
		return
	}

	_ = l.rotateIfNeeded()

	l.mu.Lock()
	s := l.sugar
	l.mu.Unlock()
	s.Logf(level, format, args...)
}

// Path returns the file currently written to.
func (l *Logger) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Package-level logging functions

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	globalLogger.Log(zapcore.DebugLevel, format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	globalLogger.Log(zapcore.InfoLevel, format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	globalLogger.Log(zapcore.WarnLevel, format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	globalLogger.Log(zapcore.ErrorLevel, format, args...)
}

// Close flushes and closes the logger
func Close() {
	if globalLogger == nil {
		return
	}
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	if globalLogger.sugar != nil {
		_ = globalLogger.sugar.Sync()
	}
	if globalLogger.file != nil {
		globalLogger.file.Close()
		globalLogger.file = nil
	}
}
