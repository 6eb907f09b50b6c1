package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// zerolog maps the level onto its zerolog counterpart.
func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	}
	return zerolog.NoLevel
}

// LogConfig holds configuration options for the logger.
type LogConfig struct {
	Level       LogLevel
	EnableFile  bool
	MaxFileSize int64 // in bytes, default 5MB
	MaxBackups  int   // number of rotated files to keep, default 5
}

const (
	defaultMaxFileSize = 5 * 1024 * 1024
	defaultMaxBackups  = 5
	logTimeFormat      = "2006/01/02 15:04:05"
)

// AppLogger writes leveled records through zerolog to the console and,
// once enabled, to a size-rotated file.
type AppLogger struct {
	mu     sync.Mutex
	level  LogLevel
	logger zerolog.Logger
	// output is the console sink.
	output io.Writer
	file   *rotatingFile

	maxFileSize int64
	maxBackups  int
}

var (
	defaultLogger *AppLogger
	loggerOnce    sync.Once
)

// newZerolog renders records in the applet's line format:
// "2006/01/02 15:04:05 [INFO] file.go:42 > message".
func newZerolog(w io.Writer) zerolog.Logger {
	console := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: logTimeFormat,
		FormatLevel: func(i interface{}) string {
			return "[" + strings.ToUpper(fmt.Sprint(i)) + "]"
		},
	}
	return zerolog.New(console).With().Timestamp().Logger()
}

// GetLogger returns the process-wide logger, creating it on first use.
func GetLogger() *AppLogger {
	loggerOnce.Do(func() {
		defaultLogger = &AppLogger{
			level:       LevelInfo,
			output:      os.Stdout,
			logger:      newZerolog(os.Stdout),
			maxFileSize: defaultMaxFileSize,
			maxBackups:  defaultMaxBackups,
		}
	})
	return defaultLogger
}

// InitLogger applies config to the default logger.
func InitLogger(config LogConfig) error {
	l := GetLogger()
	l.SetLevel(config.Level)

	l.mu.Lock()
	if config.MaxFileSize > 0 {
		l.maxFileSize = config.MaxFileSize
	}
	if config.MaxBackups > 0 {
		l.maxBackups = config.MaxBackups
	}
	l.mu.Unlock()

	if !config.EnableFile {
		return nil
	}
	return l.EnableFileLogging()
}

// SetLevel sets the minimum log level.
func (l *AppLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// SetOutput replaces the console sink. The log file, if any, is kept.
func (l *AppLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
	l.rebuildLocked()
}

func (l *AppLogger) rebuildLocked() {
	var w io.Writer = l.output
	if w == nil {
		w = io.Discard
	}
	if l.file != nil {
		w = io.MultiWriter(w, l.file)
	}
	l.logger = newZerolog(w)
}

// EnableFileLogging additionally writes records to the application log
// file under GetLogDir.
func (l *AppLogger) EnableFileLogging() error {
	dir := GetLogDir()
	if dir == "" {
		return fmt.Errorf("cannot determine log directory")
	}
	if isSymlink(dir) {
		return fmt.Errorf("security error: log directory is a symlink")
	}
	if err := EnsureDir(dir); err != nil {
		return err
	}
	return l.openFile(filepath.Join(dir, LogFileName))
}

func (l *AppLogger) openFile(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rf, err := openRotatingFile(path, l.maxFileSize, l.maxBackups)
	if err != nil {
		return err
	}
	if l.file != nil {
		l.file.Close()
	}
	l.file = rf
	l.rebuildLocked()
	return nil
}

// Close closes the log file. Should be called on application shutdown.
func (l *AppLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.rebuildLocked()
	return err
}

// log writes one record attributed to the caller skip frames up.
func (l *AppLogger) log(skip int, level LogLevel, msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	caller := "???"
	if _, file, line, ok := runtime.Caller(skip); ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	l.logger.WithLevel(level.zerolog()).
		Str(zerolog.CallerFieldName, caller).
		Msg(msg)
}

// Debug logs a debug message.
func (l *AppLogger) Debug(msg string, args ...interface{}) { l.log(2, LevelDebug, msg, args...) }

// Info logs an informational message.
func (l *AppLogger) Info(msg string, args ...interface{}) { l.log(2, LevelInfo, msg, args...) }

// Warn logs a warning message.
func (l *AppLogger) Warn(msg string, args ...interface{}) { l.log(2, LevelWarn, msg, args...) }

// Error logs an error message.
func (l *AppLogger) Error(msg string, args ...interface{}) { l.log(2, LevelError, msg, args...) }

// LogDebug logs a debug message to the default logger.
func LogDebug(msg string, args ...interface{}) { GetLogger().log(2, LevelDebug, msg, args...) }

// LogInfo logs an info message to the default logger.
func LogInfo(msg string, args ...interface{}) { GetLogger().log(2, LevelInfo, msg, args...) }

// LogWarn logs a warning message to the default logger.
func LogWarn(msg string, args ...interface{}) { GetLogger().log(2, LevelWarn, msg, args...) }

// LogError logs an error message to the default logger.
func LogError(msg string, args ...interface{}) { GetLogger().log(2, LevelError, msg, args...) }

// CloseLogger closes the default logger.
func CloseLogger() error {
	return GetLogger().Close()
}

var _ Logger = (*AppLogger)(nil)
