package common

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("LogLevel.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLogLevel_Zerolog(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{LogLevel(99), zerolog.NoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			if got := tt.level.zerolog(); got != tt.expected {
				t.Errorf("LogLevel.zerolog() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppLogger_SetLevel(t *testing.T) {
	logger := &AppLogger{
		level: LevelInfo,
	}

	logger.SetLevel(LevelDebug)
	if logger.level != LevelDebug {
		t.Errorf("SetLevel did not update level, got %v, want %v", logger.level, LevelDebug)
	}
}

func TestAppLogger_LogFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger := &AppLogger{
		level:  LevelWarn,
		output: &buf,
	}
	logger.logger = newZerolog(&buf)

	// Debug and Info should be filtered
	logger.Debug("debug message")
	logger.Info("info message")

	if buf.Len() > 0 {
		t.Error("Debug/Info messages should be filtered when level is Warn")
	}

	logger.Warn("warn message")
	if !strings.Contains(buf.String(), "[WARN]") {
		t.Errorf("Warn message should be logged, got %q", buf.String())
	}

	buf.Reset()
	logger.Error("error message")
	if !strings.Contains(buf.String(), "[ERROR]") {
		t.Errorf("Error message should be logged, got %q", buf.String())
	}
}

func TestAppLogger_LogFormatting(t *testing.T) {
	var buf bytes.Buffer

	logger := &AppLogger{
		level:  LevelDebug,
		output: &buf,
	}
	logger.logger = newZerolog(&buf)

	logger.Info("Test message with %s", "formatting")

	output := buf.String()

	if !strings.Contains(output, time.Now().Format("2006/01/02")) {
		t.Error("Log should contain date in YYYY/MM/DD format")
	}

	if !strings.Contains(output, "[INFO]") {
		t.Error("Log should contain level indicator")
	}

	if !strings.Contains(output, "Test message with formatting") {
		t.Error("Log should contain formatted message")
	}

	if !strings.Contains(output, "logger_test.go") {
		t.Error("Log should contain the calling file")
	}
}

func TestAppLogger_SetOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := &AppLogger{level: LevelInfo}
	logger.SetOutput(&buf)

	logger.Info("redirected")
	if !strings.Contains(buf.String(), "redirected") {
		t.Errorf("SetOutput should redirect records, got %q", buf.String())
	}
}

func TestDefaultLogConfig(t *testing.T) {
	if defaultMaxFileSize != 5*1024*1024 {
		t.Errorf("defaultMaxFileSize = %v, want 5MB", defaultMaxFileSize)
	}

	if defaultMaxBackups != 5 {
		t.Errorf("defaultMaxBackups = %v, want 5", defaultMaxBackups)
	}
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.HasSuffix(dir, ConfigDirName) {
		t.Errorf("GetConfigDir() = %v, should end with %v", dir, ConfigDirName)
	}

	if !FileExists(dir) {
		t.Error("GetConfigDir() should create the directory")
	}
}

func TestFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.rvl")
	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	if !FileExists(path) {
		t.Error("FileExists() should return true for existing file")
	}

	if FileExists("/nonexistent/path/to/file") {
		t.Error("FileExists() should return false for non-existing file")
	}
}

func TestExpandAndShortenHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in       string
		expanded string
	}{
		{"~/secrets.rvl", filepath.Join(home, "secrets.rvl")},
		{"~", home},
		{"/etc/passwords", "/etc/passwords"},
		{"relative/file", "relative/file"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ExpandHome(tt.in); got != tt.expanded {
				t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.expanded)
			}
		})
	}

	if got := ShortenHome(filepath.Join(home, "db.rvl")); got != "~/db.rvl" {
		t.Errorf("ShortenHome() = %q, want ~/db.rvl", got)
	}
	if got := ShortenHome(home + "other/db.rvl"); got != home+"other/db.rvl" {
		t.Errorf("ShortenHome() should not shorten sibling directories, got %q", got)
	}
}

func TestWrapError(t *testing.T) {
	wrapped := WrapError(ErrCancelled, "additional context")

	if wrapped == nil {
		t.Fatal("WrapError should return non-nil error")
	}

	if !strings.Contains(wrapped.Error(), "additional context") {
		t.Error("WrapError should include additional context")
	}

	if !errors.Is(wrapped, ErrCancelled) {
		t.Error("WrapError should keep the wrapped error reachable")
	}

	if WrapError(nil, "context") != nil {
		t.Error("WrapError(nil) should return nil")
	}
}

func TestOpenRotatingFile_RotatesLargeFile(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "test.log")

	largeContent := strings.Repeat("x", 1024*1024) // 1MB
	if err := os.WriteFile(logFile, []byte(largeContent), 0600); err != nil {
		t.Fatal(err)
	}

	rf, err := openRotatingFile(logFile, 512*1024, 2)
	if err != nil {
		t.Fatalf("openRotatingFile() error = %v", err)
	}
	defer rf.Close()

	info, err := os.Stat(logFile)
	if err != nil || info.Size() != 0 {
		t.Error("log file should start empty after rotation")
	}

	matches, _ := filepath.Glob(filepath.Join(tempDir, "test.log.*.gz"))
	if len(matches) != 1 {
		t.Errorf("found %d compressed backups, want 1", len(matches))
	}
}

func TestRotatingFile_RotatesOnWrite(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "app.log")

	rf, err := openRotatingFile(logFile, 100, 5)
	if err != nil {
		t.Fatalf("openRotatingFile() error = %v", err)
	}
	defer rf.Close()

	line := []byte(strings.Repeat("y", 60) + "\n")
	for i := 0; i < 2; i++ {
		if _, err := rf.Write(line); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, line) {
		t.Errorf("log file holds %d bytes, want only the last line", len(data))
	}
	if matches, _ := filepath.Glob(logFile + ".*"); len(matches) != 1 {
		t.Errorf("found %d backups, want 1", len(matches))
	}
}

func TestRotatingFile_WriteAfterClose(t *testing.T) {
	rf, err := openRotatingFile(filepath.Join(t.TempDir(), "app.log"), 1024, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := rf.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := rf.Write([]byte("late")); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Write() after Close error = %v, want os.ErrClosed", err)
	}
}

func TestOpenRotatingFile_RefusesSymlink(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "elsewhere")
	link := filepath.Join(tempDir, "app.log")
	if err := os.WriteFile(target, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if _, err := openRotatingFile(link, 1024, 1); err == nil {
		t.Error("openRotatingFile() should refuse symlinked log files")
	}
}

func TestAppLogger_FileSink(t *testing.T) {
	var console bytes.Buffer
	logger := &AppLogger{level: LevelInfo, maxFileSize: 1024 * 1024, maxBackups: 1}
	logger.SetOutput(&console)

	path := filepath.Join(t.TempDir(), "app.log")
	if err := logger.openFile(path); err != nil {
		t.Fatalf("openFile() error = %v", err)
	}
	logger.Info("to both sinks")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	logger.Info("console only")

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "to both sinks") || strings.Contains(string(data), "console only") {
		t.Errorf("log file content = %q", data)
	}
	if !strings.Contains(console.String(), "console only") {
		t.Errorf("console content = %q", console.String())
	}
}

func TestPruneBackups(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "app.log")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		path := filepath.Join(tempDir, "app.log."+string(rune('a'+i))+".gz")
		if err := os.WriteFile(path, []byte("old"), 0600); err != nil {
			t.Fatal(err)
		}
		stamp := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, stamp, stamp); err != nil {
			t.Fatal(err)
		}
	}

	pruneBackups(logFile, 2)

	matches, _ := filepath.Glob(logFile + ".*")
	if len(matches) != 2 {
		t.Fatalf("pruneBackups kept %d files, want 2", len(matches))
	}
	if FileExists(filepath.Join(tempDir, "app.log.a.gz")) {
		t.Error("pruneBackups should remove the oldest backup first")
	}
}
