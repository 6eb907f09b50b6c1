package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
)

// rotatingFile is an append-only log file. Once a write would grow it past
// maxSize the file is compressed into a timestamped backup and started
// afresh; at most maxBackups backups are kept.
type rotatingFile struct {
	mu         sync.Mutex
	path       string
	maxSize    int64
	maxBackups int
	file       *os.File
	size       int64
}

// openRotatingFile opens path for appending, rotating it first when it is
// already over maxSize.
func openRotatingFile(path string, maxSize int64, maxBackups int) (*rotatingFile, error) {
	if isSymlink(filepath.Dir(path)) || isSymlink(path) {
		return nil, fmt.Errorf("security error: log location %s is a symlink", path)
	}

	rf := &rotatingFile{path: path, maxSize: maxSize, maxBackups: maxBackups}
	if info, err := os.Stat(path); err == nil && info.Size() >= maxSize {
		rf.rotate()
	}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (rf *rotatingFile) open() error {
	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	rf.file = f
	rf.size = info.Size()
	return nil
}

// Write appends p, rotating beforehand when needed.
func (rf *rotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return 0, os.ErrClosed
	}
	if rf.size > 0 && rf.size+int64(len(p)) > rf.maxSize {
		rf.file.Close()
		rf.file = nil
		rf.rotate()
		if err := rf.open(); err != nil {
			return 0, err
		}
	}

	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

// Close closes the file. Later writes fail with os.ErrClosed.
func (rf *rotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}

// rotate moves the closed log file into a backup.
func (rf *rotatingFile) rotate() {
	backup := fmt.Sprintf("%s.%s.gz", rf.path, time.Now().Format("20060102-150405.000"))
	if err := gzipFile(rf.path, backup); err != nil {
		os.Remove(backup)
		os.Rename(rf.path, strings.TrimSuffix(backup, ".gz"))
	} else {
		os.Remove(rf.path)
	}
	pruneBackups(rf.path, rf.maxBackups)
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// pruneBackups removes the oldest backups of path beyond keep.
func pruneBackups(path string, keep int) {
	backups, err := filepath.Glob(path + ".*")
	if err != nil || len(backups) <= keep {
		return
	}

	modTime := make(map[string]time.Time, len(backups))
	for _, b := range backups {
		if info, err := os.Stat(b); err == nil {
			modTime[b] = info.ModTime()
		}
	}
	sort.Slice(backups, func(i, j int) bool {
		return modTime[backups[i]].Before(modTime[backups[j]])
	})

	for _, b := range backups[:len(backups)-keep] {
		os.Remove(b)
	}
}

// isSymlink reports whether path is a symbolic link. Missing paths are not.
func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}

// GetLogDir returns the log directory path.
func GetLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", ConfigDirName, "logs")
}
