package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/yllada/revelation-indicator/common"
	"github.com/yllada/revelation-indicator/entry"
)

// PasswordFunc asks the user for the password of a data file. It returns
// common.ErrCancelled when the user dismisses the prompt.
type PasswordFunc func() (string, error)

// DataFile tracks the currently open data file and the password that
// unlocked it, and reports when the file changes on disk.
type DataFile struct {
	mu       sync.Mutex
	path     string
	password string
	watcher  *fsnotify.Watcher
	onChange func()
	pending  *time.Timer
	debounce time.Duration
}

// NewDataFile creates a DataFile with no file open.
func NewDataFile() *DataFile {
	return &DataFile{debounce: common.ChangeDebounce}
}

// OnContentChanged registers fn to be called, from a background goroutine,
// after the open file has been modified on disk.
func (f *DataFile) OnContentChanged(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onChange = fn
}

// File returns the path of the open file, or "" when none is open.
func (f *DataFile) File() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.path
}

// Password returns the password that unlocked the open file.
func (f *DataFile) Password() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.password
}

// Load reads and decrypts the file at path. When password is empty, prompt
// is called once the file is known to be a data file. On success the file
// becomes the open file and is watched for changes.
func (f *DataFile) Load(path, password string, prompt PasswordFunc) (*entry.Store, error) {
	abs, err := filepath.Abs(common.ExpandHome(path))
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	if _, err := ParseHeader(data); err != nil {
		return nil, err
	}

	if password == "" && prompt != nil {
		password, err = prompt()
		if err != nil {
			return nil, err
		}
	}

	store, err := Decode(data, password)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.password = password
	if f.path != abs || f.watcher == nil {
		f.stopWatchLocked()
		f.path = abs
		if err := f.startWatchLocked(); err != nil {
			common.LogWarn("Cannot watch %s for changes: %v", abs, err)
		}
	}
	return store, nil
}

// Close forgets the open file and its password.
func (f *DataFile) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopWatchLocked()
	f.path = ""
	f.password = ""
}

// startWatchLocked watches the file's directory, since editors and
// our own Save replace files by renaming over them.
func (f *DataFile) startWatchLocked() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return err
	}
	f.watcher = watcher
	go f.watch(watcher, f.path)
	return nil
}

func (f *DataFile) stopWatchLocked() {
	if f.pending != nil {
		f.pending.Stop()
		f.pending = nil
	}
	if f.watcher != nil {
		f.watcher.Close()
		f.watcher = nil
	}
}

func (f *DataFile) watch(watcher *fsnotify.Watcher, path string) {
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				f.schedule(watcher)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			common.LogWarn("File watcher error for %s: %v", path, err)
		}
	}
}

// schedule coalesces events arriving within the debounce window.
func (f *DataFile) schedule(watcher *fsnotify.Watcher) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watcher != watcher {
		return
	}
	if f.pending != nil {
		f.pending.Stop()
	}
	f.pending = time.AfterFunc(f.debounce, func() {
		f.mu.Lock()
		fn := f.onChange
		current := f.watcher == watcher
		f.mu.Unlock()
		if current && fn != nil {
			common.LogDebug("Data file changed on disk")
			fn()
		}
	})
}

// Save encrypts store with password and atomically replaces the file at
// path.
func Save(path string, store *entry.Store, password string, p Params) error {
	data, err := Encode(store, password, p)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
