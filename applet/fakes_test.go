package applet

import (
	"time"

	"github.com/yllada/revelation-indicator/common"
	"github.com/yllada/revelation-indicator/entry"
	"github.com/yllada/revelation-indicator/vault"
)

// fakeData serves a store for files whose password matches.
type fakeData struct {
	files    map[string]string // path -> password
	errs     map[string]error
	store    *entry.Store
	path     string
	password string
	onChange func()
	loads    int
}

func (d *fakeData) Load(path, password string, prompt vault.PasswordFunc) (*entry.Store, error) {
	d.loads++
	if err, ok := d.errs[path]; ok {
		return nil, err
	}
	want, ok := d.files[path]
	if !ok {
		return nil, common.WrapError(vault.ErrFormat, path)
	}
	if password == "" && prompt != nil {
		var err error
		if password, err = prompt(); err != nil {
			return nil, err
		}
	}
	if password != want {
		return nil, vault.ErrPassword
	}
	d.path, d.password = path, password
	return d.store, nil
}

func (d *fakeData) Close()                     { d.path, d.password = "", "" }
func (d *fakeData) File() string               { return d.path }
func (d *fakeData) Password() string           { return d.password }
func (d *fakeData) OnContentChanged(fn func()) { d.onChange = fn }

// fakePresenter answers prompts from a queue and records every call.
type fakePresenter struct {
	passwords    []string
	prompts      []string
	errors       []string
	shown        []*entry.Entry
	closes       int
	prefs        int
	promptActive bool
	wantPrefs    bool
	fileAsks     int
	exceptions   []string
	keepGoing    bool
}

func (p *fakePresenter) ShowError(title, message string) { p.errors = append(p.errors, title) }

func (p *fakePresenter) AskFileNotSelected() bool {
	p.fileAsks++
	return p.wantPrefs
}

func (p *fakePresenter) AskPassword(filename string) (string, error) {
	p.prompts = append(p.prompts, filename)
	if len(p.passwords) == 0 {
		return "", common.ErrCancelled
	}
	pw := p.passwords[0]
	p.passwords = p.passwords[1:]
	return pw, nil
}

func (p *fakePresenter) PresentPasswordPrompt() bool { return p.promptActive }
func (p *fakePresenter) ShowEntry(e *entry.Entry)    { p.shown = append(p.shown, e) }
func (p *fakePresenter) ClosePopups()                { p.closes++ }
func (p *fakePresenter) ShowPreferences()            { p.prefs++ }

func (p *fakePresenter) ShowException(report string) bool {
	p.exceptions = append(p.exceptions, report)
	return p.keepGoing
}

type fakeIndicator struct {
	locked        bool
	menu          []*MenuItem
	unlockEnabled bool
}

func (i *fakeIndicator) SetLocked()                        { i.locked = true }
func (i *fakeIndicator) SetUnlocked()                      { i.locked = false }
func (i *fakeIndicator) SetDatabaseMenu(items []*MenuItem) { i.menu = items }
func (i *fakeIndicator) ClearDatabaseMenu()                { i.menu = nil }
func (i *fakeIndicator) SetUnlockEnabled(enabled bool)     { i.unlockEnabled = enabled }

type fakeSettings struct {
	file             string
	autolock         bool
	timeout          int
	rememberPassword bool
	monitors         map[string][]func()
}

func (s *fakeSettings) File() string           { return s.file }
func (s *fakeSettings) Autolock() bool         { return s.autolock }
func (s *fakeSettings) AutolockTimeout() int   { return s.timeout }
func (s *fakeSettings) RememberPassword() bool { return s.rememberPassword }

func (s *fakeSettings) Monitor(key string, fn func()) {
	if s.monitors == nil {
		s.monitors = make(map[string][]func())
	}
	s.monitors[key] = append(s.monitors[key], fn)
}

func (s *fakeSettings) fire(key string) {
	for _, fn := range s.monitors[key] {
		fn()
	}
}

type fakeNotifier struct{ sent []string }

func (n *fakeNotifier) Notify(title, message string) error {
	n.sent = append(n.sent, message)
	return nil
}

func (n *fakeNotifier) NotifyWithIcon(title, message, icon string) error {
	return n.Notify(title, message)
}

type fakeCreds struct {
	secrets map[string]string
	deleted []string
	// deleteErr makes Delete fail and keep the secret.
	deleteErr error
}

func (c *fakeCreds) Store(key, secret string) error {
	c.secrets[key] = secret
	return nil
}

func (c *fakeCreds) Get(key string) (string, error) {
	s, ok := c.secrets[key]
	if !ok {
		return "", common.ErrCredentialsNotFound
	}
	return s, nil
}

func (c *fakeCreds) Delete(key string) error {
	c.deleted = append(c.deleted, key)
	if c.deleteErr != nil {
		return c.deleteErr
	}
	delete(c.secrets, key)
	return nil
}

func (c *fakeCreds) Clear() error {
	c.secrets = map[string]string{}
	return nil
}

// fakeClock replaces time.AfterFunc for the autolock timer.
type fakeClock struct {
	timers []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *fakeClock) afterFunc(d time.Duration, fn func()) stopper {
	t := &fakeTimer{d: d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// active returns the pending timer, or nil.
func (c *fakeClock) active() *fakeTimer {
	for i := len(c.timers) - 1; i >= 0; i-- {
		if !c.timers[i].stopped {
			return c.timers[i]
		}
	}
	return nil
}
