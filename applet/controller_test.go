package applet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/yllada/revelation-indicator/common"
	"github.com/yllada/revelation-indicator/config"
	"github.com/yllada/revelation-indicator/entry"
	"github.com/yllada/revelation-indicator/vault"
)

const dbPath = "/data/passwords.rvl"

type fixture struct {
	c         *Controller
	data      *fakeData
	presenter *fakePresenter
	indicator *fakeIndicator
	settings  *fakeSettings
	notifier  *fakeNotifier
	creds     *fakeCreds
	clock     *fakeClock
	quits     int
}

func sampleStore(t *testing.T) *entry.Store {
	t.Helper()
	mail := entry.NewFolder("Mail")
	acct, err := entry.New(entry.TypeEmail, "Personal")
	if err != nil {
		t.Fatal(err)
	}
	acct.SetField("password", "s3cret")
	mail.Children = append(mail.Children, acct)

	site, _ := entry.New(entry.TypeWebsite, "Forge")
	return entry.NewStore(mail, site)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		data: &fakeData{
			files: map[string]string{dbPath: "pw"},
			errs:  map[string]error{},
			store: sampleStore(t),
		},
		presenter: &fakePresenter{keepGoing: true},
		indicator: &fakeIndicator{},
		settings:  &fakeSettings{file: dbPath, autolock: true, timeout: 10},
		notifier:  &fakeNotifier{},
		creds:     &fakeCreds{secrets: map[string]string{}},
		clock:     &fakeClock{},
	}
	f.c = NewController(Options{
		Data:        f.data,
		Presenter:   f.presenter,
		Indicator:   f.indicator,
		Settings:    f.settings,
		Notifier:    f.notifier,
		Credentials: f.creds,
		Quit:        func() { f.quits++ },
	})
	f.c.timer.after = f.clock.afterFunc
	return f
}

// drain runs the work posted to the controller loop.
func (f *fixture) drain() {
	for {
		select {
		case fn := <-f.c.events:
			f.c.dispatch(fn)
		default:
			return
		}
	}
}

func TestOpen_Unlocks(t *testing.T) {
	f := newFixture(t)

	if !f.c.Open(dbPath, "pw") {
		t.Fatal("Open() = false, want true")
	}

	if f.c.State() != Unlocked {
		t.Errorf("State() = %v, want unlocked", f.c.State())
	}
	if len(f.indicator.menu) != 2 {
		t.Errorf("menu has %d top-level items, want 2", len(f.indicator.menu))
	}
	if f.indicator.locked {
		t.Error("indicator should show the unlocked icon")
	}
	if f.c.Store().Len() != 3 {
		t.Errorf("store holds %d entries, want 3", f.c.Store().Len())
	}
	timer := f.clock.active()
	if timer == nil || timer.d != 10*time.Minute {
		t.Errorf("autolock timer = %+v, want a 10m countdown", timer)
	}
	if f.presenter.closes == 0 {
		t.Error("Open() should close popups")
	}
	if len(f.presenter.prompts) != 0 {
		t.Error("no prompt expected when the password is given")
	}
}

func TestOpen_WrongPasswordRepromptsOnce(t *testing.T) {
	f := newFixture(t)
	f.presenter.passwords = []string{"bad", "worse", "pw"}

	if f.c.Open(dbPath, "") {
		t.Fatal("Open() = true after two wrong passwords")
	}

	if len(f.presenter.prompts) != 2 {
		t.Errorf("prompted %d times, want 2", len(f.presenter.prompts))
	}
	if f.presenter.prompts[0] != "passwords.rvl" {
		t.Errorf("prompt names %q, want the file base name", f.presenter.prompts[0])
	}
	if len(f.presenter.errors) != 2 || f.presenter.errors[0] != "Incorrect password" {
		t.Errorf("dialogs = %v", f.presenter.errors)
	}
	if f.c.State() != Locked {
		t.Error("session should stay locked")
	}
}

func TestOpen_WrongGivenPasswordThenCorrect(t *testing.T) {
	f := newFixture(t)
	f.presenter.passwords = []string{"pw"}

	if !f.c.Open(dbPath, "typo") {
		t.Fatal("Open() = false, want the re-prompt to unlock")
	}
	if len(f.presenter.prompts) != 1 {
		t.Errorf("prompted %d times, want 1", len(f.presenter.prompts))
	}
	if len(f.presenter.errors) != 1 {
		t.Errorf("dialogs = %v, want one incorrect password dialog", f.presenter.errors)
	}
}

func TestOpen_ErrorDialogs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"format", vault.ErrFormat, "Invalid file format"},
		{"data", fmt.Errorf("%w: bad yaml", vault.ErrData), "Unknown data"},
		{"entry type", entry.ErrEntryType, "Unknown data"},
		{"entry field", fmt.Errorf("wrapped: %w", entry.ErrEntryField), "Unknown data"},
		{"version", vault.ErrVersion, "Unknown data version"},
		{"missing", &os.PathError{Op: "open", Path: dbPath, Err: os.ErrNotExist}, "Unable to open file"},
		{"permission", &os.PathError{Op: "open", Path: dbPath, Err: os.ErrPermission}, "Unable to open file"},
		{"unclassified", errors.New("boom"), "Unable to open file"},
		{"cancelled", common.ErrCancelled, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.data.errs[dbPath] = tt.err

			if f.c.Open(dbPath, "pw") {
				t.Fatal("Open() = true on failure")
			}
			if tt.want == "" {
				if len(f.presenter.errors) != 0 {
					t.Errorf("dialogs = %v, want none", f.presenter.errors)
				}
			} else if len(f.presenter.errors) != 1 || f.presenter.errors[0] != tt.want {
				t.Errorf("dialogs = %v, want [%s]", f.presenter.errors, tt.want)
			}
			if f.c.State() != Locked {
				t.Error("session should stay locked")
			}
			if f.clock.active() != nil {
				t.Error("autolock timer should not run after a failed open")
			}
		})
	}
}

func TestDescribeError_MentionsFile(t *testing.T) {
	_, msg, ok := DescribeError("/x/y.rvl", vault.ErrFormat)
	if !ok || msg != "The file '/x/y.rvl' contains invalid data." {
		t.Errorf("DescribeError() = %q, %v", msg, ok)
	}
	if _, _, ok := DescribeError("f", nil); ok {
		t.Error("nil errors are not reported")
	}
}

func TestOpen_NoFileOrActivePrompt(t *testing.T) {
	f := newFixture(t)

	if f.c.Open("", "pw") {
		t.Error("Open(\"\") = true")
	}

	f.presenter.promptActive = true
	if f.c.Open(dbPath, "") {
		t.Error("Open() = true while a prompt is on screen")
	}

	if f.data.loads != 0 {
		t.Errorf("loader called %d times, want 0", f.data.loads)
	}
	if len(f.presenter.errors) != 0 {
		t.Errorf("dialogs = %v, want none", f.presenter.errors)
	}
}

func TestClose_AlwaysLocks(t *testing.T) {
	for _, unlocked := range []bool{false, true} {
		f := newFixture(t)
		if unlocked {
			f.c.Open(dbPath, "pw")
		}

		f.c.Close()

		if f.c.State() != Locked {
			t.Errorf("unlocked=%v: State() = %v after Close", unlocked, f.c.State())
		}
		if f.c.Store().Len() != 0 {
			t.Errorf("unlocked=%v: store holds %d entries after Close", unlocked, f.c.Store().Len())
		}
		if f.indicator.menu != nil || !f.indicator.locked {
			t.Errorf("unlocked=%v: indicator not reset", unlocked)
		}
		if f.data.File() != "" {
			t.Errorf("unlocked=%v: data file still open", unlocked)
		}
		if f.clock.active() != nil {
			t.Errorf("unlocked=%v: timer still running", unlocked)
		}
		if !f.indicator.unlockEnabled {
			t.Errorf("unlocked=%v: unlock should be enabled with a configured file", unlocked)
		}
	}
}

func TestAutolock_FiresWhileUnlocked(t *testing.T) {
	f := newFixture(t)
	f.c.Open(dbPath, "pw")

	f.clock.active().fn()
	f.drain()

	if f.c.State() != Locked {
		t.Error("autolock should lock an unlocked session")
	}
	if f.c.Store().Len() != 0 {
		t.Error("autolock should clear the entry store")
	}
	if len(f.notifier.sent) != 1 {
		t.Errorf("notifications = %v, want one", f.notifier.sent)
	}
}

func TestAutolock_NoopWhileLocked(t *testing.T) {
	f := newFixture(t)

	f.c.AutolockFired()

	if f.c.State() != Locked {
		t.Error("State() changed")
	}
	if f.data.loads != 0 || f.presenter.closes != 0 {
		t.Error("autolock while locked should do nothing")
	}
	if len(f.notifier.sent) != 0 {
		t.Error("no notification expected while locked")
	}
}

func TestAutolock_Disabled(t *testing.T) {
	f := newFixture(t)
	f.settings.autolock = false
	f.c.Open(dbPath, "pw")

	f.clock.active().fn()
	f.drain()

	if f.c.State() != Unlocked {
		t.Fatal("disabled autolock should keep the session unlocked")
	}
	if !f.c.timer.Running() {
		t.Fatal("timer stopped after expiring with autolock disabled")
	}

	f.settings.autolock = true
	f.c.Touch()
	if !f.c.timer.Running() {
		t.Fatal("Touch() should keep the countdown running once autolock is enabled")
	}

	f.clock.active().fn()
	f.drain()
	if f.c.State() != Locked {
		t.Error("re-enabled autolock should lock the session")
	}
}

func TestScreenLocked(t *testing.T) {
	f := newFixture(t)
	f.c.Open(dbPath, "pw")

	f.c.ScreenLocked()

	if f.c.State() != Locked {
		t.Error("screen lock should lock the session")
	}
}

func TestTouch_ResetsCountdown(t *testing.T) {
	f := newFixture(t)
	f.c.Open(dbPath, "pw")
	first := f.clock.active()

	f.c.Touch()

	second := f.clock.active()
	if !first.stopped {
		t.Error("Touch() should cancel the pending countdown")
	}
	if second == first || second.d != first.d {
		t.Errorf("Touch() should restart a full countdown, got %+v", second)
	}

	// A ring from the cancelled countdown must not lock.
	first.fn()
	f.drain()
	if f.c.State() != Unlocked {
		t.Error("stale countdown locked the session")
	}
}

func TestMenuInteractionsTouch(t *testing.T) {
	f := newFixture(t)
	f.c.Open(dbPath, "pw")
	folder, account := f.indicator.menu[0], f.indicator.menu[0].Children[0]

	before := len(f.clock.timers)
	f.c.Activate(folder)
	if len(f.clock.timers) != before+1 {
		t.Error("opening a folder should reset the countdown")
	}
	if len(f.presenter.shown) != 0 {
		t.Error("folders do not open the entry popup")
	}

	f.c.Activate(account)
	if len(f.presenter.shown) != 1 || f.presenter.shown[0].Name != "Personal" {
		t.Errorf("shown = %v", f.presenter.shown)
	}

	closes := f.presenter.closes
	f.c.ShowEntry(account.Entry)
	if f.presenter.closes != closes+1 {
		t.Error("ShowEntry() should close other popups first")
	}

	before = len(f.clock.timers)
	f.c.ShowPreferences()
	if f.presenter.prefs != 1 || len(f.clock.timers) != before+1 {
		t.Error("ShowPreferences() should open preferences and reset the countdown")
	}
}

func TestTouch_LockedStartsNothing(t *testing.T) {
	f := newFixture(t)
	f.c.Touch()
	if len(f.clock.timers) != 0 {
		t.Error("Touch() while locked should not start a countdown")
	}
}

func TestContentChanged(t *testing.T) {
	t.Run("reload", func(t *testing.T) {
		f := newFixture(t)
		f.c.Open(dbPath, "pw")
		f.data.store = entry.NewStore(entry.NewFolder("Only"))

		f.data.onChange()
		f.drain()

		if len(f.indicator.menu) != 1 || f.indicator.menu[0].Label != "Only" {
			t.Errorf("menu not rebuilt: %v", f.indicator.menu)
		}
		if f.c.State() != Unlocked {
			t.Error("reload should keep the session unlocked")
		}
	})

	t.Run("password changed", func(t *testing.T) {
		f := newFixture(t)
		f.c.Open(dbPath, "pw")
		f.data.files[dbPath] = "new"

		f.c.ContentChanged()

		if f.c.State() != Locked {
			t.Error("password error on reload should lock")
		}
		if len(f.presenter.errors) != 0 {
			t.Errorf("dialogs = %v, want none", f.presenter.errors)
		}
	})

	t.Run("corrupt", func(t *testing.T) {
		f := newFixture(t)
		f.c.Open(dbPath, "pw")
		f.data.errs[dbPath] = vault.ErrData

		f.c.ContentChanged()

		if f.c.State() != Unlocked || len(f.indicator.menu) != 2 {
			t.Error("data errors on reload should keep the current entries")
		}
	})

	t.Run("locked", func(t *testing.T) {
		f := newFixture(t)
		f.c.ContentChanged()
		if f.data.loads != 0 {
			t.Error("nothing to reload while locked")
		}
	})
}

func TestSettingsMonitors(t *testing.T) {
	f := newFixture(t)
	f.c.Open(dbPath, "pw")

	f.settings.timeout = 3
	f.settings.fire(config.KeyAutolockTimeout)
	f.drain()
	if timer := f.clock.active(); timer == nil || timer.d != 3*time.Minute {
		t.Errorf("timer = %+v, want a 3m countdown", timer)
	}

	f.settings.file = ""
	f.settings.fire(config.KeyFile)
	f.drain()
	if f.indicator.unlockEnabled {
		t.Error("unlock should be disabled without a configured file")
	}
}

func TestSettingsMonitors_TimeoutWhileLocked(t *testing.T) {
	f := newFixture(t)
	f.settings.fire(config.KeyAutolockTimeout)
	f.drain()
	if len(f.clock.timers) != 0 {
		t.Error("timeout changes should not start a countdown while locked")
	}
}

func TestUnlock(t *testing.T) {
	t.Run("configured file", func(t *testing.T) {
		f := newFixture(t)
		f.presenter.passwords = []string{"pw"}
		if !f.c.Unlock() {
			t.Fatal("Unlock() = false")
		}
		if !f.c.Unlock() {
			t.Error("Unlock() of an open file should succeed")
		}
		if f.data.loads != 1 {
			t.Errorf("loads = %d, want 1", f.data.loads)
		}
	})

	t.Run("no file", func(t *testing.T) {
		f := newFixture(t)
		f.settings.file = ""
		f.presenter.wantPrefs = true

		if f.c.Unlock() {
			t.Error("Unlock() without a file = true")
		}
		if f.presenter.fileAsks != 1 || f.presenter.prefs != 1 {
			t.Errorf("fileAsks=%d prefs=%d, want 1 and 1", f.presenter.fileAsks, f.presenter.prefs)
		}
	})

	t.Run("no file declined", func(t *testing.T) {
		f := newFixture(t)
		f.settings.file = ""
		f.c.Unlock()
		if f.presenter.prefs != 0 {
			t.Error("preferences opened without being asked")
		}
	})
}

func TestPasswordCache(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t)
		f.c.Open(dbPath, "pw")
		if len(f.creds.secrets) != 0 {
			t.Error("passwords stored while remember_password is off")
		}
	})

	t.Run("remembered", func(t *testing.T) {
		f := newFixture(t)
		f.settings.rememberPassword = true
		f.c.Open(dbPath, "pw")
		if f.creds.secrets[dbPath] != "pw" {
			t.Fatalf("secrets = %v", f.creds.secrets)
		}

		f.c.Close()
		if !f.c.Open(dbPath, "") {
			t.Fatal("Open() with a remembered password failed")
		}
		if len(f.presenter.prompts) != 0 {
			t.Error("remembered password should skip the prompt")
		}
	})

	t.Run("stale", func(t *testing.T) {
		f := newFixture(t)
		f.settings.rememberPassword = true
		f.creds.secrets[dbPath] = "old"
		f.presenter.passwords = []string{"bad", "pw"}

		if !f.c.Open(dbPath, "") {
			t.Fatal("Open() = false, the stale password should not use up the re-prompt")
		}
		if len(f.creds.deleted) != 1 {
			t.Error("stale password should be deleted")
		}
		if len(f.presenter.prompts) != 2 {
			t.Errorf("prompted %d times, want 2", len(f.presenter.prompts))
		}
		if f.creds.secrets[dbPath] != "pw" {
			t.Error("new password should be remembered")
		}
	})

	t.Run("stale, keyring unavailable", func(t *testing.T) {
		f := newFixture(t)
		f.settings.rememberPassword = true
		f.creds.secrets[dbPath] = "old"
		f.creds.deleteErr = errors.New("secret service unavailable")
		f.presenter.passwords = []string{"pw"}

		if !f.c.Open(dbPath, "") {
			t.Fatal("Open() = false, want the prompted password to unlock")
		}
		if len(f.creds.deleted) != 1 {
			t.Errorf("Delete() called %d times, want 1", len(f.creds.deleted))
		}
		if len(f.presenter.prompts) != 1 {
			t.Errorf("prompted %d times, want 1", len(f.presenter.prompts))
		}
	})
}

func TestLoad_NoFile(t *testing.T) {
	f := newFixture(t)
	if err := f.c.load("", "pw"); !errors.Is(err, common.ErrNoFile) {
		t.Errorf("load() = %v, want ErrNoFile", err)
	}
	if f.c.Open("", "pw") {
		t.Error("Open() without a file should fail")
	}
	if len(f.presenter.errors) != 0 {
		t.Error("a missing file should not show an error dialog")
	}
}

func TestRun_RecoversPanics(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- f.c.Run(ctx) }()

	done := make(chan struct{})
	f.c.Post(func() { panic("kaboom") })
	f.c.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop stopped after a recovered panic")
	}

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if len(f.presenter.exceptions) != 1 {
		t.Errorf("exception dialogs = %d, want 1", len(f.presenter.exceptions))
	}
	if f.quits != 0 {
		t.Error("Continue should not quit")
	}
}

func TestRun_QuitAfterPanic(t *testing.T) {
	f := newFixture(t)
	f.presenter.keepGoing = false

	errc := make(chan error, 1)
	go func() { errc <- f.c.Run(context.Background()) }()
	f.c.Post(func() { panic(errors.New("boom")) })

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after Quit")
	}
	if f.quits != 1 {
		t.Errorf("quit called %d times, want 1", f.quits)
	}

	// Posting after the loop stopped must not block.
	f.c.Post(func() {})
}

func TestGuard_ReportsPanics(t *testing.T) {
	f := newFixture(t)

	f.c.Guard(func() { panic("listener failed") })
	if len(f.presenter.exceptions) != 0 {
		t.Fatal("the exception dialog should be shown from the loop")
	}
	f.drain()

	if len(f.presenter.exceptions) != 1 {
		t.Fatalf("exception dialogs = %d, want 1", len(f.presenter.exceptions))
	}
	if !f.c.dispatch(func() {}) {
		t.Error("Continue should keep the loop going")
	}

	ran := false
	f.c.Guard(func() { ran = true })
	f.drain()
	if !ran || len(f.presenter.exceptions) != 1 {
		t.Error("Guard() should run fn and report nothing when it returns")
	}
}

func TestGuard_QuitStopsLoop(t *testing.T) {
	f := newFixture(t)
	f.presenter.keepGoing = false

	errc := make(chan error, 1)
	go func() { errc <- f.c.Run(context.Background()) }()
	go f.c.Guard(func() { panic(errors.New("callback failed")) })

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after Quit")
	}
	if f.quits != 1 {
		t.Errorf("quit called %d times, want 1", f.quits)
	}
}
