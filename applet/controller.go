// Package applet implements the tray applet controller: the Locked/Unlocked
// session lifecycle, the autolock timer, menu regeneration from the entry
// store and the mapping of load failures to user-facing dialogs.
package applet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/yllada/revelation-indicator/common"
	"github.com/yllada/revelation-indicator/config"
	"github.com/yllada/revelation-indicator/entry"
	"github.com/yllada/revelation-indicator/vault"
)

// DataFile loads and tracks the open data file.
type DataFile interface {
	Load(path, password string, prompt vault.PasswordFunc) (*entry.Store, error)
	Close()
	File() string
	Password() string
	OnContentChanged(fn func())
}

// Presenter shows dialogs and popups. Every method blocks until the
// dialog is answered or the popup is shown.
type Presenter interface {
	// ShowError shows a modal error message.
	ShowError(title, message string)
	// AskFileNotSelected explains that no data file is configured and
	// reports whether the user asked to open the preferences.
	AskFileNotSelected() bool
	// AskPassword asks for the password of the named file. It returns
	// common.ErrCancelled when dismissed.
	AskPassword(filename string) (string, error)
	// PresentPasswordPrompt raises an already visible password prompt and
	// reports whether there was one.
	PresentPasswordPrompt() bool
	// ShowEntry opens the detail popup for e.
	ShowEntry(e *entry.Entry)
	// ClosePopups closes every open popup.
	ClosePopups()
	// ShowPreferences opens the preferences window, or raises it.
	ShowPreferences()
	// ShowException shows a diagnostic report of an unexpected failure
	// and reports whether the user chose to continue.
	ShowException(report string) bool
}

// Indicator is the status icon and its menu.
type Indicator interface {
	SetLocked()
	SetUnlocked()
	SetDatabaseMenu(items []*MenuItem)
	ClearDatabaseMenu()
	SetUnlockEnabled(enabled bool)
}

// Settings is the configuration the controller reads and monitors.
type Settings interface {
	File() string
	Autolock() bool
	AutolockTimeout() int
	RememberPassword() bool
	Monitor(key string, fn func())
}

// Options holds the collaborators of a Controller. Notifier, Credentials
// and Quit are optional.
type Options struct {
	Data        DataFile
	Presenter   Presenter
	Indicator   Indicator
	Settings    Settings
	Notifier    common.Notifier
	Credentials common.CredentialStore
	// Quit is called when the user chooses to quit after a failure.
	Quit func()
}

// Controller owns the session. Its methods must run on the controller
// loop; other goroutines hand work to it with Post.
type Controller struct {
	data      DataFile
	presenter Presenter
	indicator Indicator
	settings  Settings
	notifier  common.Notifier
	creds     common.CredentialStore
	quit      func()

	store *entry.Store
	state State
	timer *Timer

	events chan func()
	done   chan struct{}
	// stop is set when a failure outside the loop was answered with Quit.
	stop bool
}

// NewController creates a locked controller and subscribes it to file and
// configuration changes.
func NewController(opts Options) *Controller {
	c := &Controller{
		data:      opts.Data,
		presenter: opts.Presenter,
		indicator: opts.Indicator,
		settings:  opts.Settings,
		notifier:  opts.Notifier,
		creds:     opts.Credentials,
		quit:      opts.Quit,
		store:     entry.NewStore(),
		state:     Locked,
		events:    make(chan func(), 64),
		done:      make(chan struct{}),
	}
	c.timer = NewTimer(func() { c.Post(c.AutolockFired) })

	c.data.OnContentChanged(func() { c.Post(c.ContentChanged) })
	c.settings.Monitor(config.KeyAutolockTimeout, func() { c.Post(c.autolockTimeoutChanged) })
	c.settings.Monitor(config.KeyFile, func() { c.Post(c.fileChanged) })

	c.indicator.SetLocked()
	c.indicator.SetUnlockEnabled(c.settings.File() != "")
	return c
}

// State returns the session state.
func (c *Controller) State() State {
	return c.state
}

// Store returns the entry store backing the menu.
func (c *Controller) Store() *entry.Store {
	return c.store
}

// Post queues fn to run on the controller loop. It does not block once
// the loop has stopped.
func (c *Controller) Post(fn func()) {
	select {
	case c.events <- fn:
	case <-c.done:
	}
}

// Run processes posted work until ctx is cancelled or the user quits
// after a failure.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			c.timer.Stop()
			return ctx.Err()
		case fn := <-c.events:
			if !c.dispatch(fn) {
				c.timer.Stop()
				if c.quit != nil {
					c.quit()
				}
				return nil
			}
		}
	}
}

// dispatch runs fn and reports whether the loop should keep going.
func (c *Controller) dispatch(fn func()) (keepGoing bool) {
	defer func() {
		if r := recover(); r != nil {
			keepGoing = c.presenter.ShowException(crashReport(r))
		}
	}()
	fn()
	return !c.stop
}

// Guard runs fn on the calling goroutine. A panic in fn is reported
// through the loop like one raised by posted work.
func (c *Controller) Guard(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			report := crashReport(r)
			c.Post(func() {
				c.stop = !c.presenter.ShowException(report)
			})
		}
	}()
	fn()
}

func crashReport(r any) string {
	report := fmt.Sprintf("%v\n\n%s", r, debug.Stack())
	common.LogError("Unexpected failure: %s", report)
	return report
}

// Open loads file, prompting for a password when none is given and none
// is remembered. It reports whether the session is now unlocked.
func (c *Controller) Open(file, password string) bool {
	common.LogDebug("Opening database file")
	return c.open(file, password, true, true)
}

// open loads file once. A remembered password is only tried when useCache
// is set, so every retry below prompts.
func (c *Controller) open(file, password string, retry, useCache bool) bool {
	cached := false
	if password == "" && useCache {
		password, cached = c.cachedPassword(file)
	}

	err := c.load(file, password)
	if err == nil {
		c.rememberPassword(file)
		return true
	}
	if errors.Is(err, common.ErrNoFile) || errors.Is(err, common.ErrPromptActive) {
		return false
	}

	if cached && errors.Is(err, vault.ErrPassword) {
		common.LogInfo("Remembered password for %s is no longer valid", filepath.Base(file))
		c.forgetPassword(file)
		return c.open(file, "", retry, false)
	}

	c.report(file, err)
	if retry && errors.Is(err, vault.ErrPassword) {
		return c.open(file, "", false, false)
	}
	return false
}

// load reads file and, on success, unlocks the session with its entries.
func (c *Controller) load(file, password string) error {
	if file == "" {
		common.LogDebug("No database file provided")
		return common.ErrNoFile
	}
	if c.presenter.PresentPasswordPrompt() {
		common.LogDebug("Password dialog already opened")
		return common.ErrPromptActive
	}

	name := filepath.Base(file)
	store, err := c.data.Load(file, password, func() (string, error) {
		return c.presenter.AskPassword(name)
	})
	if err != nil {
		return err
	}

	c.store.Clear()
	c.store.Import(store)
	c.indicator.SetDatabaseMenu(BuildMenu(c.store))
	c.state = Next(c.state, EventOpened)
	c.indicator.SetUnlocked()
	c.timer.Start(c.autolockDuration())
	c.presenter.ClosePopups()
	common.LogInfo("Unlocked %s (%d entries)", name, c.store.Len())
	return nil
}

// report shows the dialog matching err. Cancellation is silent.
func (c *Controller) report(file string, err error) {
	title, message, ok := DescribeError(file, err)
	if !ok {
		return
	}
	common.LogWarn("Failed to open %s: %v", file, err)
	c.presenter.ShowError(title, message)
}

// DescribeError maps a load failure to a dialog title and message. It
// returns false for errors that are not reported, like cancellation.
func DescribeError(file string, err error) (title, message string, ok bool) {
	switch {
	case err == nil, errors.Is(err, common.ErrCancelled):
		return "", "", false
	case errors.Is(err, vault.ErrFormat):
		return "Invalid file format",
			fmt.Sprintf("The file '%s' contains invalid data.", file), true
	case errors.Is(err, vault.ErrData), errors.Is(err, entry.ErrEntryType), errors.Is(err, entry.ErrEntryField):
		return "Unknown data",
			fmt.Sprintf("The file '%s' contains unknown data. It may have been created by a more recent version of Revelation.", file), true
	case errors.Is(err, vault.ErrPassword):
		return "Incorrect password",
			fmt.Sprintf("You entered an incorrect password for the file '%s', please try again.", file), true
	case errors.Is(err, vault.ErrVersion):
		return "Unknown data version",
			fmt.Sprintf("The file '%s' has a future version number, please upgrade Revelation to open it.", file), true
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		common.LogDebug("I/O error on %s: %v", pathErr.Path, pathErr.Err)
	}
	return "Unable to open file",
		fmt.Sprintf("The file '%s' could not be opened. Make sure that the file exists, and that you have permissions to open it.", file), true
}

// Close locks the session. It runs regardless of the current state.
func (c *Controller) Close() {
	c.close(EventClosed)
}

func (c *Controller) close(ev Event) {
	common.LogDebug("Closing database file (%s)", ev)
	c.presenter.ClosePopups()
	c.timer.Stop()
	c.data.Close()
	c.store.Clear()
	c.indicator.ClearDatabaseMenu()
	c.state = Next(c.state, ev)
	c.indicator.SetLocked()
	c.indicator.SetUnlockEnabled(c.settings.File() != "")
}

// Unlock opens the configured data file. Without one it explains how to
// select a file and opens the preferences on request.
func (c *Controller) Unlock() bool {
	if c.data.File() != "" {
		return true
	}
	if file := c.settings.File(); file != "" {
		return c.Open(file, "")
	}

	if c.presenter.AskFileNotSelected() {
		c.presenter.ShowPreferences()
	}
	return false
}

// ShowEntry opens the detail popup for e.
func (c *Controller) ShowEntry(e *entry.Entry) {
	c.timer.Reset()
	c.presenter.ClosePopups()
	c.presenter.ShowEntry(e)
}

// Activate handles a click on a database menu item.
func (c *Controller) Activate(item *MenuItem) {
	c.Touch()
	if item == nil || item.Entry == nil || item.IsSubmenu() {
		return
	}
	c.ShowEntry(item.Entry)
}

// ShowPreferences opens the preferences window.
func (c *Controller) ShowPreferences() {
	c.Touch()
	c.presenter.ShowPreferences()
}

// Touch records user interaction and restarts the autolock countdown.
func (c *Controller) Touch() {
	c.timer.Reset()
}

// AutolockFired locks an unlocked session when autolock is enabled.
func (c *Controller) AutolockFired() {
	if c.state != Unlocked {
		return
	}
	if !c.settings.Autolock() {
		common.LogDebug("Autolock timer expired with autolock disabled")
		// Keep counting so Touch has a timer to reset once autolock is back on.
		if !c.timer.Running() {
			c.timer.Start(c.autolockDuration())
		}
		return
	}

	name := filepath.Base(c.data.File())
	c.close(EventAutolockFired)
	common.LogInfo("Locked %s after inactivity", name)
	if c.notifier != nil {
		if err := c.notifier.NotifyWithIcon(common.AppName, fmt.Sprintf("%s was locked", name), common.IconLocked); err != nil {
			common.LogDebug("Notification failed: %v", err)
		}
	}
}

// ScreenLocked handles the session screensaver becoming active.
func (c *Controller) ScreenLocked() {
	common.LogDebug("Screen locked")
	c.AutolockFired()
}

// ContentChanged reloads the open file after it changed on disk. A password
// error locks the session; other failures keep the current entries.
func (c *Controller) ContentChanged() {
	file := c.data.File()
	if file == "" || c.state != Unlocked {
		return
	}

	err := c.load(file, c.data.Password())
	switch {
	case err == nil:
		common.LogInfo("Reloaded %s", filepath.Base(file))
	case errors.Is(err, vault.ErrPassword):
		c.close(EventReloadFailed)
	default:
		common.LogDebug("Ignoring reload failure: %v", err)
	}
}

func (c *Controller) autolockTimeoutChanged() {
	if c.timer.Running() {
		c.timer.Start(c.autolockDuration())
	}
}

func (c *Controller) fileChanged() {
	c.indicator.SetUnlockEnabled(c.settings.File() != "")
}

func (c *Controller) autolockDuration() time.Duration {
	return time.Duration(c.settings.AutolockTimeout()) * time.Minute
}

func (c *Controller) cachedPassword(file string) (string, bool) {
	if c.creds == nil || file == "" || !c.settings.RememberPassword() {
		return "", false
	}
	password, err := c.creds.Get(credentialKey(file))
	if err != nil || password == "" {
		return "", false
	}
	return password, true
}

func (c *Controller) rememberPassword(file string) {
	if c.creds == nil || !c.settings.RememberPassword() {
		return
	}
	if err := c.creds.Store(credentialKey(file), c.data.Password()); err != nil {
		common.LogWarn("Could not remember password: %v", err)
	}
}

func (c *Controller) forgetPassword(file string) {
	if c.creds == nil {
		return
	}
	if err := c.creds.Delete(credentialKey(file)); err != nil {
		common.LogDebug("Could not forget password: %v", err)
	}
}

func credentialKey(file string) string {
	if abs, err := filepath.Abs(common.ExpandHome(file)); err == nil {
		return abs
	}
	return file
}
