package ui

import (
	"sync"

	"fyne.io/systray"
	"github.com/yllada/revelation-indicator/applet"
	"github.com/yllada/revelation-indicator/common"
)

// TrayIndicator manages the status icon and its menu. It implements
// applet.Indicator; menu clicks are posted to the controller loop.
type TrayIndicator struct {
	app *Application

	mu            sync.Mutex
	ready         bool
	locked        bool
	unlockEnabled bool
	menu          []*applet.MenuItem

	databaseItem *systray.MenuItem
	unlockItem   *systray.MenuItem
	lockItem     *systray.MenuItem
	entryItems   []*systray.MenuItem
	// entriesDone stops the click listeners of the current entry items.
	entriesDone chan struct{}
}

var _ applet.Indicator = (*TrayIndicator)(nil)

// NewTrayIndicator creates a new system tray indicator.
func NewTrayIndicator(app *Application) *TrayIndicator {
	return &TrayIndicator{app: app, locked: true}
}

// Run starts the system tray indicator.
// This should be called from a goroutine as it blocks.
func (t *TrayIndicator) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon.
func (t *TrayIndicator) Quit() {
	systray.Quit()
}

// onReady is called when the systray is ready.
func (t *TrayIndicator) onReady() {
	systray.SetIcon(iconLocked)
	systray.SetTitle(common.AppName)
	systray.SetTooltip(common.AppName + " - Locked")

	t.mu.Lock()
	defer t.mu.Unlock()

	t.databaseItem = systray.AddMenuItem("Database", "Entries of the open file")
	t.listen(t.databaseItem, func() { t.post(t.app.Controller().Touch) }, nil)

	systray.AddSeparator()

	t.unlockItem = systray.AddMenuItem("Unlock File", "Open the configured data file")
	t.listen(t.unlockItem, func() {
		t.post(func() { t.app.Controller().Unlock() })
	}, nil)

	t.lockItem = systray.AddMenuItem("Lock File", "Close the open data file")
	t.listen(t.lockItem, func() { t.post(t.app.Controller().Close) }, nil)

	systray.AddSeparator()

	prefsItem := systray.AddMenuItem("Preferences", "Edit the applet settings")
	t.listen(prefsItem, func() { t.post(t.app.Controller().ShowPreferences) }, nil)

	aboutItem := systray.AddMenuItem("About", "About "+common.AppName)
	t.listen(aboutItem, func() {
		t.post(func() {
			t.app.Controller().Touch()
			t.app.dialogs.ShowAbout()
		})
	}, nil)

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Close "+common.AppName)
	t.listen(quitItem, t.app.Quit, nil)

	t.ready = true
	t.applyLocked()
	t.applyMenu()
}

// onExit is called when the systray is about to exit.
func (t *TrayIndicator) onExit() {
	t.mu.Lock()
	t.ready = false
	t.stopEntriesLocked()
	t.mu.Unlock()
	common.LogInfo("Tray indicator cleanup completed")
}

// listen runs fn for each click on item until done is closed.
func (t *TrayIndicator) listen(item *systray.MenuItem, fn func(), done <-chan struct{}) {
	go func() {
		for {
			select {
			case <-item.ClickedCh:
				t.guard(fn)
			case <-done:
				return
			}
		}
	}()
}

func (t *TrayIndicator) post(fn func()) {
	if c := t.app.Controller(); c != nil {
		c.Post(fn)
	}
}

// guard runs a click handler, reporting a panic through the controller.
func (t *TrayIndicator) guard(fn func()) {
	if c := t.app.Controller(); c != nil {
		c.Guard(fn)
		return
	}
	fn()
}

// SetLocked shows the locked icon and the Unlock item.
func (t *TrayIndicator) SetLocked() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locked = true
	t.applyLocked()
}

// SetUnlocked shows the unlocked icon and the Lock item.
func (t *TrayIndicator) SetUnlocked() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locked = false
	t.applyLocked()
}

// SetUnlockEnabled sets the sensitivity of the Unlock item.
func (t *TrayIndicator) SetUnlockEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unlockEnabled = enabled
	t.applyLocked()
}

func (t *TrayIndicator) applyLocked() {
	if !t.ready {
		return
	}
	if t.locked {
		systray.SetIcon(iconLocked)
		systray.SetTooltip(common.AppName + " - Locked")
		t.unlockItem.Show()
		t.lockItem.Hide()
		t.databaseItem.Disable()
	} else {
		systray.SetIcon(iconUnlocked)
		systray.SetTooltip(common.AppName + " - Unlocked")
		t.unlockItem.Hide()
		t.lockItem.Show()
		t.databaseItem.Enable()
	}
	if t.unlockEnabled {
		t.unlockItem.Enable()
	} else {
		t.unlockItem.Disable()
	}
}

// SetDatabaseMenu replaces the entries of the Database submenu.
func (t *TrayIndicator) SetDatabaseMenu(items []*applet.MenuItem) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.menu = items
	t.applyMenu()
}

// ClearDatabaseMenu removes every entry from the Database submenu.
func (t *TrayIndicator) ClearDatabaseMenu() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.menu = nil
	t.applyMenu()
}

func (t *TrayIndicator) applyMenu() {
	if !t.ready {
		return
	}
	t.stopEntriesLocked()

	t.entriesDone = make(chan struct{})
	t.addEntries(t.databaseItem, t.menu)
	if len(t.menu) == 0 {
		t.databaseItem.Disable()
	}
}

func (t *TrayIndicator) addEntries(parent *systray.MenuItem, items []*applet.MenuItem) {
	for _, item := range items {
		mi := parent.AddSubMenuItem(item.Label, item.Entry.TypeName())
		t.entryItems = append(t.entryItems, mi)

		item := item
		t.listen(mi, func() {
			t.post(func() { t.app.Controller().Activate(item) })
		}, t.entriesDone)

		if item.IsSubmenu() {
			t.addEntries(mi, item.Children)
		}
	}
}

func (t *TrayIndicator) stopEntriesLocked() {
	if t.entriesDone != nil {
		close(t.entriesDone)
		t.entriesDone = nil
	}
	for i := len(t.entryItems) - 1; i >= 0; i-- {
		t.entryItems[i].Remove()
	}
	t.entryItems = nil
}
