package ui

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/yllada/revelation-indicator/applet"
	"github.com/yllada/revelation-indicator/common"
	"github.com/yllada/revelation-indicator/config"
	"github.com/yllada/revelation-indicator/keyring"
	"github.com/yllada/revelation-indicator/screensaver"
	"github.com/yllada/revelation-indicator/vault"
)

// Application represents the tray applet process.
type Application struct {
	app         *adw.Application
	version     string
	config      *config.Registry
	data        *vault.DataFile
	controller  *applet.Controller
	tray        *TrayIndicator
	dialogs     *Dialogs
	screensaver *screensaver.Watcher
	initialFile string

	cancel   context.CancelFunc
	quitOnce sync.Once
}

// NewApplication creates the applet. file, when not empty, is opened at
// startup instead of the configured file.
func NewApplication(appID, version, file string) *Application {
	app := adw.NewApplication(appID, gio.ApplicationFlagsNone)

	cfg, err := config.Load()
	if err != nil {
		common.LogWarn("Using default configuration: %v", err)
		if cfg == nil {
			dir, _ := common.GetConfigDir()
			cfg = config.NewRegistry(filepath.Join(dir, common.ConfigFileName))
		}
	}

	application := &Application{
		app:         app,
		version:     version,
		config:      cfg,
		data:        vault.NewDataFile(),
		initialFile: file,
	}

	app.ConnectActivate(application.onActivate)
	return application
}

// Run runs the application
func (a *Application) Run(args []string) int {
	return a.app.Run(args)
}

// onActivate is called when the application is activated
func (a *Application) onActivate() {
	if a.controller != nil {
		a.controller.Post(func() { a.controller.Unlock() })
		return
	}
	// The applet has no main window.
	a.app.Hold()

	a.setupAppIcon()
	LoadStyles()

	dir, _ := common.GetConfigDir()
	a.dialogs = NewDialogs(a)
	a.tray = NewTrayIndicator(a)
	a.controller = applet.NewController(applet.Options{
		Data:        a.data,
		Presenter:   a.dialogs,
		Indicator:   a.tray,
		Settings:    a.config,
		Notifier:    NewDesktopNotifier(),
		Credentials: keyring.New(dir),
		Quit:        a.Quit,
	})

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go func() {
		if err := a.controller.Run(ctx); err != nil && ctx.Err() == nil {
			common.LogError("Controller stopped: %v", err)
		}
	}()
	go a.tray.Run()

	a.config.Watch()
	if w, err := screensaver.Watch(ctx, func() { a.controller.Post(a.controller.ScreenLocked) }); err != nil {
		common.LogWarn("Screen lock detection unavailable: %v", err)
	} else {
		a.screensaver = w
	}

	a.controller.Post(func() {
		if a.initialFile != "" {
			a.controller.Open(a.initialFile, "")
		} else if a.config.File() != "" {
			a.controller.Unlock()
		}
	})
}

// setupAppIcon adds the bundled icon directories to the icon theme.
func (a *Application) setupAppIcon() {
	display := gdk.DisplayGetDefault()
	if display == nil {
		return
	}

	iconTheme := gtk.IconThemeGetForDisplay(display)
	if iconTheme == nil {
		return
	}

	// GTK4 looks for theme subdirectories (like "hicolor") inside these paths
	if execPath, err := os.Executable(); err == nil {
		iconTheme.AddSearchPath(filepath.Join(filepath.Dir(execPath), "assets", "icons"))
	}
	if cwd, err := os.Getwd(); err == nil {
		iconTheme.AddSearchPath(filepath.Join(cwd, "assets", "icons"))
	}

	gtk.WindowSetDefaultIconName(common.IconUnlocked)
}

// Controller returns the applet controller.
func (a *Application) Controller() *applet.Controller {
	return a.controller
}

// Config returns the configuration registry.
func (a *Application) Config() *config.Registry {
	return a.config
}

// GetVersion returns the application version
func (a *Application) GetVersion() string {
	return a.version
}

// Quit locks the session and closes the application.
func (a *Application) Quit() {
	a.quitOnce.Do(func() {
		common.LogInfo("Quitting")
		if a.cancel != nil {
			a.cancel()
		}
		if a.screensaver != nil {
			a.screensaver.Close()
		}
		a.data.Close()
		if a.tray != nil {
			a.tray.Quit()
		}
		glib.IdleAdd(func() {
			a.app.Release()
			a.app.Quit()
		})
	})
}
