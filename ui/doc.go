// Package ui provides the graphical user interface for Revelation Indicator.
//
// This package implements the tray applet on top of the applet controller:
//
//   - System tray indicator with the Database menu
//   - Password, error and diagnostic dialogs
//   - Entry detail popup with secret reveal, copy and one-time codes
//   - Preferences window bound to the configuration registry
//   - Desktop notifications
//
// # Architecture
//
// The UI is built on GTK4 using the gotk4 bindings, with libadwaita for
// the application and about window. The controller runs on its own
// goroutine; Dialogs implements applet.Presenter and TrayIndicator
// implements applet.Indicator.
//
// # Thread Safety
//
// GTK operations must execute on the main thread. Presenter methods
// schedule their work with glib.IdleAdd() and block the controller
// goroutine until the GTK main thread has answered, which gives dialogs
// modal semantics without blocking the main loop.
//
// Example:
//
//	answer := make(chan int, 1)
//	glib.IdleAdd(func() {
//	    messageWindow(icon, title, body, "", buttons, func(i int) { answer <- i })
//	})
//	<-answer
//
// # File Organization
//
//   - app.go: Application lifecycle and wiring
//   - tray.go: System tray indicator
//   - dialogs.go: Message, password, exception and about dialogs
//   - entry_view.go: Entry detail popup
//   - preferences.go: Preferences window
//   - icons.go: Padlock icon generation for the tray
//   - styles.go: CSS styling and theme support
//   - notifications.go: Desktop notification integration
package ui
