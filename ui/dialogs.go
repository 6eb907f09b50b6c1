package ui

import (
	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/yllada/revelation-indicator/applet"
	"github.com/yllada/revelation-indicator/common"
	"github.com/yllada/revelation-indicator/config"
	"github.com/yllada/revelation-indicator/entry"
)

// Dialogs implements applet.Presenter with GTK windows. Its exported
// methods are called from the controller loop and block until the GTK
// main thread has handled them; the fields are only touched on the GTK
// main thread.
type Dialogs struct {
	app *Application

	password *gtk.Window
	popup    *EntryView
	prefs    *PreferencesWindow
}

var _ applet.Presenter = (*Dialogs)(nil)

// NewDialogs creates the presenter and keeps an open preferences window in
// sync with the registry.
func NewDialogs(app *Application) *Dialogs {
	d := &Dialogs{app: app}
	for _, key := range config.Keys {
		app.config.Monitor(key, func() {
			glib.IdleAdd(func() {
				if d.prefs != nil {
					d.prefs.Sync()
				}
			})
		})
	}
	return d
}

// idleAdd schedules fn on the GTK main loop.
var idleAdd = func(fn func()) { glib.IdleAdd(fn) }

// onMain runs fn on the GTK main thread and waits for its result. A panic
// in fn is raised again on the calling goroutine.
func onMain[T any](fn func() T) T {
	type outcome struct {
		value T
		fault any
	}
	result := make(chan outcome, 1)
	idleAdd(func() {
		defer func() {
			if r := recover(); r != nil {
				result <- outcome{fault: r}
			}
		}()
		result <- outcome{value: fn()}
	})
	out := <-result
	if out.fault != nil {
		panic(out.fault)
	}
	return out.value
}

type dialogButton struct {
	label string
	style string
}

// messageWindow shows a message with buttons. respond receives the index
// of the chosen button, or -1 when the window is closed otherwise.
func messageWindow(icon, title, body, detail string, buttons []dialogButton, respond func(int)) *gtk.Window {
	window := gtk.NewWindow()
	window.SetTitle(title + " - " + common.AppName)
	window.SetModal(true)
	window.SetResizable(detail != "")
	if detail != "" {
		window.SetDefaultSize(640, 420)
	} else {
		window.SetDefaultSize(420, -1)
	}

	answered := false
	answer := func(i int) {
		if answered {
			return
		}
		answered = true
		respond(i)
	}

	mainBox := gtk.NewBox(gtk.OrientationVertical, 0)

	contentBox := gtk.NewBox(gtk.OrientationHorizontal, 16)
	contentBox.SetMarginTop(common.DialogMargin)
	contentBox.SetMarginBottom(12)
	contentBox.SetMarginStart(common.DialogMargin)
	contentBox.SetMarginEnd(common.DialogMargin)

	image := gtk.NewImage()
	image.SetFromIconName(icon)
	image.SetPixelSize(48)
	image.SetVAlign(gtk.AlignStart)
	contentBox.Append(image)

	textBox := gtk.NewBox(gtk.OrientationVertical, 8)
	textBox.SetHExpand(true)

	titleLabel := gtk.NewLabel(title)
	titleLabel.SetXAlign(0)
	titleLabel.AddCSSClass("title-3")
	textBox.Append(titleLabel)

	bodyLabel := gtk.NewLabel(body)
	bodyLabel.SetXAlign(0)
	bodyLabel.SetWrap(true)
	bodyLabel.SetMaxWidthChars(60)
	textBox.Append(bodyLabel)

	if detail != "" {
		view := gtk.NewTextView()
		view.SetEditable(false)
		view.SetMonospace(true)
		view.AddCSSClass("exception-report")
		view.Buffer().SetText(detail)

		scrolled := gtk.NewScrolledWindow()
		scrolled.SetVExpand(true)
		scrolled.SetMinContentHeight(240)
		scrolled.SetChild(view)
		textBox.Append(scrolled)
	}

	contentBox.Append(textBox)
	mainBox.Append(contentBox)

	buttonBox := gtk.NewBox(gtk.OrientationHorizontal, 12)
	buttonBox.SetHAlign(gtk.AlignEnd)
	buttonBox.SetMarginTop(12)
	buttonBox.SetMarginBottom(common.DialogMargin)
	buttonBox.SetMarginStart(common.DialogMargin)
	buttonBox.SetMarginEnd(common.DialogMargin)

	var last *gtk.Button
	for i, b := range buttons {
		i := i
		btn := gtk.NewButtonWithLabel(b.label)
		if b.style != "" {
			btn.AddCSSClass(b.style)
		}
		btn.ConnectClicked(func() {
			answer(i)
			window.Close()
		})
		buttonBox.Append(btn)
		last = btn
	}
	mainBox.Append(buttonBox)

	window.ConnectCloseRequest(func() bool {
		answer(-1)
		return false
	})

	window.SetChild(mainBox)
	window.Present()
	if last != nil {
		last.GrabFocus()
	}
	return window
}

// ask shows a message window and waits for the answer.
func ask(icon, title, body, detail string, buttons ...dialogButton) int {
	answer := make(chan int, 1)
	glib.IdleAdd(func() {
		messageWindow(icon, title, body, detail, buttons, func(i int) { answer <- i })
	})
	return <-answer
}

// ShowError shows a modal error message.
func (d *Dialogs) ShowError(title, message string) {
	ask("dialog-error", title, message, "", dialogButton{label: "OK", style: "suggested-action"})
}

// AskFileNotSelected explains how to select a data file.
func (d *Dialogs) AskFileNotSelected() bool {
	return ask("dialog-information", "File not selected",
		"You must select a Revelation data file to use - this can be done in the applet preferences.", "",
		dialogButton{label: "Preferences"},
		dialogButton{label: "OK", style: "suggested-action"},
	) == 0
}

// ShowException shows the report of an unexpected failure.
func (d *Dialogs) ShowException(report string) bool {
	return ask("dialog-warning", "Unexpected error",
		"An unexpected error occurred. You can save your work and quit, or try to continue.", report,
		dialogButton{label: "Quit", style: "destructive-action"},
		dialogButton{label: "Continue", style: "suggested-action"},
	) == 1
}

// AskPassword asks for the password of the named data file.
func (d *Dialogs) AskPassword(filename string) (string, error) {
	type result struct {
		password string
		ok       bool
	}
	answer := make(chan result, 1)
	glib.IdleAdd(func() {
		d.passwordWindow(filename, func(password string, ok bool) {
			answer <- result{password, ok}
		})
	})

	r := <-answer
	if !r.ok {
		return "", common.ErrCancelled
	}
	return r.password, nil
}

func (d *Dialogs) passwordWindow(filename string, respond func(string, bool)) {
	window := gtk.NewWindow()
	window.SetTitle("Enter file password - " + common.AppName)
	window.SetModal(true)
	window.SetDefaultSize(400, -1)
	window.SetResizable(false)
	d.password = window

	answered := false
	answer := func(password string, ok bool) {
		if answered {
			return
		}
		answered = true
		d.password = nil
		respond(password, ok)
	}

	mainBox := gtk.NewBox(gtk.OrientationVertical, 0)

	contentBox := gtk.NewBox(gtk.OrientationVertical, 8)
	contentBox.SetMarginTop(common.DialogMargin)
	contentBox.SetMarginBottom(12)
	contentBox.SetMarginStart(common.DialogMargin)
	contentBox.SetMarginEnd(common.DialogMargin)

	headerBox := gtk.NewBox(gtk.OrientationHorizontal, 12)
	lockIcon := gtk.NewImage()
	lockIcon.SetFromIconName("dialog-password")
	lockIcon.SetPixelSize(32)
	headerBox.Append(lockIcon)

	titleLabel := gtk.NewLabel("Enter password for " + filename)
	titleLabel.SetXAlign(0)
	titleLabel.SetWrap(true)
	titleLabel.AddCSSClass("title-3")
	headerBox.Append(titleLabel)
	contentBox.Append(headerBox)

	infoLabel := gtk.NewLabel("The file is encrypted. Enter its password to unlock it.")
	infoLabel.SetXAlign(0)
	infoLabel.AddCSSClass("dim-label")
	infoLabel.SetMarginBottom(8)
	contentBox.Append(infoLabel)

	passwordEntry := gtk.NewPasswordEntry()
	passwordEntry.SetShowPeekIcon(true)
	contentBox.Append(passwordEntry)
	mainBox.Append(contentBox)

	buttonBox := gtk.NewBox(gtk.OrientationHorizontal, 12)
	buttonBox.SetHAlign(gtk.AlignEnd)
	buttonBox.SetMarginTop(12)
	buttonBox.SetMarginBottom(common.DialogMargin)
	buttonBox.SetMarginStart(common.DialogMargin)
	buttonBox.SetMarginEnd(common.DialogMargin)

	cancelBtn := gtk.NewButtonWithLabel("Cancel")
	cancelBtn.ConnectClicked(func() {
		window.Close()
	})
	buttonBox.Append(cancelBtn)

	openBtn := gtk.NewButtonWithLabel("Open")
	openBtn.AddCSSClass("suggested-action")
	openBtn.ConnectClicked(func() {
		answer(passwordEntry.Text(), true)
		window.Close()
	})
	buttonBox.Append(openBtn)

	passwordEntry.ConnectActivate(func() {
		openBtn.Activate()
	})

	window.ConnectCloseRequest(func() bool {
		answer("", false)
		return false
	})

	mainBox.Append(buttonBox)
	window.SetChild(mainBox)
	window.Present()
	passwordEntry.GrabFocus()
}

// PresentPasswordPrompt raises a visible password prompt.
func (d *Dialogs) PresentPasswordPrompt() bool {
	return onMain(func() bool {
		if d.password == nil {
			return false
		}
		d.password.Present()
		return true
	})
}

// ShowEntry opens the detail popup for e.
func (d *Dialogs) ShowEntry(e *entry.Entry) {
	onMain(func() struct{} {
		var popup *EntryView
		popup = NewEntryView(e, func() {
			if d.popup == popup {
				d.popup = nil
			}
		})
		d.popup = popup
		popup.Show()
		return struct{}{}
	})
}

// ClosePopups closes the entry popup.
func (d *Dialogs) ClosePopups() {
	onMain(func() struct{} {
		if d.popup != nil {
			d.popup.Close()
			d.popup = nil
		}
		return struct{}{}
	})
}

// ShowPreferences opens the preferences window, or raises it.
func (d *Dialogs) ShowPreferences() {
	glib.IdleAdd(func() {
		if d.prefs != nil {
			d.prefs.Present()
			return
		}
		d.prefs = NewPreferencesWindow(d.app.config, func() {
			d.prefs = nil
		})
		d.prefs.Present()
	})
}

// ShowAbout shows the about window.
func (d *Dialogs) ShowAbout() {
	glib.IdleAdd(func() {
		about := adw.NewAboutWindow()
		about.SetApplicationName(common.AppName)
		about.SetApplicationIcon(common.IconUnlocked)
		about.SetVersion(d.app.GetVersion())
		about.SetComments("An indicator applet to browse a Revelation password database")
		about.SetWebsite("https://github.com/yllada/revelation-indicator")
		about.SetLicenseType(gtk.LicenseGPL20)
		about.Present()
	})
}
