package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/yllada/revelation-indicator/common"
	"github.com/yllada/revelation-indicator/entry"
)

const secretMask = "••••••••"

// EntryView is the popup showing the details of one account entry.
// It must only be used on the GTK main thread.
type EntryView struct {
	window   *gtk.Window
	entry    *entry.Entry
	closeBtn *gtk.Button

	otpCode      *gtk.Label
	otpRemaining *gtk.Label
	otpSource    glib.SourceHandle
}

// NewEntryView builds the popup for e. onClosed runs after the window
// is closed, whichever way.
func NewEntryView(e *entry.Entry, onClosed func()) *EntryView {
	ev := &EntryView{entry: e}
	ev.build()

	ev.window.ConnectCloseRequest(func() bool {
		ev.stopOTP()
		if onClosed != nil {
			onClosed()
		}
		return false
	})
	return ev
}

func (ev *EntryView) build() {
	e := ev.entry

	ev.window = gtk.NewWindow()
	ev.window.SetTitle(e.Name)
	ev.window.SetDefaultSize(common.PopupWidth, -1)
	ev.window.SetResizable(false)

	mainBox := gtk.NewBox(gtk.OrientationVertical, 12)
	mainBox.SetMarginTop(common.DialogMargin)
	mainBox.SetMarginBottom(common.DialogMargin)
	mainBox.SetMarginStart(common.DialogMargin)
	mainBox.SetMarginEnd(common.DialogMargin)

	// Header
	headerBox := gtk.NewBox(gtk.OrientationHorizontal, 12)
	icon := gtk.NewImage()
	icon.SetFromIconName(e.Icon())
	icon.SetPixelSize(32)
	headerBox.Append(icon)

	titleBox := gtk.NewBox(gtk.OrientationVertical, 2)
	titleLabel := gtk.NewLabel(e.Name)
	titleLabel.SetXAlign(0)
	titleLabel.AddCSSClass("entry-popup-title")
	titleBox.Append(titleLabel)

	typeLabel := gtk.NewLabel(e.TypeName())
	typeLabel.SetXAlign(0)
	typeLabel.AddCSSClass("entry-type")
	titleBox.Append(typeLabel)
	headerBox.Append(titleBox)
	mainBox.Append(headerBox)

	if e.Description != "" {
		desc := gtk.NewLabel(e.Description)
		desc.SetXAlign(0)
		desc.SetWrap(true)
		desc.AddCSSClass("dim-label")
		mainBox.Append(desc)
	}

	grid := gtk.NewGrid()
	grid.SetRowSpacing(8)
	grid.SetColumnSpacing(12)
	row := 0
	for _, f := range e.Fields {
		if f.Value == "" {
			continue
		}
		if f.ID == entry.FieldOTP {
			ev.attachOTP(grid, row, f)
		} else {
			ev.attachField(grid, row, f)
		}
		row++
	}
	if row > 0 {
		mainBox.Append(grid)
	}

	if e.Notes != "" {
		notes := gtk.NewLabel(e.Notes)
		notes.SetXAlign(0)
		notes.SetWrap(true)
		notes.SetSelectable(true)
		notes.AddCSSClass("entry-notes")
		mainBox.Append(notes)
	}

	if !e.Updated.IsZero() {
		updated := gtk.NewLabel("Updated " + e.Updated.Local().Format("2006-01-02 15:04"))
		updated.SetXAlign(0)
		updated.AddCSSClass("dim-label")
		updated.AddCSSClass("caption")
		mainBox.Append(updated)
	}

	buttonBox := gtk.NewBox(gtk.OrientationHorizontal, 12)
	buttonBox.SetHAlign(gtk.AlignEnd)
	buttonBox.SetMarginTop(12)
	ev.closeBtn = gtk.NewButtonWithLabel("Close")
	ev.closeBtn.ConnectClicked(func() {
		ev.window.Close()
	})
	buttonBox.Append(ev.closeBtn)
	mainBox.Append(buttonBox)

	ev.window.SetChild(mainBox)
}

func fieldNameLabel(name string) *gtk.Label {
	label := gtk.NewLabel(name)
	label.SetXAlign(1)
	label.AddCSSClass("field-name")
	return label
}

func (ev *EntryView) attachField(grid *gtk.Grid, row int, f entry.Field) {
	grid.Attach(fieldNameLabel(f.Name), 0, row, 1, 1)

	value := gtk.NewLabel(f.Value)
	value.SetXAlign(0)
	value.SetHExpand(true)
	value.SetSelectable(!f.Secret)
	value.AddCSSClass("field-value")
	grid.Attach(value, 1, row, 1, 1)

	actions := gtk.NewBox(gtk.OrientationHorizontal, 4)
	if f.Secret {
		value.SetText(secretMask)
		value.AddCSSClass("secret-value")

		reveal := gtk.NewToggleButton()
		reveal.SetIconName("view-reveal-symbolic")
		reveal.SetTooltipText("Show " + strings.ToLower(f.Name))
		reveal.AddCSSClass("flat")
		reveal.ConnectToggled(func() {
			if reveal.Active() {
				value.SetText(f.Value)
				reveal.SetIconName("view-conceal-symbolic")
			} else {
				value.SetText(secretMask)
				reveal.SetIconName("view-reveal-symbolic")
			}
		})
		actions.Append(reveal)
	}
	actions.Append(copyButton(f.Name, f.Value))
	grid.Attach(actions, 2, row, 1, 1)
}

func (ev *EntryView) attachOTP(grid *gtk.Grid, row int, f entry.Field) {
	grid.Attach(fieldNameLabel("One-time code"), 0, row, 1, 1)

	ev.otpCode = gtk.NewLabel("")
	ev.otpCode.SetXAlign(0)
	ev.otpCode.AddCSSClass("otp-code")
	ev.otpRemaining = gtk.NewLabel("")
	ev.otpRemaining.AddCSSClass("otp-remaining")

	codeBox := gtk.NewBox(gtk.OrientationHorizontal, 8)
	codeBox.SetHExpand(true)
	codeBox.Append(ev.otpCode)
	codeBox.Append(ev.otpRemaining)
	grid.Attach(codeBox, 1, row, 1, 1)

	copyBtn := gtk.NewButton()
	copyBtn.SetIconName("edit-copy-symbolic")
	copyBtn.SetTooltipText("Copy one-time code")
	copyBtn.AddCSSClass("flat")
	copyBtn.ConnectClicked(func() {
		if code, _, ok := ev.entry.OTP(time.Now()); ok {
			setClipboard(code)
		}
	})
	grid.Attach(copyBtn, 2, row, 1, 1)

	ev.refreshOTP()
	ev.otpSource = glib.TimeoutAdd(uint(common.OTPRefreshInterval.Milliseconds()), func() bool {
		ev.refreshOTP()
		return true
	})
}

func (ev *EntryView) refreshOTP() {
	code, remaining, ok := ev.entry.OTP(time.Now())
	if !ok {
		ev.otpCode.SetText("invalid secret")
		ev.otpRemaining.SetText("")
		return
	}
	ev.otpCode.SetText(code[:3] + " " + code[3:])
	ev.otpRemaining.SetText(fmt.Sprintf("%ds", int(remaining.Round(time.Second).Seconds())))
}

func (ev *EntryView) stopOTP() {
	if ev.otpSource != 0 {
		glib.SourceRemove(ev.otpSource)
		ev.otpSource = 0
	}
}

func copyButton(name, value string) *gtk.Button {
	btn := gtk.NewButton()
	btn.SetIconName("edit-copy-symbolic")
	btn.SetTooltipText("Copy " + strings.ToLower(name))
	btn.AddCSSClass("flat")
	btn.ConnectClicked(func() {
		setClipboard(value)
	})
	return btn
}

func setClipboard(text string) {
	display := gdk.DisplayGetDefault()
	if display == nil {
		return
	}
	display.Clipboard().SetText(text)
}

// Show presents the popup and focuses its Close button.
func (ev *EntryView) Show() {
	ev.window.Present()
	ev.closeBtn.GrabFocus()
}

// Close closes the popup.
func (ev *EntryView) Close() {
	ev.window.Close()
}
