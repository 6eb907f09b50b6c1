package ui

import (
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/yllada/revelation-indicator/common"
	"github.com/yllada/revelation-indicator/config"
)

// PreferencesWindow binds the applet settings to widgets in both
// directions. Changes apply immediately.
type PreferencesWindow struct {
	window   *gtk.Window
	config   *config.Registry
	onClosed func()

	fileButton     *gtk.Button
	autolockCheck  *gtk.CheckButton
	timeoutSpin    *gtk.SpinButton
	rememberSwitch *gtk.Switch

	// syncing suppresses writes while widgets are updated from the registry.
	syncing bool
}

// NewPreferencesWindow creates the preferences window for cfg.
func NewPreferencesWindow(cfg *config.Registry, onClosed func()) *PreferencesWindow {
	pw := &PreferencesWindow{config: cfg, onClosed: onClosed}
	pw.build()
	pw.Sync()
	return pw
}

// build constructs the window UI.
func (pw *PreferencesWindow) build() {
	pw.window = gtk.NewWindow()
	pw.window.SetTitle("Preferences - " + common.AppName)
	pw.window.SetDefaultSize(480, -1)
	pw.window.SetResizable(false)

	rootBox := gtk.NewBox(gtk.OrientationVertical, 0)

	mainBox := gtk.NewBox(gtk.OrientationVertical, 20)
	mainBox.SetMarginTop(common.DialogMargin)
	mainBox.SetMarginBottom(16)
	mainBox.SetMarginStart(common.DialogMargin)
	mainBox.SetMarginEnd(common.DialogMargin)

	// Data file
	fileSection := pw.createSection("Data File", "document-open-symbolic")
	fileCard := pw.createCard()

	pw.fileButton = gtk.NewButtonWithLabel("")
	pw.fileButton.SetVAlign(gtk.AlignCenter)
	pw.fileButton.ConnectClicked(pw.chooseFile)
	fileCard.Append(pw.createSettingRow(
		"File to use",
		"The data file to open when unlocking",
		pw.fileButton,
	))

	fileCard.Append(pw.createSeparator())

	pw.autolockCheck = gtk.NewCheckButtonWithLabel("Lock file when inactive for")
	pw.autolockCheck.SetTooltipText("Automatically lock the file after a period of inactivity")
	pw.autolockCheck.ConnectToggled(func() {
		pw.timeoutSpin.SetSensitive(pw.autolockCheck.Active())
		pw.set(config.KeyAutolock, pw.autolockCheck.Active())
	})

	pw.timeoutSpin = gtk.NewSpinButtonWithRange(common.MinAutolockTimeout, common.MaxAutolockTimeout, 1)
	pw.timeoutSpin.SetTooltipText("The period of inactivity before locking the file, in minutes")
	pw.timeoutSpin.SetVAlign(gtk.AlignCenter)
	pw.timeoutSpin.ConnectValueChanged(func() {
		pw.set(config.KeyAutolockTimeout, pw.timeoutSpin.ValueAsInt())
	})

	autolockBox := gtk.NewBox(gtk.OrientationHorizontal, 8)
	autolockBox.SetMarginTop(14)
	autolockBox.SetMarginBottom(14)
	autolockBox.SetMarginStart(16)
	autolockBox.SetMarginEnd(16)
	pw.autolockCheck.SetHExpand(true)
	autolockBox.Append(pw.autolockCheck)
	autolockBox.Append(pw.timeoutSpin)
	autolockBox.Append(gtk.NewLabel("minutes"))
	fileCard.Append(autolockBox)

	fileSection.Append(fileCard)
	mainBox.Append(fileSection)

	// Security
	securitySection := pw.createSection("Security", "dialog-password-symbolic")
	securityCard := pw.createCard()

	pw.rememberSwitch = gtk.NewSwitch()
	pw.rememberSwitch.SetVAlign(gtk.AlignCenter)
	pw.rememberSwitch.ConnectStateSet(func(state bool) bool {
		pw.set(config.KeyRememberPassword, state)
		return false
	})
	securityCard.Append(pw.createSettingRow(
		"Remember Password",
		"Store the file password in the system keyring",
		pw.rememberSwitch,
	))

	securitySection.Append(securityCard)
	mainBox.Append(securitySection)

	rootBox.Append(mainBox)

	buttonBar := gtk.NewBox(gtk.OrientationHorizontal, 12)
	buttonBar.SetHAlign(gtk.AlignEnd)
	buttonBar.SetMarginTop(8)
	buttonBar.SetMarginBottom(20)
	buttonBar.SetMarginStart(common.DialogMargin)
	buttonBar.SetMarginEnd(common.DialogMargin)

	closeBtn := gtk.NewButtonWithLabel("Close")
	closeBtn.ConnectClicked(func() {
		pw.window.Close()
	})
	buttonBar.Append(closeBtn)
	rootBox.Append(buttonBar)

	pw.window.ConnectCloseRequest(func() bool {
		if pw.onClosed != nil {
			pw.onClosed()
		}
		return false
	})

	pw.window.SetChild(rootBox)
}

// createSection creates a section with icon and title.
func (pw *PreferencesWindow) createSection(title string, iconName string) *gtk.Box {
	section := gtk.NewBox(gtk.OrientationVertical, 8)

	headerBox := gtk.NewBox(gtk.OrientationHorizontal, 8)

	icon := gtk.NewImage()
	icon.SetFromIconName(iconName)
	icon.SetPixelSize(18)
	icon.AddCSSClass("dim-label")
	headerBox.Append(icon)

	label := gtk.NewLabel(title)
	label.SetXAlign(0)
	label.AddCSSClass("heading")
	label.AddCSSClass("dim-label")
	headerBox.Append(label)

	section.Append(headerBox)
	return section
}

// createCard creates a styled card container for settings.
func (pw *PreferencesWindow) createCard() *gtk.Box {
	card := gtk.NewBox(gtk.OrientationVertical, 0)
	card.AddCSSClass("card")
	card.AddCSSClass("preferences-card")
	return card
}

// createSettingRow creates a row with title, description, and widget.
func (pw *PreferencesWindow) createSettingRow(title string, description string, widget gtk.Widgetter) *gtk.Box {
	row := gtk.NewBox(gtk.OrientationHorizontal, 12)
	row.SetMarginTop(14)
	row.SetMarginBottom(14)
	row.SetMarginStart(16)
	row.SetMarginEnd(16)

	textBox := gtk.NewBox(gtk.OrientationVertical, 4)
	textBox.SetHExpand(true)

	titleLabel := gtk.NewLabel(title)
	titleLabel.SetXAlign(0)
	titleLabel.AddCSSClass("settings-title")
	textBox.Append(titleLabel)

	descLabel := gtk.NewLabel(description)
	descLabel.SetXAlign(0)
	descLabel.AddCSSClass("dim-label")
	descLabel.AddCSSClass("caption")
	descLabel.SetWrap(true)
	textBox.Append(descLabel)

	row.Append(textBox)
	row.Append(widget)
	return row
}

// createSeparator creates a styled separator for cards.
func (pw *PreferencesWindow) createSeparator() *gtk.Separator {
	sep := gtk.NewSeparator(gtk.OrientationHorizontal)
	sep.SetMarginStart(16)
	sep.SetMarginEnd(16)
	return sep
}

// chooseFile lets the user pick the data file.
func (pw *PreferencesWindow) chooseFile() {
	dialog := gtk.NewFileChooserNative(
		"Select Revelation data file",
		pw.window,
		gtk.FileChooserActionOpen,
		"Select",
		"Cancel",
	)

	dialog.ConnectResponse(func(responseID int) {
		if responseID == int(gtk.ResponseAccept) {
			if file := dialog.File(); file != nil {
				pw.set(config.KeyFile, file.Path())
			}
		}
		dialog.Destroy()
	})

	dialog.Show()
}

// set writes a widget value to the registry.
func (pw *PreferencesWindow) set(key string, value any) {
	if pw.syncing {
		return
	}
	if err := pw.config.Set(key, value); err != nil {
		common.LogError("Could not save preference %s: %v", key, err)
		return
	}
	// Clamping may have changed the value.
	pw.Sync()
}

// Sync updates the widgets from the registry.
func (pw *PreferencesWindow) Sync() {
	pw.syncing = true
	defer func() { pw.syncing = false }()

	cfg := pw.config.Snapshot()

	if cfg.File == "" {
		pw.fileButton.SetLabel("(None)")
		pw.fileButton.SetTooltipText("")
	} else {
		pw.fileButton.SetLabel(common.ShortenHome(cfg.File))
		pw.fileButton.SetTooltipText(cfg.File)
	}

	pw.autolockCheck.SetActive(cfg.Autolock)
	pw.timeoutSpin.SetValue(float64(cfg.AutolockTimeout))
	pw.timeoutSpin.SetSensitive(cfg.Autolock)
	pw.rememberSwitch.SetActive(cfg.RememberPassword)
}

// Present shows the window, raising it when already visible.
func (pw *PreferencesWindow) Present() {
	pw.window.Present()
}
