package ui

import (
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Theme-aware styles for the applet windows. Colors derive from
// currentColor so light and dark themes both work.
const appCSS = `
/* Entry popup */
.entry-popup-title {
    font-weight: 700;
    font-size: 16px;
}

.entry-type {
    opacity: 0.7;
}

.field-name {
    font-weight: 600;
    opacity: 0.8;
}

.field-value {
    font-family: monospace;
}

.secret-value {
    font-family: monospace;
    letter-spacing: 1px;
}

.otp-code {
    font-family: monospace;
    font-size: 18px;
    font-weight: 700;
    color: #3584e4;
}

.otp-remaining {
    opacity: 0.6;
}

.entry-notes {
    border-top: 1px solid alpha(currentColor, 0.15);
    padding-top: 8px;
}

/* Preferences cards */
.preferences-card {
    border-radius: 12px;
    border: 1px solid alpha(currentColor, 0.15);
}

.settings-title {
    font-weight: 600;
}

/* Diagnostic report */
.exception-report {
    font-family: monospace;
    font-size: 11px;
}

/* Entry fields */
entry {
    border-radius: 6px;
    min-height: 34px;
}

/* Flat button */
button.flat {
    background-color: transparent;
}

button.flat:hover {
    background-color: alpha(currentColor, 0.1);
}
`

// LoadStyles loads the custom CSS styles for the application.
// Should be called during application startup.
func LoadStyles() {
	display := gdk.DisplayGetDefault()
	if display == nil {
		return
	}

	provider := gtk.NewCSSProvider()
	provider.LoadFromString(appCSS)

	gtk.StyleContextAddProviderForDisplay(
		display,
		provider,
		gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
	)
}
