// Package common provides shared constants, types, and utilities
// used across the Revelation Indicator applet.
package common

import "time"

// Application metadata.
const (
	// AppID is the unique identifier for the application.
	AppID = "com.revelation.indicator"
	// AppName is the display name of the application.
	AppName = "Revelation Indicator"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "revelation-indicator"
)

// File names used by the application.
const (
	ConfigFileName      = "config.yaml"
	CredentialsFileName = ".credentials"
	LogFileName         = "revelation-indicator.log"
)

// Autolock bounds, in minutes.
const (
	// DefaultAutolockTimeout is the inactivity period used when none is configured.
	DefaultAutolockTimeout = 10
	// MinAutolockTimeout is the smallest accepted autolock timeout.
	MinAutolockTimeout = 1
	// MaxAutolockTimeout is the largest accepted autolock timeout.
	MaxAutolockTimeout = 120
)

// Default timeouts and intervals.
const (
	// ChangeDebounce coalesces bursts of file system events into one reload.
	ChangeDebounce = 250 * time.Millisecond
	// OTPRefreshInterval is how often the entry popup refreshes TOTP codes.
	OTPRefreshInterval = 1 * time.Second
)

// Icon names for the indicator and dialogs.
const (
	IconLocked   = "revelation-indicator-locked"
	IconUnlocked = "revelation-indicator-unlocked"
	IconFolder   = "folder"
)

// UI constants.
const (
	// DialogMargin is the standard margin for dialog content.
	DialogMargin = 24
	// TrayIconSize is the size of the system tray icon.
	TrayIconSize = 22
	// PopupWidth is the default width of the entry popup.
	PopupWidth = 420
)
