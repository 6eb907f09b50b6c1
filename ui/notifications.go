package ui

import (
	"github.com/gen2brain/beeep"
	"github.com/yllada/revelation-indicator/common"
)

// DesktopNotifier sends desktop notifications through the session's
// notification service.
type DesktopNotifier struct {
	// Enabled turns notifications off when false.
	Enabled bool
}

var _ common.Notifier = (*DesktopNotifier)(nil)

// NewDesktopNotifier creates an enabled notifier.
func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{Enabled: true}
}

// Notify sends a notification with the applet icon.
func (n *DesktopNotifier) Notify(title, message string) error {
	return n.NotifyWithIcon(title, message, common.IconUnlocked)
}

// NotifyWithIcon sends a notification with a custom icon name.
func (n *DesktopNotifier) NotifyWithIcon(title, message, icon string) error {
	if !n.Enabled {
		return nil
	}
	if err := beeep.Notify(title, message, icon); err != nil {
		common.LogWarn("Error showing notification: %v", err)
		return err
	}
	return nil
}
