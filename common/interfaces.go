// Package common provides shared constants, types, and utilities
// used across the Revelation Indicator applet.
package common

// CredentialStore defines the interface for credential storage.
// Implementations may use system keyring, encrypted files, etc.
type CredentialStore interface {
	// Store saves a secret under key.
	Store(key, secret string) error
	// Get retrieves the secret stored under key.
	Get(key string) (string, error)
	// Delete removes the secret stored under key.
	Delete(key string) error
	// Clear removes all stored secrets.
	Clear() error
}

// Notifier defines the interface for sending notifications.
type Notifier interface {
	// Notify sends a notification with the given title and message.
	Notify(title, message string) error
	// NotifyWithIcon sends a notification with a custom icon.
	NotifyWithIcon(title, message, icon string) error
}

// Logger defines the interface for structured logging.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...interface{})
	// Info logs an informational message.
	Info(msg string, args ...interface{})
	// Warn logs a warning message.
	Warn(msg string, args ...interface{})
	// Error logs an error message.
	Error(msg string, args ...interface{})
}
