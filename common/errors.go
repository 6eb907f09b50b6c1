// Package common provides shared constants, types, and utilities
// used across the Revelation Indicator applet.
package common

import "errors"

// Sentinel errors shared by the applet packages.
// These can be checked with errors.Is() for proper error handling.
var (
	// User interaction.
	ErrCancelled    = errors.New("operation cancelled")
	ErrNoFile       = errors.New("no data file selected")
	ErrPromptActive = errors.New("password prompt already open")

	// Credential errors.
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrCredentialStorage   = errors.New("failed to store credentials")
	ErrEncryption          = errors.New("encryption error")
	ErrDecryption          = errors.New("decryption error")

	// Configuration errors.
	ErrConfigLoad  = errors.New("failed to load configuration")
	ErrConfigSave  = errors.New("failed to save configuration")
	ErrUnknownKey  = errors.New("unknown configuration key")
	ErrInvalidType = errors.New("invalid configuration value type")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
