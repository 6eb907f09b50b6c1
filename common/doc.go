// Package common provides shared constants, types, utilities, and interfaces
// used throughout the Revelation Indicator applet.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: Application-wide constants like autolock bounds, file names, and icon names
//   - Errors: Sentinel errors for consistent error handling across packages
//   - Interfaces: Abstractions for credential storage, notifications, and logging
//   - Logger: Structured logging to stdout and a rotating log file
//   - Utils: Common helpers for paths and directories
//
// # Usage
//
//	// Use logger
//	common.LogInfo("Opening %s", path)
//
//	// Check errors
//	if errors.Is(err, common.ErrCancelled) {
//	    // User dismissed the dialog
//	}
package common
