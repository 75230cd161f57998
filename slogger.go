//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/ooni/probe-cli/blob/v3.20.1/internal/netxlite/dialer.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/x/netcore/dialer.go
//

package matrix

// SLogger abstracts the [*slog.Logger] behavior.
//
// By using an abstraction we allow for unit testing and alternative
// implementations without pulling [log/slog] into every package's API.
//
// This module uses four log levels:
//   - Debug for per-frame I/O (publish/subscribe wire traffic)
//   - Info for lifecycle and protocol events (bind, connect, state transition)
//   - Warn for recoverable faults (sink overflow, dropped frames)
//   - Error for faults that abort the current operation (failed reply send, failed state publish)
//
// The [*slog.Logger] type satisfies this interface.
type SLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// DefaultLogger returns the default [SLogger] to use.
//
// The default is a no-op logger that discards all output. This follows the
// library convention of not writing to stdout/stderr unless explicitly
// configured. Use a custom [*slog.Logger] for emitting logs.
func DefaultLogger() SLogger {
	return discardLogger{}
}

// discardLogger is a no-op [SLogger] that discards all log messages.
type discardLogger struct{}

var _ SLogger = discardLogger{}

// Debug implements [SLogger].
func (discardLogger) Debug(msg string, args ...any) {
	// nothing
}

// Info implements [SLogger].
func (discardLogger) Info(msg string, args ...any) {
	// nothing
}

// Warn implements [SLogger].
func (discardLogger) Warn(msg string, args ...any) {
	// nothing
}

// Error implements [SLogger].
func (discardLogger) Error(msg string, args ...any) {
	// nothing
}
