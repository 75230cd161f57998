// SPDX-License-Identifier: GPL-3.0-or-later

package matrix

import (
	"time"
)

// Config holds common configuration threaded through constructors across
// the module: keymaster, transport, and dataio.
//
// Pass this to constructor functions to pre-wire dependencies. All fields
// have sensible defaults set by [NewConfig].
type Config struct {
	// Logger receives structured log events.
	//
	// Set by [NewConfig] to [DefaultLogger].
	Logger SLogger

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now]. Overridable for deterministic tests
	// of heartbeat and timeout behavior.
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Logger:        DefaultLogger(),
		ErrClassifier: DefaultErrClassifier,
		TimeNow:       time.Now,
	}
}
