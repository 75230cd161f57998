//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/common/errclass/errclass.go
//

// Package errclass classifies low-level network errors into short,
// platform-independent labels for structured logging.
package errclass

import (
	"context"
	"errors"
	"net"
	"os"
)

// New classifies err into a short label such as "ETIMEDOUT" or
// "ECONNREFUSED". It returns "" for a nil error and "unknown" when no
// classification applies.
//
// This is the default [github.com/nrao/matrix.ErrClassifier] used by the
// transport and keymaster packages to label dial, bind, and socket errors.
func New(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "ETIMEDOUT"
	case errors.Is(err, context.Canceled):
		return "EINTR"
	case errors.Is(err, os.ErrDeadlineExceeded):
		return "ETIMEDOUT"
	case errors.Is(err, net.ErrClosed):
		return "ENOTCONN"
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return "ETIMEDOUT"
	}
	if label, ok := classifyErrno(err); ok {
		return label
	}
	return "unknown"
}
