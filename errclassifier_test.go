// SPDX-License-Identifier: GPL-3.0-or-later

package matrix

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultErrClassifier(t *testing.T) {
	// Should return empty string for nil error
	result := DefaultErrClassifier.Classify(nil)
	assert.Equal(t, "", result)

	// Should classify known errors
	result = DefaultErrClassifier.Classify(context.DeadlineExceeded)
	assert.Equal(t, "ETIMEDOUT", result)

	// Should return "unknown" for unclassifiable errors
	result = DefaultErrClassifier.Classify(errors.New("some unrelated error"))
	assert.Equal(t, "unknown", result)
}
