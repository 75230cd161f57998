// SPDX-License-Identifier: GPL-3.0-or-later

package matrixid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	id := New()

	// Should be a valid UUID string
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)

	// Should be version 7 (time-ordered)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestNewUniqueness(t *testing.T) {
	const count = 100
	seen := make(map[string]struct{}, count)

	for range count {
		id := New()
		_, duplicate := seen[id]
		require.False(t, duplicate, "duplicate id generated: %s", id)
		seen[id] = struct{}{}
	}
}

func TestNewURNSuffix(t *testing.T) {
	suffix := NewURNSuffix()
	assert.Len(t, suffix, 5)
}

func TestNewRTInprocSuffix(t *testing.T) {
	suffix := NewRTInprocSuffix()
	assert.Len(t, suffix, 20)

	a, b := NewRTInprocSuffix(), NewRTInprocSuffix()
	assert.NotEqual(t, a, b)
}
