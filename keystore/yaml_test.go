// SPDX-License-Identifier: GPL-3.0-or-later

package keystore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	root := EmptyMapping()
	root, _ = Put(root, "components.nettask.source.ID", Scalar("1234"), true)
	root, _ = Put(root, "components.nettask.tags", Sequence(Scalar("a"), Scalar("b")), true)

	data, err := Marshal(root)
	require.NoError(t, err)

	back, err := Unmarshal(data)
	require.NoError(t, err)

	got := Get(back, "components.nettask.source.ID")
	require.True(t, got.OK)
	v, _ := got.Node.ScalarValue()
	assert.Equal(t, "1234", v)
}

func TestUnmarshalCoercesNonStringScalars(t *testing.T) {
	doc := []byte("count: 42\nenabled: true\nratio: 1.5\n")
	n, err := Unmarshal(doc)
	require.NoError(t, err)

	count := Get(n, "count")
	require.True(t, count.OK)
	v, ok := count.Node.ScalarValue()
	require.True(t, ok)
	assert.Equal(t, "42", v)

	enabled := Get(n, "enabled")
	require.True(t, enabled.OK)
	v, _ = enabled.Node.ScalarValue()
	assert.Equal(t, "true", v)
}

func TestUnmarshalNullBecomesNullKind(t *testing.T) {
	n, err := Unmarshal([]byte("value: null\n"))
	require.NoError(t, err)
	got := Get(n, "value")
	require.True(t, got.OK)
	assert.Equal(t, KindNull, got.Node.Kind())
}
