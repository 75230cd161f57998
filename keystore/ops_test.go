// SPDX-License-Identifier: GPL-3.0-or-later

package keystore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	root := EmptyMapping()
	root, res := Put(root, "components.nettask.source.ID", Scalar("1234"), true)
	require.True(t, res.OK)

	got := Get(root, "components.nettask.source.ID")
	require.True(t, got.OK)
	assert.Equal(t, "components.nettask.source.ID", got.LastGoodKey)
	v, ok := got.Node.ScalarValue()
	require.True(t, ok)
	assert.Equal(t, "1234", v)
}

// A value written with Put is readable by Get, and once deleted, Get on
// the same keychain fails.
func TestPutThenDeleteReversal(t *testing.T) {
	root := EmptyMapping()
	root, res := Put(root, "a.b", Scalar("x"), true)
	require.True(t, res.OK)

	root, del := Delete(root, "a.b")
	require.True(t, del.OK)

	got := Get(root, "a.b")
	assert.False(t, got.OK)
}

// PUT components.nettask.source.ID = 1234 with create=false when
// components.nettask.source exists but ID does not: ok=false,
// last-good-key=components.nettask.source, state unchanged.
func TestPutFailsWhenKeyMissingAndCreateFalse(t *testing.T) {
	root := EmptyMapping()
	root, res := Put(root, "components.nettask.source", EmptyMapping(), true)
	require.True(t, res.OK)
	before := root

	after, put := Put(root, "components.nettask.source.ID", Scalar("1234"), false)
	assert.False(t, put.OK)
	assert.Equal(t, "components.nettask.source", put.LastGoodKey)
	assert.True(t, Equal(before, after))
}

func TestPutUnderScalarParentAlwaysFails(t *testing.T) {
	root := EmptyMapping()
	root, res := Put(root, "a", Scalar("leaf"), true)
	require.True(t, res.OK)

	after, put := Put(root, "a.b", Scalar("x"), true)
	assert.False(t, put.OK)
	assert.True(t, Equal(root, after))
}

func TestDeleteRootDisallowed(t *testing.T) {
	root := EmptyMapping()
	after, res := Delete(root, "")
	assert.False(t, res.OK)
	assert.True(t, Equal(root, after))
}

func TestDeleteMissingKeyFails(t *testing.T) {
	root := EmptyMapping()
	after, res := Delete(root, "nope")
	assert.False(t, res.OK)
	assert.True(t, Equal(root, after))
}

func TestPutPreservesSiblings(t *testing.T) {
	root := EmptyMapping()
	root, _ = Put(root, "a.x", Scalar("1"), true)
	root, res := Put(root, "a.y", Scalar("2"), true)
	require.True(t, res.OK)

	x := Get(root, "a.x")
	y := Get(root, "a.y")
	require.True(t, x.OK)
	require.True(t, y.OK)
	xv, _ := x.Node.ScalarValue()
	yv, _ := y.Node.ScalarValue()
	assert.Equal(t, "1", xv)
	assert.Equal(t, "2", yv)
}

func TestGetRootReturnsWholeDocument(t *testing.T) {
	root := EmptyMapping()
	root, _ = Put(root, "a", Scalar("1"), true)

	res := Get(root, "")
	require.True(t, res.OK)
	assert.Equal(t, "", res.LastGoodKey)
	assert.True(t, Equal(root, res.Node))
}

func TestInvalidKeychainRejected(t *testing.T) {
	root := EmptyMapping()
	res := Get(root, "a..b")
	assert.False(t, res.OK)
}
