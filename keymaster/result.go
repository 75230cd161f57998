// SPDX-License-Identifier: GPL-3.0-or-later

// Package keymaster implements the hierarchical document store server and
// client: a document tree exposed over a REQ/REP control socket and a
// PUB/SUB change-notification socket, both backed by
// go.nanomsg.org/mangos/v3.
package keymaster

import (
	"fmt"
	"strconv"

	"github.com/nrao/matrix/keystore"
)

// Error wraps a failed [keystore.Result] as a Go error, so Keymaster
// protocol failures are raised distinctly from transport failures.
type Error struct {
	Result keystore.Result
}

func (e *Error) Error() string {
	if e.Result.LastGoodKey == "" {
		return fmt.Sprintf("keymaster: %s", e.Result.Error)
	}
	return fmt.Sprintf("keymaster: %s (last-good-key=%q)", e.Result.Error, e.Result.LastGoodKey)
}

// resultToNode serializes a [keystore.Result] into the wire document
// shape {ok, last-good-key, error, node}.
func resultToNode(res keystore.Result) keystore.Node {
	return keystore.Mapping(map[string]keystore.Node{
		"ok":            keystore.Scalar(strconv.FormatBool(res.OK)),
		"last-good-key": keystore.Scalar(res.LastGoodKey),
		"error":         keystore.Scalar(res.Error),
		"node":          res.Node,
	})
}

// nodeToResult is the inverse of resultToNode.
func nodeToResult(n keystore.Node) keystore.Result {
	okField, _ := n.Field("ok").ScalarValue()
	lastGood, _ := n.Field("last-good-key").ScalarValue()
	errMsg, _ := n.Field("error").ScalarValue()
	ok, _ := strconv.ParseBool(okField)
	return keystore.Result{
		OK:          ok,
		LastGoodKey: lastGood,
		Error:       errMsg,
		Node:        n.Field("node"),
	}
}

func badRequest(msg string) keystore.Result {
	return keystore.Result{Error: "keymaster: " + msg}
}
