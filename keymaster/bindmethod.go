// SPDX-License-Identifier: GPL-3.0-or-later

package keymaster

import "github.com/nrao/matrix/keystore"

// BindMethod adapts a method shaped func(T, string, keystore.Node) plus a
// receiver into a [*Client.Subscribe]-compatible callback. It exists for
// the case where the
// method to bind is only known through a generic helper or a table of
// method values resolved at setup time; a call site that already holds a
// concrete receiver can simply pass the method value (obj.OnChange)
// directly, since Go method values already close over their receiver.
func BindMethod[T any](receiver T, method func(T, string, keystore.Node)) func(string, keystore.Node) {
	return func(key string, node keystore.Node) {
		method(receiver, key, node)
	}
}
