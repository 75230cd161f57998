// SPDX-License-Identifier: GPL-3.0-or-later

package keystore

import "fmt"

// Result is the outcome of a Get, Put, or Delete transaction. On success
// OK is true, LastGoodKey equals the
// requested keychain, and Node holds the resulting subtree. On failure OK
// is false and LastGoodKey is the longest prefix of the requested keychain
// that did resolve.
type Result struct {
	OK          bool
	LastGoodKey string
	Error       string
	Node        Node
}

// Get traverses root along keychain, returning the resolved subtree or a
// diagnostic naming the longest prefix that did resolve.
func Get(root Node, keychain string) Result {
	kc, err := ParseKeychain(keychain)
	if err != nil {
		return Result{Error: err.Error()}
	}
	node := root
	for i, part := range kc {
		if node.Kind() != KindMapping {
			lastGood := Keychain(kc[:i]).String()
			return Result{LastGoodKey: lastGood, Error: fmt.Sprintf("keystore: %q is not a mapping", lastGood)}
		}
		child := node.Field(part)
		if child.IsUndefined() {
			lastGood := Keychain(kc[:i]).String()
			return Result{LastGoodKey: lastGood, Error: fmt.Sprintf("keystore: key %q not found", Keychain(kc[:i+1]).String())}
		}
		node = child
	}
	return Result{OK: true, LastGoodKey: keychain, Node: node}
}

// Put replaces the subtree at keychain with value, returning the new root
// and a [Result]. With create=true, missing intermediate keys are
// materialized as empty mappings. Put under a scalar parent always fails
// (invariant c), regardless of create. On failure the returned root is
// identical to the input root: Put never partially mutates.
func Put(root Node, keychain string, value Node, create bool) (Node, Result) {
	kc, err := ParseKeychain(keychain)
	if err != nil {
		return root, Result{Error: err.Error()}
	}
	if len(kc) == 0 {
		return value, Result{OK: true, LastGoodKey: "", Node: value}
	}

	nodes := make([]Node, len(kc)+1)
	nodes[0] = root
	i := 0
	for ; i < len(kc); i++ {
		cur := nodes[i]
		if cur.IsUndefined() {
			break
		}
		if cur.Kind() != KindMapping {
			lastGood := Keychain(kc[:i]).String()
			return root, Result{LastGoodKey: lastGood, Error: fmt.Sprintf("keystore: %q is not a mapping", lastGood)}
		}
		nodes[i+1] = cur.Field(kc[i])
	}

	if !create {
		for j := 1; j <= len(kc); j++ {
			if nodes[j].IsUndefined() {
				lastGood := Keychain(kc[:j-1]).String()
				return root, Result{LastGoodKey: lastGood, Error: fmt.Sprintf("keystore: key %q not found", Keychain(kc[:j]).String())}
			}
		}
	}

	current := value
	for d := len(kc) - 1; d >= 0; d-- {
		parent := nodes[d]
		if parent.Kind() != KindMapping {
			parent = EmptyMapping()
		}
		current = parent.withField(kc[d], current)
	}
	return current, Result{OK: true, LastGoodKey: keychain, Node: value}
}

// Delete removes the leaf at keychain, returning the new root and a
// [Result]. It fails if keychain does not resolve, or if keychain is the
// root (invariant d: delete on the root is disallowed). On failure the
// returned root is identical to the input root.
func Delete(root Node, keychain string) (Node, Result) {
	kc, err := ParseKeychain(keychain)
	if err != nil {
		return root, Result{Error: err.Error()}
	}
	if len(kc) == 0 {
		return root, Result{Error: "keystore: delete on the root is disallowed"}
	}

	parentPath := kc[:len(kc)-1]
	leafKey := kc[len(kc)-1]

	nodes := make([]Node, len(parentPath)+1)
	nodes[0] = root
	for i := 0; i < len(parentPath); i++ {
		cur := nodes[i]
		if cur.Kind() != KindMapping {
			lastGood := Keychain(kc[:i]).String()
			return root, Result{LastGoodKey: lastGood, Error: fmt.Sprintf("keystore: %q is not a mapping", lastGood)}
		}
		child := cur.Field(parentPath[i])
		if child.IsUndefined() {
			lastGood := Keychain(kc[:i]).String()
			return root, Result{LastGoodKey: lastGood, Error: fmt.Sprintf("keystore: key %q not found", Keychain(kc[:i+1]).String())}
		}
		nodes[i+1] = child
	}

	parent := nodes[len(parentPath)]
	parentKey := Keychain(parentPath).String()
	if parent.Kind() != KindMapping {
		return root, Result{LastGoodKey: parentKey, Error: fmt.Sprintf("keystore: %q is not a mapping", parentKey)}
	}
	if parent.Field(leafKey).IsUndefined() {
		return root, Result{LastGoodKey: parentKey, Error: fmt.Sprintf("keystore: key %q not found", keychain)}
	}

	current := parent.withoutField(leafKey)
	for d := len(parentPath) - 1; d >= 0; d-- {
		current = nodes[d].withField(parentPath[d], current)
	}
	return current, Result{OK: true, LastGoodKey: keychain, Node: Undefined()}
}
