// SPDX-License-Identifier: GPL-3.0-or-later

// Package keystore implements the hierarchical document model served by
// the Keymaster: a recursive value that is exactly one of scalar,
// sequence, mapping, null, or undefined, addressed by dotted keychains.
//
// Get, Put, and Delete are pure functions over a root [Node] and a
// keychain: they never mutate their input and fail without partial
// mutation, so a failed write always leaves the document exactly as it
// was. Deleting a value removes only its leaf key; intermediate mappings
// that Put created for it remain.
package keystore

import "fmt"

// Kind identifies which alternative of the recursive [Node] sum type a
// value holds.
type Kind int

const (
	// KindUndefined marks a [Node] with no value at all — the result of
	// looking up a keychain that was never set (distinct from explicit null).
	KindUndefined Kind = iota
	// KindNull is an explicit null value.
	KindNull
	// KindScalar holds a string.
	KindScalar
	// KindSequence holds an ordered list of nodes.
	KindSequence
	// KindMapping holds string keys to nodes; insertion order is not
	// significant and equality is structural.
	KindMapping
)

// Node is a recursive value: scalar, sequence, mapping, null, or
// undefined. The zero Node is [KindUndefined].
type Node struct {
	kind    Kind
	scalar  string
	seq     []Node
	mapping map[string]Node
}

// Undefined returns the undefined node.
func Undefined() Node { return Node{kind: KindUndefined} }

// Null returns the null node.
func Null() Node { return Node{kind: KindNull} }

// Scalar returns a scalar node holding s.
func Scalar(s string) Node { return Node{kind: KindScalar, scalar: s} }

// Sequence returns a sequence node holding items in order.
func Sequence(items ...Node) Node {
	return Node{kind: KindSequence, seq: append([]Node(nil), items...)}
}

// Mapping returns a mapping node. The caller's map is copied; subsequent
// mutation of m does not affect the returned node.
func Mapping(m map[string]Node) Node {
	cp := make(map[string]Node, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Node{kind: KindMapping, mapping: cp}
}

// EmptyMapping returns an empty mapping node.
func EmptyMapping() Node { return Node{kind: KindMapping, mapping: map[string]Node{}} }

// Kind returns the node's kind.
func (n Node) Kind() Kind { return n.kind }

// IsUndefined reports whether n is [KindUndefined].
func (n Node) IsUndefined() bool { return n.kind == KindUndefined }

// ScalarValue returns the node's string value and whether n is
// [KindScalar].
func (n Node) ScalarValue() (string, bool) {
	if n.kind != KindScalar {
		return "", false
	}
	return n.scalar, true
}

// Items returns the node's sequence elements and whether n is
// [KindSequence]. The returned slice must not be mutated.
func (n Node) Items() ([]Node, bool) {
	if n.kind != KindSequence {
		return nil, false
	}
	return n.seq, true
}

// Keys returns the mapping's keys and whether n is [KindMapping]. Order is
// unspecified.
func (n Node) Keys() ([]string, bool) {
	if n.kind != KindMapping {
		return nil, false
	}
	keys := make([]string, 0, len(n.mapping))
	for k := range n.mapping {
		keys = append(keys, k)
	}
	return keys, true
}

// Field looks up key in a mapping node, returning [KindUndefined] if n is
// not a mapping or key is absent.
func (n Node) Field(key string) Node {
	if n.kind != KindMapping {
		return Undefined()
	}
	if v, ok := n.mapping[key]; ok {
		return v
	}
	return Undefined()
}

// withField returns a copy of n (which must be a mapping, or undefined —
// promoted to an empty mapping) with key set to value. n itself is never
// mutated.
func (n Node) withField(key string, value Node) Node {
	cp := make(map[string]Node, len(n.mapping)+1)
	for k, v := range n.mapping {
		cp[k] = v
	}
	cp[key] = value
	return Node{kind: KindMapping, mapping: cp}
}

// withoutField returns a copy of n with key removed.
func (n Node) withoutField(key string) Node {
	cp := make(map[string]Node, len(n.mapping))
	for k, v := range n.mapping {
		if k != key {
			cp[k] = v
		}
	}
	return Node{kind: KindMapping, mapping: cp}
}

// Equal reports whether a and b are structurally equal: same kind, same
// scalar value, same sequence in the same order, same mapping keys/values
// regardless of insertion order.
func Equal(a, b Node) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindScalar:
		return a.scalar == b.scalar
	case KindSequence:
		if len(a.seq) != len(b.seq) {
			return false
		}
		for i := range a.seq {
			if !Equal(a.seq[i], b.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(a.mapping) != len(b.mapping) {
			return false
		}
		for k, v := range a.mapping {
			bv, ok := b.mapping[k]
			if !ok || !Equal(v, bv) {
				return false
			}
		}
		return true
	default: // KindNull, KindUndefined
		return true
	}
}

// String renders a debug representation of n; it is not the wire format
// (see package yaml-backed [Marshal]/[Unmarshal]).
func (n Node) String() string {
	switch n.kind {
	case KindUndefined:
		return "<undefined>"
	case KindNull:
		return "null"
	case KindScalar:
		return fmt.Sprintf("%q", n.scalar)
	case KindSequence:
		return fmt.Sprintf("%v", n.seq)
	case KindMapping:
		return fmt.Sprintf("%v", n.mapping)
	default:
		return "<invalid>"
	}
}
