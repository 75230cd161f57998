// SPDX-License-Identifier: GPL-3.0-or-later

package keystore

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Marshal renders n as a YAML document: the wire format used by
// [github.com/nrao/matrix/keymaster] for Keymaster configuration files and
// GET/PUT payloads.
func Marshal(n Node) ([]byte, error) {
	return yaml.Marshal(toAny(n))
}

// Unmarshal parses a YAML document into a [Node]. Scalars of any YAML type
// (int, float, bool, timestamp, ...) are coerced to their string
// representation, since the document model holds only string scalars.
func Unmarshal(data []byte) (Node, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Undefined(), fmt.Errorf("keystore: %w", err)
	}
	return fromAny(v), nil
}

// Decode marshals n to YAML and unmarshals it into out, the way
// [github.com/nrao/matrix/keymaster.GetAs] decodes a GET result into a
// caller-supplied Go type.
func Decode(n Node, out any) error {
	data, err := Marshal(n)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

func toAny(n Node) any {
	switch n.kind {
	case KindUndefined, KindNull:
		return nil
	case KindScalar:
		return n.scalar
	case KindSequence:
		out := make([]any, len(n.seq))
		for i, item := range n.seq {
			out[i] = toAny(item)
		}
		return out
	case KindMapping:
		out := make(map[string]any, len(n.mapping))
		for k, v := range n.mapping {
			out[k] = toAny(v)
		}
		return out
	default:
		return nil
	}
}

func fromAny(v any) Node {
	switch x := v.(type) {
	case nil:
		return Null()
	case string:
		return Scalar(x)
	case map[string]any:
		m := make(map[string]Node, len(x))
		for k, item := range x {
			m[k] = fromAny(item)
		}
		return Mapping(m)
	case map[any]any:
		m := make(map[string]Node, len(x))
		for k, item := range x {
			m[fmt.Sprint(k)] = fromAny(item)
		}
		return Mapping(m)
	case []any:
		items := make([]Node, len(x))
		for i, item := range x {
			items[i] = fromAny(item)
		}
		return Sequence(items...)
	default:
		// bool, int, float64, time.Time, etc: coerce to the document
		// model's string-scalar representation.
		return Scalar(fmt.Sprint(x))
	}
}
