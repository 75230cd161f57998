// SPDX-License-Identifier: GPL-3.0-or-later

package keystore

import (
	"fmt"
	"sort"
	"strconv"
)

// FieldType names a generic-buffer field's wire type, as used in a
// document's stream_descriptions.<name>.fields mapping. Encoding is
// little-endian, naturally aligned, matching
// [github.com/nrao/matrix/dataio]'s [dataio.BinaryCodec].
type FieldType string

const (
	FieldInt8      FieldType = "int8"
	FieldInt16     FieldType = "int16"
	FieldInt32     FieldType = "int32"
	FieldInt64     FieldType = "int64"
	FieldUint8     FieldType = "uint8"
	FieldUint16    FieldType = "uint16"
	FieldUint32    FieldType = "uint32"
	FieldUint64    FieldType = "uint64"
	FieldChar      FieldType = "char"
	FieldBool      FieldType = "bool"
	FieldFloat     FieldType = "float"
	FieldDouble    FieldType = "double"
	FieldTimeStamp FieldType = "time-stamp"
)

// Size returns the field type's byte width, or 0 for an unrecognized type.
func (t FieldType) Size() int {
	switch t {
	case FieldInt8, FieldUint8, FieldChar, FieldBool:
		return 1
	case FieldInt16, FieldUint16:
		return 2
	case FieldInt32, FieldUint32, FieldFloat:
		return 4
	case FieldInt64, FieldUint64, FieldDouble, FieldTimeStamp:
		return 8
	default:
		return 0
	}
}

// FieldSpec describes one field of a generic-buffer schema: a name, a wire
// type, and a repeat count (a count greater than 1 makes it an array field).
type FieldSpec struct {
	Name  string
	Type  FieldType
	Count int
}

// ParseFieldSpec decodes a single [name, type, count] sequence node.
func ParseFieldSpec(n Node) (FieldSpec, error) {
	items, ok := n.Items()
	if !ok || len(items) != 3 {
		return FieldSpec{}, fmt.Errorf("keystore: field spec must be a 3-element sequence")
	}
	name, ok := items[0].ScalarValue()
	if !ok {
		return FieldSpec{}, fmt.Errorf("keystore: field name must be a scalar")
	}
	typeName, ok := items[1].ScalarValue()
	if !ok {
		return FieldSpec{}, fmt.Errorf("keystore: field type must be a scalar")
	}
	countStr, ok := items[2].ScalarValue()
	if !ok {
		return FieldSpec{}, fmt.Errorf("keystore: field count must be a scalar")
	}
	count, err := strconv.Atoi(countStr)
	if err != nil {
		return FieldSpec{}, fmt.Errorf("keystore: field count %q: %w", countStr, err)
	}
	return FieldSpec{Name: name, Type: FieldType(typeName), Count: count}, nil
}

// ParseStreamDescription decodes a stream_descriptions.<name>.fields
// mapping — numeric string keys naming field order — into an ordered slice
// of [FieldSpec].
func ParseStreamDescription(fields Node) ([]FieldSpec, error) {
	keys, ok := fields.Keys()
	if !ok {
		return nil, fmt.Errorf("keystore: stream description fields must be a mapping")
	}

	type indexed struct {
		idx  int
		spec FieldSpec
	}
	out := make([]indexed, 0, len(keys))
	for _, k := range keys {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("keystore: field index %q: %w", k, err)
		}
		spec, err := ParseFieldSpec(fields.Field(k))
		if err != nil {
			return nil, err
		}
		out = append(out, indexed{idx, spec})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].idx < out[j].idx })

	specs := make([]FieldSpec, len(out))
	for i, e := range out {
		specs[i] = e.spec
	}
	return specs, nil
}
