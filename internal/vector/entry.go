package vector

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind tags which variant of MetadataValue is populated.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// MetadataValue is a tagged union of exactly one of {String, Int,
// Float, Bool}, mirroring a small closed set of JSON scalar types.
// Equality is by tag and payload; there is no defined ordering.
type MetadataValue struct {
	Kind   Kind
	Str    string
	Int    int64
	Float  float64
	Bool   bool
}

func StringValue(s string) MetadataValue { return MetadataValue{Kind: KindString, Str: s} }
func IntValue(i int64) MetadataValue     { return MetadataValue{Kind: KindInt, Int: i} }
func FloatValue(f float64) MetadataValue { return MetadataValue{Kind: KindFloat, Float: f} }
func BoolValue(b bool) MetadataValue     { return MetadataValue{Kind: KindBool, Bool: b} }

// Equal reports whether two MetadataValues carry the same tag and
// payload.
func (m MetadataValue) Equal(other MetadataValue) bool {
	if m.Kind != other.Kind {
		return false
	}
	switch m.Kind {
	case KindString:
		return m.Str == other.Str
	case KindInt:
		return m.Int == other.Int
	case KindFloat:
		return m.Float == other.Float
	case KindBool:
		return m.Bool == other.Bool
	default:
		return false
	}
}

// MarshalJSON encodes a MetadataValue as the plain JSON scalar it
// represents (a string, number, or boolean), not as a wrapped object.
func (m MetadataValue) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case KindString:
		return json.Marshal(m.Str)
	case KindInt:
		return json.Marshal(m.Int)
	case KindFloat:
		return json.Marshal(m.Float)
	case KindBool:
		return json.Marshal(m.Bool)
	default:
		return nil, fmt.Errorf("vector: metadata value has unknown kind %d", m.Kind)
	}
}

// UnmarshalJSON decodes a plain JSON scalar into a MetadataValue.
// A JSON number with no fractional part and no exponent decodes as
// Int; any other number decodes as Float. This mirrors the wire shape
// the facade's add/update requests use.
func (m *MetadataValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("vector: empty metadata value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = StringValue(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*m = BoolValue(b)
		return nil
	default:
		if looksIntegral(data) {
			var i int64
			if err := json.Unmarshal(data, &i); err == nil {
				*m = IntValue(i)
				return nil
			}
		}
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("vector: invalid metadata value %q: %w", data, err)
		}
		*m = FloatValue(f)
		return nil
	}
}

func looksIntegral(data []byte) bool {
	for _, b := range data {
		if b == '.' || b == 'e' || b == 'E' {
			return false
		}
	}
	return true
}

// VectorEntry is a stored vector: an identifier, its (L2-normalized)
// embedding, and a small metadata map.
type VectorEntry struct {
	ID        string
	Embedding []float32
	Metadata  map[string]MetadataValue
}

// Clone returns a deep copy of the entry, safe to hand to a caller
// that might mutate what it's given.
func (e VectorEntry) Clone() VectorEntry {
	emb := make([]float32, len(e.Embedding))
	copy(emb, e.Embedding)
	meta := make(map[string]MetadataValue, len(e.Metadata))
	for k, v := range e.Metadata {
		meta[k] = v
	}
	return VectorEntry{ID: e.ID, Embedding: emb, Metadata: meta}
}

// CloneMetadata returns a shallow copy of a metadata map, safe to hand
// to a caller without risking aliasing the original.
func CloneMetadata(meta map[string]MetadataValue) map[string]MetadataValue {
	out := make(map[string]MetadataValue, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
