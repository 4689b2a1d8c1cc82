package filter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/monishSR/vectordb/internal/vector"
)

// UnmarshalJSON implements the same "untagged union" shape as the
// facade's wire format: a JSON object decodes as an Operator, any
// other JSON value (string/number/bool) decodes as a direct equality
// value.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		op := Operator{}
		if neRaw, ok := raw["$ne"]; ok {
			var ne vector.MetadataValue
			if err := json.Unmarshal(neRaw, &ne); err != nil {
				return fmt.Errorf("filter: $ne: %w", err)
			}
			op.Ne = &ne
		}
		if inRaw, ok := raw["$in"]; ok {
			vals, err := decodeValueSlice(inRaw)
			if err != nil {
				return fmt.Errorf("filter: $in: %w", err)
			}
			op.In = vals
		}
		if ninRaw, ok := raw["$nin"]; ok {
			vals, err := decodeValueSlice(ninRaw)
			if err != nil {
				return fmt.Errorf("filter: $nin: %w", err)
			}
			op.Nin = vals
		}
		if op.HasAny() {
			*v = OperatorValue(op)
			return nil
		}
		return fmt.Errorf("filter: operator object has no recognized clause")
	}

	var direct vector.MetadataValue
	if err := json.Unmarshal(trimmed, &direct); err != nil {
		return err
	}
	*v = DirectValue(direct)
	return nil
}

// MarshalJSON round-trips a Value back to the wire shape it was
// decoded from.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.IsOperator {
		return json.Marshal(v.Direct)
	}
	obj := map[string]any{}
	if v.Op.Ne != nil {
		obj["$ne"] = v.Op.Ne
	}
	if v.Op.In != nil {
		obj["$in"] = v.Op.In
	}
	if v.Op.Nin != nil {
		obj["$nin"] = v.Op.Nin
	}
	return json.Marshal(obj)
}

func decodeValueSlice(data json.RawMessage) ([]vector.MetadataValue, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	out := make([]vector.MetadataValue, len(raws))
	for i, r := range raws {
		if err := json.Unmarshal(r, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
