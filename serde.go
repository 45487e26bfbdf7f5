package bdat

import "encoding/json"

// Optional JSON bridge for a single Value, grounded on the original
// crate's serde adapter (src/serde.rs): a tagged envelope carrying the
// value kind alongside its payload, so a round-trip through JSON doesn't
// lose which BDAT type a bare number or string came from. This is the
// only file in the package that imports encoding/json; nothing in the
// core decode/encode path depends on it.
type jsonValue struct {
	Type  ValueKind       `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON implements json.Marshaler for Value.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.kind {
	case KindString, KindDebugString:
		payload = v.s
	case KindSignedByte, KindSignedShort, KindSignedInt:
		payload = v.i
	case KindFloat:
		payload = v.f.Float32()
	default:
		payload = v.u
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonValue{Type: v.kind, Value: raw})
}

// UnmarshalJSON implements json.Unmarshaler for Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var env jsonValue
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch env.Type {
	case KindString, KindDebugString:
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return err
		}
		*v = Value{kind: env.Type, s: s}
	case KindSignedByte, KindSignedShort, KindSignedInt:
		var i int32
		if err := json.Unmarshal(env.Value, &i); err != nil {
			return err
		}
		*v = Value{kind: env.Type, i: i}
	case KindFloat:
		var f float32
		if err := json.Unmarshal(env.Value, &f); err != nil {
			return err
		}
		*v = Value{kind: env.Type, f: NewBdatReal(f)}
	default:
		var u uint32
		if err := json.Unmarshal(env.Value, &u); err != nil {
			return err
		}
		*v = Value{kind: env.Type, u: u}
	}
	return nil
}
