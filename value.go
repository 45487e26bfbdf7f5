package bdat

import "fmt"

// ValueKind tags the payload carried by a Value (§3, §9). The numeric
// values are the on-disk type tag bytes themselves; readers cast the tag
// byte directly and writers emit it unchanged, so the mapping here is
// part of the wire format and must not be reordered.
type ValueKind uint8

const (
	// KindUnknown is tag 0, reserved by the format and never emitted by
	// the games; it carries no row bytes.
	KindUnknown       ValueKind = 0
	KindUnsignedByte  ValueKind = 1
	KindUnsignedShort ValueKind = 2
	KindUnsignedInt   ValueKind = 3
	KindSignedByte    ValueKind = 4
	KindSignedShort   ValueKind = 5
	KindSignedInt     ValueKind = 6
	KindString        ValueKind = 7
	KindFloat         ValueKind = 8
	// KindHashRef is a murmur3 hash referencing a row in the same or
	// another table; the first hash-ref column is the table's primary key.
	KindHashRef ValueKind = 9
	KindPercent ValueKind = 10
	// KindDebugString points to a (generally empty) string pool entry,
	// mostly used for DebugName fields.
	KindDebugString ValueKind = 11
	KindUnknown2    ValueKind = 12
	// KindUnknown3 seems to be some sort of translation index, mostly
	// used for Name and Caption fields.
	KindUnknown3 ValueKind = 13
)

const maxValueKind = KindUnknown3

// String renders the kind's name, used in error messages (see Error).
func (k ValueKind) String() string {
	switch k {
	case KindUnknown:
		return "Unknown"
	case KindUnsignedByte:
		return "UnsignedByte"
	case KindUnsignedShort:
		return "UnsignedShort"
	case KindUnsignedInt:
		return "UnsignedInt"
	case KindSignedByte:
		return "SignedByte"
	case KindSignedShort:
		return "SignedShort"
	case KindSignedInt:
		return "SignedInt"
	case KindString:
		return "String"
	case KindFloat:
		return "Float"
	case KindHashRef:
		return "HashRef"
	case KindPercent:
		return "Percent"
	case KindDebugString:
		return "DebugString"
	case KindUnknown2:
		return "Unknown2"
	case KindUnknown3:
		return "Unknown3"
	default:
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
}

// dataLen is the number of bytes one value of this kind occupies in a
// row, identical across every dialect (§3).
func (k ValueKind) dataLen() int {
	switch k {
	case KindUnknown:
		return 0
	case KindUnsignedByte, KindSignedByte, KindPercent, KindUnknown2:
		return 1
	case KindUnsignedShort, KindSignedShort, KindUnknown3:
		return 2
	default:
		return 4
	}
}

// supportedIn reports whether this value kind is representable in
// dialect (§4.8). Percent, HashRef, DebugString, Unknown2, and Unknown3
// are modern-only; legacy dialects have no label pool to reference a
// hash against, and never emit the remaining tags.
func (k ValueKind) supportedIn(dialect Dialect) bool {
	switch k {
	case KindPercent, KindHashRef, KindDebugString, KindUnknown2, KindUnknown3:
		return dialect == DialectModern
	default:
		return true
	}
}

// Value is a single typed BDAT scalar (§3). Exactly one of the fields
// below is meaningful, selected by Kind.
type Value struct {
	kind ValueKind
	u    uint32
	i    int32
	f    BdatReal
	s    string
}

func UnknownValue() Value               { return Value{kind: KindUnknown} }
func UnsignedByteValue(v uint8) Value   { return Value{kind: KindUnsignedByte, u: uint32(v)} }
func UnsignedShortValue(v uint16) Value { return Value{kind: KindUnsignedShort, u: uint32(v)} }
func UnsignedIntValue(v uint32) Value   { return Value{kind: KindUnsignedInt, u: v} }
func SignedByteValue(v int8) Value      { return Value{kind: KindSignedByte, i: int32(v)} }
func SignedShortValue(v int16) Value    { return Value{kind: KindSignedShort, i: int32(v)} }
func SignedIntValue(v int32) Value      { return Value{kind: KindSignedInt, i: v} }
func StringValue(v string) Value        { return Value{kind: KindString, s: v} }
func FloatValue(v BdatReal) Value       { return Value{kind: KindFloat, f: v} }
func HashRefValue(v uint32) Value       { return Value{kind: KindHashRef, u: v} }
func PercentValue(v uint8) Value        { return Value{kind: KindPercent, u: uint32(v)} }
func DebugStringValue(v string) Value   { return Value{kind: KindDebugString, s: v} }
func Unknown2Value(v uint8) Value       { return Value{kind: KindUnknown2, u: uint32(v)} }
func Unknown3Value(v uint16) Value      { return Value{kind: KindUnknown3, u: uint32(v)} }

// Kind reports the value's tag.
func (v Value) Kind() ValueKind { return v.kind }

// Uint returns the value as a uint32, valid for every unsigned/percent/
// hash-ref/unknown integer kind.
func (v Value) Uint() uint32 { return v.u }

// Int returns the value as an int32, valid for the signed integer kinds.
func (v Value) Int() int32 { return v.i }

// toInteger is the unsigned bit pattern of any integer-kind value,
// signed kinds included; flag decomposition and packing operate on it.
func (v Value) toInteger() uint32 {
	switch v.kind {
	case KindSignedByte, KindSignedShort, KindSignedInt:
		return uint32(v.i)
	default:
		return v.u
	}
}

// valueFromInteger rebuilds an integer-kind value from its unsigned bit
// pattern, the inverse of toInteger.
func valueFromInteger(kind ValueKind, bits uint32) Value {
	switch kind {
	case KindSignedByte:
		return SignedByteValue(int8(bits))
	case KindSignedShort:
		return SignedShortValue(int16(bits))
	case KindSignedInt:
		return SignedIntValue(int32(bits))
	default:
		return Value{kind: kind, u: bits}
	}
}

// Real returns the value as a BdatReal, valid for KindFloat.
func (v Value) Real() BdatReal { return v.f }

// Str returns the value as a string, valid for KindString and
// KindDebugString.
func (v Value) Str() string { return v.s }
