package bdat

import (
	"fmt"
	"strconv"
	"strings"
)

// LabelKind distinguishes the three ways a table, column, or row label
// can be carried (§3).
type LabelKind uint8

const (
	// LabelHash is a 32-bit hash, as used by every label in modern BDATs.
	LabelHash LabelKind = iota
	// LabelString is a plain-text label, as used in legacy BDATs.
	LabelString
	// LabelUnhashed is a plain-text label known to have originated from a
	// hash the caller could not (or chose not to) resolve back to text.
	LabelUnhashed
)

// Label names a BDAT element: a table, a column, or (rarely) a row.
type Label struct {
	kind LabelKind
	hash uint32
	text string
}

// HashLabel builds a Label carrying a raw 32-bit hash.
func HashLabel(hash uint32) Label {
	return Label{kind: LabelHash, hash: hash}
}

// StringLabel builds a plain-text Label.
func StringLabel(text string) Label {
	return Label{kind: LabelString, text: text}
}

// UnhashedLabel builds a Label for text known to originate from an
// unresolved hash.
func UnhashedLabel(text string) Label {
	return Label{kind: LabelUnhashed, text: text}
}

// ParseLabel extracts a Label from text. A string of the exact form
// "<01ABCDEF>" (angle brackets around 8 hex digits) becomes a HashLabel;
// anything else becomes a StringLabel, unless forceHash is set, in which
// case it is hashed with murmur3 instead.
func ParseLabel(text string, forceHash bool) Label {
	if len(text) == 10 && text[0] == '<' && text[9] == '>' {
		if n, err := strconv.ParseUint(text[1:9], 16, 32); err == nil {
			return HashLabel(uint32(n))
		}
	}
	if forceHash {
		return HashLabel(murmur3(text))
	}
	return StringLabel(text)
}

// Kind reports which representation the label carries.
func (l Label) Kind() LabelKind { return l.kind }

// Hash returns the raw hash value. It is only meaningful when Kind is
// LabelHash.
func (l Label) Hash() uint32 { return l.hash }

// Text returns the string value. It is only meaningful when Kind is
// LabelString or LabelUnhashed.
func (l Label) Text() string { return l.text }

// IntoHash turns the label into a hashed label if dialect hashes its
// labels; otherwise it is returned unchanged.
func (l Label) IntoHash(dialect Dialect) Label {
	if !dialect.LabelsHashed() {
		return l
	}
	if l.kind == LabelHash {
		return l
	}
	return HashLabel(murmur3(l.text))
}

// CmpValue orders two labels by their underlying value rather than by
// representation: a LabelString and a LabelUnhashed carrying the same
// text compare equal. Hashed labels always sort after non-hashed ones;
// among themselves they compare by numeric hash.
func (l Label) CmpValue(other Label) int {
	switch {
	case l.kind == LabelHash && other.kind == LabelHash:
		switch {
		case l.hash < other.hash:
			return -1
		case l.hash > other.hash:
			return 1
		default:
			return 0
		}
	case other.kind == LabelHash:
		return -1
	case l.kind == LabelHash:
		return 1
	default:
		return strings.Compare(l.text, other.text)
	}
}

// String renders the label as "<HASH>" for hashed labels (8 uppercase hex
// digits) or the plain text otherwise.
func (l Label) String() string {
	switch l.kind {
	case LabelHash:
		return fmt.Sprintf("<%08X>", l.hash)
	default:
		return l.text
	}
}
