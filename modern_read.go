package bdat

import (
	"io"
	"math"
	"unicode/utf8"
)

// DecodeModernReader decodes every table from a modern BDAT stream
// (§6). The stream is read fully into an owned in-memory copy (§5)
// before decoding, so the returned tables never alias caller-visible
// reader state.
func DecodeModernReader(r io.Reader) ([]*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeModern(data)
}

// DecodeModern decodes every table in a modern BDAT file (§4.4).
func DecodeModern(data []byte) ([]*Table, error) {
	c := newCursor(data, littleEndian)
	header, err := readModernFileHeader(c)
	if err != nil {
		return nil, err
	}
	tables := make([]*Table, len(header.TableOffsets))
	for i, off := range header.TableOffsets {
		if int(off) > len(data) {
			return nil, ErrUnexpectedEOF
		}
		t, err := decodeModernTable(data[off:])
		if err != nil {
			return nil, err
		}
		tables[i] = t
	}
	return tables, nil
}

func decodeModernTable(buf []byte) (*Table, error) {
	c := newCursor(buf, littleEndian)
	h, err := readModernTableHeader(c)
	if err != nil {
		return nil, err
	}
	if l := int(h.tableByteLength()); l <= len(buf) {
		buf = buf[:l]
	}

	hashed := labelsAreHashed(buf, int(h.OffsetStr))
	name, err := modernLabelPoolName(buf, int(h.OffsetStr), hashed)
	if err != nil {
		return nil, err
	}

	cols := make([]Column, h.Columns)
	for i := uint32(0); i < h.Columns; i++ {
		base := int(h.OffsetCol) + int(i)*modernColumnDefLen
		if base+modernColumnDefLen > len(buf) {
			return nil, ErrUnexpectedEOF
		}
		kind := ValueKind(buf[base])
		nameOff := littleEndian.Uint16(buf[base+1:])
		label, err := modernReadLabel(buf, int(h.OffsetStr), int(nameOff), hashed)
		if err != nil {
			return nil, err
		}
		cols[i] = Column{ValueKind: kind, Label: label, Count: 1}
	}

	if end := int(h.OffsetRow) + int(h.Rows)*int(h.RowLength); end > len(buf) {
		return nil, ErrUnexpectedEOF
	}
	rows := make([]Row, h.Rows)
	for i := uint32(0); i < h.Rows; i++ {
		rowBuf := buf[int(h.OffsetRow)+int(i)*int(h.RowLength) : int(h.OffsetRow)+int(i+1)*int(h.RowLength)]
		cells := make([]Cell, h.Columns)
		pos := 0
		for ci, col := range cols {
			v, n, err := readModernValue(buf, int(h.OffsetStr), rowBuf[pos:], col.ValueKind)
			if err != nil {
				return nil, err
			}
			cells[ci] = SingleCell(v)
			pos += n
		}
		rows[i] = Row{ID: RowID(h.BaseID) + RowID(i), Cells: cells}
	}

	t, err := NewTable(name, RowID(h.BaseID), cols, rows)
	if err != nil {
		return nil, err
	}

	pk, err := readModernPrimaryKeyIndex(buf, h)
	if err != nil {
		return nil, err
	}
	if pk != nil {
		t.pk = pk
	}
	return t, nil
}

func labelsAreHashed(buf []byte, poolOffset int) bool {
	if poolOffset >= len(buf) {
		return true
	}
	return buf[poolOffset] == 0
}

func modernLabelPoolName(buf []byte, poolOffset int, hashed bool) (Label, error) {
	return modernReadLabel(buf, poolOffset, 1, hashed)
}

func modernReadLabel(buf []byte, poolOffset, labelOffset int, hashed bool) (Label, error) {
	abs := poolOffset + labelOffset
	if hashed {
		if abs+4 > len(buf) {
			return Label{}, ErrUnexpectedEOF
		}
		return HashLabel(littleEndian.Uint32(buf[abs:])), nil
	}
	s, err := readCString(buf, abs)
	if err != nil {
		return Label{}, err
	}
	return StringLabel(s), nil
}

func readCString(buf []byte, off int) (string, error) {
	if off < 0 || off > len(buf) {
		return "", ErrUnexpectedEOF
	}
	end := off
	for end < len(buf) && buf[end] != 0 {
		end++
	}
	if end >= len(buf) {
		return "", ErrUnexpectedEOF
	}
	s := buf[off:end]
	if !utf8.Valid(s) {
		return "", &Error{Kind: ErrUTF8}
	}
	return string(s), nil
}

func readModernValue(buf []byte, poolOffset int, row []byte, kind ValueKind) (Value, int, error) {
	if kind > maxValueKind {
		return Value{}, 0, &Error{Kind: ErrUnknownValueKind, ValueTag: uint8(kind)}
	}
	n := kind.dataLen()
	if len(row) < n {
		return Value{}, 0, ErrUnexpectedEOF
	}
	switch kind {
	case KindUnknown:
		return UnknownValue(), 0, nil
	case KindUnsignedByte:
		return UnsignedByteValue(row[0]), n, nil
	case KindUnsignedShort:
		return UnsignedShortValue(littleEndian.Uint16(row)), n, nil
	case KindUnsignedInt:
		return UnsignedIntValue(littleEndian.Uint32(row)), n, nil
	case KindSignedByte:
		return SignedByteValue(int8(row[0])), n, nil
	case KindSignedShort:
		return SignedShortValue(int16(littleEndian.Uint16(row))), n, nil
	case KindSignedInt:
		return SignedIntValue(int32(littleEndian.Uint32(row))), n, nil
	case KindString:
		off := littleEndian.Uint32(row)
		s, err := readCString(buf, poolOffset+int(off))
		if err != nil {
			return Value{}, 0, err
		}
		return StringValue(s), n, nil
	case KindFloat:
		bits := littleEndian.Uint32(row)
		return FloatValue(FloatReal(math.Float32frombits(bits))), n, nil
	case KindHashRef:
		return HashRefValue(littleEndian.Uint32(row)), n, nil
	case KindPercent:
		return PercentValue(row[0]), n, nil
	case KindDebugString:
		off := littleEndian.Uint32(row)
		s, err := readCString(buf, poolOffset+int(off))
		if err != nil {
			return Value{}, 0, err
		}
		return DebugStringValue(s), n, nil
	case KindUnknown2:
		return Unknown2Value(row[0]), n, nil
	default: // KindUnknown3
		return Unknown3Value(littleEndian.Uint16(row)), n, nil
	}
}
