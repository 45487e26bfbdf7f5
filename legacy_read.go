package bdat

import (
	"io"
	"math"
)

// DecodeLegacyReader decodes every table from a legacy BDAT stream for
// the given dialect (§6). The stream is read fully into an owned
// in-memory copy (§5) before decoding; decodeLegacyTable additionally
// copies each table's own bytes before unscrambling in place, so the
// returned tables never alias caller-visible reader state.
func DecodeLegacyReader(r io.Reader, dialect Dialect) ([]*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeLegacy(data, dialect)
}

// DecodeLegacy decodes every table in a legacy BDAT file for the given
// dialect (§4.5). The dialect must be supplied by the caller; it cannot
// always be recovered purely from file-level detection (see detect.go).
func DecodeLegacy(data []byte, dialect Dialect) ([]*Table, error) {
	order := dialect.Endian()
	c := newCursor(data, order)
	header, err := readLegacyFileHeader(c)
	if err != nil {
		return nil, err
	}

	tables := make([]*Table, len(header.TableOffsets))
	for i, off := range header.TableOffsets {
		end := header.FileSize
		if i+1 < len(header.TableOffsets) {
			end = header.TableOffsets[i+1]
		}
		if int(off) > len(data) || int(end) > len(data) || off > end {
			return nil, ErrUnexpectedEOF
		}
		t, err := decodeLegacyTable(data[off:end], order, dialect)
		if err != nil {
			return nil, err
		}
		tables[i] = t
	}
	return tables, nil
}

func decodeLegacyTable(buf []byte, order ByteOrder, dialect Dialect) (*Table, error) {
	raw := append([]byte(nil), buf...)
	c := newCursor(raw, order)
	h, err := readLegacyTableHeader(c, dialect)
	if err != nil {
		return nil, err
	}
	// All legacy games treat the last byte of the string table as the end
	// of the table.
	if l := int(h.tableByteLength()); l <= len(raw) {
		raw = raw[:l]
	}
	if err := h.unscrambleInPlace(raw); err != nil {
		return nil, err
	}

	name, err := readCString(raw, int(h.OffsetNames))
	if err != nil {
		return nil, err
	}

	var columns, flags []legacyColumnNode
	if h.Columns != nil {
		columns, flags, err = discoverColumnsFromNodes(raw, order, h.Columns)
	} else {
		columns, flags, err = discoverColumnsFromHash(raw, order, h)
	}
	if err != nil {
		return nil, err
	}

	cols := make([]Column, len(columns))
	for i, cn := range columns {
		col := Column{ValueKind: cn.ValueKind, Label: StringLabel(cn.Name)}
		switch cn.Shape {
		case cellShapeArray:
			col.Count = int(cn.ArrayLen)
		default:
			col.Count = 1
		}
		for _, f := range flagsForParent(flags, cn.InfoOffset) {
			col.Flags = append(col.Flags, FlagDef{
				Label:   StringLabel(f.Name),
				BitMask: f.FlagMask,
				Shift:   f.Shift,
			})
		}
		cols[i] = col
	}

	if end := int(h.OffsetRows) + int(h.RowCount)*int(h.RowLen); end > len(raw) {
		return nil, ErrUnexpectedEOF
	}
	rows := make([]Row, h.RowCount)
	for i := uint16(0); i < h.RowCount; i++ {
		rowBuf := raw[int(h.OffsetRows)+int(i)*int(h.RowLen) : int(h.OffsetRows)+int(i+1)*int(h.RowLen)]
		cells := make([]Cell, len(cols))
		pos := 0
		for ci, cn := range columns {
			switch cn.Shape {
			case cellShapeArray:
				values := make([]Value, cn.ArrayLen)
				for j := range values {
					v, n, err := readLegacyValue(raw, int(h.OffsetStrings), rowBuf[pos:], cn.ValueKind, dialect)
					if err != nil {
						return nil, err
					}
					values[j] = v
					pos += n
				}
				cells[ci] = ListCell(values)
			default:
				v, n, err := readLegacyValue(raw, int(h.OffsetStrings), rowBuf[pos:], cn.ValueKind, dialect)
				if err != nil {
					return nil, err
				}
				pos += n
				if len(cols[ci].Flags) > 0 {
					sub := make([]uint32, len(cols[ci].Flags))
					for fi, fd := range cols[ci].Flags {
						sub[fi] = fd.Apply(v.toInteger())
					}
					cells[ci] = FlagsCell(sub)
				} else {
					cells[ci] = SingleCell(v)
				}
			}
		}
		rows[i] = Row{ID: RowID(h.BaseID) + RowID(i), Cells: cells}
	}

	return NewTable(StringLabel(name), RowID(h.BaseID), cols, rows)
}

func readLegacyValue(buf []byte, stringsOffset int, row []byte, kind ValueKind, dialect Dialect) (Value, int, error) {
	if kind > maxValueKind {
		return Value{}, 0, &Error{Kind: ErrUnknownValueKind, ValueTag: uint8(kind)}
	}
	if !kind.supportedIn(dialect) {
		return Value{}, 0, &Error{Kind: ErrUnsupportedValueType, ValueTag: uint8(kind)}
	}
	n := kind.dataLen()
	if len(row) < n {
		return Value{}, 0, ErrUnexpectedEOF
	}
	order := dialect.Endian()
	switch kind {
	case KindUnknown:
		return UnknownValue(), 0, nil
	case KindUnsignedByte:
		return UnsignedByteValue(row[0]), n, nil
	case KindUnsignedShort:
		return UnsignedShortValue(order.Uint16(row)), n, nil
	case KindUnsignedInt:
		return UnsignedIntValue(order.Uint32(row)), n, nil
	case KindSignedByte:
		return SignedByteValue(int8(row[0])), n, nil
	case KindSignedShort:
		return SignedShortValue(int16(order.Uint16(row))), n, nil
	case KindSignedInt:
		return SignedIntValue(int32(order.Uint32(row))), n, nil
	case KindString:
		off := order.Uint32(row)
		s, err := readCString(buf, stringsOffset+int(off))
		if err != nil {
			return Value{}, 0, err
		}
		return StringValue(s), n, nil
	default: // KindFloat
		bits := order.Uint32(row)
		return FloatValue(fixedOrFloatFromBits(bits, dialect)), n, nil
	}
}

func fixedOrFloatFromBits(bits uint32, dialect Dialect) BdatReal {
	if dialect == DialectLegacyWiiU {
		return fixedFromBits(bits)
	}
	return FloatReal(math.Float32frombits(bits))
}
