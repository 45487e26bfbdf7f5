package bdat

import (
	"bytes"
	"io"
	"math"
	"sort"
)

// EncodeModernTo writes a modern BDAT file to w instead of returning an
// in-memory buffer (§6 write_modern(writer, tables)).
func EncodeModernTo(w io.Writer, tables []*Table) error {
	data, err := EncodeModern(tables)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// EncodeModern serializes a set of modern tables into a single BDAT file
// (§4.4), including a genuine on-disk sorted primary-key index for any
// table that has a hash-ref column.
func EncodeModern(tables []*Table) ([]byte, error) {
	bodies := make([][]byte, len(tables))
	for i, t := range tables {
		b, err := encodeModernTable(t)
		if err != nil {
			return nil, err
		}
		bodies[i] = b
	}

	headerLen := 4 + 4 + 4 + 4 + 4*len(tables)
	var out bytes.Buffer
	putU32 := func(v uint32) {
		var b [4]byte
		littleEndian.PutUint32(b[:], v)
		out.Write(b[:])
	}
	putU32(fileMagicValue)
	putU32(modernVersion)
	putU32(uint32(len(tables)))

	total := headerLen
	for _, b := range bodies {
		total += len(b)
	}
	putU32(uint32(total))

	offset := headerLen
	for _, b := range bodies {
		putU32(uint32(offset))
		offset += len(b)
	}
	for _, b := range bodies {
		out.Write(b)
	}
	return out.Bytes(), nil
}

// modernLabelPool interns labels and string values into a modern table's
// string pool. Index 0 is the label-mode flag byte; the table name's hash
// occupies offsets 1..5; an entry about to land at offset 5 skips ahead
// to 9, mimicking the game's own layout (§9 Open Question (c)).
type modernLabelPool struct {
	buf     bytes.Buffer
	hashes  map[uint32]uint16
	strings map[string]uint32
}

func newModernLabelPool(name Label) *modernLabelPool {
	p := &modernLabelPool{
		hashes:  map[uint32]uint16{},
		strings: map[string]uint32{},
	}
	p.buf.WriteByte(0) // labels-hashed flag: modern labels are always hashed
	var b [4]byte
	littleEndian.PutUint32(b[:], name.IntoHash(DialectModern).Hash())
	p.buf.Write(b[:])
	return p
}

func (p *modernLabelPool) skipReserved() {
	if p.buf.Len() == 5 {
		p.buf.Write(make([]byte, 4))
	}
}

func (p *modernLabelPool) internHash(h uint32) uint16 {
	if off, ok := p.hashes[h]; ok {
		return off
	}
	p.skipReserved()
	off := uint16(p.buf.Len())
	var b [4]byte
	littleEndian.PutUint32(b[:], h)
	p.buf.Write(b[:])
	p.hashes[h] = off
	return off
}

func (p *modernLabelPool) internString(s string) uint32 {
	if s == "" {
		// The mode byte at offset 0 doubles as the canonical empty string.
		return 0
	}
	if off, ok := p.strings[s]; ok {
		return off
	}
	p.skipReserved()
	off := uint32(p.buf.Len())
	p.buf.WriteString(s)
	p.buf.WriteByte(0)
	p.strings[s] = off
	return off
}

func encodeModernTable(t *Table) ([]byte, error) {
	cols := t.Columns()
	rows := t.rows

	pool := newModernLabelPool(t.Name)

	labelOffsets := make([]uint16, len(cols))
	for i, col := range cols {
		labelOffsets[i] = pool.internHash(col.Label.IntoHash(DialectModern).Hash())
	}

	pkCol := -1
	rowLength := 0
	for i, col := range cols {
		if col.ValueKind == KindHashRef && pkCol < 0 {
			pkCol = i
		}
		rowLength += col.ValueKind.dataLen()
	}

	var rowBuf bytes.Buffer
	pkEntries := make([]pkEntry, 0, len(rows))
	for ri, r := range rows {
		for ci, col := range cols {
			if err := writeModernValue(&rowBuf, pool, r.Cells[ci].Single(), col.ValueKind); err != nil {
				return nil, err
			}
		}
		if pkCol >= 0 {
			pkEntries = append(pkEntries, pkEntry{Hash: r.Cells[pkCol].Single().Uint(), Row: ri})
		}
	}
	sort.Slice(pkEntries, func(i, j int) bool { return pkEntries[i].Hash < pkEntries[j].Hash })
	for i := 1; i < len(pkEntries); i++ {
		if pkEntries[i].Hash == pkEntries[i-1].Hash {
			return nil, &Error{
				Kind:   ErrDuplicateKey,
				Column: cols[pkCol].Label,
				Hash:   pkEntries[i].Hash,
				Row1:   rows[pkEntries[i-1].Row].ID,
				Row2:   rows[pkEntries[i].Row].ID,
			}
		}
	}

	var hashBuf bytes.Buffer
	for _, e := range pkEntries {
		var b [8]byte
		littleEndian.PutUint32(b[0:], e.Hash)
		littleEndian.PutUint32(b[4:], uint32(e.Row))
		hashBuf.Write(b[:])
	}

	const headerLen = 0x30
	offsetCol := headerLen
	offsetHash := offsetCol + modernColumnDefLen*len(cols)
	offsetRow := offsetHash + hashBuf.Len()
	offsetStr := offsetRow + rowLength*len(rows)

	var colBuf bytes.Buffer
	for i, col := range cols {
		colBuf.WriteByte(byte(col.ValueKind))
		var b [2]byte
		littleEndian.PutUint16(b[:], labelOffsets[i])
		colBuf.Write(b[:])
	}

	var out bytes.Buffer
	putU32 := func(v uint32) {
		var b [4]byte
		littleEndian.PutUint32(b[:], v)
		out.Write(b[:])
	}
	putU32(fileMagicValue)
	putU32(modernTableVersion)
	putU32(uint32(len(cols)))
	putU32(uint32(len(rows)))
	putU32(uint32(t.BaseID))
	putU32(0) // reserved, always zero on write (§9 Open Question (b))
	putU32(uint32(offsetCol))
	putU32(uint32(offsetHash))
	putU32(uint32(offsetRow))
	putU32(uint32(rowLength))
	putU32(uint32(offsetStr))
	putU32(uint32(pool.buf.Len()))

	out.Write(colBuf.Bytes())
	out.Write(hashBuf.Bytes())
	out.Write(rowBuf.Bytes())
	out.Write(pool.buf.Bytes())

	for out.Len()%4 != 0 {
		out.WriteByte(0)
	}
	return out.Bytes(), nil
}

func writeModernValue(buf *bytes.Buffer, pool *modernLabelPool, v Value, kind ValueKind) error {
	var b [4]byte
	switch kind {
	case KindUnknown:
		// zero-length, reserved
	case KindUnsignedByte, KindPercent, KindUnknown2:
		buf.WriteByte(byte(v.Uint()))
	case KindUnsignedShort, KindUnknown3:
		littleEndian.PutUint16(b[:2], uint16(v.Uint()))
		buf.Write(b[:2])
	case KindUnsignedInt, KindHashRef:
		littleEndian.PutUint32(b[:], v.Uint())
		buf.Write(b[:])
	case KindSignedByte:
		buf.WriteByte(byte(v.Int()))
	case KindSignedShort:
		littleEndian.PutUint16(b[:2], uint16(v.Int()))
		buf.Write(b[:2])
	case KindSignedInt:
		littleEndian.PutUint32(b[:], uint32(v.Int()))
		buf.Write(b[:])
	case KindString, KindDebugString:
		off := pool.internString(v.Str())
		littleEndian.PutUint32(b[:], off)
		buf.Write(b[:])
	case KindFloat:
		littleEndian.PutUint32(b[:], math.Float32bits(v.Real().Float32()))
		buf.Write(b[:])
	default:
		return &Error{Kind: ErrUnknownValueKind, ValueTag: uint8(kind)}
	}
	return nil
}
