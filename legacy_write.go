package bdat

import (
	"bytes"
	"errors"
	"io"
	"math"
)

// ErrWiiWriteUnsupported is returned by EncodeLegacy for DialectLegacyWii.
// Wii has no flat column-node array: its nodes are discovered by walking
// the in-file hash chain, with each node's name stored inline rather
// than in a shared string pool (see legacy_columns.go's
// discoverColumnsFromHash). No source this package is grounded on
// describes a write-time algorithm for constructing that inline layout,
// so rather than guess at an unverifiable byte arrangement, Wii write is
// left unimplemented; Wii *read* support is complete. Non-Wii legacy
// tables (Wii-U and Switch) are fully supported for both directions.
var ErrWiiWriteUnsupported = errors.New("bdat: writing legacy-wii tables is not supported")

// LegacyWriteOptions configures EncodeLegacy (§9 design note: "Legacy
// write accepts { scramble: on/off (default on), hash_slots: u32
// (default 61) }"). A nil *LegacyWriteOptions means
// DefaultLegacyWriteOptions.
type LegacyWriteOptions struct {
	// Scramble, when true, scrambles the name and string regions of
	// every written table. The scramble key is never caller-supplied: it
	// is the checksum (§4.2) of the finished, unscrambled table, computed
	// and stored as that table's own scramble_key, per §4.5 write step 5.
	Scramble bool
	// HashSlots overrides the legacy hash index's modulus for every
	// table in this write. Zero means the default (61).
	HashSlots uint32
}

// DefaultLegacyWriteOptions returns the spec's documented defaults:
// scrambling on, 61 hash slots.
func DefaultLegacyWriteOptions() LegacyWriteOptions {
	return LegacyWriteOptions{Scramble: true, HashSlots: defaultHashSlots}
}

// EncodeLegacy serializes a set of legacy tables into a single BDAT file
// for dialect (§4.5). opts may be nil for DefaultLegacyWriteOptions.
func EncodeLegacy(tables []*Table, dialect Dialect, opts *LegacyWriteOptions) ([]byte, error) {
	if !dialect.IsLegacy() {
		panic("bdat: EncodeLegacy requires a legacy dialect")
	}
	if dialect == DialectLegacyWii {
		return nil, ErrWiiWriteUnsupported
	}
	o := DefaultLegacyWriteOptions()
	if opts != nil {
		o = *opts
	}
	if o.HashSlots == 0 {
		o.HashSlots = defaultHashSlots
	}
	order := dialect.Endian()

	bodies := make([][]byte, len(tables))
	for i, t := range tables {
		b, err := encodeLegacyTable(t, order, dialect, o)
		if err != nil {
			return nil, err
		}
		bodies[i] = b
	}

	headerLen := 4 + 4 + 4*len(tables)
	var out bytes.Buffer
	putU32 := func(v uint32) {
		var b [4]byte
		order.PutUint32(b[:], v)
		out.Write(b[:])
	}
	total := headerLen
	for _, b := range bodies {
		total += len(b)
	}
	putU32(uint32(len(tables)))
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

// EncodeLegacyTo writes a legacy BDAT file to w instead of returning an
// in-memory buffer (§6 write_legacy(writer, tables, dialect, opts)).
func EncodeLegacyTo(w io.Writer, tables []*Table, dialect Dialect, opts *LegacyWriteOptions) error {
	data, err := EncodeLegacy(tables, dialect, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// legacyLabelText rejects bare-hash labels, which legacy tables cannot
// store (§3: legacy labels are strings).
func legacyLabelText(l Label) (string, error) {
	if l.Kind() == LabelHash {
		return "", &Error{Kind: ErrUnsupportedLabelType}
	}
	return l.Text(), nil
}

func encodeLegacyTable(t *Table, order ByteOrder, dialect Dialect, o LegacyWriteOptions) ([]byte, error) {
	cols := t.Columns()

	// Name table: table name first, then column labels, then flag labels,
	// each entry null-terminated and padded to 2 bytes so the scrambled
	// name region keeps an even length.
	var names bytes.Buffer
	internName := func(s string) uint16 {
		off := uint16(names.Len())
		names.WriteString(s)
		names.WriteByte(0)
		if names.Len()%2 != 0 {
			names.WriteByte(0)
		}
		return off
	}
	tableName, err := legacyLabelText(t.Name)
	if err != nil {
		return nil, err
	}
	tableNameOffset := internName(tableName)

	nameOffsets := make([]uint16, len(cols))
	for i, col := range cols {
		text, err := legacyLabelText(col.Label)
		if err != nil {
			return nil, err
		}
		nameOffsets[i] = internName(text)
	}

	flagNameOffsets := make([][]uint16, len(cols))
	for i, col := range cols {
		if len(col.Flags) == 0 {
			continue
		}
		flagNameOffsets[i] = make([]uint16, len(col.Flags))
		for j, fd := range col.Flags {
			text, err := legacyLabelText(fd.Label)
			if err != nil {
				return nil, err
			}
			flagNameOffsets[i][j] = internName(text)
		}
	}

	rowLen := 0
	for _, c := range cols {
		rowLen += c.ValueKind.dataLen() * maxInt(c.Count, 1)
	}

	// String table, padded to 2 bytes per entry like the name table so
	// the scrambled string region keeps an even length.
	var strings bytes.Buffer
	stringOffsets := map[string]uint32{}
	internString := func(s string) uint32 {
		if off, ok := stringOffsets[s]; ok {
			return off
		}
		off := uint32(strings.Len())
		strings.WriteString(s)
		strings.WriteByte(0)
		if strings.Len()%2 != 0 {
			strings.WriteByte(0)
		}
		stringOffsets[s] = off
		return off
	}

	var rowBuf bytes.Buffer
	for _, r := range t.rows {
		for ci, col := range cols {
			cell := r.Cells[ci]
			switch cell.Kind() {
			case CellList:
				for _, v := range cell.List() {
					if err := writeLegacyValue(&rowBuf, order, internString, v, col.ValueKind, dialect); err != nil {
						return nil, err
					}
				}
			default:
				v := cell.Single()
				if cell.Kind() == CellFlags {
					v = valueFromInteger(col.ValueKind, col.PackFlags(cell.Flags()))
				}
				if err := writeLegacyValue(&rowBuf, order, internString, v, col.ValueKind, dialect); err != nil {
					return nil, err
				}
			}
		}
	}

	// Column info entries: one value descriptor per column, then one per
	// flag sub-column, immediately followed by the flat column node array
	// the header points to. Flag entries are re-grouped under their
	// parent on read by the parent's node offset (§4.5).
	var infoBuf bytes.Buffer
	var nodeBuf bytes.Buffer
	totalNodes := 0

	colOffset := 0
	for i, col := range cols {
		infoOff := infoBuf.Len()
		if col.Count > 1 {
			infoBuf.WriteByte(byte(cellShapeArray))
			infoBuf.WriteByte(byte(col.ValueKind))
			var b [4]byte
			order.PutUint16(b[0:2], uint16(colOffset))
			order.PutUint16(b[2:4], uint16(col.Count))
			infoBuf.Write(b[:4])
		} else {
			infoBuf.WriteByte(byte(cellShapeValue))
			infoBuf.WriteByte(byte(col.ValueKind))
			var b [2]byte
			order.PutUint16(b[:], uint16(colOffset))
			infoBuf.Write(b[:])
		}
		colOffset += col.ValueKind.dataLen() * maxInt(col.Count, 1)

		var node [6]byte
		order.PutUint16(node[0:2], uint16(infoOff)) // patched to absolute offset below
		order.PutUint16(node[2:4], 0)
		order.PutUint16(node[4:6], nameOffsets[i])
		nodeBuf.Write(node[:])
		totalNodes++
	}

	// flagParentPatch records, for one flag's info entry, where its
	// 2-byte parent-column pointer field lives in infoBuf and which
	// column (by index into cols) it must end up pointing at.
	type flagParentPatch struct {
		infoFieldOffset int
		parentCol       int
	}
	var flagPatches []flagParentPatch

	for i, col := range cols {
		for j, fd := range col.Flags {
			infoOff := infoBuf.Len()
			infoBuf.WriteByte(byte(cellShapeFlag))
			infoBuf.WriteByte(fd.Shift)
			var mb [4]byte
			order.PutUint32(mb[:], fd.BitMask)
			infoBuf.Write(mb[:])
			parentFieldOff := infoBuf.Len()
			infoBuf.Write([]byte{0, 0}) // patched to the parent's absolute node offset below
			flagPatches = append(flagPatches, flagParentPatch{infoFieldOffset: parentFieldOff, parentCol: i})

			var node [6]byte
			order.PutUint16(node[0:2], uint16(infoOff))
			order.PutUint16(node[2:4], 0)
			order.PutUint16(node[4:6], flagNameOffsets[i][j])
			nodeBuf.Write(node[:])
			totalNodes++
		}
	}

	const headerLen = 0x24 // fixed header fields including the column-node offset/count; see legacy_header.go
	offsetNames := headerLen
	offsetColumnInfo := offsetNames + names.Len()
	offsetColumnNodes := offsetColumnInfo + infoBuf.Len()
	offsetHashes := offsetColumnNodes + nodeBuf.Len()

	slots := newLegacyHashTable(o.HashSlots)
	for i, col := range cols {
		slots.insertUnique(col.Label.Text(), uint16(offsetColumnNodes+i*columnNodeSize))
	}
	nodeIdx := len(cols)
	for _, col := range cols {
		for _, fd := range col.Flags {
			slots.insertUnique(fd.Label.Text(), uint16(offsetColumnNodes+nodeIdx*columnNodeSize))
			nodeIdx++
		}
	}
	hashBytes := slots.writeFirstLevel(order)

	offsetRows := offsetHashes + len(hashBytes)
	offsetStrings := offsetRows + rowBuf.Len()

	// Patch column-info-pointers in the node array to be absolute file
	// offsets rather than relative to infoBuf, and rebase every name
	// offset onto the name region's absolute position.
	nodes := nodeBuf.Bytes()
	for i := 0; i < totalNodes; i++ {
		absInfo := uint16(offsetColumnInfo) + order.Uint16(nodes[i*columnNodeSize:])
		order.PutUint16(nodes[i*columnNodeSize:], absInfo)
	}
	for i := range cols {
		order.PutUint16(nodes[i*columnNodeSize+4:], nameOffsets[i]+uint16(offsetNames))
	}
	nodeIdx = len(cols)
	for i, col := range cols {
		for j := range col.Flags {
			order.PutUint16(nodes[nodeIdx*columnNodeSize+4:], flagNameOffsets[i][j]+uint16(offsetNames))
			nodeIdx++
		}
	}

	// Link each hash slot's chain: the first node is already in the
	// first-level slot array; every later node's offset goes into the
	// "next" field of the node before it (§4.5 write step 3).
	for _, p := range slots.chainPatches() {
		order.PutUint16(nodes[int(p.Offset)-offsetColumnNodes+2:], p.Next)
	}

	// Patch each flag's parent-column pointer to the parent's now-known
	// absolute node offset.
	info := infoBuf.Bytes()
	for _, fp := range flagPatches {
		order.PutUint16(info[fp.infoFieldOffset:], uint16(offsetColumnNodes+fp.parentCol*columnNodeSize))
	}

	nameOffsetField, err := checkU16(offsetNames+int(tableNameOffset), "table name offset")
	if err != nil {
		return nil, err
	}
	rowLenField, err := checkU16(rowLen, "row length")
	if err != nil {
		return nil, err
	}
	offsetHashesField, err := checkU16(offsetHashes, "hash table offset")
	if err != nil {
		return nil, err
	}
	hashSlotsField, err := checkU16(int(o.HashSlots), "hash slot count")
	if err != nil {
		return nil, err
	}
	offsetRowsField, err := checkU16(offsetRows, "row table offset")
	if err != nil {
		return nil, err
	}
	rowCountField, err := checkU16(len(t.rows), "row count")
	if err != nil {
		return nil, err
	}
	baseIDField, err := checkU16(int(t.BaseID), "base row id")
	if err != nil {
		return nil, err
	}
	if int(t.BaseID)+len(t.rows) > math.MaxUint16 {
		return nil, &Error{Kind: ErrMaxRowCountExceeded}
	}
	offsetNodesField, err := checkU16(offsetColumnNodes, "column node offset")
	if err != nil {
		return nil, err
	}
	totalNodesField, err := checkU16(totalNodes, "column node count")
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Write(legacyMagic[:])

	put16 := func(v uint16) {
		var b [2]byte
		order.PutUint16(b[:], v)
		out.Write(b[:])
	}
	put32 := func(v uint32) {
		var b [4]byte
		order.PutUint32(b[:], v)
		out.Write(b[:])
	}

	// scrambleID/scrambleKey are written as zero here and patched in
	// after the checksum-derived key is known (§4.5 write step 5). The
	// checksum covers the finished, unscrambled table from offset 0x20
	// onward, so these two fields (at offsets 4 and 22) do not feed into
	// it.
	put16(0) // scrambleID, patched below
	put16(nameOffsetField)
	put16(rowLenField)
	put16(offsetHashesField)
	put16(hashSlotsField)
	put16(offsetRowsField)
	put16(rowCountField)
	put16(baseIDField)
	put16(legacyHeaderConstant2)
	put16(0) // scrambleKey, patched below
	put32(uint32(offsetStrings))
	put32(uint32(strings.Len()))
	put16(offsetNodesField)
	put16(totalNodesField)

	out.Write(names.Bytes())
	out.Write(infoBuf.Bytes())
	out.Write(nodes)
	out.Write(hashBytes)
	out.Write(rowBuf.Bytes())
	out.Write(strings.Bytes())

	raw := out.Bytes()
	if o.Scramble {
		key := checksum(raw)
		if key != 0 {
			scrambleID := uint16(2)
			if dialect == DialectLegacyWiiU {
				scrambleID = 0x300
			}
			order.PutUint16(raw[4:], scrambleID)
			order.PutUint16(raw[22:], key)
			scramble(raw[offsetNames:offsetHashes], key)
			scramble(raw[offsetStrings:offsetStrings+strings.Len()], key)
		}
	}
	return raw, nil
}

// checkU16 validates that v fits in the on-disk u16 field named field,
// returning ErrIntegerOverflow (§7) instead of silently truncating.
func checkU16(v int, field string) (uint16, error) {
	if v < 0 || v > math.MaxUint16 {
		return 0, &Error{Kind: ErrIntegerOverflow, Message: field}
	}
	return uint16(v), nil
}

func writeLegacyValue(buf *bytes.Buffer, order ByteOrder, intern func(string) uint32, v Value, kind ValueKind, dialect Dialect) error {
	switch kind {
	case KindUnknown:
		// zero-length, reserved
		return nil
	case KindUnsignedByte:
		buf.WriteByte(byte(v.Uint()))
	case KindUnsignedShort:
		var b [2]byte
		order.PutUint16(b[:], uint16(v.Uint()))
		buf.Write(b[:])
	case KindUnsignedInt:
		var b [4]byte
		order.PutUint32(b[:], v.Uint())
		buf.Write(b[:])
	case KindSignedByte:
		buf.WriteByte(byte(v.Int()))
	case KindSignedShort:
		var b [2]byte
		order.PutUint16(b[:], uint16(v.Int()))
		buf.Write(b[:])
	case KindSignedInt:
		var b [4]byte
		order.PutUint32(b[:], uint32(v.Int()))
		buf.Write(b[:])
	case KindString:
		var b [4]byte
		order.PutUint32(b[:], intern(v.Str()))
		buf.Write(b[:])
	case KindFloat:
		real := v.Real()
		real.MakeKnown(dialect)
		var b [4]byte
		order.PutUint32(b[:], real.bits())
		buf.Write(b[:])
	default:
		if kind <= maxValueKind && !kind.supportedIn(dialect) {
			return &Error{Kind: ErrUnsupportedValueType, ValueTag: uint8(kind)}
		}
		return &Error{Kind: ErrUnknownValueKind, ValueTag: uint8(kind)}
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
