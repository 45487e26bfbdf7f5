package bdat

// Legacy file and table header layout (§4.5). Legacy dialects share one
// header shape across all three endian/dialect variants; only Wii lacks
// the column-node offset/count pair, since Wii discovers its column
// nodes by walking the hash index instead (see legacy_columns.go).

var legacyMagic = [4]byte{'B', 'D', 'A', 'T'}

type legacyFileHeader struct {
	TableCount   uint32
	FileSize     uint32
	TableOffsets []uint32
}

func readLegacyFileHeader(c *cursor) (*legacyFileHeader, error) {
	tableCount, err := c.u32()
	if err != nil {
		return nil, err
	}
	fileSize, err := c.u32()
	if err != nil {
		return nil, err
	}
	offsets := make([]uint32, tableCount)
	for i := range offsets {
		o, err := c.u32()
		if err != nil {
			return nil, err
		}
		offsets[i] = o
	}
	return &legacyFileHeader{TableCount: tableCount, FileSize: fileSize, TableOffsets: offsets}, nil
}

// columnNodeInfo is present for every legacy dialect except Wii.
type columnNodeInfo struct {
	OffsetColumns uint16
	ColumnCount   uint16
}

type legacyTableHeader struct {
	ScrambleKey    uint16 // left 0 when Scrambled is false
	Scrambled      bool
	OffsetNames    uint16
	RowLen         uint16
	OffsetHashes   uint16
	HashSlotCount  uint16
	OffsetRows     uint16
	RowCount       uint16
	BaseID         uint16
	OffsetStrings  uint32
	StringsLen     uint32
	Columns        *columnNodeInfo // nil for Wii
}

func readLegacyTableHeader(c *cursor, dialect Dialect) (*legacyTableHeader, error) {
	magic, err := c.bytes(4)
	if err != nil {
		return nil, err
	}
	if magic[0] != legacyMagic[0] || magic[1] != legacyMagic[1] || magic[2] != legacyMagic[2] || magic[3] != legacyMagic[3] {
		return nil, ErrBadMagic
	}

	scrambleID, err := c.u16()
	if err != nil {
		return nil, err
	}

	h := &legacyTableHeader{}
	fields16 := []*uint16{&h.OffsetNames, &h.RowLen, &h.OffsetHashes, &h.HashSlotCount, &h.OffsetRows, &h.RowCount, &h.BaseID}
	for _, f := range fields16 {
		v, err := c.u16()
		if err != nil {
			return nil, err
		}
		*f = v
	}

	constant2, err := c.u16()
	if err != nil {
		return nil, err
	}
	if constant2 != legacyHeaderConstant2 {
		return nil, &Error{Kind: ErrMalformedTable, Scope: ScopeTable, Message: "unknown header constant was not 2"}
	}

	scrambleKey, err := c.u16()
	if err != nil {
		return nil, err
	}

	switch scrambleID {
	case 0:
		h.Scrambled = false
	case 0x300, 2:
		h.Scrambled = true
		h.ScrambleKey = scrambleKey
	default:
		return nil, &Error{Kind: ErrUnknownScrambleKind, ScrambleID: scrambleID}
	}

	offsetStrings, err := c.u32()
	if err != nil {
		return nil, err
	}
	h.OffsetStrings = offsetStrings

	stringsLen, err := c.u32()
	if err != nil {
		return nil, err
	}
	h.StringsLen = stringsLen

	if dialect != DialectLegacyWii {
		offsetCols, err := c.u16()
		if err != nil {
			return nil, err
		}
		colCount, err := c.u16()
		if err != nil {
			return nil, err
		}
		h.Columns = &columnNodeInfo{OffsetColumns: offsetCols, ColumnCount: colCount}
	}

	return h, nil
}

// tableByteLength follows the original reader's own convention: a legacy
// table's true length is determined by the end of its string table.
func (h *legacyTableHeader) tableByteLength() uint32 {
	return h.OffsetStrings + h.StringsLen
}

// unscrambleInPlace reverses scrambling over the column-name region and
// the string table, the only two regions legacy games scramble.
func (h *legacyTableHeader) unscrambleInPlace(data []byte) error {
	if !h.Scrambled {
		return nil
	}
	if int(h.OffsetNames) > int(h.OffsetHashes) || int(h.OffsetHashes) > len(data) {
		return ErrUnexpectedEOF
	}
	if int(h.OffsetStrings)+int(h.StringsLen) > len(data) {
		return ErrUnexpectedEOF
	}
	unscramble(data[h.OffsetNames:h.OffsetHashes], h.ScrambleKey)
	unscramble(data[h.OffsetStrings:h.OffsetStrings+h.StringsLen], h.ScrambleKey)
	return nil
}
