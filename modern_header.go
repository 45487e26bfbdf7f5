package bdat

// Modern file and table header layout (§4.4). The modern dialect is
// always little-endian and uses a fixed version word at both the file
// and the table level.

const (
	modernColumnDefLen = 3 // value kind tag (1) + label pool offset (2)
	modernHashDefLen   = 8 // primary-key index entry: hash (4) + row index (4)
)

// modernFileHeader is the fixed-size header at the start of a modern
// BDAT file: magic, version, table count, total file size, then one
// u32 offset per table.
type modernFileHeader struct {
	TableCount   uint32
	FileSize     uint32
	TableOffsets []uint32
}

func readModernFileHeader(c *cursor) (*modernFileHeader, error) {
	magic, err := c.u32()
	if err != nil {
		return nil, err
	}
	if magic != fileMagicValue {
		return nil, ErrBadMagic
	}
	version, err := c.u32()
	if err != nil {
		return nil, err
	}
	if version != modernVersion {
		return nil, &Error{Kind: ErrMalformedFile, Scope: ScopeFile, Message: "unexpected version word"}
	}
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
	return &modernFileHeader{TableCount: tableCount, FileSize: fileSize, TableOffsets: offsets}, nil
}

// modernTableHeader is the fixed-size header at the start of each modern
// table's byte range.
type modernTableHeader struct {
	Columns     uint32
	Rows        uint32
	BaseID      uint32
	OffsetCol   uint32
	OffsetHash  uint32
	OffsetRow   uint32
	RowLength   uint32
	OffsetStr   uint32
	StrLength   uint32
}

func readModernTableHeader(c *cursor) (*modernTableHeader, error) {
	magic, err := c.u32()
	if err != nil {
		return nil, err
	}
	if magic != fileMagicValue {
		return nil, ErrBadMagic
	}
	version, err := c.u32()
	if err != nil {
		return nil, err
	}
	if version != modernTableVersion {
		return nil, &Error{Kind: ErrMalformedTable, Scope: ScopeTable, Message: "unexpected table version word"}
	}

	var h modernTableHeader
	fields := []*uint32{&h.Columns, &h.Rows, &h.BaseID}
	for _, f := range fields {
		v, err := c.u32()
		if err != nil {
			return nil, err
		}
		*f = v
	}

	reserved, err := c.u32()
	if err != nil {
		return nil, err
	}
	if reserved != 0 {
		return nil, &Error{Kind: ErrMalformedTable, Scope: ScopeTable, Message: "reserved field at offset 0x14 was not zero"}
	}

	rest := []*uint32{&h.OffsetCol, &h.OffsetHash, &h.OffsetRow, &h.RowLength, &h.OffsetStr, &h.StrLength}
	for _, f := range rest {
		v, err := c.u32()
		if err != nil {
			return nil, err
		}
		*f = v
	}
	return &h, nil
}

// tableByteLength computes how many bytes of the file belong to this
// table, as the farthest-reaching of its four variable-length sections.
func (h *modernTableHeader) tableByteLength() uint32 {
	max := func(a, b uint32) uint32 {
		if a > b {
			return a
		}
		return b
	}
	l := h.OffsetCol + modernColumnDefLen*h.Columns
	l = max(l, h.OffsetHash+modernHashDefLen*h.Rows)
	l = max(l, h.OffsetRow+h.RowLength*h.Rows)
	l = max(l, h.OffsetStr+h.StrLength)
	return l
}

// fileMagicValue is "BDAT" read as a little-endian u32, shared by both
// the file header and every table header.
const fileMagicValue uint32 = 0x54414442
