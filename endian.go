package bdat

import "encoding/binary"

// ByteOrder is the capability every dialect-aware reader and writer in
// this package is generic over (§9 design note: "Endian capability").
// encoding/binary.ByteOrder already has exactly the shape this needs, so
// it is used directly rather than via a bespoke interface.
type ByteOrder = binary.ByteOrder

var (
	littleEndian ByteOrder = binary.LittleEndian
	bigEndian    ByteOrder = binary.BigEndian
)

// cursor is a small bounds-checked reader over an in-memory buffer,
// mirroring the teacher's GetData/getStringAtOffset helpers but
// generalized to any ByteOrder.
type cursor struct {
	buf   []byte
	pos   int
	order ByteOrder
}

func newCursor(buf []byte, order ByteOrder) *cursor {
	return &cursor{buf: buf, order: order}
}

func (c *cursor) require(n int) error {
	if c.pos+n > len(c.buf) {
		return ErrUnexpectedEOF
	}
	return nil
}

func (c *cursor) u16() (uint16, error) {
	if err := c.require(2); err != nil {
		return 0, err
	}
	v := c.order.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if err := c.require(4); err != nil {
		return 0, err
	}
	v := c.order.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if err := c.require(n); err != nil {
		return nil, err
	}
	v := c.buf[c.pos : c.pos+n]
	c.pos += n
	return v, nil
}
