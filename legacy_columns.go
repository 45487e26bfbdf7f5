package bdat

import "sort"

// Legacy column-node discovery (§4.5). Every legacy dialect but Wii
// lists its column nodes in a flat array (columnNodeInfo); Wii has no
// such array and instead requires walking the in-file hash index,
// following each node's "next" link until every reachable node has been
// visited.

const columnNodeSize = 6 // info_ptr(2) + link(2) + name_offset(2)

type cellShape uint8

const (
	cellShapeValue cellShape = 1
	cellShapeArray cellShape = 2
	cellShapeFlag  cellShape = 3
)

type legacyColumnNode struct {
	Name          string
	InfoOffset    int
	Shape         cellShape
	ValueKind     ValueKind
	ValueOffset   uint16
	ArrayLen      uint16
	Shift         uint8
	FlagMask      uint32
	ParentInfoOff int
}

func readLegacyCell(buf []byte, order ByteOrder, infoPtr int) (legacyColumnNode, error) {
	if infoPtr >= len(buf) {
		return legacyColumnNode{}, ErrUnexpectedEOF
	}
	shape := cellShape(buf[infoPtr])
	rest := buf[infoPtr+1:]
	switch shape {
	case cellShapeValue:
		if len(rest) < 3 {
			return legacyColumnNode{}, ErrUnexpectedEOF
		}
		return legacyColumnNode{
			Shape:       shape,
			ValueKind:   ValueKind(rest[0]),
			ValueOffset: order.Uint16(rest[1:3]),
		}, nil
	case cellShapeArray:
		if len(rest) < 5 {
			return legacyColumnNode{}, ErrUnexpectedEOF
		}
		return legacyColumnNode{
			Shape:       shape,
			ValueKind:   ValueKind(rest[0]),
			ValueOffset: order.Uint16(rest[1:3]),
			ArrayLen:    order.Uint16(rest[3:5]),
		}, nil
	case cellShapeFlag:
		if len(rest) < 7 {
			return legacyColumnNode{}, ErrUnexpectedEOF
		}
		parentOffset := int(order.Uint16(rest[5:7]))
		if parentOffset+2 > len(buf) {
			return legacyColumnNode{}, ErrUnexpectedEOF
		}
		parentInfo := int(order.Uint16(buf[parentOffset:]))
		return legacyColumnNode{
			Shape:         shape,
			Shift:         rest[0],
			FlagMask:      order.Uint32(rest[1:5]),
			ParentInfoOff: parentInfo,
		}, nil
	default:
		return legacyColumnNode{}, &Error{Kind: ErrUnknownCellKind, ValueTag: uint8(shape)}
	}
}

// discoverColumnsFromNodes reads info.ColumnCount fixed-size nodes
// starting at info.OffsetColumns (every legacy dialect but Wii).
func discoverColumnsFromNodes(buf []byte, order ByteOrder, info *columnNodeInfo) ([]legacyColumnNode, []legacyColumnNode, error) {
	var columns, flags []legacyColumnNode
	pos := int(info.OffsetColumns)
	for i := 0; i < int(info.ColumnCount); i++ {
		if pos+columnNodeSize > len(buf) {
			return nil, nil, ErrUnexpectedEOF
		}
		infoPtr := int(order.Uint16(buf[pos:]))
		nameOffset := int(order.Uint16(buf[pos+4:]))
		node, err := readLegacyCell(buf, order, infoPtr)
		if err != nil {
			return nil, nil, err
		}
		node.InfoOffset = infoPtr
		name, err := readCString(buf, nameOffset)
		if err != nil {
			return nil, nil, err
		}
		node.Name = name

		if node.Shape == cellShapeFlag {
			flags = append(flags, node)
		} else {
			columns = append(columns, node)
		}
		pos += columnNodeSize
	}
	return columns, flags, nil
}

// discoverColumnsFromHash walks the Wii in-file hash index, following
// each node's "next" link, with a visited set guarding against cycles.
func discoverColumnsFromHash(buf []byte, order ByteOrder, h *legacyTableHeader) ([]legacyColumnNode, []legacyColumnNode, error) {
	if int(h.OffsetHashes)+int(h.HashSlotCount)*2 > len(buf) {
		return nil, nil, ErrUnexpectedEOF
	}
	hashRegion := buf[h.OffsetHashes : int(h.OffsetHashes)+int(h.HashSlotCount)*2]

	var toVisit []int
	visited := map[int]bool{}
	for i := 0; i+1 < len(hashRegion); i += 2 {
		off := int(order.Uint16(hashRegion[i:]))
		if off != 0 {
			toVisit = append(toVisit, off)
			visited[off] = true
		}
	}

	var columns, flags []legacyColumnNode
	for len(toVisit) > 0 {
		nodeOff := toVisit[0]
		toVisit = toVisit[1:]

		if nodeOff+6 > len(buf) {
			return nil, nil, ErrUnexpectedEOF
		}
		infoPtr := int(order.Uint16(buf[nodeOff:]))
		next := int(order.Uint16(buf[nodeOff+2:]))
		nameOffset := nodeOff + 4 // Wii embeds the name string inline, right after the link

		node, err := readLegacyCell(buf, order, infoPtr)
		if err != nil {
			return nil, nil, err
		}
		node.InfoOffset = infoPtr
		name, err := readCString(buf, nameOffset)
		if err != nil {
			return nil, nil, err
		}
		node.Name = name

		if next != 0 && !visited[next] {
			visited[next] = true
			toVisit = append(toVisit, next)
		}

		if node.Shape == cellShapeFlag {
			flags = append(flags, node)
		} else {
			columns = append(columns, node)
		}
	}

	// Hash-slot order is not declaration order; the row layout is. Restore
	// it by value offset, and keep flag grouping stable by info offset.
	sort.Slice(columns, func(i, j int) bool { return columns[i].ValueOffset < columns[j].ValueOffset })
	sort.Slice(flags, func(i, j int) bool { return flags[i].InfoOffset < flags[j].InfoOffset })
	return columns, flags, nil
}

// flagsForParent returns every flag node whose ParentInfoOff matches
// parentInfoOffset, the legacy equivalent of a column's FlagDefs.
func flagsForParent(flags []legacyColumnNode, parentInfoOffset int) []legacyColumnNode {
	var out []legacyColumnNode
	for _, f := range flags {
		if f.ParentInfoOff == parentInfoOffset {
			out = append(out, f)
		}
	}
	return out
}
