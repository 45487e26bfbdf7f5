package bdat

import "sort"

// The modern primary-key index (§4.4, §4.7): a sorted (hash, row index)
// array mirroring exactly what is stored on disk for modern tables with
// a hash-ref column. Lookup binary-searches this array in O(log n)
// rather than rebuilding a hashmap from decoded row values.

type primaryKeyIndex struct {
	column  int
	entries []pkEntry // sorted by Hash ascending, matching on-disk order
}

type pkEntry struct {
	Hash uint32
	Row  int
}

// RowByHash looks up a row by its primary-key hash using the table's
// sorted (hash, row index) index, in O(log n). It returns false if the
// table has no hash-ref (primary key) column, or no row matches.
func (t *Table) RowByHash(hash uint32) (RowRef, bool) {
	if t.pk == nil {
		return RowRef{}, false
	}
	entries := t.pk.entries
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Hash >= hash })
	if i < len(entries) && entries[i].Hash == hash {
		return RowRef{table: t, index: entries[i].Row}, true
	}
	return RowRef{}, false
}

// readModernPrimaryKeyIndex parses the on-disk primary-key section for a
// table whose first hash-ref column is its primary key, or returns nil
// if the table has none.
func readModernPrimaryKeyIndex(buf []byte, h *modernTableHeader) (*primaryKeyIndex, error) {
	col := -1
	for i := uint32(0); i < h.Columns; i++ {
		base := int(h.OffsetCol) + int(i)*modernColumnDefLen
		if base >= len(buf) {
			return nil, ErrUnexpectedEOF
		}
		if ValueKind(buf[base]) == KindHashRef {
			col = int(i)
			break
		}
	}
	if col < 0 {
		return nil, nil
	}
	entries := make([]pkEntry, h.Rows)
	for i := uint32(0); i < h.Rows; i++ {
		base := int(h.OffsetHash) + int(i)*modernHashDefLen
		if base+modernHashDefLen > len(buf) {
			return nil, ErrUnexpectedEOF
		}
		hash := littleEndian.Uint32(buf[base:])
		row := littleEndian.Uint32(buf[base+4:])
		entries[i] = pkEntry{Hash: hash, Row: int(row)}
	}
	return &primaryKeyIndex{column: col, entries: entries}, nil
}
