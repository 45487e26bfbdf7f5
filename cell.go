package bdat

// CellKind distinguishes the three shapes a table cell can take (§3).
type CellKind uint8

const (
	// CellSingle holds exactly one Value. This is the only cell shape
	// modern tables support.
	CellSingle CellKind = iota
	// CellList holds an ordered, fixed-length list of Values sharing one
	// column definition's value kind; legacy-only.
	CellList
	// CellFlags holds the sub-values decomposed out of a packed parent
	// integer, one per the owning column's flag definitions; legacy-only.
	CellFlags
)

// Cell is one row/column intersection in a table.
type Cell struct {
	kind   CellKind
	single Value
	list   []Value
	flags  []uint32
}

// SingleCell wraps a single scalar value.
func SingleCell(v Value) Cell {
	return Cell{kind: CellSingle, single: v}
}

// ListCell wraps a fixed-length run of values sharing a column's value
// kind.
func ListCell(vs []Value) Cell {
	return Cell{kind: CellList, list: vs}
}

// FlagsCell wraps a set of sub-values already decomposed out of a parent
// integer, one per the owning column's FlagDefs, in the same order.
func FlagsCell(values []uint32) Cell {
	return Cell{kind: CellFlags, flags: values}
}

// Kind reports the cell's shape.
func (c Cell) Kind() CellKind { return c.kind }

// Single returns the cell's scalar value. Only meaningful if Kind is
// CellSingle.
func (c Cell) Single() Value { return c.single }

// List returns the cell's value list. Only meaningful if Kind is
// CellList.
func (c Cell) List() []Value { return c.list }

// Flags returns the cell's decomposed sub-values, one per the owning
// column's FlagDefs, in the same order. Only meaningful if Kind is
// CellFlags.
func (c Cell) Flags() []uint32 { return c.flags }
