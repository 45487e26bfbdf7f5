package bdat

// FlagDef names one bit (or bit group) packed into a CellFlags cell,
// carried by the owning column (§3, §4.5).
type FlagDef struct {
	Label   Label
	BitMask uint32
	Shift   uint8
}

// Apply extracts this flag's sub-value out of a column's packed parent
// integer.
func (f FlagDef) Apply(parent uint32) uint32 {
	return (parent & f.BitMask) >> f.Shift
}

// Column is a table column definition: its value kind, its label, and,
// for legacy flag columns, the set of flags packed into its cells.
type Column struct {
	ValueKind ValueKind
	Label     Label
	// Count is the fixed element count for CellList-shaped cells in this
	// column; 1 for every other cell shape.
	Count int
	Flags []FlagDef
}

// PackFlags recombines a CellFlags cell's decomposed sub-values back into
// the single packed parent integer this column's Flags decompose, by
// shifting and OR-ing each value into its mask. Sub-value i corresponds
// to Flags[i]; len(values) must equal len(c.Flags).
func (c Column) PackFlags(values []uint32) uint32 {
	var parent uint32
	for i, f := range c.Flags {
		parent |= (values[i] << f.Shift) & f.BitMask
	}
	return parent
}

// columnIndex resolves column labels to their positional index, used by
// row accessors and by write-time layout (§4.7).
type columnIndex struct {
	columns []Column
	byValue map[string]int
	byHash  map[uint32]int
}

func newColumnIndex(columns []Column) *columnIndex {
	idx := &columnIndex{
		columns: columns,
		byValue: make(map[string]int, len(columns)),
		byHash:  make(map[uint32]int, len(columns)),
	}
	for i, c := range columns {
		switch c.Label.Kind() {
		case LabelHash:
			idx.byHash[c.Label.Hash()] = i
		default:
			idx.byValue[c.Label.Text()] = i
		}
	}
	return idx
}

// Find returns the index of the column named by label, comparing by
// value (see Label.CmpValue): a string label matches both String and
// Unhashed columns carrying the same text.
func (idx *columnIndex) Find(label Label) (int, bool) {
	if label.Kind() == LabelHash {
		i, ok := idx.byHash[label.Hash()]
		return i, ok
	}
	i, ok := idx.byValue[label.Text()]
	return i, ok
}
