package bdat

// Legacy <-> modern table conversion (§4.7), grounded on the original
// crate's table/convert.rs: the same error taxonomy, the same
// restrictions (no hash-ref columns or multi-value cells survive a
// legacy round-trip; no hashed labels survive a modern-to-legacy
// conversion; row IDs must fit the destination's ID width).

// ToLegacy projects a modern table down to a legacy dialect. It fails if
// any column uses a value kind legacy tables can't carry (HashRef,
// Percent, DebugString, Unknown2 or Unknown3), if
// any label is a bare hash with no recoverable text, or if the row
// range doesn't fit a legacy table's 16-bit row ID space.
func (t *Table) ToLegacy(dialect Dialect) (*Table, error) {
	if !dialect.IsLegacy() {
		panic("bdat: ToLegacy requires a legacy dialect")
	}
	cols := make([]Column, len(t.columns.columns))
	for i, c := range t.columns.columns {
		if !c.ValueKind.supportedIn(dialect) {
			return nil, &Error{Kind: ErrUnsupportedValueType, ValueTag: uint8(c.ValueKind)}
		}
		cols[i] = Column{ValueKind: c.ValueKind, Label: c.Label, Count: 1}
	}

	if t.BaseID > RowID(^uint16(0)) {
		return nil, &Error{Kind: ErrUnsupportedRowID, Row1: t.BaseID}
	}
	if len(t.rows) >= 1<<16 {
		return nil, &Error{Kind: ErrMaxRowCountExceeded}
	}
	lastID := t.BaseID + RowID(len(t.rows))
	if lastID > RowID(^uint16(0)) {
		return nil, &Error{Kind: ErrUnsupportedRowID, Row1: RowID(^uint16(0))}
	}

	name, err := stringLabelOnly(t.Name)
	if err != nil {
		return nil, err
	}
	for i, c := range cols {
		l, err := stringLabelOnly(c.Label)
		if err != nil {
			return nil, err
		}
		cols[i].Label = l
	}

	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		rows[i] = Row{ID: r.ID, Cells: r.Cells}
	}
	return NewTable(name, t.BaseID, cols, rows)
}

// ToModern projects a legacy table up to the modern dialect. It fails if
// any column is not CellSingle-shaped (list or flags cells have no
// modern equivalent).
func (t *Table) ToModern() (*Table, error) {
	cols := make([]Column, len(t.columns.columns))
	for i, c := range t.columns.columns {
		if !c.ValueKind.supportedIn(DialectModern) {
			return nil, &Error{Kind: ErrUnsupportedValueType, ValueTag: uint8(c.ValueKind)}
		}
		cols[i] = Column{ValueKind: c.ValueKind, Label: c.Label, Count: 1}
	}

	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		cells := make([]Cell, len(r.Cells))
		for j, cell := range r.Cells {
			if cell.Kind() != CellSingle {
				return nil, &Error{Kind: ErrUnsupportedCell}
			}
			cells[j] = cell
		}
		rows[i] = Row{ID: r.ID, Cells: cells}
	}
	return NewTable(t.Name, t.BaseID, cols, rows)
}

// stringLabelOnly rejects bare-hash labels with no stored text, since
// legacy dialects have no label pool to recover the original string
// from.
func stringLabelOnly(l Label) (Label, error) {
	switch l.Kind() {
	case LabelHash:
		return Label{}, &Error{Kind: ErrUnsupportedLabelType}
	default:
		return l, nil
	}
}
