package bdat

// Builder assembles a Table without committing to a target dialect
// until AsModern or AsLegacy is called (§4.7, grounded on the deferred
// "compat" builder in the original crate). This lets callers build a
// table once and project it to whichever dialect they end up writing.
type Builder struct {
	name    Label
	baseID  RowID
	columns []Column
	rows    []Row
}

// NewBuilder starts a builder for a table named name. BaseID defaults to
// 1, matching how most retail tables are laid out.
func NewBuilder(name Label) *Builder {
	return &Builder{name: name, baseID: 1}
}

// AddColumn appends a column definition.
func (b *Builder) AddColumn(col Column) *Builder {
	b.columns = append(b.columns, col)
	return b
}

// SetColumns replaces the column list.
func (b *Builder) SetColumns(cols []Column) *Builder {
	b.columns = cols
	return b
}

// AddRow appends a row.
func (b *Builder) AddRow(row Row) *Builder {
	b.rows = append(b.rows, row)
	return b
}

// SetBaseID overrides the default base row ID.
func (b *Builder) SetBaseID(id RowID) *Builder {
	b.baseID = id
	return b
}

// Build finalizes the table for dialect, validating and converting cells
// as needed (CellList/CellFlags collapse is rejected for modern, not for
// legacy).
func (b *Builder) Build(dialect Dialect) (*Table, error) {
	for _, c := range b.columns {
		if !c.ValueKind.supportedIn(dialect) {
			return nil, &Error{Kind: ErrUnsupportedValueType, ValueTag: uint8(c.ValueKind)}
		}
	}
	if dialect == DialectModern {
		for _, r := range b.rows {
			for _, cell := range r.Cells {
				if cell.Kind() != CellSingle {
					return nil, &Error{Kind: ErrUnsupportedCell}
				}
			}
		}
	}
	if dialect.IsLegacy() && len(b.rows) >= 1<<16 {
		return nil, &Error{Kind: ErrMaxRowCountExceeded}
	}
	return NewTable(b.name, b.baseID, b.columns, b.rows)
}

// AsModern is a convenience wrapper around Build(DialectModern).
func (b *Builder) AsModern() (*Table, error) {
	return b.Build(DialectModern)
}

// AsLegacy is a convenience wrapper around Build(dialect) for any legacy
// dialect.
func (b *Builder) AsLegacy(dialect Dialect) (*Table, error) {
	if !dialect.IsLegacy() {
		panic("bdat: AsLegacy requires a legacy dialect")
	}
	return b.Build(dialect)
}
