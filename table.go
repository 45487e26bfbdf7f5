package bdat

import (
	"fmt"
	"sort"
)

// Table is a decoded BDAT table: a name, an ordered column list, and an
// ordered row list (§3). Row order always matches on-disk order; lookup
// by row ID and by primary-key hash are both O(log n) via the sorted
// helpers built in buildIndexes.
type Table struct {
	Name    Label
	BaseID  RowID
	columns *columnIndex

	rows []Row

	// idByID lets RowByID binary-search rows by logical ID without a
	// linear scan, since BaseID need not be 0 or 1.
	idByID []RowID

	// pk, when non-nil, is the sorted (hash, row index) index read from
	// (or built for) the table's primary-key column, per §4.4/§4.7.
	pk *primaryKeyIndex
}

// NewTable constructs a table from a name, column list and row list. It
// fails with ErrMalformedTable if any row's cell count does not match
// len(columns), if row IDs are not contiguous starting at baseID (§3),
// and with ErrDuplicateKey if two rows collide on a hash-ref (primary
// key) column.
func NewTable(name Label, baseID RowID, columns []Column, rows []Row) (*Table, error) {
	t := &Table{
		Name:    name,
		BaseID:  baseID,
		columns: newColumnIndex(columns),
		rows:    rows,
	}
	for i, r := range rows {
		if len(r.Cells) != len(columns) {
			return nil, &Error{Kind: ErrMalformedTable, Scope: ScopeTable, Message: "row cell count does not match column count"}
		}
		if want := baseID + RowID(i); r.ID != want {
			return nil, &Error{Kind: ErrMalformedTable, Scope: ScopeTable, Message: fmt.Sprintf("row id %d at position %d is not contiguous (want %d)", r.ID, i, want)}
		}
		for j, cell := range r.Cells {
			col := columns[j]
			switch cell.Kind() {
			case CellList:
				want := col.Count
				if want < 1 {
					want = 1
				}
				if len(cell.List()) != want {
					return nil, &Error{Kind: ErrMalformedTable, Scope: ScopeTable, Message: fmt.Sprintf("list cell length %d does not match column %s count %d", len(cell.List()), col.Label, want)}
				}
			case CellFlags:
				if len(cell.Flags()) != len(col.Flags) || len(col.Flags) == 0 {
					return nil, &Error{Kind: ErrMalformedTable, Scope: ScopeTable, Message: fmt.Sprintf("flags cell does not match column %s flag definitions", col.Label)}
				}
			}
		}
	}
	if err := t.buildIndexes(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) buildIndexes() error {
	t.idByID = make([]RowID, len(t.rows))
	for i, r := range t.rows {
		t.idByID[i] = r.ID
	}

	pkCol := -1
	for i, c := range t.columns.columns {
		if c.ValueKind == KindHashRef {
			pkCol = i
			break
		}
	}
	if pkCol < 0 {
		return nil
	}

	entries := make([]pkEntry, 0, len(t.rows))
	for i, r := range t.rows {
		h := r.Cells[pkCol].Single().Uint()
		entries = append(entries, pkEntry{Hash: h, Row: i})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Hash < entries[j].Hash })
	for i := 1; i < len(entries); i++ {
		if entries[i].Hash == entries[i-1].Hash {
			r1, r2 := t.rows[entries[i-1].Row].ID, t.rows[entries[i].Row].ID
			return &Error{
				Kind:    ErrDuplicateKey,
				Column:  t.columns.columns[pkCol].Label,
				Hash:    entries[i].Hash,
				Row1:    r1,
				Row2:    r2,
				Message: "duplicate primary key hash",
			}
		}
	}
	t.pk = &primaryKeyIndex{column: pkCol, entries: entries}
	return nil
}

// Len reports the number of rows in the table.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns the table's column definitions, in on-disk order.
func (t *Table) Columns() []Column { return t.columns.columns }

// Row returns a handle to the row with the given logical ID. It panics
// if no such row exists; use RowByID for the non-panicking variant.
func (t *Table) Row(id RowID) RowRef {
	r, ok := t.RowByID(id)
	if !ok {
		panic(fmt.Sprintf("bdat: no row with id %d in table %s", id, t.Name))
	}
	return r
}

// RowByID returns a handle to the row with the given logical ID, or
// false if no such row exists. Row order is assumed sorted by ID, which
// holds for every table this package decodes or builds.
func (t *Table) RowByID(id RowID) (RowRef, bool) {
	i := sort.Search(len(t.idByID), func(i int) bool { return t.idByID[i] >= id })
	if i < len(t.idByID) && t.idByID[i] == id {
		return RowRef{table: t, index: i}, true
	}
	return RowRef{}, false
}

// Rows returns handles to every row, in on-disk order.
func (t *Table) Rows() []RowRef {
	out := make([]RowRef, len(t.rows))
	for i := range t.rows {
		out[i] = RowRef{table: t, index: i}
	}
	return out
}
