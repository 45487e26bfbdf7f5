package bdat

import (
	"errors"
	"testing"
)

func TestLegacyToModernConversion(t *testing.T) {
	cols := []Column{
		{ValueKind: KindUnsignedInt, Label: StringLabel("Id"), Count: 1},
		{ValueKind: KindString, Label: StringLabel("Name"), Count: 1},
	}
	rows := []Row{
		{ID: 1, Cells: []Cell{SingleCell(UnsignedIntValue(7)), SingleCell(StringValue("Dunban"))}},
		{ID: 2, Cells: []Cell{SingleCell(UnsignedIntValue(9)), SingleCell(StringValue("Riki"))}},
	}
	legacy, err := NewTable(StringLabel("CHR_Dr"), 1, cols, rows)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	modern, err := legacy.ToModern()
	if err != nil {
		t.Fatalf("ToModern: %v", err)
	}

	for _, row := range legacy.Rows() {
		got, ok := modern.RowByID(row.ID())
		if !ok {
			t.Fatalf("row %d missing after conversion", row.ID())
		}
		for _, col := range legacy.Columns() {
			if got.Cell(col.Label).Single() != row.Cell(col.Label).Single() {
				t.Errorf("row %d column %s differs after conversion", row.ID(), col.Label)
			}
		}
	}

	// The converted table must survive a modern write/read cycle.
	data, err := EncodeModern([]*Table{modern})
	if err != nil {
		t.Fatalf("EncodeModern: %v", err)
	}
	decoded, err := DecodeModern(data)
	if err != nil {
		t.Fatalf("DecodeModern: %v", err)
	}
	row, ok := decoded[0].RowByID(2)
	if !ok {
		t.Fatal("RowByID(2) not found after write-back")
	}
	if s := row.Cell(StringLabel("Name").IntoHash(DialectModern)).Single().Str(); s != "Riki" {
		t.Errorf("Name = %q, want Riki", s)
	}
}

func TestLegacyToModernRejectsFlagsCell(t *testing.T) {
	cols := []Column{
		{
			ValueKind: KindUnsignedInt,
			Label:     StringLabel("Attr"),
			Count:     1,
			Flags: []FlagDef{
				{Label: StringLabel("poison"), BitMask: 0x1, Shift: 0},
				{Label: StringLabel("sleep"), BitMask: 0x2, Shift: 1},
			},
		},
	}
	rows := []Row{
		{ID: 1, Cells: []Cell{FlagsCell([]uint32{1, 0})}},
	}
	legacy, err := NewTable(StringLabel("BTL_Attr"), 1, cols, rows)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	_, err = legacy.ToModern()
	var bdatErr *Error
	if !errors.As(err, &bdatErr) || bdatErr.Kind != ErrUnsupportedCell {
		t.Fatalf("ToModern = %v, want ErrUnsupportedCell", err)
	}
}

func TestModernToLegacyRejectsHashRef(t *testing.T) {
	cols := []Column{{ValueKind: KindHashRef, Label: StringLabel("key")}}
	rows := []Row{{ID: 1, Cells: []Cell{SingleCell(HashRefValue(5))}}}
	modern, err := NewTable(StringLabel("Tbl"), 1, cols, rows)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	_, err = modern.ToLegacy(DialectLegacySwitch)
	var bdatErr *Error
	if !errors.As(err, &bdatErr) || bdatErr.Kind != ErrUnsupportedValueType {
		t.Fatalf("ToLegacy = %v, want ErrUnsupportedValueType", err)
	}
}

func TestModernToLegacyRejectsHashLabels(t *testing.T) {
	cols := []Column{{ValueKind: KindUnsignedInt, Label: HashLabel(0xBEEF)}}
	rows := []Row{{ID: 1, Cells: []Cell{SingleCell(UnsignedIntValue(1))}}}
	modern, err := NewTable(StringLabel("Tbl"), 1, cols, rows)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	_, err = modern.ToLegacy(DialectLegacySwitch)
	var bdatErr *Error
	if !errors.As(err, &bdatErr) || bdatErr.Kind != ErrUnsupportedLabelType {
		t.Fatalf("ToLegacy = %v, want ErrUnsupportedLabelType", err)
	}
}

func TestModernToLegacySucceeds(t *testing.T) {
	cols := []Column{
		{ValueKind: KindUnsignedInt, Label: StringLabel("Id")},
		{ValueKind: KindString, Label: StringLabel("Name")},
	}
	rows := []Row{
		{ID: 5, Cells: []Cell{SingleCell(UnsignedIntValue(1)), SingleCell(StringValue("Melia"))}},
	}
	modern, err := NewTable(StringLabel("CHR"), 5, cols, rows)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	legacy, err := modern.ToLegacy(DialectLegacySwitch)
	if err != nil {
		t.Fatalf("ToLegacy: %v", err)
	}
	row, ok := legacy.RowByID(5)
	if !ok {
		t.Fatal("RowByID(5) not found")
	}
	if s := row.Cell(StringLabel("Name")).Single().Str(); s != "Melia" {
		t.Errorf("Name = %q, want Melia", s)
	}
}
