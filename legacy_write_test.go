package bdat

import (
	"errors"
	"testing"
)

func TestLegacyFlagsAndArrayRoundTrip(t *testing.T) {
	cols := []Column{
		{ValueKind: KindUnsignedByte, Label: StringLabel("Lv"), Count: 1},
		{
			ValueKind: KindUnsignedInt,
			Label:     StringLabel("Attr"),
			Count:     1,
			Flags: []FlagDef{
				{Label: StringLabel("poison"), BitMask: 0x0000000F, Shift: 0},
				{Label: StringLabel("sleep"), BitMask: 0x000000F0, Shift: 4},
				{Label: StringLabel("topple"), BitMask: 0x00000100, Shift: 8},
			},
		},
		{ValueKind: KindUnsignedShort, Label: StringLabel("Drops"), Count: 3},
	}
	rows := []Row{
		{ID: 1, Cells: []Cell{
			SingleCell(UnsignedByteValue(10)),
			FlagsCell([]uint32{3, 7, 1}),
			ListCell([]Value{UnsignedShortValue(100), UnsignedShortValue(200), UnsignedShortValue(300)}),
		}},
		{ID: 2, Cells: []Cell{
			SingleCell(UnsignedByteValue(20)),
			FlagsCell([]uint32{0, 15, 0}),
			ListCell([]Value{UnsignedShortValue(1), UnsignedShortValue(2), UnsignedShortValue(3)}),
		}},
	}
	table, err := NewTable(StringLabel("BTL_EnemyDrop"), 1, cols, rows)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	for _, dialect := range []Dialect{DialectLegacySwitch, DialectLegacyWiiU} {
		t.Run(dialect.String(), func(t *testing.T) {
			data, err := EncodeLegacy([]*Table{table}, dialect, nil)
			if err != nil {
				t.Fatalf("EncodeLegacy: %v", err)
			}
			decoded, err := DecodeLegacy(data, dialect)
			if err != nil {
				t.Fatalf("DecodeLegacy: %v", err)
			}
			got := decoded[0]

			gotCols := got.Columns()
			if len(gotCols) != len(cols) {
				t.Fatalf("got %d columns, want %d", len(gotCols), len(cols))
			}
			if len(gotCols[1].Flags) != 3 {
				t.Fatalf("Attr flags = %d, want 3", len(gotCols[1].Flags))
			}
			for i, fd := range gotCols[1].Flags {
				if fd.Label.Text() != cols[1].Flags[i].Label.Text() ||
					fd.BitMask != cols[1].Flags[i].BitMask ||
					fd.Shift != cols[1].Flags[i].Shift {
					t.Errorf("flag %d = %+v, want %+v", i, fd, cols[1].Flags[i])
				}
			}

			row, ok := got.RowByID(1)
			if !ok {
				t.Fatal("RowByID(1) not found")
			}
			flags := row.Cell(StringLabel("Attr")).Flags()
			if flags[0] != 3 || flags[1] != 7 || flags[2] != 1 {
				t.Errorf("Attr flags = %v, want [3 7 1]", flags)
			}
			drops := row.Cell(StringLabel("Drops")).List()
			if len(drops) != 3 || drops[2].Uint() != 300 {
				t.Errorf("Drops = %v", drops)
			}
		})
	}
}

func TestLegacyHashChainLinking(t *testing.T) {
	// With only two slots, several columns must share one and be linked
	// into a chain; decoding still resolves every column.
	cols := []Column{
		{ValueKind: KindUnsignedByte, Label: StringLabel("a"), Count: 1},
		{ValueKind: KindUnsignedByte, Label: StringLabel("b"), Count: 1},
		{ValueKind: KindUnsignedByte, Label: StringLabel("c"), Count: 1},
		{ValueKind: KindUnsignedByte, Label: StringLabel("d"), Count: 1},
	}
	rows := []Row{
		{ID: 1, Cells: []Cell{
			SingleCell(UnsignedByteValue(1)),
			SingleCell(UnsignedByteValue(2)),
			SingleCell(UnsignedByteValue(3)),
			SingleCell(UnsignedByteValue(4)),
		}},
	}
	table, err := NewTable(StringLabel("Chained"), 1, cols, rows)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	data, err := EncodeLegacy([]*Table{table}, DialectLegacySwitch, &LegacyWriteOptions{Scramble: false, HashSlots: 2})
	if err != nil {
		t.Fatalf("EncodeLegacy: %v", err)
	}
	decoded, err := DecodeLegacy(data, DialectLegacySwitch)
	if err != nil {
		t.Fatalf("DecodeLegacy: %v", err)
	}
	row, ok := decoded[0].RowByID(1)
	if !ok {
		t.Fatal("RowByID(1) not found")
	}
	for i, label := range []string{"a", "b", "c", "d"} {
		if got := row.Cell(StringLabel(label)).Single().Uint(); got != uint32(i+1) {
			t.Errorf("column %s = %d, want %d", label, got, i+1)
		}
	}
}

func TestLegacyWriteRejectsHashLabels(t *testing.T) {
	cols := []Column{{ValueKind: KindUnsignedByte, Label: HashLabel(0xBEEF)}}
	rows := []Row{{ID: 1, Cells: []Cell{SingleCell(UnsignedByteValue(1))}}}
	table, err := NewTable(StringLabel("T"), 1, cols, rows)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	_, err = EncodeLegacy([]*Table{table}, DialectLegacySwitch, nil)
	var bdatErr *Error
	if !errors.As(err, &bdatErr) || bdatErr.Kind != ErrUnsupportedLabelType {
		t.Fatalf("EncodeLegacy = %v, want ErrUnsupportedLabelType", err)
	}
}

func TestLegacyWriteRejectsModernOnlyKinds(t *testing.T) {
	cols := []Column{{ValueKind: KindHashRef, Label: StringLabel("key")}}
	rows := []Row{{ID: 1, Cells: []Cell{SingleCell(HashRefValue(1))}}}
	table, err := NewTable(StringLabel("T"), 1, cols, rows)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	_, err = EncodeLegacy([]*Table{table}, DialectLegacySwitch, nil)
	var bdatErr *Error
	if !errors.As(err, &bdatErr) || bdatErr.Kind != ErrUnsupportedValueType {
		t.Fatalf("EncodeLegacy = %v, want ErrUnsupportedValueType", err)
	}
}

func TestLegacyWiiUFixedPointRoundTrip(t *testing.T) {
	cols := []Column{{ValueKind: KindFloat, Label: StringLabel("scale")}}
	rows := []Row{{ID: 1, Cells: []Cell{SingleCell(FloatValue(NewBdatReal(2.5)))}}}
	table, err := NewTable(StringLabel("FLD_Obj"), 1, cols, rows)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	data, err := EncodeLegacy([]*Table{table}, DialectLegacyWiiU, nil)
	if err != nil {
		t.Fatalf("EncodeLegacy: %v", err)
	}
	decoded, err := DecodeLegacy(data, DialectLegacyWiiU)
	if err != nil {
		t.Fatalf("DecodeLegacy: %v", err)
	}
	row, ok := decoded[0].RowByID(1)
	if !ok {
		t.Fatal("RowByID(1) not found")
	}
	if got := row.Cell(StringLabel("scale")).Single().Real().Float32(); got != 2.5 {
		t.Errorf("scale = %v, want 2.5 (fixed-point)", got)
	}
}
