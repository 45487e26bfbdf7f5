package bdat

import (
	"bytes"
	"errors"
	"testing"
)

func TestModernWriteBack(t *testing.T) {
	table, err := NewBuilder(HashLabel(0xCAFEBABE)).
		AddColumn(Column{ValueKind: KindHashRef, Label: ParseLabel("<DEADBEEF>", false)}).
		AddColumn(Column{ValueKind: KindUnsignedInt, Label: ParseLabel("<CAFECAFE>", false)}).
		AddRow(Row{ID: 1, Cells: []Cell{SingleCell(HashRefValue(0x00000001)), SingleCell(UnsignedIntValue(10))}}).
		AddRow(Row{ID: 2, Cells: []Cell{SingleCell(HashRefValue(0x01000001)), SingleCell(UnsignedIntValue(100))}}).
		AsModern()
	if err != nil {
		t.Fatalf("AsModern: %v", err)
	}

	data, err := EncodeModern([]*Table{table})
	if err != nil {
		t.Fatalf("EncodeModern: %v", err)
	}
	decoded, err := DecodeModern(data)
	if err != nil {
		t.Fatalf("DecodeModern: %v", err)
	}
	got := decoded[0]

	if got.Name.CmpValue(HashLabel(0xCAFEBABE)) != 0 {
		t.Errorf("name = %s, want <CAFEBABE>", got.Name)
	}
	for hash, wantID := range map[uint32]RowID{0x00000001: 1, 0x01000001: 2} {
		row, ok := got.RowByHash(hash)
		if !ok {
			t.Fatalf("RowByHash(%#x) not found", hash)
		}
		if row.ID() != wantID {
			t.Errorf("RowByHash(%#x).ID() = %d, want %d", hash, row.ID(), wantID)
		}
	}
	row := got.Row(1)
	if v := row.Cell(HashLabel(0xCAFECAFE)).Single().Uint(); v != 10 {
		t.Errorf("row 1 value = %d, want 10", v)
	}
}

func TestModernWriteByteStable(t *testing.T) {
	table, err := NewBuilder(StringLabel("MNU_Msg")).
		AddColumn(Column{ValueKind: KindHashRef, Label: StringLabel("label")}).
		AddColumn(Column{ValueKind: KindString, Label: StringLabel("text")}).
		AddColumn(Column{ValueKind: KindFloat, Label: StringLabel("width")}).
		AddRow(Row{ID: 1, Cells: []Cell{
			SingleCell(HashRefValue(0x100)),
			SingleCell(StringValue("hello")),
			SingleCell(FloatValue(FloatReal(1.25))),
		}}).
		AddRow(Row{ID: 2, Cells: []Cell{
			SingleCell(HashRefValue(0x50)),
			SingleCell(StringValue("world")),
			SingleCell(FloatValue(FloatReal(-2.0))),
		}}).
		AsModern()
	if err != nil {
		t.Fatalf("AsModern: %v", err)
	}

	first, err := EncodeModern([]*Table{table})
	if err != nil {
		t.Fatalf("EncodeModern: %v", err)
	}
	decoded, err := DecodeModern(first)
	if err != nil {
		t.Fatalf("DecodeModern: %v", err)
	}
	second, err := EncodeModern(decoded)
	if err != nil {
		t.Fatalf("EncodeModern(decoded): %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("write(read(write(T))) differs from write(T)")
	}
	if len(first)%4 != 0 {
		t.Errorf("file length %d is not 4-byte aligned", len(first))
	}
}

func TestModernPrimaryKeySectionSorted(t *testing.T) {
	// Rows deliberately inserted with descending hashes: the on-disk
	// primary-key section must still come out sorted ascending.
	b := NewBuilder(StringLabel("Sorted")).
		AddColumn(Column{ValueKind: KindHashRef, Label: StringLabel("key")})
	hashes := []uint32{0x500, 0x400, 0x300, 0x200, 0x100}
	for i, h := range hashes {
		b.AddRow(Row{ID: RowID(i + 1), Cells: []Cell{SingleCell(HashRefValue(h))}})
	}
	table, err := b.AsModern()
	if err != nil {
		t.Fatalf("AsModern: %v", err)
	}
	data, err := EncodeModern([]*Table{table})
	if err != nil {
		t.Fatalf("EncodeModern: %v", err)
	}

	// One table: its bytes start right after the file header.
	tableBase := 4 + 4 + 4 + 4 + 4
	offsetHash := littleEndian.Uint32(data[tableBase+0x1C:])
	var prev uint32
	for i := 0; i < len(hashes); i++ {
		h := littleEndian.Uint32(data[tableBase+int(offsetHash)+i*modernHashDefLen:])
		if i > 0 && h <= prev {
			t.Fatalf("primary-key entry %d hash %#x not strictly above %#x", i, h, prev)
		}
		prev = h
	}
}

func TestModernWriteDuplicateKeyAfterEdit(t *testing.T) {
	table, err := NewBuilder(StringLabel("Dup")).
		AddColumn(Column{ValueKind: KindHashRef, Label: StringLabel("key")}).
		AddRow(Row{ID: 1, Cells: []Cell{SingleCell(HashRefValue(0x1))}}).
		AddRow(Row{ID: 2, Cells: []Cell{SingleCell(HashRefValue(0x2))}}).
		AsModern()
	if err != nil {
		t.Fatalf("AsModern: %v", err)
	}

	// Valid at construction; the duplicate is introduced through the
	// mutable row handle and must be caught when encoding.
	table.Row(2).SetCell(StringLabel("key"), SingleCell(HashRefValue(0x1)))

	_, err = EncodeModern([]*Table{table})
	var bdatErr *Error
	if !errors.As(err, &bdatErr) || bdatErr.Kind != ErrDuplicateKey {
		t.Fatalf("EncodeModern = %v, want ErrDuplicateKey", err)
	}
	if bdatErr.Hash != 0x1 || bdatErr.Row1 != 1 || bdatErr.Row2 != 2 {
		t.Errorf("err fields = %+v", bdatErr)
	}
}
