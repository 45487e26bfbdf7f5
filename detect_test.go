package bdat

import (
	"bytes"
	"testing"
)

func TestDetectModern(t *testing.T) {
	table, err := NewBuilder(StringLabel("Tbl")).
		AddColumn(Column{ValueKind: KindUnsignedInt, Label: StringLabel("Id")}).
		AddRow(Row{ID: 1, Cells: []Cell{SingleCell(UnsignedIntValue(1))}}).
		AsModern()
	if err != nil {
		t.Fatalf("AsModern: %v", err)
	}
	data, err := EncodeModern([]*Table{table})
	if err != nil {
		t.Fatalf("EncodeModern: %v", err)
	}

	dialect, err := Detect(data)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if dialect != DialectModern {
		t.Fatalf("Detect = %s, want modern", dialect)
	}

	dialect, err = DetectReader(bytes.NewReader(data))
	if err != nil || dialect != DialectModern {
		t.Fatalf("DetectReader = %s, %v, want modern", dialect, err)
	}
}

func TestDetectLegacy(t *testing.T) {
	table, err := NewBuilder(StringLabel("Tbl")).
		AddColumn(Column{ValueKind: KindUnsignedInt, Label: StringLabel("Id")}).
		AddRow(Row{ID: 1, Cells: []Cell{SingleCell(UnsignedIntValue(1))}}).
		AsLegacy(DialectLegacySwitch)
	if err != nil {
		t.Fatalf("AsLegacy: %v", err)
	}

	for _, tc := range []struct {
		name    string
		dialect Dialect
	}{
		{"switch", DialectLegacySwitch},
		{"wiiu", DialectLegacyWiiU},
	} {
		t.Run(tc.name, func(t *testing.T) {
			data, err := EncodeLegacy([]*Table{table}, tc.dialect, nil)
			if err != nil {
				t.Fatalf("EncodeLegacy: %v", err)
			}
			got, err := Detect(data)
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if got != tc.dialect {
				t.Fatalf("Detect = %s, want %s", got, tc.dialect)
			}
		})
	}
}

func TestDetectRejectsGarbage(t *testing.T) {
	if _, err := Detect([]byte{0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0}); err == nil {
		t.Fatal("Detect should fail on garbage input")
	}
	if _, err := Detect([]byte{1, 2}); err == nil {
		t.Fatal("Detect should fail on truncated input")
	}
}
