package bdat

import "testing"

func TestLegacyHashMod61(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
	}{
		{"name", 37},
		{"style", 60},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			if got := legacyHash(c.in, defaultHashSlots); got != c.want {
				t.Errorf("legacyHash(%q, 61) = %d, want %d", c.in, got, c.want)
			}
		})
	}
}

func TestLegacyHashTableSlots(t *testing.T) {
	h := newLegacyHashTable(defaultHashSlots)
	h.insertUnique("name", 100)
	h.insertUnique("style", 200)

	if idx, ok := h.slotOf(100); !ok || idx != 37 {
		t.Errorf("slot(100) = %d, %v, want 37, true", idx, ok)
	}
	if idx, ok := h.slotOf(200); !ok || idx != 60 {
		t.Errorf("slot(200) = %d, %v, want 60, true", idx, ok)
	}

	h.insertUnique("KizunaReward1", 300)
	h.insertUnique("KizunaReward2", 400)
	if idx, ok := h.slotOf(300); !ok || idx != 9 {
		t.Errorf("slot(300) = %d, %v, want 9, true", idx, ok)
	}
	if idx, ok := h.slotOf(400); !ok || idx != 9 {
		t.Errorf("slot(400) = %d, %v, want 9, true", idx, ok)
	}

	patches := h.chainPatches()
	if len(patches) != 1 || patches[0].Offset != 300 || patches[0].Next != 400 {
		t.Errorf("chainPatches() = %+v, want [{300 400}]", patches)
	}
}
