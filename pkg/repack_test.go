// Package pkg provides tests for script file repacking
package pkg

import (
	"bytes"
	"testing"
)

// pointerFixture builds a pointer-table file with two contiguous entries
// ("HI" and "D\ne") and extracts it.
func pointerFixture(t *testing.T, kind *FileKind) (*ScriptFile, []byte) {
	t.Helper()
	var data []byte
	data = append(data, ptrWord(8>>2)...)
	data = append(data, ptrWord(16>>2)...)
	data = append(data, unitStream(6, 7, 0xA0FF, 0)...)
	data = append(data, unitStream(4, 0xA1FF, 10, 0xA0FF)...)

	sf, err := testExtractor(t).ExtractFile("pt.bin", data, kind)
	if err != nil {
		t.Fatalf("ExtractFile() failed: %v", err)
	}
	return sf, data
}

func extensiblePointerKind() *FileKind {
	return &FileKind{
		Name:   "pt",
		Policy: PolicyExtensible,
		Layout: LayoutPointerTable,
		Tables: []PointerTableDesc{{Start: 0, End: 8}},
	}
}

func TestRepackFile_UntouchedRoundTrip(t *testing.T) {
	sf, data := pointerFixture(t, extensiblePointerKind())
	for _, entry := range sf.Entries {
		entry.Encoded = entry.OriginalBytes
	}
	groups, membership := DedupeEntries(sf.Entries)

	out, err := RepackFile(sf, groups, membership)
	if err != nil {
		t.Fatalf("RepackFile() failed: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("untouched repack is not byte-identical:\n got % X\nwant % X", out, data)
	}
}

func TestRepackFile_EditedEntryRelocates(t *testing.T) {
	codec := testCodec(t)
	sf, _ := pointerFixture(t, extensiblePointerKind())

	// Grow the first entry; the second must relocate and its pointer
	// must follow.
	content, err := codec.ParseText("Hello World!<END>", sf.Entries[0].ID())
	if err != nil {
		t.Fatalf("ParseText() failed: %v", err)
	}
	sf.Entries[0].Content = content
	sf.Entries[0].Edited = true
	sf.Entries[0].Encoded, err = codec.Encode(content, sf.Entries[0].ID())
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	sf.Entries[1].Encoded = sf.Entries[1].OriginalBytes

	groups, membership := DedupeEntries(sf.Entries)
	out, err := RepackFile(sf, groups, membership)
	if err != nil {
		t.Fatalf("RepackFile() failed: %v", err)
	}

	wantLen := sf.TextStart + len(sf.Entries[0].Encoded) + len(sf.Entries[1].Encoded)
	if len(out) != wantLen {
		t.Errorf("len(out) = %d, want %d", len(out), wantLen)
	}

	// Re-extract the rebuilt file and verify both texts.
	sf2, err := testExtractor(t).ExtractFile("pt.bin", out, extensiblePointerKind())
	if err != nil {
		t.Fatalf("re-extract failed: %v", err)
	}
	if got := codec.RenderText(sf2.Entries[0].Content); got != "Hello World!<END>" {
		t.Errorf("entry 1 text = %q", got)
	}
	if got := codec.RenderText(sf2.Entries[1].Content); got != "D<LINE>\ne<END>" {
		t.Errorf("entry 2 text = %q", got)
	}
}

func TestRepackFile_DeduplicatesIdenticalEntries(t *testing.T) {
	codec := testCodec(t)
	sf, _ := pointerFixture(t, extensiblePointerKind())

	// Edit the second entry to match the first exactly.
	content, err := codec.ParseText("HI<END>", sf.Entries[1].ID())
	if err != nil {
		t.Fatalf("ParseText() failed: %v", err)
	}
	sf.Entries[0].Encoded = sf.Entries[0].OriginalBytes
	sf.Entries[1].Content = content
	sf.Entries[1].Edited = true
	sf.Entries[1].Encoded, err = codec.Encode(content, sf.Entries[1].ID())
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	groups, membership := DedupeEntries(sf.Entries)
	if len(groups) != 1 {
		t.Fatalf("len(groups) = %d, want 1", len(groups))
	}
	out, err := RepackFile(sf, groups, membership)
	if err != nil {
		t.Fatalf("RepackFile() failed: %v", err)
	}

	// One physical copy; both pointers reference it.
	if len(out) != sf.TextStart+len(groups[0].Encoded) {
		t.Errorf("len(out) = %d, want %d", len(out), sf.TextStart+len(groups[0].Encoded))
	}
	if !bytes.Equal(out[0:4], out[4:8]) {
		t.Errorf("pointer slots = % X vs % X, want identical", out[0:4], out[4:8])
	}
}

func TestRepackFile_FixedMaxZeroFillsTail(t *testing.T) {
	kind := extensiblePointerKind()
	kind.Policy = PolicyFixedMax
	codec := testCodec(t)
	sf, data := pointerFixture(t, kind)

	if sf.Budget != 16 {
		t.Fatalf("Budget = %d, want 16", sf.Budget)
	}

	// Shrink the second entry; the reclaimed tail must zero-fill.
	content, err := codec.ParseText("D<END>", sf.Entries[1].ID())
	if err != nil {
		t.Fatalf("ParseText() failed: %v", err)
	}
	sf.Entries[0].Encoded = sf.Entries[0].OriginalBytes
	sf.Entries[1].Content = content
	sf.Entries[1].Edited = true
	sf.Entries[1].Encoded, err = codec.Encode(content, sf.Entries[1].ID())
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	groups, membership := DedupeEntries(sf.Entries)
	if err := CheckBudget(sf, groups); err != nil {
		t.Fatalf("CheckBudget() failed: %v", err)
	}
	out, err := RepackFile(sf, groups, membership)
	if err != nil {
		t.Fatalf("RepackFile() failed: %v", err)
	}

	if len(out) != len(data) {
		t.Fatalf("len(out) = %d, want %d (fixed-max keeps the file size)", len(out), len(data))
	}
	used := sf.TextStart + len(sf.Entries[0].Encoded) + len(sf.Entries[1].Encoded)
	for i := used; i < sf.TextEnd; i++ {
		if out[i] != 0 {
			t.Fatalf("out[0x%X] = 0x%02X, want zero-filled tail", i, out[i])
		}
	}
}

func TestRepackFile_Stride(t *testing.T) {
	codec := testCodec(t)
	kind := strideKind()
	var data []byte
	data = append(data, strideRecord(3, 7, 0, []byte{2, 1}, unitStream(6, 7, 0xA0FF, 0))...)
	data = append(data, strideRecord(3, 7, 1, []byte{3, 1}, unitStream(1, 2, 0xA0FF, 0))...)

	sf, err := testExtractor(t).ExtractFile("ov.bin", data, kind)
	if err != nil {
		t.Fatalf("ExtractFile() failed: %v", err)
	}

	content, err := codec.ParseText("BC<END>", sf.Entries[1].ID())
	if err != nil {
		t.Fatalf("ParseText() failed: %v", err)
	}
	sf.Entries[0].Encoded = sf.Entries[0].OriginalBytes
	sf.Entries[1].Content = content
	sf.Entries[1].Edited = true
	sf.Entries[1].Encoded, err = codec.Encode(content, sf.Entries[1].ID())
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	sf.Entries[1].Box = BoxDimension{Width: 2, Height: 1}

	groups, membership := IdentityGroups(sf.Entries)
	out, err := RepackFile(sf, groups, membership)
	if err != nil {
		t.Fatalf("RepackFile() failed: %v", err)
	}

	// Record 1 untouched, record 2 rewritten in place with its box slot.
	if !bytes.Equal(out[:24], data[:24]) {
		t.Error("record 1 changed")
	}
	if !bytes.Equal(out[32:40], unitStream(2, 3, 0xA0FF, 0)) {
		t.Errorf("record 2 text = % X", out[32:40])
	}
	if out[30] != 2 || out[31] != 1 {
		t.Errorf("record 2 box slot = %d,%d, want 2,1", out[30], out[31])
	}
}

func TestBoxSlotBytes(t *testing.T) {
	t.Run("unedited keeps the original slot", func(t *testing.T) {
		entry := &TextEntry{
			BoxRaw: []byte{0x0C, 0x02, 0xAA, 0xBB},
			Box:    BoxDimension{Width: 99, Height: 9},
		}
		slot, err := boxSlotBytes(entry, 4)
		if err != nil {
			t.Fatalf("boxSlotBytes() failed: %v", err)
		}
		if !bytes.Equal(slot, entry.BoxRaw) {
			t.Errorf("slot = % X, want original % X", slot, entry.BoxRaw)
		}
	})

	t.Run("edited writes the computed metric", func(t *testing.T) {
		entry := &TextEntry{
			Edited: true,
			BoxRaw: []byte{0x0C, 0x02, 0xAA, 0xBB},
			Box:    BoxDimension{Width: 40, Height: 3},
		}
		slot, err := boxSlotBytes(entry, 4)
		if err != nil {
			t.Fatalf("boxSlotBytes() failed: %v", err)
		}
		// Width and height refresh; trailing slot bytes carry over.
		if !bytes.Equal(slot, []byte{40, 3, 0xAA, 0xBB}) {
			t.Errorf("slot = % X, want 28 03 AA BB", slot)
		}
	})

	t.Run("metric too large for the slot", func(t *testing.T) {
		entry := &TextEntry{
			Edited: true,
			Box:    BoxDimension{Width: 300, Height: 1},
		}
		if _, err := boxSlotBytes(entry, 4); err == nil {
			t.Error("boxSlotBytes() should fail when the width does not fit a byte")
		}
	})
}
