// Package pkg provides tests for the dump/insert engine
package pkg

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// testEngine builds an engine over the fixture glyph table and a config
// matching DRGN0_* pointer-table files.
func testEngine(t *testing.T, kinds ...FileKind) *Engine {
	t.Helper()
	cfg := &Config{
		Contexts: map[string]WidthContext{
			"field": {Name: "field", MaxWidth: 64, MaxLines: 4},
		},
		Kinds: kinds,
	}
	engine, err := NewEngine(cfg, testGlyphs(t))
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	engine.Workers = 2
	return engine
}

func fieldKind() FileKind {
	return FileKind{
		Name:    "field-script",
		Match:   []string{"DRGN0_*"},
		Policy:  PolicyExtensible,
		Layout:  LayoutPointerTable,
		Context: "field",
		Tables:  []PointerTableDesc{{Start: 0, End: 8}},
	}
}

// writeFieldFile places the two-entry pointer fixture on disk.
func writeFieldFile(t *testing.T, dir, name string) (string, []byte) {
	t.Helper()
	var data []byte
	data = append(data, ptrWord(8>>2)...)
	data = append(data, ptrWord(16>>2)...)
	data = append(data, unitStream(6, 7, 0xA0FF, 0)...)
	data = append(data, unitStream(4, 0xA1FF, 10, 0xA0FF)...)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write fixture file: %v", err)
	}
	return path, data
}

func TestEngine_DumpToCSV(t *testing.T) {
	dir := t.TempDir()
	engine := testEngine(t, fieldKind())
	pathA, _ := writeFieldFile(t, dir, "DRGN0_1")
	pathB, _ := writeFieldFile(t, dir, "DRGN0_2")
	other := filepath.Join(dir, "README.md")
	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write fixture file: %v", err)
	}

	csvPath := filepath.Join(dir, "script.csv")
	report, err := engine.DumpToCSV([]string{pathA, pathB, other}, csvPath)
	if err != nil {
		t.Fatalf("DumpToCSV() failed: %v", err)
	}
	if report.Processed != 2 || report.Skipped != 1 || report.Failed() != 0 {
		t.Errorf("report = %d processed, %d skipped, %d failed; want 2/1/0",
			report.Processed, report.Skipped, report.Failed())
	}

	rows, err := ReadCSV(csvPath)
	if err != nil {
		t.Fatalf("ReadCSV() failed: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("len(rows) = %d, want 4", len(rows))
	}
	// Rows come back in input order, files first to last.
	if rows[0].File != "DRGN0_1" || rows[2].File != "DRGN0_2" {
		t.Errorf("row files = %q/%q, want DRGN0_1/DRGN0_2", rows[0].File, rows[2].File)
	}
	if rows[0].Original != "HI<END>" || rows[1].Original != "D<LINE>\ne<END>" {
		t.Errorf("dumped text = %q / %q", rows[0].Original, rows[1].Original)
	}
}

func TestEngine_InsertAllText_UntouchedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	engine := testEngine(t, fieldKind())
	path, original := writeFieldFile(t, dir, "DRGN0_1")

	csvPath := filepath.Join(dir, "script.csv")
	if _, err := engine.DumpToCSV([]string{path}, csvPath); err != nil {
		t.Fatalf("DumpToCSV() failed: %v", err)
	}

	report, err := engine.InsertAllText(csvPath, []string{path})
	if err != nil {
		t.Fatalf("InsertAllText() failed: %v", err)
	}
	if report.Processed != 1 || report.Failed() != 0 {
		t.Fatalf("report = %d processed, %d failed; want 1/0", report.Processed, report.Failed())
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file back: %v", err)
	}
	if !bytes.Equal(after, original) {
		t.Errorf("untouched insert is not byte-identical:\n got % X\nwant % X", after, original)
	}
}

func TestEngine_InsertAllText_AppliesEdits(t *testing.T) {
	dir := t.TempDir()
	engine := testEngine(t, fieldKind())
	path, original := writeFieldFile(t, dir, "DRGN0_1")

	csvPath := filepath.Join(dir, "script.csv")
	if _, err := engine.DumpToCSV([]string{path}, csvPath); err != nil {
		t.Fatalf("DumpToCSV() failed: %v", err)
	}

	rows, err := ReadCSV(csvPath)
	if err != nil {
		t.Fatalf("ReadCSV() failed: %v", err)
	}
	rows[1].New = "Hello World!<END>"
	if err := WriteCSV(csvPath, rows); err != nil {
		t.Fatalf("WriteCSV() failed: %v", err)
	}

	report, err := engine.InsertAllText(csvPath, []string{path})
	if err != nil {
		t.Fatalf("InsertAllText() failed: %v", err)
	}
	if report.Failed() != 0 {
		t.Fatalf("report errors = %v", report.Errors)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file back: %v", err)
	}
	// Entry 1 keeps its original bytes at its original offset.
	if !bytes.Equal(after[8:16], original[8:16]) {
		t.Errorf("unedited entry changed: % X", after[8:16])
	}

	// Re-dump and check only the edited entry differs.
	rows2, report2 := engine.DumpAllText([]string{path})
	if report2.Failed() != 0 {
		t.Fatalf("re-dump errors = %v", report2.Errors)
	}
	if rows2[0].Original != "HI<END>" {
		t.Errorf("entry 1 after insert = %q, want unchanged", rows2[0].Original)
	}
	if rows2[1].Original != "Hello World!<END>" {
		t.Errorf("entry 2 after insert = %q, want the edit", rows2[1].Original)
	}
}

func TestEngine_InsertAllText_BudgetFailureLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	kind := fieldKind()
	kind.Policy = PolicyFixedMax
	engine := testEngine(t, kind)
	path, original := writeFieldFile(t, dir, "DRGN0_1")

	csvPath := filepath.Join(dir, "script.csv")
	if _, err := engine.DumpToCSV([]string{path}, csvPath); err != nil {
		t.Fatalf("DumpToCSV() failed: %v", err)
	}

	rows, err := ReadCSV(csvPath)
	if err != nil {
		t.Fatalf("ReadCSV() failed: %v", err)
	}
	// The grown entry cannot fit the original 16-byte region.
	rows[0].New = "Hello World!<END>"
	if err := WriteCSV(csvPath, rows); err != nil {
		t.Fatalf("WriteCSV() failed: %v", err)
	}

	report, err := engine.InsertAllText(csvPath, []string{path})
	if err != nil {
		t.Fatalf("InsertAllText() failed: %v", err)
	}
	if report.Failed() != 1 {
		t.Fatalf("Failed() = %d, want 1", report.Failed())
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file back: %v", err)
	}
	if !bytes.Equal(after, original) {
		t.Error("failed insert must leave the file untouched")
	}
}

func TestEngine_InsertAllText_WidthFailureLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	engine := testEngine(t, fieldKind())
	path, original := writeFieldFile(t, dir, "DRGN0_1")

	csvPath := filepath.Join(dir, "script.csv")
	if _, err := engine.DumpToCSV([]string{path}, csvPath); err != nil {
		t.Fatalf("DumpToCSV() failed: %v", err)
	}

	rows, err := ReadCSV(csvPath)
	if err != nil {
		t.Fatalf("ReadCSV() failed: %v", err)
	}
	// 40 'A' glyphs render 80 units wide, past the context's 64.
	wide := ""
	for i := 0; i < 40; i++ {
		wide += "A"
	}
	rows[0].New = wide + "<END>"
	if err := WriteCSV(csvPath, rows); err != nil {
		t.Fatalf("WriteCSV() failed: %v", err)
	}

	report, err := engine.InsertAllText(csvPath, []string{path})
	if err != nil {
		t.Fatalf("InsertAllText() failed: %v", err)
	}
	if report.Failed() != 1 {
		t.Fatalf("Failed() = %d, want 1", report.Failed())
	}
	if _, ok := report.Errors["DRGN0_1"].(*WidthLimitExceededError); !ok {
		t.Errorf("error = %v, want WidthLimitExceededError", report.Errors["DRGN0_1"])
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file back: %v", err)
	}
	if !bytes.Equal(after, original) {
		t.Error("failed insert must leave the file untouched")
	}
}

func TestEngine_RefreshBoxDimensions(t *testing.T) {
	dir := t.TempDir()
	kind := fieldKind()
	engine := testEngine(t, kind)

	csvPath := filepath.Join(dir, "script.csv")
	rows := []Row{
		{File: "DRGN0_1", Entry: 1, BoxDim: "02 01 00 00", Original: "HI<END>", New: "ABC<LINE>\nD<END>"},
		{File: "DRGN0_1", Entry: 2, BoxDim: "02 01 00 00", Original: "HI<END>"},
		{File: "OTHER", Entry: 1, BoxDim: "02 01 00 00", Original: "HI<END>", New: "B<END>"},
	}
	if err := WriteCSV(csvPath, rows); err != nil {
		t.Fatalf("WriteCSV() failed: %v", err)
	}

	updated, err := engine.RefreshBoxDimensions(csvPath)
	if err != nil {
		t.Fatalf("RefreshBoxDimensions() failed: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}

	got, err := ReadCSV(csvPath)
	if err != nil {
		t.Fatalf("ReadCSV() failed: %v", err)
	}
	// "ABC" is 4 units wide ('A' counts 2), over 2 lines; trailing slot
	// bytes stay as exported.
	if got[0].BoxDim != "04 02 00 00" {
		t.Errorf("row 1 BoxDim = %q, want %q", got[0].BoxDim, "04 02 00 00")
	}
	if got[1].BoxDim != "02 01 00 00" {
		t.Errorf("row 2 BoxDim = %q, want unchanged", got[1].BoxDim)
	}
	// Rows for files no kind matches are left alone.
	if got[2].BoxDim != "02 01 00 00" {
		t.Errorf("row 3 BoxDim = %q, want unchanged", got[2].BoxDim)
	}
}

func TestSortRows(t *testing.T) {
	rows := []Row{
		{File: "B", Entry: 2},
		{File: "A", Entry: 2},
		{File: "B", Entry: 1},
		{File: "A", Entry: 1},
	}
	SortRows(rows)
	want := []Row{
		{File: "A", Entry: 1},
		{File: "A", Entry: 2},
		{File: "B", Entry: 1},
		{File: "B", Entry: 2},
	}
	for i := range want {
		if rows[i].File != want[i].File || rows[i].Entry != want[i].Entry {
			t.Fatalf("rows[%d] = %s #%d, want %s #%d",
				i, rows[i].File, rows[i].Entry, want[i].File, want[i].Entry)
		}
	}
}
