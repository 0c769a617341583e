package pkg

import (
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/theflyingzamboni/lodscript/pkg/common"
)

// csvHeader is the export schema. Column order is significant and import
// verifies it verbatim.
var csvHeader = []string{
	"File Name", "Entry #", "Area/Scene #", "Event/NPC #", "Event Flag #",
	"Dialogue #", "Box Dimension", "Original Dialogue", "New Dialogue",
}

// Row is one tabular record: one text entry plus its positional metadata.
// Box Dimension is carried as literal text (hex byte pairs) rather than a
// number so spreadsheet tools cannot silently coerce it.
type Row struct {
	File     string
	Entry    int
	Area     int
	Event    int
	Flag     int
	Dialogue int
	BoxDim   string
	Original string
	New      string

	line int // 1-based CSV line, for error reports on import
}

// ExportRows builds the tabular rows for one extracted script file. The
// New Dialogue column starts empty; editors fill it only for entries they
// change.
func ExportRows(sf *ScriptFile, codec *TextCodec) []Row {
	rows := make([]Row, 0, len(sf.Entries))
	for _, entry := range sf.Entries {
		rows = append(rows, Row{
			File:     sf.Name,
			Entry:    entry.Index,
			Area:     entry.Meta.Area,
			Event:    entry.Meta.Event,
			Flag:     entry.Meta.Flag,
			Dialogue: entry.Meta.Dialogue,
			BoxDim:   FormatBoxDim(entry.BoxRaw),
			Original: codec.RenderText(entry.Content),
		})
	}
	return rows
}

// FormatBoxDim renders box-dimension slot bytes as space-separated hex
// pairs, e.g. "0c 02 00 00". Entries without a slot render empty.
func FormatBoxDim(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	pairs := make([]string, len(raw))
	for i, b := range raw {
		pairs[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(pairs, " ")
}

// ParseBoxDim is the inverse of FormatBoxDim.
func ParseBoxDim(s string) ([]byte, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	fields := strings.Fields(s)
	out := make([]byte, len(fields))
	for i, f := range fields {
		b, err := hex.DecodeString(f)
		if err != nil || len(b) != 1 {
			return nil, fmt.Errorf("invalid box dimension byte %q", f)
		}
		out[i] = b[0]
	}
	return out, nil
}

// WriteCSV writes rows as a UTF-16 little-endian, tab-delimited CSV with a
// byte-order mark, the format the editing tools in common use round-trip
// without mangling the script's characters.
func WriteCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return common.FormatError(common.ErrFailedToCreateCSV, err)
	}
	defer f.Close()

	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	enc := transform.NewWriter(f, utf16.NewEncoder())
	w := csv.NewWriter(enc)
	w.Comma = '\t'
	w.UseCRLF = true

	if err := w.Write(csvHeader); err != nil {
		return common.FormatError(common.ErrFailedToWriteCSV, err)
	}
	for _, row := range rows {
		record := []string{
			row.File,
			strconv.Itoa(row.Entry),
			strconv.Itoa(row.Area),
			strconv.Itoa(row.Event),
			strconv.Itoa(row.Flag),
			strconv.Itoa(row.Dialogue),
			row.BoxDim,
			row.Original,
			row.New,
		}
		if err := w.Write(record); err != nil {
			return common.FormatError(common.ErrFailedToWriteCSV, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return common.FormatError(common.ErrFailedToWriteCSV, err)
	}
	if err := enc.Close(); err != nil {
		return common.FormatError(common.ErrFailedToWriteCSV, err)
	}
	return nil
}

// ReadCSV reads an exported (and possibly edited) script CSV back into
// rows, validating the schema.
func ReadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToReadCSV, err)
	}
	defer f.Close()

	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	r := csv.NewReader(transform.NewReader(f, utf16.NewDecoder()))
	r.Comma = '\t'
	r.FieldsPerRecord = len(csvHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToReadCSV, err)
	}
	if len(records) == 0 {
		return nil, &CSVSchemaError{Row: 1, Reason: "missing header row"}
	}
	for i, col := range csvHeader {
		if records[0][i] != col {
			return nil, &CSVSchemaError{Row: 1,
				Reason: fmt.Sprintf("column %d is %q, want %q", i+1, records[0][i], col)}
		}
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		line := i + 2
		row := Row{
			File:     record[0],
			BoxDim:   record[6],
			Original: record[7],
			New:      record[8],
			line:     line,
		}
		ints := []struct {
			field *int
			value string
			name  string
		}{
			{&row.Entry, record[1], "Entry #"},
			{&row.Area, record[2], "Area/Scene #"},
			{&row.Event, record[3], "Event/NPC #"},
			{&row.Flag, record[4], "Event Flag #"},
			{&row.Dialogue, record[5], "Dialogue #"},
		}
		for _, col := range ints {
			v, err := strconv.Atoi(strings.TrimSpace(col.value))
			if err != nil {
				return nil, &CSVSchemaError{Row: line,
					Reason: fmt.Sprintf("%s value %q is not an integer", col.name, col.value)}
			}
			*col.field = v
		}
		if _, err := ParseBoxDim(row.BoxDim); err != nil {
			return nil, &CSVSchemaError{Row: line, Reason: err.Error()}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ApplyRows merges imported rows into a freshly extracted script file. All
// passthrough columns must match the original export 1:1 by entry identity;
// a row whose New Dialogue is non-empty and differs from the original
// becomes that entry's edited content.
func ApplyRows(sf *ScriptFile, rows []Row, codec *TextCodec) error {
	byEntry := make(map[int]*TextEntry, len(sf.Entries))
	for _, entry := range sf.Entries {
		byEntry[entry.Index] = entry
	}

	seen := make(map[int]bool, len(rows))
	for _, row := range rows {
		entry, ok := byEntry[row.Entry]
		if !ok {
			return &CSVSchemaError{Row: row.line,
				Reason: fmt.Sprintf("%s has no entry #%d", sf.Name, row.Entry)}
		}
		if seen[row.Entry] {
			return &CSVSchemaError{Row: row.line,
				Reason: fmt.Sprintf("duplicate row for %s entry #%d", sf.Name, row.Entry)}
		}
		seen[row.Entry] = true

		if row.Area != entry.Meta.Area || row.Event != entry.Meta.Event ||
			row.Flag != entry.Meta.Flag || row.Dialogue != entry.Meta.Dialogue {
			return &CSVSchemaError{Row: row.line,
				Reason: fmt.Sprintf("positional metadata does not match export for %s", entry.ID())}
		}
		original := codec.RenderText(entry.Content)
		if row.Original != original {
			return &CSVSchemaError{Row: row.line,
				Reason: fmt.Sprintf("Original Dialogue does not match export for %s", entry.ID())}
		}

		if row.New == "" || row.New == row.Original {
			continue
		}
		content, err := codec.ParseText(row.New, entry.ID())
		if err != nil {
			return err
		}
		entry.Content = content
		entry.Edited = true
		common.LogDebug(common.DebugRowMerged, row.line, entry.ID())
	}

	if len(seen) != len(sf.Entries) {
		return &CSVSchemaError{Row: 0,
			Reason: fmt.Sprintf("%s has %d entries but the table provides %d rows",
				sf.Name, len(sf.Entries), len(seen))}
	}
	return nil
}
