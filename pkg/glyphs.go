package pkg

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/theflyingzamboni/lodscript/pkg/common"
)

// defaultGlyphWidth is the rendered width assumed for a table cell that
// does not declare one. Box dimensions are measured in these font units.
const defaultGlyphWidth = 1

// GlyphTable is the bidirectional mapping between characters and font-table
// code positions across the primary and optional alternate character sets.
// Immutable after load and safe for concurrent use.
type GlyphTable struct {
	primary   []Glyph
	alternate []Glyph
	byChar    [2]map[rune]int // per-set index into primary/alternate
	byCode    []Glyph         // indexed by on-disk code unit
}

// LoadGlyphTable reads a character table file. The file is UTF-16 (the
// format the stock font tables ship in), one character per line in
// font-texture cell order starting at the blank/space cell; a single blank
// line separates the primary set from an optional alternate set. A line may
// declare a rendered width after a tab, e.g. "W\t2".
func LoadGlyphTable(path string) (*GlyphTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToLoadTable, err)
	}
	defer f.Close()

	table, err := ParseGlyphTable(f)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToLoadTable, err)
	}
	return table, nil
}

// ParseGlyphTable parses a UTF-16 character table from a reader.
func ParseGlyphTable(r io.Reader) (*GlyphTable, error) {
	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	scanner := bufio.NewScanner(transform.NewReader(r, utf16.NewDecoder()))

	var primary, alternate []string
	active := &primary
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			if active == &alternate {
				break // second blank line ends the table
			}
			active = &alternate
			continue
		}
		*active = append(*active, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return buildGlyphTable(primary, alternate)
}

// buildGlyphTable assigns dense code indices per set, offsets the alternate
// set by the primary size, and validates that no glyph code reaches the
// flag range. That validation runs here, before any decode, so scan-time
// heuristics are never needed to tell glyphs from flags.
func buildGlyphTable(primaryLines, alternateLines []string) (*GlyphTable, error) {
	if len(primaryLines) == 0 {
		return nil, common.FormatErrorString(common.ErrEmptyCharacterTable, "primary set is empty")
	}
	total := len(primaryLines) + len(alternateLines)
	if total > int(FlagFloor) {
		return nil, common.FormatErrorString(common.ErrGlyphRangeCollision,
			"%d glyph codes, flag range starts at 0x%04X", total, FlagFloor)
	}

	t := &GlyphTable{
		primary:   make([]Glyph, 0, len(primaryLines)),
		alternate: make([]Glyph, 0, len(alternateLines)),
		byChar:    [2]map[rune]int{make(map[rune]int), make(map[rune]int)},
		byCode:    make([]Glyph, 0, total),
	}

	add := func(line string, set CharacterSet, code int) error {
		char, width, err := parseTableLine(line)
		if err != nil {
			return err
		}
		g := Glyph{Char: char, Code: uint16(code), Width: width, Set: set}
		if set == PrimarySet {
			if _, dup := t.byChar[PrimarySet][char]; !dup {
				t.byChar[PrimarySet][char] = len(t.primary)
			}
			t.primary = append(t.primary, g)
		} else {
			if _, dup := t.byChar[AlternateSet][char]; !dup {
				t.byChar[AlternateSet][char] = len(t.alternate)
			}
			t.alternate = append(t.alternate, g)
		}
		t.byCode = append(t.byCode, g)
		return nil
	}

	for i, line := range primaryLines {
		if err := add(line, PrimarySet, i); err != nil {
			return nil, err
		}
	}
	for i, line := range alternateLines {
		if err := add(line, AlternateSet, len(primaryLines)+i); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// parseTableLine splits one table line into its character and optional
// tab-separated width.
func parseTableLine(line string) (rune, int, error) {
	runes := []rune(line)
	char := runes[0]
	width := defaultGlyphWidth
	if tab := strings.IndexByte(line, '\t'); tab >= 0 {
		w, err := strconv.Atoi(strings.TrimSpace(line[tab+1:]))
		if err != nil || w <= 0 {
			return 0, 0, common.FormatErrorString(common.ErrFailedToLoadTable,
				"invalid width %q for character %q", line[tab+1:], char)
		}
		width = w
	}
	return char, width, nil
}

// Resolve returns the glyph for a character in the given set. Cells that
// repeat a character resolve to the first occurrence.
func (t *GlyphTable) Resolve(char rune, set CharacterSet) (Glyph, bool) {
	idx, ok := t.byChar[set][char]
	if !ok {
		return Glyph{}, false
	}
	if set == AlternateSet {
		return t.alternate[idx], true
	}
	return t.primary[idx], true
}

// ByCode returns the glyph for an on-disk code unit.
func (t *GlyphTable) ByCode(code uint16) (Glyph, bool) {
	if int(code) >= len(t.byCode) {
		return Glyph{}, false
	}
	return t.byCode[code], true
}

// PrimarySize returns the number of primary-set cells; alternate-set codes
// start at this offset.
func (t *GlyphTable) PrimarySize() int {
	return len(t.primary)
}

// TotalSize returns the number of cells across both sets.
func (t *GlyphTable) TotalSize() int {
	return len(t.byCode)
}

// HasAlternate reports whether the table defines an alternate set.
func (t *GlyphTable) HasAlternate() bool {
	return len(t.alternate) > 0
}
