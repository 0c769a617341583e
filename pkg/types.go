// Package pkg implements the script text codec and repacking engine for
// The Legend of Dragoon (PSX) game files: it dumps encoded script text to an
// editable tabular form and inserts edited text back while preserving the
// binary layout constraints of each file kind.
package pkg

import "fmt"

// CharacterSet identifies which half of the font table a character
// resolves against.
type CharacterSet int

const (
	// PrimarySet is the standard font table.
	PrimarySet CharacterSet = iota
	// AlternateSet is the optional second table (italics in the stock
	// font). Toggled in readable text by a matched pair of braces.
	AlternateSet
)

// String returns a human-readable name for the character set.
func (s CharacterSet) String() string {
	if s == AlternateSet {
		return "alternate"
	}
	return "primary"
}

// Glyph is one renderable character: its source rune, the 16-bit code unit
// written to the game file, its rendered width in font units, and the set
// it belongs to. Alternate-set codes are already offset by the primary set
// size, so Code is always the on-disk value.
type Glyph struct {
	Char  rune
	Code  uint16
	Width int
	Set   CharacterSet
}

// FlagCategory classifies control tokens. The category determines the
// placement rules the codec enforces.
type FlagCategory int

const (
	FlagStart        FlagCategory = iota // box-opening tokens (typed, instant, cutscene, battle)
	FlagEndLine                          // line terminator
	FlagEndBlock                         // entry terminator, must be the final token
	FlagContinuation                     // box continuation, also terminates a line
	FlagColor                            // text color change
	FlagVariable                         // numbered game-variable placeholder
	FlagContext                          // merchant/elemental context markers
)

// FlagToken is one non-printable control token: its bracketed name as it
// appears in dumped text, its 16-bit code unit, and its category.
type FlagToken struct {
	Name     string
	Code     uint16
	Category FlagCategory
}

// Segment is one element of decoded content: either a flag token or a glyph.
// Flag is nil for glyph segments.
type Segment struct {
	Flag  *FlagToken
	Glyph Glyph
}

// IsFlag reports whether the segment is a control token.
func (s Segment) IsFlag() bool {
	return s.Flag != nil
}

// Content is the decoded form of one text entry: an ordered sequence of
// glyph and flag segments.
type Content []Segment

// EntryMeta holds the positional metadata parsed from the structure
// surrounding a text entry. The engine treats these as opaque sort keys.
type EntryMeta struct {
	Area     int // area/scene number
	Event    int // event/NPC number
	Flag     int // event flag number
	Dialogue int // dialogue number within the event
}

// PointerSlot is the file location of one pointer-table value and the base
// offset its relative pointer is computed from.
type PointerSlot struct {
	Location   int
	TableStart int
}

// BoxDimension is the computed display metric for an entry: the maximum
// rendered line width and the line count. Extra preserves any trailing
// bytes of the original box-dimension slot that the engine does not model.
type BoxDimension struct {
	Width  int
	Height int
	Extra  []byte
}

// TextEntry is one dialogue/menu string located inside a script file.
type TextEntry struct {
	File  string
	Index int // 1-based entry number, export order
	Meta  EntryMeta

	Offset        int    // byte offset of the encoded text in the file
	OriginalBytes []byte // encoded text as found, word-alignment pad included
	BoxRaw        []byte // original box-dimension slot bytes (may be empty)

	PointerSlots []PointerSlot // every pointer referencing this entry
	BoxPtrSlots  []PointerSlot // box-table pointers, when the kind has a dual table

	Content Content
	Edited  bool

	// Populated by the insert pipeline.
	Encoded []byte
	Box     BoxDimension
}

// ID returns the identity used in error reports, enough to locate the
// offending row in the tabular form.
func (e *TextEntry) ID() string {
	if e == nil {
		return "?"
	}
	return fmt.Sprintf("%s #%d", e.File, e.Index)
}

// LengthPolicy describes how a file kind behaves when its encoded text
// grows or shrinks.
type LengthPolicy int

const (
	// Extensible files may relocate and resize their text region freely.
	Extensible LengthPolicy = iota
	// FixedMax files must keep the aggregate encoded size within the
	// original region.
	FixedMax
)

// ScriptFile is one binary game file with its located text entries.
type ScriptFile struct {
	Name    string
	Kind    *FileKind
	Data    []byte
	Entries []*TextEntry

	TextStart int // lowest entry offset; start of the rewritable region
	TextEnd   int // end of the rewritable region
	Budget    int // FIXED-MAX aggregate ceiling in bytes
}

// DedupGroup is a set of entries within one file whose encoded bytes are
// bit-identical. Exactly one physical copy is written; every member's
// pointers reference it.
type DedupGroup struct {
	ID      int
	Encoded []byte
	Box     []byte
	Members []*TextEntry
	Offset  int // assigned during repack
}

// EntryCodec converts between encoded byte streams, content, and the
// human-readable bracketed text form used in the tabular export.
type EntryCodec interface {
	Decode(data []byte, entry string) (Content, int, error)
	Encode(content Content, entry string) ([]byte, error)
	ParseText(text string, entry string) (Content, error)
	RenderText(content Content) string
}
