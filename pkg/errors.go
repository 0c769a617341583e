package pkg

import (
	"fmt"
)

// All engine errors are entry- or file-scoped: they carry enough identity to
// locate the offending row in the tabular form, and processing one file never
// aborts the run.

// GlyphNotFoundError reports a character that does not resolve to a glyph in
// its declared character set.
type GlyphNotFoundError struct {
	Char  rune
	Set   CharacterSet
	Entry string
}

func (e *GlyphNotFoundError) Error() string {
	return fmt.Sprintf("character %q not found in %s character set (entry %s)",
		e.Char, e.Set, e.Entry)
}

// MalformedFlagError reports a byte sequence that matches no known flag token
// and lies outside the glyph code range, a bracketed name missing from the
// lexicon, or a start-category token in an illegal position.
type MalformedFlagError struct {
	Entry  string
	Code   uint16 // code unit, when decoding
	Name   string // bracketed name, when parsing text
	Offset int    // byte offset within the entry, when decoding
	Reason string
}

func (e *MalformedFlagError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("malformed flag %s (entry %s): %s", e.Name, e.Entry, e.Reason)
	}
	return fmt.Sprintf("malformed flag 0x%04X at offset %d (entry %s): %s",
		e.Code, e.Offset, e.Entry, e.Reason)
}

// UnterminatedLineError reports a rendered line that does not end in an
// end-line or continuation token.
type UnterminatedLineError struct {
	Entry string
	Line  int
}

func (e *UnterminatedLineError) Error() string {
	return fmt.Sprintf("line %d has no line-terminating token (entry %s)", e.Line, e.Entry)
}

// MissingEndFlagError reports content whose final token is not an end-block
// token, or an encoded extent that runs out before one is found.
type MissingEndFlagError struct {
	Entry string
}

func (e *MissingEndFlagError) Error() string {
	return fmt.Sprintf("entry %s does not terminate in an end-block token", e.Entry)
}

// WidthLimitExceededError reports a line whose rendered width exceeds the
// width limit of its usage context. The engine never truncates; the source
// text must be shortened.
type WidthLimitExceededError struct {
	Entry   string
	Context string
	Line    int
	Width   int
	Limit   int
}

func (e *WidthLimitExceededError) Error() string {
	return fmt.Sprintf("line %d is %d units wide, %s context allows %d (entry %s)",
		e.Line, e.Width, e.Context, e.Limit, e.Entry)
}

// StructureParseError reports a script file whose entry extents cannot be
// located consistently. It fails the whole file, not the run.
type StructureParseError struct {
	File   string
	Reason string
}

func (e *StructureParseError) Error() string {
	return fmt.Sprintf("cannot parse structure of %s: %s", e.File, e.Reason)
}

// LengthBudgetExceededError reports a FIXED-MAX file whose post-edit
// aggregate encoded size exceeds its original length budget.
type LengthBudgetExceededError struct {
	File   string
	Budget int
	Excess int
}

func (e *LengthBudgetExceededError) Error() string {
	return fmt.Sprintf("encoded text of %s exceeds its %d-byte budget by %d bytes",
		e.File, e.Budget, e.Excess)
}

// CSVSchemaError reports an imported table whose schema or passthrough
// columns do not match the original export.
type CSVSchemaError struct {
	Row    int // 1-based, header row included
	Reason string
}

func (e *CSVSchemaError) Error() string {
	return fmt.Sprintf("csv schema violation at row %d: %s", e.Row, e.Reason)
}
