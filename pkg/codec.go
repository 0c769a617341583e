package pkg

import (
	"encoding/binary"
	"strings"
)

// TextCodec encodes an ordered sequence of glyph/flag segments into the
// 16-bit little-endian code-unit stream used by the game files, and decodes
// the inverse. It is pure and stateless given a glyph table and
// flag lexicon, so one codec is safely shared across concurrent pipelines.
type TextCodec struct {
	glyphs *GlyphTable
	flags  *FlagLexicon
}

// NewTextCodec creates a codec over the given glyph table and flag lexicon.
func NewTextCodec(glyphs *GlyphTable, flags *FlagLexicon) *TextCodec {
	return &TextCodec{glyphs: glyphs, flags: flags}
}

// Decode reads code units left to right until the end-block token and
// returns the decoded content plus the number of bytes consumed, including
// the trailing word-alignment pad when present. At each position a flag
// decode is attempted first; flags are distinguishable from glyphs by the
// reserved code range, so the scan is unambiguous.
func (c *TextCodec) Decode(data []byte, entry string) (Content, int, error) {
	var content Content
	pos := 0
	for {
		if pos+2 > len(data) {
			return nil, 0, &MissingEndFlagError{Entry: entry}
		}
		code := binary.LittleEndian.Uint16(data[pos:])
		pos += 2

		if code >= FlagFloor {
			token, ok := c.flags.ByCode(code)
			if !ok {
				return nil, 0, &MalformedFlagError{
					Entry: entry, Code: code, Offset: pos - 2,
					Reason: "no token with this byte code",
				}
			}
			content = append(content, Segment{Flag: token})
			if token.Category == FlagEndBlock {
				break
			}
			continue
		}

		glyph, ok := c.glyphs.ByCode(code)
		if !ok {
			return nil, 0, &MalformedFlagError{
				Entry: entry, Code: code, Offset: pos - 2,
				Reason: "outside both glyph and flag code ranges",
			}
		}
		content = append(content, Segment{Glyph: glyph})
	}

	// Text segments keep the stream word aligned with a zero pad unit.
	if pos%4 != 0 && pos+2 <= len(data) &&
		binary.LittleEndian.Uint16(data[pos:]) == 0x0000 {
		pos += 2
	}

	if err := c.validate(content, entry); err != nil {
		return nil, 0, err
	}
	return content, pos, nil
}

// Encode converts content into its code-unit stream, padded with a zero
// unit when needed to keep the following structure word aligned. Content is
// validated against the token placement rules first.
func (c *TextCodec) Encode(content Content, entry string) ([]byte, error) {
	if err := c.validate(content, entry); err != nil {
		return nil, err
	}
	out := make([]byte, 0, (len(content)+1)*2)
	for _, seg := range content {
		var code uint16
		if seg.IsFlag() {
			code = seg.Flag.Code
		} else {
			code = seg.Glyph.Code
		}
		out = binary.LittleEndian.AppendUint16(out, code)
	}
	if len(out)%4 != 0 {
		out = binary.LittleEndian.AppendUint16(out, 0x0000)
	}
	return out, nil
}

// validate enforces the placement rules shared by Encode and Decode: at
// most one start-category token and only as the first token, and exactly
// one end-block token as the final token.
func (c *TextCodec) validate(content Content, entry string) error {
	if len(content) == 0 {
		return &MissingEndFlagError{Entry: entry}
	}
	last := content[len(content)-1]
	if !last.IsFlag() || last.Flag.Category != FlagEndBlock {
		return &MissingEndFlagError{Entry: entry}
	}
	for i, seg := range content {
		if !seg.IsFlag() {
			continue
		}
		switch seg.Flag.Category {
		case FlagStart:
			if i != 0 {
				return &MalformedFlagError{
					Entry: entry, Name: seg.Flag.Name,
					Reason: "start token only permitted as the first token",
				}
			}
		case FlagEndBlock:
			if i != len(content)-1 {
				return &MalformedFlagError{
					Entry: entry, Name: seg.Flag.Name,
					Reason: "end-block token only permitted as the final token",
				}
			}
		}
	}
	return nil
}

// ParseText converts the human-readable form of an entry back into content.
// Flag tokens appear as bracketed names; a matched pair of braces switches
// characters to the alternate set without encoding a marker unit; a newline
// is only legal directly after a line-terminating token (it is the readable
// rendering of that token, not content).
func (c *TextCodec) ParseText(text string, entry string) (Content, error) {
	var content Content
	set := PrimarySet
	line := 1
	runes := []rune(text)

	for i := 0; i < len(runes); {
		switch runes[i] {
		case '{':
			set = AlternateSet
			i++
		case '}':
			set = PrimarySet
			i++
		case '<':
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == '>' {
					end = j
					break
				}
			}
			if end < 0 {
				return nil, &MalformedFlagError{
					Entry: entry, Name: string(runes[i:]),
					Reason: "unterminated bracketed name",
				}
			}
			name := string(runes[i : end+1])
			token, ok := c.flags.Tokenize(name)
			if !ok {
				return nil, &MalformedFlagError{
					Entry: entry, Name: name,
					Reason: "unknown token name",
				}
			}
			content = append(content, Segment{Flag: token})
			i = end + 1
			if token.Category == FlagEndLine || token.Category == FlagContinuation {
				line++
				// Consume the readability newline the dump writes
				// after a line terminator.
				if i < len(runes) && runes[i] == '\n' {
					i++
				}
			}
		case '\n':
			return nil, &UnterminatedLineError{Entry: entry, Line: line}
		default:
			glyph, ok := c.glyphs.Resolve(runes[i], set)
			if !ok {
				return nil, &GlyphNotFoundError{Char: runes[i], Set: set, Entry: entry}
			}
			content = append(content, Segment{Glyph: glyph})
			i++
		}
	}

	if err := c.validate(content, entry); err != nil {
		return nil, err
	}
	return content, nil
}

// RenderText converts content into the human-readable form written to the
// tabular export: bracketed flag names, a newline after each line
// terminator, and alternate-set runs wrapped in braces. Alternate runs are
// always closed before a flag token, mirroring how the font switch behaves
// in game.
func (c *TextCodec) RenderText(content Content) string {
	var b strings.Builder
	alternate := false
	for _, seg := range content {
		if seg.IsFlag() {
			if alternate {
				b.WriteByte('}')
				alternate = false
			}
			b.WriteString(seg.Flag.Name)
			if seg.Flag.Category == FlagEndLine || seg.Flag.Category == FlagContinuation {
				b.WriteByte('\n')
			}
			continue
		}
		if seg.Glyph.Set == AlternateSet && !alternate {
			b.WriteByte('{')
			alternate = true
		} else if seg.Glyph.Set == PrimarySet && alternate {
			b.WriteByte('}')
			alternate = false
		}
		b.WriteRune(seg.Glyph.Char)
	}
	if alternate {
		b.WriteByte('}')
	}
	return b.String()
}
