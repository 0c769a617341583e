package pkg

import (
	"github.com/theflyingzamboni/lodscript/pkg/common"
)

// FlagFloor is the lowest code unit reserved for flag tokens. Glyph codes
// live strictly below it, which keeps the two address spaces disjoint and
// decoding unambiguous.
const FlagFloor uint16 = 0xA000

// flagDefs is the closed, versioned token vocabulary. Codes are the 16-bit
// code units as written to the file (little-endian on disk). Adding a name
// requires assigning a byte code with no collision; NewFlagLexicon rejects
// collisions at construction.
var flagDefs = []FlagToken{
	{Name: "<END>", Code: 0xA0FF, Category: FlagEndBlock},
	{Name: "<LINE>", Code: 0xA1FF, Category: FlagEndLine},
	{Name: "<WWWTS>", Code: 0xA3FF, Category: FlagContinuation},

	// Typed text-box openers, by scroll speed.
	{Name: "<START0>", Code: 0xA500, Category: FlagStart},
	{Name: "<START1>", Code: 0xA501, Category: FlagStart},
	{Name: "<START2>", Code: 0xA502, Category: FlagStart},
	{Name: "<START3>", Code: 0xA503, Category: FlagStart},
	{Name: "<START4>", Code: 0xA504, Category: FlagStart},
	{Name: "<START5>", Code: 0xA505, Category: FlagStart},
	{Name: "<STARTA>", Code: 0xA50A, Category: FlagStart},
	{Name: "<STARTF>", Code: 0xA50F, Category: FlagStart},

	// Text colors.
	{Name: "<TWHITE>", Code: 0xA700, Category: FlagColor},
	{Name: "<TDGRN>", Code: 0xA701, Category: FlagColor},
	{Name: "<TLGRN>", Code: 0xA702, Category: FlagColor},
	{Name: "<TCYAN>", Code: 0xA703, Category: FlagColor},
	{Name: "<TBRWN>", Code: 0xA704, Category: FlagColor},
	{Name: "<TRED>", Code: 0xA705, Category: FlagColor},
	{Name: "<TMTAN>", Code: 0xA706, Category: FlagColor},
	{Name: "<TLTAN>", Code: 0xA707, Category: FlagColor},
	{Name: "<TYLW>", Code: 0xA708, Category: FlagColor},
	{Name: "<TBLCK>", Code: 0xA709, Category: FlagColor},
	{Name: "<TGRAY>", Code: 0xA70A, Category: FlagColor},
	{Name: "<TPRPL>", Code: 0xA70B, Category: FlagColor},

	// Game-variable placeholders.
	{Name: "<VAR0>", Code: 0xA800, Category: FlagVariable},
	{Name: "<VAR1>", Code: 0xA801, Category: FlagVariable},
	{Name: "<VAR2>", Code: 0xA802, Category: FlagVariable},
	{Name: "<VAR3>", Code: 0xA803, Category: FlagVariable},
	{Name: "<VAR4>", Code: 0xA804, Category: FlagVariable},
	{Name: "<VAR8>", Code: 0xA808, Category: FlagVariable},
	{Name: "<VAR9>", Code: 0xA809, Category: FlagVariable},

	// Instant (auto-advance) openers, by display time.
	{Name: "<SAUTO0>", Code: 0xB000, Category: FlagStart},
	{Name: "<SAUTO1>", Code: 0xB001, Category: FlagStart},
	{Name: "<SAUTO2>", Code: 0xB002, Category: FlagStart},
	{Name: "<SAUTO3>", Code: 0xB003, Category: FlagStart},
	{Name: "<SAUTO4>", Code: 0xB004, Category: FlagStart},
	{Name: "<SAUTO5>", Code: 0xB005, Category: FlagStart},
	{Name: "<SAUTO9>", Code: 0xB009, Category: FlagStart},
	{Name: "<SAUTOA>", Code: 0xB00A, Category: FlagStart},
	{Name: "<SAUTO1E>", Code: 0xB01E, Category: FlagStart},
	{Name: "<SCUT>", Code: 0xB0FF, Category: FlagStart},
	{Name: "<SBAT>", Code: 0xB200, Category: FlagStart},

	// Merchant/elemental context markers.
	{Name: "<FIRE>", Code: 0xB101, Category: FlagContext},
	{Name: "<WATER>", Code: 0xB102, Category: FlagContext},
	{Name: "<WIND>", Code: 0xB103, Category: FlagContext},
	{Name: "<EARTH>", Code: 0xB104, Category: FlagContext},
	{Name: "<LIGHT>", Code: 0xB105, Category: FlagContext},
	{Name: "<DARK>", Code: 0xB106, Category: FlagContext},
	{Name: "<THNDR>", Code: 0xB107, Category: FlagContext},
	{Name: "<NELEM>", Code: 0xB108, Category: FlagContext},
	{Name: "<NORM>", Code: 0xB109, Category: FlagContext},
}

// FlagLexicon is the registry of control tokens, indexed by bracketed name
// and by byte code. Immutable after construction and safe for concurrent
// use.
type FlagLexicon struct {
	byName map[string]*FlagToken
	byCode map[uint16]*FlagToken
	tokens []FlagToken
}

// NewFlagLexicon builds the lexicon from the static vocabulary. It fails if
// any name or byte code is assigned twice, so an encoding ambiguity can
// never reach the codec.
func NewFlagLexicon() (*FlagLexicon, error) {
	l := &FlagLexicon{
		byName: make(map[string]*FlagToken, len(flagDefs)),
		byCode: make(map[uint16]*FlagToken, len(flagDefs)),
		tokens: make([]FlagToken, len(flagDefs)),
	}
	copy(l.tokens, flagDefs)
	for i := range l.tokens {
		t := &l.tokens[i]
		if _, exists := l.byName[t.Name]; exists {
			return nil, common.FormatErrorString(common.ErrDuplicateFlagName, "%s", t.Name)
		}
		if prev, exists := l.byCode[t.Code]; exists {
			return nil, common.FormatErrorString(common.ErrDuplicateFlagCode,
				"0x%04X assigned to both %s and %s", t.Code, prev.Name, t.Name)
		}
		if t.Code < FlagFloor {
			return nil, common.FormatErrorString(common.ErrGlyphRangeCollision,
				"%s has code 0x%04X below flag floor 0x%04X", t.Name, t.Code, FlagFloor)
		}
		l.byName[t.Name] = t
		l.byCode[t.Code] = t
	}
	return l, nil
}

// Tokenize returns the token for a bracketed name, e.g. "<LINE>".
func (l *FlagLexicon) Tokenize(name string) (*FlagToken, bool) {
	t, ok := l.byName[name]
	return t, ok
}

// ByCode returns the token for a 16-bit code unit.
func (l *FlagLexicon) ByCode(code uint16) (*FlagToken, bool) {
	t, ok := l.byCode[code]
	return t, ok
}

// Tokens returns the full vocabulary in registry order.
func (l *FlagLexicon) Tokens() []FlagToken {
	return l.tokens
}
