package pkg

import (
	"fmt"
	"sort"

	"github.com/theflyingzamboni/lodscript/pkg/common"
)

// Extractor locates text-entry byte ranges inside script files. The
// structural convention of each file kind (pointer table, fixed-stride
// records, or sentinel-delimited regions) comes from its descriptor; the
// extractor dispatches on layout and never special-cases individual files.
type Extractor struct {
	cfg   *Config
	codec *TextCodec
}

// NewExtractor creates an extractor over the given config and codec.
func NewExtractor(cfg *Config, codec *TextCodec) *Extractor {
	return &Extractor{cfg: cfg, codec: codec}
}

// ExtractFile locates every text entry in one script file and returns the
// populated ScriptFile. Any inconsistency in the file's structure fails the
// whole file with a StructureParseError; the caller decides what happens to
// the rest of the run.
func (x *Extractor) ExtractFile(name string, data []byte, kind *FileKind) (*ScriptFile, error) {
	sf := &ScriptFile{Name: name, Kind: kind, Data: data}

	var err error
	switch kind.Layout {
	case LayoutPointerTable:
		err = x.extractPointerTable(sf)
	case LayoutStride:
		err = x.extractStride(sf)
	case LayoutSentinel:
		err = x.extractSentinel(sf)
	default:
		err = &StructureParseError{File: name, Reason: fmt.Sprintf("unknown layout %q", kind.Layout)}
	}
	if err != nil {
		return nil, err
	}

	for _, entry := range sf.Entries {
		common.LogDebug(common.DebugEntryLocated,
			sf.Name, entry.Offset, len(entry.OriginalBytes), len(entry.PointerSlots))
	}
	return sf, nil
}

// pointerRef is one pointer-table value resolved to its target offset.
type pointerRef struct {
	target     int
	slot       PointerSlot
	boxPtr     int // resolved box-slot offset, -1 when the table is single
	boxSlot    PointerSlot
	tableIndex int
	position   int // index of the pointer within its table
}

// extractPointerTable reads every configured pointer table, resolves the
// relative word-aligned pointers, and decodes one entry per unique target.
// Duplicate pointers attach as extra slots on the first entry. Pointers in
// a table may be out of order relative to the text, so targets are sorted
// before extents are checked for overlap.
func (x *Extractor) extractPointerTable(sf *ScriptFile) error {
	kind := sf.Kind
	var refs []pointerRef

	for ti, tbl := range kind.Tables {
		tblLen := tbl.End - tbl.Start
		if tblLen <= 0 || tbl.Start < 0 || tbl.End > len(sf.Data) {
			return &StructureParseError{File: sf.Name,
				Reason: fmt.Sprintf("pointer table %d range 0x%X-0x%X outside file", ti, tbl.Start, tbl.End)}
		}
		textLen := tblLen
		boxTableStart := -1
		if tbl.Dual {
			// A dual table is the text table immediately followed by
			// an equally sized box-pointer table.
			textLen = tblLen / 2
			boxTableStart = tbl.Start + textLen
		}

		for pos := 0; pos < textLen; pos += 4 {
			raw, err := common.Uint32At(sf.Data, tbl.Start+pos)
			if err != nil {
				return &StructureParseError{File: sf.Name, Reason: err.Error()}
			}
			// Pointer values are shifted left two bits to word-align
			// them, relative to the start of their table.
			target := int(raw)<<2 + tbl.Start
			if target < tbl.End || target >= len(sf.Data) {
				return &StructureParseError{File: sf.Name,
					Reason: fmt.Sprintf("pointer at 0x%X targets 0x%X, outside the text region", tbl.Start+pos, target)}
			}
			ref := pointerRef{
				target:     target,
				slot:       PointerSlot{Location: tbl.Start + pos, TableStart: tbl.Start},
				boxPtr:     -1,
				tableIndex: ti,
				position:   pos / 4,
			}
			if tbl.Dual {
				rawBox, err := common.Uint32At(sf.Data, boxTableStart+pos)
				if err != nil {
					return &StructureParseError{File: sf.Name, Reason: err.Error()}
				}
				ref.boxPtr = int(rawBox)<<2 + boxTableStart
				ref.boxSlot = PointerSlot{Location: boxTableStart + pos, TableStart: boxTableStart}
			}
			refs = append(refs, ref)
		}
	}

	if len(refs) == 0 {
		return &StructureParseError{File: sf.Name, Reason: "no pointers found"}
	}

	// Group references by target so duplicate pointers share one entry.
	byTarget := make(map[int][]pointerRef)
	targets := make([]int, 0, len(refs))
	for _, ref := range refs {
		if _, seen := byTarget[ref.target]; !seen {
			targets = append(targets, ref.target)
		}
		byTarget[ref.target] = append(byTarget[ref.target], ref)
	}
	sort.Ints(targets)

	sf.TextStart = targets[0]
	sf.TextEnd = len(sf.Data)
	if kind.Region != nil {
		sf.TextEnd = kind.Region.End
	}
	if kind.LengthPolicy() == FixedMax {
		sf.Budget = sf.TextEnd - sf.TextStart
	}

	for i, target := range targets {
		group := byTarget[target]
		entry := &TextEntry{
			File:  sf.Name,
			Index: i + 1,
			Meta: EntryMeta{
				Area:     group[0].tableIndex,
				Dialogue: group[0].position,
			},
			Offset: target,
		}
		content, consumed, err := x.codec.Decode(sf.Data[target:], entry.ID())
		if err != nil {
			return err
		}
		entry.Content = content
		entry.OriginalBytes, _ = common.BytesAt(sf.Data, target, consumed)

		extent := consumed
		if kind.BoxSlot > 0 {
			boxLoc := target + consumed
			if group[0].boxPtr >= 0 && group[0].boxPtr != boxLoc {
				return &StructureParseError{File: sf.Name,
					Reason: fmt.Sprintf("box pointer 0x%X disagrees with text end 0x%X (entry %d)", group[0].boxPtr, boxLoc, entry.Index)}
			}
			raw, err := common.BytesAt(sf.Data, boxLoc, kind.BoxSlot)
			if err != nil {
				return &StructureParseError{File: sf.Name, Reason: err.Error()}
			}
			entry.BoxRaw = raw
			extent += kind.BoxSlot
		}

		if i+1 < len(targets) && target+extent > targets[i+1] {
			return &StructureParseError{File: sf.Name,
				Reason: fmt.Sprintf("entry at 0x%X (%d bytes) overlaps entry at 0x%X", target, extent, targets[i+1])}
		}
		if target+extent > sf.TextEnd {
			return &StructureParseError{File: sf.Name,
				Reason: fmt.Sprintf("entry at 0x%X runs past the text region end 0x%X", target, sf.TextEnd)}
		}

		for _, ref := range group {
			entry.PointerSlots = append(entry.PointerSlots, ref.slot)
			if ref.boxPtr >= 0 {
				entry.BoxPtrSlots = append(entry.BoxPtrSlots, ref.boxSlot)
			}
		}
		sf.Entries = append(sf.Entries, entry)
	}
	return nil
}

// extractStride walks a block of fixed-size records, decoding the text span
// and reading the positional metadata fields of each one.
func (x *Extractor) extractStride(sf *ScriptFile) error {
	kind := sf.Kind
	desc := kind.Stride

	sf.TextStart = desc.Start
	sf.TextEnd = desc.Start + desc.Count*desc.Size
	if sf.TextEnd > len(sf.Data) {
		return &StructureParseError{File: sf.Name,
			Reason: fmt.Sprintf("%d records of %d bytes at 0x%X run past end of file", desc.Count, desc.Size, desc.Start)}
	}
	if kind.LengthPolicy() == FixedMax {
		sf.Budget = desc.Count * desc.TextSize
	}

	readMeta := func(record, offset int) (int, error) {
		if offset < 0 {
			return 0, nil
		}
		v, err := common.Uint16At(sf.Data, record+offset)
		return int(v), err
	}

	for i := 0; i < desc.Count; i++ {
		record := desc.Start + i*desc.Size
		entry := &TextEntry{
			File:   sf.Name,
			Index:  i + 1,
			Offset: record + desc.TextOffset,
		}

		var err error
		if entry.Meta.Area, err = readMeta(record, desc.AreaOffset); err != nil {
			return &StructureParseError{File: sf.Name, Reason: err.Error()}
		}
		if entry.Meta.Event, err = readMeta(record, desc.EventOffset); err != nil {
			return &StructureParseError{File: sf.Name, Reason: err.Error()}
		}
		if entry.Meta.Flag, err = readMeta(record, desc.FlagOffset); err != nil {
			return &StructureParseError{File: sf.Name, Reason: err.Error()}
		}
		if entry.Meta.Dialogue, err = readMeta(record, desc.DialogueOffset); err != nil {
			return &StructureParseError{File: sf.Name, Reason: err.Error()}
		}

		span := sf.Data[entry.Offset : record+desc.TextOffset+desc.TextSize]
		content, consumed, err := x.codec.Decode(span, entry.ID())
		if err != nil {
			return err
		}
		entry.Content = content
		entry.OriginalBytes, _ = common.BytesAt(sf.Data, entry.Offset, consumed)

		if kind.BoxSlot > 0 {
			raw, err := common.BytesAt(sf.Data, record+desc.BoxOffset, kind.BoxSlot)
			if err != nil {
				return &StructureParseError{File: sf.Name, Reason: err.Error()}
			}
			entry.BoxRaw = raw
		}
		sf.Entries = append(sf.Entries, entry)
	}
	return nil
}

// extractSentinel scans a region for consecutive end-block-terminated runs.
// The region ends at its configured bound or at the first run of zero
// padding where an entry would otherwise start.
func (x *Extractor) extractSentinel(sf *ScriptFile) error {
	kind := sf.Kind
	region := kind.Region

	if region.Start < 0 || region.End > len(sf.Data) {
		return &StructureParseError{File: sf.Name,
			Reason: fmt.Sprintf("region 0x%X-0x%X outside file", region.Start, region.End)}
	}
	sf.TextStart = region.Start
	sf.TextEnd = region.End
	if kind.LengthPolicy() == FixedMax {
		sf.Budget = region.End - region.Start
	}

	cursor := region.Start
	index := 1
	for cursor < region.End {
		if allZero(sf.Data[cursor:region.End]) {
			break
		}
		entry := &TextEntry{
			File:   sf.Name,
			Index:  index,
			Offset: cursor,
			Meta:   EntryMeta{Dialogue: index - 1},
		}
		content, consumed, err := x.codec.Decode(sf.Data[cursor:region.End], entry.ID())
		if err != nil {
			return err
		}
		entry.Content = content
		entry.OriginalBytes, _ = common.BytesAt(sf.Data, cursor, consumed)
		cursor += consumed

		if kind.BoxSlot > 0 {
			raw, err := common.BytesAt(sf.Data, cursor, kind.BoxSlot)
			if err != nil {
				return &StructureParseError{File: sf.Name, Reason: err.Error()}
			}
			entry.BoxRaw = raw
			cursor += kind.BoxSlot
		}

		sf.Entries = append(sf.Entries, entry)
		index++
	}
	if len(sf.Entries) == 0 {
		return &StructureParseError{File: sf.Name,
			Reason: fmt.Sprintf("no entries in region 0x%X-0x%X", region.Start, region.End)}
	}
	return nil
}

func allZero(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
