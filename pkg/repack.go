package pkg

import (
	"fmt"

	"github.com/theflyingzamboni/lodscript/pkg/common"
)

// RepackFile reassembles a script file from its deduplicated, laid-out,
// budget-checked groups. The returned buffer is a complete new file image;
// the caller only writes it out after every stage has passed, so a failed
// file is always left untouched on disk.
func RepackFile(sf *ScriptFile, groups []*DedupGroup, membership map[int]int) ([]byte, error) {
	switch sf.Kind.Layout {
	case LayoutStride:
		return repackStride(sf)
	case LayoutPointerTable, LayoutSentinel:
		return repackRegion(sf, groups, membership)
	}
	return nil, &StructureParseError{File: sf.Name,
		Reason: fmt.Sprintf("unknown layout %q", sf.Kind.Layout)}
}

// repackStride writes each entry back into its own record: records cannot
// relocate, so the encoded text lands in its original span, zero padded,
// with the box dimension in the record's box slot.
func repackStride(sf *ScriptFile) ([]byte, error) {
	kind := sf.Kind
	desc := kind.Stride
	out := make([]byte, len(sf.Data))
	copy(out, sf.Data)

	for _, entry := range sf.Entries {
		record := entry.Offset - desc.TextOffset
		span := out[entry.Offset : entry.Offset+desc.TextSize]
		for i := range span {
			span[i] = 0
		}
		copy(span, entry.Encoded)

		if kind.BoxSlot > 0 {
			slot, err := boxSlotBytes(entry, kind.BoxSlot)
			if err != nil {
				return nil, err
			}
			copy(out[record+desc.BoxOffset:], slot)
		}
	}
	return out, nil
}

// repackRegion rewrites the whole text region: one physical copy per dedup
// group at a newly assigned offset, each followed by its box-dimension
// slot, then every pointer slot updated so all owners (duplicates included)
// reference the new offsets. Extensible files replace the region through to
// end of file; fixed-max files zero-fill the reclaimed tail of the region.
func repackRegion(sf *ScriptFile, groups []*DedupGroup, membership map[int]int) ([]byte, error) {
	kind := sf.Kind

	region := make([]byte, 0, sf.TextEnd-sf.TextStart)
	for _, g := range groups {
		g.Offset = sf.TextStart + len(region)
		region = append(region, g.Encoded...)
		if kind.BoxSlot > 0 {
			slot, err := boxSlotBytes(g.Members[0], kind.BoxSlot)
			if err != nil {
				return nil, err
			}
			g.Box = slot
			region = append(region, slot...)
		}
	}

	var out []byte
	if kind.LengthPolicy() == Extensible {
		out = make([]byte, sf.TextStart+len(region))
		copy(out, sf.Data[:sf.TextStart])
		copy(out[sf.TextStart:], region)
	} else {
		if sf.TextStart+len(region) > sf.TextEnd {
			// Budget enforcement runs before repack; reaching this
			// means the stages disagree about overhead.
			return nil, common.FormatErrorString(common.ErrRegionOverflowInternal,
				"%s: %d bytes into %d", sf.Name, len(region), sf.TextEnd-sf.TextStart)
		}
		out = make([]byte, len(sf.Data))
		copy(out, sf.Data)
		copy(out[sf.TextStart:], region)
		for i := sf.TextStart + len(region); i < sf.TextEnd; i++ {
			out[i] = 0
		}
	}

	for i, entry := range sf.Entries {
		group := groups[membership[i]]
		if err := writePointerSlots(out, entry.PointerSlots, group.Offset, sf.Name); err != nil {
			return nil, err
		}
		boxOffset := group.Offset + len(group.Encoded)
		if err := writePointerSlots(out, entry.BoxPtrSlots, boxOffset, sf.Name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// writePointerSlots stores a new target as a relative word-aligned pointer
// in every given slot.
func writePointerSlots(out []byte, slots []PointerSlot, target int, file string) error {
	for _, slot := range slots {
		diff := target - slot.TableStart
		if diff < 0 || diff%4 != 0 {
			return &StructureParseError{File: file,
				Reason: fmt.Sprintf("target 0x%X not word aligned relative to table at 0x%X", target, slot.TableStart)}
		}
		raw, err := common.SafeIntToUint32(diff >> 2)
		if err != nil {
			return &StructureParseError{File: file, Reason: err.Error()}
		}
		if err := common.PutUint32At(out, slot.Location, raw); err != nil {
			return &StructureParseError{File: file, Reason: err.Error()}
		}
		common.LogDebug(common.DebugPointerUpdated, slot.Location, target, raw)
	}
	return nil
}

// boxSlotBytes builds the bytes written into an entry's box-dimension slot.
// Unedited entries keep their original slot verbatim, which is what makes
// an untouched round trip byte-identical. Edited entries get the freshly
// computed width and height, with any trailing slot bytes carried over from
// the original.
func boxSlotBytes(entry *TextEntry, size int) ([]byte, error) {
	if !entry.Edited && len(entry.BoxRaw) == size {
		out := make([]byte, size)
		copy(out, entry.BoxRaw)
		return out, nil
	}

	out := make([]byte, size)
	copy(out, entry.BoxRaw)
	w, err := common.SafeIntToUint8(entry.Box.Width)
	if err != nil {
		return nil, &WidthLimitExceededError{
			Entry: entry.ID(), Line: 0, Width: entry.Box.Width, Limit: 255,
		}
	}
	h, err := common.SafeIntToUint8(entry.Box.Height)
	if err != nil {
		return nil, &WidthLimitExceededError{
			Entry: entry.ID(), Line: 0, Width: entry.Box.Height, Limit: 255,
		}
	}
	out[0] = w
	if size > 1 {
		out[1] = h
	}
	return out, nil
}
