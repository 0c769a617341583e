package pkg

// AggregateEncodedSize returns the number of bytes the repacker will place
// in the text region for the given groups: one physical copy per group plus
// its box-dimension slot.
func AggregateEncodedSize(kind *FileKind, groups []*DedupGroup) int {
	total := 0
	for _, g := range groups {
		total += len(g.Encoded) + kind.BoxSlot
	}
	return total
}

// CheckBudget validates the post-edit aggregate encoded size of one script
// file against its length policy. EXTENSIBLE files always pass; their new
// aggregate simply becomes the file's new physical size. FIXED-MAX files
// must fit the original budget, and a violation reports the exact excess.
// Stride-record kinds additionally pin every entry to its record's text
// span, since records cannot relocate.
func CheckBudget(sf *ScriptFile, groups []*DedupGroup) error {
	kind := sf.Kind

	if kind.Layout == LayoutStride {
		for _, g := range groups {
			for _, entry := range g.Members {
				if excess := len(entry.Encoded) - kind.Stride.TextSize; excess > 0 {
					return &LengthBudgetExceededError{
						File:   sf.Name,
						Budget: kind.Stride.TextSize,
						Excess: excess,
					}
				}
			}
		}
		return nil
	}

	if kind.LengthPolicy() == Extensible {
		return nil
	}

	aggregate := AggregateEncodedSize(kind, groups)
	if excess := aggregate - sf.Budget; excess > 0 {
		return &LengthBudgetExceededError{
			File:   sf.Name,
			Budget: sf.Budget,
			Excess: excess,
		}
	}
	return nil
}
