package pkg

// DedupeEntries groups the entries of one script file by exact equality of
// their final encoded bytes. Exactly one physical copy per group is written
// on repack; every member's pointers reference it. Grouping is by the
// encoded form, not display text, so distinct flag sequences that render
// alike stay distinct. Entries from different files are never passed to the
// same call, so cross-file merging cannot happen.
//
// Group IDs are assigned in first-occurrence order; the returned map binds
// each entry index to its group ID.
func DedupeEntries(entries []*TextEntry) ([]*DedupGroup, map[int]int) {
	groups := make([]*DedupGroup, 0, len(entries))
	byEncoded := make(map[string]*DedupGroup, len(entries))
	membership := make(map[int]int, len(entries))

	for i, entry := range entries {
		key := string(entry.Encoded)
		group, ok := byEncoded[key]
		if !ok {
			group = &DedupGroup{
				ID:      len(groups),
				Encoded: entry.Encoded,
			}
			byEncoded[key] = group
			groups = append(groups, group)
		}
		group.Members = append(group.Members, entry)
		membership[i] = group.ID
	}
	return groups, membership
}

// IdentityGroups places every entry in its own group. Layouts without a
// pointer table (stride records, sentinel runs) locate entries by position,
// so two identical entries cannot share a physical copy.
func IdentityGroups(entries []*TextEntry) ([]*DedupGroup, map[int]int) {
	groups := make([]*DedupGroup, len(entries))
	membership := make(map[int]int, len(entries))
	for i, entry := range entries {
		groups[i] = &DedupGroup{
			ID:      i,
			Encoded: entry.Encoded,
			Members: []*TextEntry{entry},
		}
		membership[i] = i
	}
	return groups, membership
}
