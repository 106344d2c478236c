package core

import "sort"

type (
	// SnapshotRow is one row of the editable ledger table as the user sees
	// it: the variety is referenced by name, not by id.
	SnapshotRow struct {
		ID      int64
		Date    Date
		Cups    int64
		Variety string
	}

	// ChangeSet is the outcome of diffing an edited snapshot against the
	// stored original: ids to delete, rows to overwrite, rows to insert.
	ChangeSet struct {
		Deletes []int64
		Updates []SnapshotRow
		Inserts []SnapshotRow
	}
)

// Empty reports whether the change set contains no work.
func (c ChangeSet) Empty() bool {
	return len(c.Deletes) == 0 && len(c.Updates) == 0 && len(c.Inserts) == 0
}

// DiffSnapshots computes the changes needed to make the stored ledger match
// the user-edited snapshot:
//
//   - ids present in original but not in edited are deletes,
//   - ids present in both with any field changed are updates (unchanged rows
//     are skipped to avoid needless writes),
//   - rows present only in edited, including rows with a zero id, are inserts.
//
// Deletes are sorted ascending; updates and inserts keep the edited order.
func DiffSnapshots(original, edited []SnapshotRow) ChangeSet {
	origByID := make(map[int64]SnapshotRow, len(original))
	for _, row := range original {
		origByID[row.ID] = row
	}
	editedIDs := make(map[int64]struct{}, len(edited))

	var cs ChangeSet
	for _, row := range edited {
		if row.ID != 0 {
			editedIDs[row.ID] = struct{}{}
		}
		orig, exists := origByID[row.ID]
		if row.ID == 0 || !exists {
			cs.Inserts = append(cs.Inserts, row)
			continue
		}
		if !sameRow(orig, row) {
			cs.Updates = append(cs.Updates, row)
		}
	}
	for _, row := range original {
		if _, kept := editedIDs[row.ID]; !kept {
			cs.Deletes = append(cs.Deletes, row.ID)
		}
	}
	sort.Slice(cs.Deletes, func(i, j int) bool { return cs.Deletes[i] < cs.Deletes[j] })
	return cs
}

func sameRow(a, b SnapshotRow) bool {
	return a.Date.Equal(b.Date) && a.Cups == b.Cups && a.Variety == b.Variety
}
