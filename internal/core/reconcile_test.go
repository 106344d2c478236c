package core

import "testing"

func snap(id int64, day int, cups int64, variety string) SnapshotRow {
	return SnapshotRow{ID: id, Date: NewDate(2025, 4, day), Cups: cups, Variety: variety}
}

func TestDiffSnapshotsDeleteAll(t *testing.T) {
	original := []SnapshotRow{snap(1, 1, 2, "Arabica")}
	cs := DiffSnapshots(original, nil)
	if len(cs.Deletes) != 1 || cs.Deletes[0] != 1 {
		t.Fatalf("deletes = %v", cs.Deletes)
	}
	if len(cs.Updates) != 0 || len(cs.Inserts) != 0 {
		t.Fatalf("unexpected updates/inserts: %+v", cs)
	}
}

func TestDiffSnapshotsFieldUpdate(t *testing.T) {
	original := []SnapshotRow{snap(1, 1, 2, "Arabica")}
	edited := []SnapshotRow{snap(1, 1, 3, "Arabica")}
	cs := DiffSnapshots(original, edited)
	if len(cs.Updates) != 1 || cs.Updates[0].Cups != 3 {
		t.Fatalf("updates = %+v", cs.Updates)
	}
	if len(cs.Deletes) != 0 || len(cs.Inserts) != 0 {
		t.Fatalf("unexpected deletes/inserts: %+v", cs)
	}
}

func TestDiffSnapshotsUnchangedIsSkipped(t *testing.T) {
	original := []SnapshotRow{snap(1, 1, 2, "Arabica"), snap(2, 2, 1, "Robusta")}
	edited := []SnapshotRow{snap(1, 1, 2, "Arabica"), snap(2, 2, 1, "Robusta")}
	cs := DiffSnapshots(original, edited)
	if !cs.Empty() {
		t.Fatalf("expected empty change set, got %+v", cs)
	}
}

func TestDiffSnapshotsNewRowInsert(t *testing.T) {
	edited := []SnapshotRow{snap(2, 2, 1, "Robusta")}
	cs := DiffSnapshots(nil, edited)
	if len(cs.Inserts) != 1 || cs.Inserts[0].Variety != "Robusta" {
		t.Fatalf("inserts = %+v", cs.Inserts)
	}
}

func TestDiffSnapshotsZeroIDIsInsert(t *testing.T) {
	original := []SnapshotRow{snap(1, 1, 2, "Arabica")}
	edited := []SnapshotRow{snap(1, 1, 2, "Arabica"), snap(0, 3, 1, "Robusta")}
	cs := DiffSnapshots(original, edited)
	if len(cs.Inserts) != 1 || cs.Inserts[0].ID != 0 {
		t.Fatalf("inserts = %+v", cs.Inserts)
	}
	if len(cs.Deletes) != 0 || len(cs.Updates) != 0 {
		t.Fatalf("unexpected deletes/updates: %+v", cs)
	}
}

func TestDiffSnapshotsMixed(t *testing.T) {
	original := []SnapshotRow{
		snap(1, 1, 2, "Arabica"),
		snap(2, 2, 1, "Robusta"),
		snap(3, 3, 1, "Arabica"),
	}
	edited := []SnapshotRow{
		snap(1, 1, 2, "Arabica"),  // unchanged
		snap(3, 3, 2, "Robusta"),  // cups and variety changed
		snap(0, 4, 1, "Liberica"), // new
	}
	cs := DiffSnapshots(original, edited)
	if len(cs.Deletes) != 1 || cs.Deletes[0] != 2 {
		t.Fatalf("deletes = %v", cs.Deletes)
	}
	if len(cs.Updates) != 1 || cs.Updates[0].ID != 3 || cs.Updates[0].Variety != "Robusta" {
		t.Fatalf("updates = %+v", cs.Updates)
	}
	if len(cs.Inserts) != 1 || cs.Inserts[0].Variety != "Liberica" {
		t.Fatalf("inserts = %+v", cs.Inserts)
	}
}
