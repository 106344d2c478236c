package memory

import (
	"context"
	"testing"

	"kaffee/internal/core"
)

func TestStoreAppendAndRemove(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.AppendEntry(ctx, core.ConsumptionRow{EntryID: 1, Date: core.NewDate(2024, 3, 1), Cups: 2, Variety: "Arabica"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "mem:1" {
		t.Fatalf("ref = %q", ref)
	}
	if _, err := s.AppendEntry(ctx, core.ConsumptionRow{EntryID: 2, Date: core.NewDate(2024, 3, 2), Cups: 1, Variety: "Robusta"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.RemoveEntry(ctx, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	entries := s.Entries()
	if len(entries) != 1 || entries[0].EntryID != 2 {
		t.Fatalf("entries = %+v", entries)
	}

	// Removing an id that was never mirrored is not an error.
	if err := s.RemoveEntry(ctx, 99); err != nil {
		t.Fatalf("remove unknown: %v", err)
	}
}
