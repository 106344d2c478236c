package worker

import (
	"context"
	"path/filepath"
	"testing"

	"kaffee/internal/amqp"
	"kaffee/internal/core"
	"kaffee/internal/sheets/memory"
	"kaffee/internal/storage"
)

func newTestWorker(t *testing.T) (*SyncWorker, *storage.SQLiteRepository, *memory.Store) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "kaffee.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	mirror := memory.New()
	return NewSyncWorker(repo, mirror, 10), repo, mirror
}

func seedEntry(t *testing.T, repo *storage.SQLiteRepository) core.Entry {
	t.Helper()
	ctx := context.Background()
	v, err := repo.AddVariety(ctx, "Arabica", 90)
	if err != nil {
		t.Fatalf("add variety: %v", err)
	}
	e, err := repo.AddEntry(ctx, core.Entry{Date: core.NewDate(2024, 3, 1), Cups: 2, VarietyID: v.ID})
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}
	return e
}

func TestHandleSyncMessage(t *testing.T) {
	w, repo, mirror := newTestWorker(t)
	ctx := context.Background()
	e := seedEntry(t, repo)

	if err := w.HandleSyncMessage(ctx, amqp.NewEntrySyncMessage(e.ID, 1)); err != nil {
		t.Fatalf("handle sync message: %v", err)
	}

	entries := mirror.Entries()
	if len(entries) != 1 || entries[0].EntryID != e.ID || entries[0].TotalCaffeine != 180 {
		t.Fatalf("mirror entries = %+v", entries)
	}

	pending, err := repo.GetPendingSyncEntries(ctx, 10)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("entry should be marked synced, pending = %+v", pending)
	}
}

func TestHandleSyncMessageUnknownEntry(t *testing.T) {
	w, _, mirror := newTestWorker(t)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewEntrySyncMessage(9999, 1)); err == nil {
		t.Fatal("expected error for unknown entry")
	}
	if len(mirror.Entries()) != 0 {
		t.Fatal("nothing should reach the mirror")
	}
}

func TestHandleDeleteMessage(t *testing.T) {
	w, repo, mirror := newTestWorker(t)
	ctx := context.Background()
	e := seedEntry(t, repo)

	if err := w.HandleSyncMessage(ctx, amqp.NewEntrySyncMessage(e.ID, 1)); err != nil {
		t.Fatalf("handle sync message: %v", err)
	}
	if err := w.HandleDeleteMessage(ctx, amqp.NewEntryDeleteMessage(e.ID)); err != nil {
		t.Fatalf("handle delete message: %v", err)
	}
	if len(mirror.Entries()) != 0 {
		t.Fatalf("mirror entries = %+v", mirror.Entries())
	}
}

func TestStartupSyncCheck(t *testing.T) {
	w, repo, mirror := newTestWorker(t)
	ctx := context.Background()

	v, err := repo.AddVariety(ctx, "Arabica", 90)
	if err != nil {
		t.Fatalf("add variety: %v", err)
	}
	for day := 1; day <= 3; day++ {
		if _, err := repo.AddEntry(ctx, core.Entry{Date: core.NewDate(2024, 3, day), Cups: 1, VarietyID: v.ID}); err != nil {
			t.Fatalf("add entry: %v", err)
		}
	}

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("startup sync check: %v", err)
	}

	if len(mirror.Entries()) != 3 {
		t.Fatalf("mirror entries = %+v", mirror.Entries())
	}
	pending, err := repo.GetPendingSyncEntries(ctx, 10)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending = %+v", pending)
	}
}

func TestProcessPendingEntriesEmpty(t *testing.T) {
	w, _, mirror := newTestWorker(t)

	if err := w.ProcessPendingEntries(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(mirror.Entries()) != 0 {
		t.Fatal("no entries expected")
	}
}
