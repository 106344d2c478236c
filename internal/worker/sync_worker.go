package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kaffee/internal/amqp"
	"kaffee/internal/sheets"
	"kaffee/internal/storage"
)

// SyncWorker mirrors consumption entries from SQLite into the spreadsheet
// backup. It consumes AMQP notifications and keeps a periodic sweep over
// still-pending rows in case messages are lost.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	mirror    sheets.Mirror
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, mirror sheets.Mirror, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single created/updated notification
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.EntrySyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"op", msg.Op)

	return w.syncEntryToMirror(ctx, msg.ID)
}

// HandleDeleteMessage processes a single delete notification. The entry is
// gone from SQLite, so the mirror row is located by id and removed there.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.EntrySyncMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID)

	if w.mirror == nil {
		slog.WarnContext(ctx, "No mirror configured, skipping removal", "id", msg.ID)
		return nil
	}

	if err := w.mirror.RemoveEntry(ctx, msg.ID); err != nil {
		return fmt.Errorf("remove entry from mirror: %w", err)
	}

	slog.InfoContext(ctx, "Removed entry from mirror", "id", msg.ID)
	return nil
}

// ProcessPendingEntries syncs entries that haven't been mirrored yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingEntries(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncEntries(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending entries: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending entries", "count", len(pending))

	for _, p := range pending {
		if err := w.syncEntryToMirror(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync entry", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck drains the pending backlog once at worker startup to
// recover from missed messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncEntries(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending entries for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending entries found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending entries on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, p := range pending {
		if err := w.syncEntryToMirror(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync entry during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

// RunPendingSweep calls ProcessPendingEntries on the given interval until ctx
// is cancelled.
func (w *SyncWorker) RunPendingSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPendingEntries(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending sweep failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) syncEntryToMirror(ctx context.Context, id int64) error {
	row, err := w.storage.GetConsumptionRow(ctx, id)
	if err != nil {
		if markErr := w.storage.MarkEntrySyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("get entry from storage: %w", err)
	}

	// Drop any previously mirrored version of this entry so re-syncs and
	// updates don't accumulate duplicate rows.
	if err := w.mirror.RemoveEntry(ctx, id); err != nil {
		slog.WarnContext(ctx, "Failed to remove stale mirror row", "id", id, "error", err)
	}

	ref, err := w.mirror.AppendEntry(ctx, row)
	if err != nil {
		if markErr := w.storage.MarkEntrySyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to mirror: %w", err)
	}

	if err := w.storage.MarkEntrySynced(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
		// Don't return error here - the sync actually worked
	}

	slog.InfoContext(ctx, "Synced entry to mirror",
		"id", id,
		"mirror_ref", ref,
		"variety", row.Variety,
		"total_caffeine_mg", row.TotalCaffeine)

	return nil
}
