package services

import (
	"context"
	"fmt"
	"log/slog"

	"kaffee/internal/amqp"
	"kaffee/internal/core"
	"kaffee/internal/storage"
)

// LedgerService orchestrates consumption writes across SQLite and AMQP
type LedgerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// AddEntry saves a consumption entry locally and publishes a sync message
func (s *LedgerService) AddEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	// Save to SQLite first (fast, reliable)
	saved, err := s.storage.AddEntry(ctx, e)
	if err != nil {
		return core.Entry{}, fmt.Errorf("save entry: %w", err)
	}

	// Publish async sync message (non-blocking, version 1 for new entry)
	if err := s.publishSyncMessage(ctx, saved.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", saved.ID, "error", err)
		// Don't fail the request - entry is saved locally
	}

	return saved, nil
}

// DeleteEntry removes a consumption entry locally and publishes a delete message
func (s *LedgerService) DeleteEntry(ctx context.Context, id int64) error {
	if err := s.storage.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	// Publish async delete message (non-blocking)
	if err := s.publishDeleteMessage(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
		// Don't fail the request - entry is deleted locally
	}

	return nil
}

type (
	// RowFailure records one snapshot row that could not be applied.
	RowFailure struct {
		Row core.SnapshotRow
		Err error
	}

	// ReconcileReport summarizes a bulk-edit application. Failed rows are
	// collected instead of aborting the whole edit.
	ReconcileReport struct {
		Deleted  int
		Updated  int
		Inserted int
		Failures []RowFailure
	}
)

// Reconcile diffs the edited snapshot against the original and applies the
// resulting deletes, updates and inserts row by row. A row that fails leaves
// the rest of the edit untouched.
func (s *LedgerService) Reconcile(ctx context.Context, original, edited []core.SnapshotRow) (ReconcileReport, error) {
	cs := core.DiffSnapshots(original, edited)
	var report ReconcileReport
	if cs.Empty() {
		return report, nil
	}

	for _, id := range cs.Deletes {
		if err := s.DeleteEntry(ctx, id); err != nil {
			report.Failures = append(report.Failures, RowFailure{
				Row: core.SnapshotRow{ID: id},
				Err: err,
			})
			continue
		}
		report.Deleted++
	}

	for _, row := range cs.Updates {
		entry, err := s.entryFromSnapshot(ctx, row)
		if err != nil {
			report.Failures = append(report.Failures, RowFailure{Row: row, Err: err})
			continue
		}
		if err := s.storage.UpdateEntry(ctx, entry); err != nil {
			report.Failures = append(report.Failures, RowFailure{Row: row, Err: err})
			continue
		}
		report.Updated++
		if err := s.publishSyncMessage(ctx, entry.ID, 2); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message",
				"id", entry.ID, "error", err)
		}
	}

	for _, row := range cs.Inserts {
		entry, err := s.entryFromSnapshot(ctx, row)
		if err != nil {
			report.Failures = append(report.Failures, RowFailure{Row: row, Err: err})
			continue
		}
		if _, err := s.AddEntry(ctx, entry); err != nil {
			report.Failures = append(report.Failures, RowFailure{Row: row, Err: err})
			continue
		}
		report.Inserted++
	}

	slog.InfoContext(ctx, "Reconciled ledger snapshot",
		"deleted", report.Deleted,
		"updated", report.Updated,
		"inserted", report.Inserted,
		"failed", len(report.Failures))

	return report, nil
}

// entryFromSnapshot resolves the snapshot's variety name to a catalog id.
func (s *LedgerService) entryFromSnapshot(ctx context.Context, row core.SnapshotRow) (core.Entry, error) {
	v, err := s.storage.GetVarietyByName(ctx, row.Variety)
	if err != nil {
		return core.Entry{}, fmt.Errorf("resolve variety %q: %w", row.Variety, err)
	}
	return core.Entry{
		ID:        row.ID,
		Date:      row.Date,
		Cups:      row.Cups,
		VarietyID: v.ID,
	}, nil
}

func (s *LedgerService) publishSyncMessage(ctx context.Context, id, version int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}

	return s.amqpClient.PublishEntrySync(ctx, id, version)
}

func (s *LedgerService) publishDeleteMessage(ctx context.Context, id int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}

	return s.amqpClient.PublishEntryDelete(ctx, id)
}

// Close closes both storage and AMQP connections
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
