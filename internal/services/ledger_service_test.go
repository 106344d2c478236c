package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"kaffee/internal/core"
	"kaffee/internal/storage"
)

func newTestService(t *testing.T) *LedgerService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "kaffee.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	svc := NewLedgerService(repo, nil)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestNewLedgerService(t *testing.T) {
	service := NewLedgerService(nil, nil)

	if service == nil {
		t.Fatal("NewLedgerService should return a non-nil service")
	}
	if service.storage != nil {
		t.Error("NewLedgerService should set storage to nil when passed nil")
	}
}

func TestLedgerService_AddEntryWithoutAMQP(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	v, err := svc.storage.AddVariety(ctx, "Arabica", 90)
	if err != nil {
		t.Fatalf("add variety: %v", err)
	}

	// A missing AMQP client must not fail the local write.
	saved, err := svc.AddEntry(ctx, core.Entry{Date: core.NewDate(2024, 3, 1), Cups: 2, VarietyID: v.ID})
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}
	if saved.ID < 1 {
		t.Fatalf("expected assigned id, got %d", saved.ID)
	}
}

func TestLedgerService_Reconcile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	arabica, _ := svc.storage.AddVariety(ctx, "Arabica", 90)
	if _, err := svc.storage.AddVariety(ctx, "Robusta", 150); err != nil {
		t.Fatalf("add variety: %v", err)
	}

	e1, err := svc.AddEntry(ctx, core.Entry{Date: core.NewDate(2024, 3, 1), Cups: 2, VarietyID: arabica.ID})
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}
	e2, err := svc.AddEntry(ctx, core.Entry{Date: core.NewDate(2024, 3, 2), Cups: 1, VarietyID: arabica.ID})
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}

	original := []core.SnapshotRow{
		{ID: e1.ID, Date: e1.Date, Cups: 2, Variety: "Arabica"},
		{ID: e2.ID, Date: e2.Date, Cups: 1, Variety: "Arabica"},
	}
	edited := []core.SnapshotRow{
		// e1 deleted, e2 switched to Robusta with more cups, one brand-new row.
		{ID: e2.ID, Date: e2.Date, Cups: 3, Variety: "Robusta"},
		{Date: core.NewDate(2024, 3, 3), Cups: 1, Variety: "Arabica"},
	}

	report, err := svc.Reconcile(ctx, original, edited)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.Deleted != 1 || report.Updated != 1 || report.Inserted != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Failures) != 0 {
		t.Fatalf("unexpected failures: %+v", report.Failures)
	}

	rows, err := svc.storage.ListConsumption(ctx)
	if err != nil {
		t.Fatalf("list consumption: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Variety != "Robusta" || rows[0].Cups != 3 {
		t.Fatalf("updated row = %+v", rows[0])
	}
	if rows[1].Variety != "Arabica" || !rows[1].Date.Equal(core.NewDate(2024, 3, 3)) {
		t.Fatalf("inserted row = %+v", rows[1])
	}
}

func TestLedgerService_ReconcileRowIsolation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	arabica, _ := svc.storage.AddVariety(ctx, "Arabica", 90)
	e1, err := svc.AddEntry(ctx, core.Entry{Date: core.NewDate(2024, 3, 1), Cups: 2, VarietyID: arabica.ID})
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}

	original := []core.SnapshotRow{
		{ID: e1.ID, Date: e1.Date, Cups: 2, Variety: "Arabica"},
	}
	edited := []core.SnapshotRow{
		{ID: e1.ID, Date: e1.Date, Cups: 5, Variety: "Arabica"},
		// Unknown variety: this row fails, the update above still lands.
		{Date: core.NewDate(2024, 3, 2), Cups: 1, Variety: "Liberica"},
	}

	report, err := svc.Reconcile(ctx, original, edited)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.Updated != 1 || report.Inserted != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Failures) != 1 || !errors.Is(report.Failures[0].Err, core.ErrNotFound) {
		t.Fatalf("failures = %+v", report.Failures)
	}

	rows, err := svc.storage.ListConsumption(ctx)
	if err != nil {
		t.Fatalf("list consumption: %v", err)
	}
	if len(rows) != 1 || rows[0].Cups != 5 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestLedgerService_ReconcileNoChanges(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	original := []core.SnapshotRow{
		{ID: 1, Date: core.NewDate(2024, 3, 1), Cups: 2, Variety: "Arabica"},
	}

	report, err := svc.Reconcile(ctx, original, original)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.Deleted != 0 || report.Updated != 0 || report.Inserted != 0 || len(report.Failures) != 0 {
		t.Fatalf("report = %+v", report)
	}
}
