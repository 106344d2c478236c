package portability

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"kaffee/internal/core"
	"kaffee/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "kaffee.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestExportVarieties(t *testing.T) {
	var buf bytes.Buffer
	varieties := []core.Variety{
		{ID: 1, Name: "Arabica", CaffeineMg: 90},
		{ID: 2, Name: "Robusta", CaffeineMg: 150},
	}

	if err := ExportVarieties(&buf, varieties); err != nil {
		t.Fatalf("export varieties: %v", err)
	}

	want := "id,name,caffeine_mg\n1,Arabica,90\n2,Robusta,150\n"
	if buf.String() != want {
		t.Fatalf("export = %q, want %q", buf.String(), want)
	}
}

func TestExportConsumption(t *testing.T) {
	var buf bytes.Buffer
	rows := []core.ConsumptionRow{
		{EntryID: 7, Date: core.NewDate(2024, 3, 1), Cups: 2, VarietyID: 1, Variety: "Arabica"},
	}

	if err := ExportConsumption(&buf, rows); err != nil {
		t.Fatalf("export consumption: %v", err)
	}

	want := "id,date,cups,variety_id,variety\n7,2024-03-01,2,1,Arabica\n"
	if buf.String() != want {
		t.Fatalf("export = %q, want %q", buf.String(), want)
	}
}

func TestImportVarieties(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	csv := "name,caffeine_mg\nArabica,90\nRobusta,150\n"
	report, err := ImportVarieties(ctx, repo, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("import varieties: %v", err)
	}
	if report.Inserted != 2 || len(report.Failures) != 0 {
		t.Fatalf("report = %+v", report)
	}

	list, err := repo.ListVarieties(ctx)
	if err != nil {
		t.Fatalf("list varieties: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Arabica" || list[0].CaffeineMg != 90 {
		t.Fatalf("list = %+v", list)
	}
}

func TestImportVarietiesRowIsolation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.AddVariety(ctx, "Arabica", 90); err != nil {
		t.Fatalf("seed variety: %v", err)
	}

	// Line 2 duplicates, line 3 has a bad number, line 4 is fine.
	csv := "name,caffeine_mg\nArabica,90\nRobusta,lots\nLiberica,60\n"
	report, err := ImportVarieties(ctx, repo, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("import varieties: %v", err)
	}
	if report.Inserted != 1 {
		t.Fatalf("inserted = %d, want 1", report.Inserted)
	}
	if len(report.Failures) != 2 {
		t.Fatalf("failures = %+v", report.Failures)
	}
	if report.Failures[0].Line != 2 || !errors.Is(report.Failures[0].Err, core.ErrDuplicateName) {
		t.Fatalf("failure[0] = %+v", report.Failures[0])
	}
	if report.Failures[1].Line != 3 || !errors.Is(report.Failures[1].Err, core.ErrInvalidValue) {
		t.Fatalf("failure[1] = %+v", report.Failures[1])
	}
}

func TestImportVarietiesMissingColumn(t *testing.T) {
	repo := newTestRepo(t)

	_, err := ImportVarieties(context.Background(), repo, strings.NewReader("caffeine_mg\n90\n"))
	if !errors.Is(err, core.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue for missing name column, got %v", err)
	}
}

func TestImportConsumption(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.AddVariety(ctx, "Arabica", 90); err != nil {
		t.Fatalf("seed variety: %v", err)
	}

	// One good row, one unknown variety, one malformed date.
	csv := "date,cups,variety\n2024-03-01,2,Arabica\n2024-03-02,1,Liberica\nmarch 3rd,1,Arabica\n"
	report, err := ImportConsumption(ctx, repo, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("import consumption: %v", err)
	}
	if report.Inserted != 1 {
		t.Fatalf("inserted = %d, want 1", report.Inserted)
	}
	if len(report.Failures) != 2 {
		t.Fatalf("failures = %+v", report.Failures)
	}
	if report.Failures[0].Line != 3 || !errors.Is(report.Failures[0].Err, core.ErrNotFound) {
		t.Fatalf("failure[0] = %+v", report.Failures[0])
	}
	if report.Failures[1].Line != 4 || !errors.Is(report.Failures[1].Err, core.ErrInvalidValue) {
		t.Fatalf("failure[1] = %+v", report.Failures[1])
	}
}

func TestConsumptionExportReimports(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	v, err := repo.AddVariety(ctx, "Arabica", 90)
	if err != nil {
		t.Fatalf("seed variety: %v", err)
	}
	if _, err := repo.AddEntry(ctx, core.Entry{Date: core.NewDate(2024, 3, 1), Cups: 2, VarietyID: v.ID}); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	rows, err := repo.ListConsumption(ctx)
	if err != nil {
		t.Fatalf("list consumption: %v", err)
	}
	var buf bytes.Buffer
	if err := ExportConsumption(&buf, rows); err != nil {
		t.Fatalf("export consumption: %v", err)
	}

	// The export carries id and variety_id columns the importer does not
	// know about; they must be ignored.
	report, err := ImportConsumption(ctx, repo, &buf)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if report.Inserted != 1 || len(report.Failures) != 0 {
		t.Fatalf("report = %+v", report)
	}

	rows, err = repo.ListConsumption(ctx)
	if err != nil {
		t.Fatalf("list consumption: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows after re-import, got %d", len(rows))
	}
}
