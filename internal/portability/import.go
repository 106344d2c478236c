package portability

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"kaffee/internal/core"
	"kaffee/internal/storage"
)

type (
	// RowError records one CSV line that could not be imported. Line is the
	// 1-based line number in the file, header included.
	RowError struct {
		Line int
		Err  error
	}

	// ImportReport summarizes an import run. Bad rows never abort the file:
	// they are collected here while the rest is inserted.
	ImportReport struct {
		Inserted int
		Failures []RowError
	}
)

// ImportVarieties reads catalog rows from CSV. The file must have a "name"
// column; "caffeine_mg" is optional and defaults to 0. Extra columns (such as
// the "id" written by ExportVarieties) are ignored, so exports re-import.
func ImportVarieties(ctx context.Context, repo *storage.SQLiteRepository, r io.Reader) (ImportReport, error) {
	cr := newReader(r)
	cols, err := readHeader(cr, "name")
	if err != nil {
		return ImportReport{}, err
	}

	var report ImportReport
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			report.Failures = append(report.Failures, RowError{Line: line, Err: err})
			continue
		}

		name := cols.get(record, "name")
		caffeineMg := int64(0)
		if raw := cols.get(record, "caffeine_mg"); raw != "" {
			caffeineMg, err = strconv.ParseInt(raw, 10, 64)
			if err != nil {
				report.Failures = append(report.Failures, RowError{
					Line: line,
					Err:  fmt.Errorf("caffeine_mg %q: %w", raw, core.ErrInvalidValue),
				})
				continue
			}
		}

		if _, err := repo.AddVariety(ctx, name, caffeineMg); err != nil {
			report.Failures = append(report.Failures, RowError{Line: line, Err: err})
			continue
		}
		report.Inserted++
	}

	slog.InfoContext(ctx, "Imported varieties",
		"inserted", report.Inserted, "failed", len(report.Failures))
	return report, nil
}

// ImportConsumption reads ledger rows from CSV. The file must have "date",
// "cups" and "variety" columns; the variety is matched to the catalog by
// name. Extra columns are ignored, so ExportConsumption output re-imports.
func ImportConsumption(ctx context.Context, repo *storage.SQLiteRepository, r io.Reader) (ImportReport, error) {
	cr := newReader(r)
	cols, err := readHeader(cr, "date", "cups", "variety")
	if err != nil {
		return ImportReport{}, err
	}

	var report ImportReport
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			report.Failures = append(report.Failures, RowError{Line: line, Err: err})
			continue
		}

		entry, err := parseEntry(ctx, repo, cols, record)
		if err != nil {
			report.Failures = append(report.Failures, RowError{Line: line, Err: err})
			continue
		}

		if _, err := repo.AddEntry(ctx, entry); err != nil {
			report.Failures = append(report.Failures, RowError{Line: line, Err: err})
			continue
		}
		report.Inserted++
	}

	slog.InfoContext(ctx, "Imported consumption entries",
		"inserted", report.Inserted, "failed", len(report.Failures))
	return report, nil
}

func parseEntry(ctx context.Context, repo *storage.SQLiteRepository, cols columns, record []string) (core.Entry, error) {
	date, err := core.ParseDate(cols.get(record, "date"))
	if err != nil {
		return core.Entry{}, err
	}

	rawCups := cols.get(record, "cups")
	cups, err := strconv.ParseInt(rawCups, 10, 64)
	if err != nil {
		return core.Entry{}, fmt.Errorf("cups %q: %w", rawCups, core.ErrInvalidValue)
	}

	name := cols.get(record, "variety")
	v, err := repo.GetVarietyByName(ctx, name)
	if err != nil {
		return core.Entry{}, fmt.Errorf("variety %q: %w", name, err)
	}

	return core.Entry{Date: date, Cups: cups, VarietyID: v.ID}, nil
}

// columns maps header names to record indexes.
type columns map[string]int

func (c columns) get(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return cr
}

func readHeader(cr *csv.Reader, required ...string) (columns, error) {
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	cols := make(columns, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing required column %q: %w", name, core.ErrInvalidValue)
		}
	}
	return cols, nil
}
