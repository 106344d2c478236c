// Package portability moves the catalog and the ledger in and out of the
// database as CSV, for backups and for seeding a fresh instance.
package portability

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"kaffee/internal/core"
)

// Column layouts of the exported files. Imports locate columns by header
// name, so files with extra columns (such as a previous export) round-trip.
var (
	varietyHeader     = []string{"id", "name", "caffeine_mg"}
	consumptionHeader = []string{"id", "date", "cups", "variety_id", "variety"}
)

// ExportVarieties writes the catalog as CSV.
func ExportVarieties(w io.Writer, varieties []core.Variety) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(varietyHeader); err != nil {
		return fmt.Errorf("write varieties header: %w", err)
	}
	for _, v := range varieties {
		record := []string{
			strconv.FormatInt(v.ID, 10),
			v.Name,
			strconv.FormatInt(v.CaffeineMg, 10),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write variety %d: %w", v.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportConsumption writes the ledger as CSV, with the variety both as id and
// as name so the file reads well on its own.
func ExportConsumption(w io.Writer, rows []core.ConsumptionRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(consumptionHeader); err != nil {
		return fmt.Errorf("write consumption header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row.EntryID, 10),
			row.Date.String(),
			strconv.FormatInt(row.Cups, 10),
			strconv.FormatInt(row.VarietyID, 10),
			row.Variety,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write entry %d: %w", row.EntryID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
