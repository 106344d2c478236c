package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kaffee/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the authoritative store for the variety catalog and
// the consumption ledger.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// AddVariety creates a new catalog entry with a fresh id.
func (r *SQLiteRepository) AddVariety(ctx context.Context, name string, caffeineMg int64) (core.Variety, error) {
	v := core.Variety{Name: strings.TrimSpace(name), CaffeineMg: caffeineMg}
	if err := v.Validate(); err != nil {
		return core.Variety{}, err
	}

	var exists int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM varieties WHERE name = ?", v.Name).Scan(&exists)
	if err != nil {
		return core.Variety{}, fmt.Errorf("check variety name: %w", err)
	}
	if exists > 0 {
		return core.Variety{}, fmt.Errorf("variety %q: %w", v.Name, core.ErrDuplicateName)
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO varieties (name, caffeine_mg) VALUES (?, ?)", v.Name, v.CaffeineMg)
	if err != nil {
		return core.Variety{}, fmt.Errorf("insert variety: %w", err)
	}
	v.ID, err = res.LastInsertId()
	if err != nil {
		return core.Variety{}, fmt.Errorf("variety insert id: %w", err)
	}

	slog.InfoContext(ctx, "Variety added", "id", v.ID, "name", v.Name, "caffeine_mg", v.CaffeineMg)
	return v, nil
}

// UpdateCaffeine overwrites the caffeine value of an existing variety in place.
func (r *SQLiteRepository) UpdateCaffeine(ctx context.Context, id, caffeineMg int64) error {
	if caffeineMg < 0 {
		return fmt.Errorf("caffeine must be non-negative, got %d: %w", caffeineMg, core.ErrInvalidValue)
	}
	res, err := r.db.ExecContext(ctx, "UPDATE varieties SET caffeine_mg = ? WHERE id = ?", caffeineMg, id)
	if err != nil {
		return fmt.Errorf("update caffeine: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update caffeine rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("variety id %d: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Variety caffeine updated", "id", id, "caffeine_mg", caffeineMg)
	return nil
}

// NameError pairs a variety name with the failure that kept it from being
// deleted, so a multi-name delete can report per-name outcomes.
type NameError struct {
	Name string
	Err  error
}

// DeleteVarieties removes the varieties with the given names. A variety that
// is still referenced by consumption entries is not deleted; it is reported
// as a conflict while the remaining names are still attempted.
func (r *SQLiteRepository) DeleteVarieties(ctx context.Context, names []string) (deleted []string, failures []NameError) {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := r.deleteVariety(ctx, name); err != nil {
			failures = append(failures, NameError{Name: name, Err: err})
			continue
		}
		deleted = append(deleted, name)
	}
	if len(deleted) > 0 {
		slog.InfoContext(ctx, "Varieties deleted", "names", deleted)
	}
	return deleted, failures
}

func (r *SQLiteRepository) deleteVariety(ctx context.Context, name string) error {
	v, err := r.GetVarietyByName(ctx, name)
	if err != nil {
		return err
	}

	var refs int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM consumption WHERE variety_id = ?", v.ID).Scan(&refs); err != nil {
		return fmt.Errorf("count references for variety %q: %w", name, err)
	}
	if refs > 0 {
		return fmt.Errorf("variety %q is referenced by %d entries: %w", name, refs, core.ErrConflict)
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM varieties WHERE id = ?", v.ID); err != nil {
		return fmt.Errorf("delete variety %q: %w", name, err)
	}
	return nil
}

// ListVarieties returns the full catalog ordered by name.
func (r *SQLiteRepository) ListVarieties(ctx context.Context) ([]core.Variety, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, caffeine_mg FROM varieties ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list varieties: %w", err)
	}
	defer rows.Close()

	var out []core.Variety
	for rows.Next() {
		var v core.Variety
		if err := rows.Scan(&v.ID, &v.Name, &v.CaffeineMg); err != nil {
			return nil, fmt.Errorf("scan variety: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate varieties: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetVariety(ctx context.Context, id int64) (core.Variety, error) {
	var v core.Variety
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, caffeine_mg FROM varieties WHERE id = ?", id).
		Scan(&v.ID, &v.Name, &v.CaffeineMg)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Variety{}, fmt.Errorf("variety id %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Variety{}, fmt.Errorf("get variety: %w", err)
	}
	return v, nil
}

func (r *SQLiteRepository) GetVarietyByName(ctx context.Context, name string) (core.Variety, error) {
	var v core.Variety
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, caffeine_mg FROM varieties WHERE name = ?", strings.TrimSpace(name)).
		Scan(&v.ID, &v.Name, &v.CaffeineMg)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Variety{}, fmt.Errorf("variety %q: %w", name, core.ErrNotFound)
	}
	if err != nil {
		return core.Variety{}, fmt.Errorf("get variety by name: %w", err)
	}
	return v, nil
}

// AddEntry creates a new ledger entry. The variety must resolve at write time.
func (r *SQLiteRepository) AddEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	if _, err := r.GetVariety(ctx, e.VarietyID); err != nil {
		return core.Entry{}, err
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO consumption (date, cups, variety_id) VALUES (?, ?, ?)",
		e.Date.String(), e.Cups, e.VarietyID)
	if err != nil {
		return core.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry insert id: %w", err)
	}

	slog.InfoContext(ctx, "Entry added", "id", e.ID, "date", e.Date.String(), "cups", e.Cups, "variety_id", e.VarietyID)
	return e, nil
}

// UpdateEntry overwrites date, cups and variety of an existing entry in a
// single statement, so a row is never partially updated.
func (r *SQLiteRepository) UpdateEntry(ctx context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if _, err := r.GetVariety(ctx, e.VarietyID); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE consumption SET date = ?, cups = ?, variety_id = ?, sync_status = 'pending' WHERE id = ?",
		e.Date.String(), e.Cups, e.VarietyID, e.ID)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entry rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("entry id %d: %w", e.ID, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Entry updated", "id", e.ID, "date", e.Date.String(), "cups", e.Cups, "variety_id", e.VarietyID)
	return nil
}

func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM consumption WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("entry id %d: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Entry deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) GetEntry(ctx context.Context, id int64) (core.Entry, error) {
	var (
		e       core.Entry
		dateStr string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, date, cups, variety_id FROM consumption WHERE id = ?", id).
		Scan(&e.ID, &dateStr, &e.Cups, &e.VarietyID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, fmt.Errorf("entry id %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	e.Date, err = core.ParseDate(dateStr)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %d has malformed date %q: %w", id, dateStr, err)
	}
	return e, nil
}

const consumptionJoin = `
SELECT c.id, c.date, c.cups, v.id, v.name, v.caffeine_mg, (c.cups * v.caffeine_mg)
  FROM consumption c
  JOIN varieties v ON c.variety_id = v.id`

// ListConsumption returns the full ledger joined with the catalog, ordered by
// date then id. Total caffeine is computed from current catalog values on
// every read; it is never persisted.
func (r *SQLiteRepository) ListConsumption(ctx context.Context) ([]core.ConsumptionRow, error) {
	rows, err := r.db.QueryContext(ctx, consumptionJoin+" ORDER BY c.date, c.id")
	if err != nil {
		return nil, fmt.Errorf("list consumption: %w", err)
	}
	defer rows.Close()

	var out []core.ConsumptionRow
	for rows.Next() {
		row, err := scanConsumptionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consumption: %w", err)
	}
	return out, nil
}

// GetConsumptionRow returns one joined row by entry id.
func (r *SQLiteRepository) GetConsumptionRow(ctx context.Context, entryID int64) (core.ConsumptionRow, error) {
	row := r.db.QueryRowContext(ctx, consumptionJoin+" WHERE c.id = ?", entryID)

	var (
		out     core.ConsumptionRow
		dateStr string
	)
	err := row.Scan(&out.EntryID, &dateStr, &out.Cups, &out.VarietyID, &out.Variety, &out.CaffeineMg, &out.TotalCaffeine)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ConsumptionRow{}, fmt.Errorf("entry id %d: %w", entryID, core.ErrNotFound)
	}
	if err != nil {
		return core.ConsumptionRow{}, fmt.Errorf("get consumption row: %w", err)
	}
	out.Date, err = core.ParseDate(dateStr)
	if err != nil {
		return core.ConsumptionRow{}, fmt.Errorf("entry %d has malformed date %q: %w", entryID, dateStr, err)
	}
	return out, nil
}

func scanConsumptionRow(rows *sql.Rows) (core.ConsumptionRow, error) {
	var (
		out     core.ConsumptionRow
		dateStr string
	)
	if err := rows.Scan(&out.EntryID, &dateStr, &out.Cups, &out.VarietyID, &out.Variety, &out.CaffeineMg, &out.TotalCaffeine); err != nil {
		return core.ConsumptionRow{}, fmt.Errorf("scan consumption row: %w", err)
	}
	var err error
	out.Date, err = core.ParseDate(dateStr)
	if err != nil {
		return core.ConsumptionRow{}, fmt.Errorf("entry %d has malformed date %q: %w", out.EntryID, dateStr, err)
	}
	return out, nil
}

// PendingSyncEntry is the minimal data the mirror worker needs to pick up an
// entry that has not been mirrored yet.
type PendingSyncEntry struct {
	ID int64
}

// GetPendingSyncEntries returns entries still waiting to be mirrored.
func (r *SQLiteRepository) GetPendingSyncEntries(ctx context.Context, limit int) ([]PendingSyncEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM consumption WHERE sync_status = 'pending' ORDER BY id LIMIT ?", int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync entries: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncEntry
	for rows.Next() {
		var p PendingSyncEntry
		if err := rows.Scan(&p.ID); err != nil {
			return nil, fmt.Errorf("scan pending entry: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending entries: %w", err)
	}
	return out, nil
}

// MarkEntrySynced marks an entry as successfully mirrored.
func (r *SQLiteRepository) MarkEntrySynced(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := r.db.ExecContext(ctx,
		"UPDATE consumption SET sync_status = 'synced', synced_at = ? WHERE id = ?", now, id); err != nil {
		return fmt.Errorf("mark entry synced: %w", err)
	}
	slog.InfoContext(ctx, "Entry marked as synced", "id", id)
	return nil
}

// MarkEntrySyncError marks an entry as having failed to mirror.
func (r *SQLiteRepository) MarkEntrySyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE consumption SET sync_status = 'error' WHERE id = ?", id); err != nil {
		return fmt.Errorf("mark entry sync error: %w", err)
	}
	slog.WarnContext(ctx, "Entry marked with sync error", "id", id)
	return nil
}
