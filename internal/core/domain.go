package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error kinds shared by all stores and batch operations. Callers wrap them
// with context via fmt.Errorf("...: %w", ...) and match with errors.Is.
var (
	ErrInvalidValue  = errors.New("invalid value")
	ErrDuplicateName = errors.New("duplicate variety name")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
)

type (
	// Date is a calendar date. The time-of-day part is always midnight UTC.
	Date struct {
		time.Time
	}

	// Variety is a named coffee type with a caffeine content per cup.
	Variety struct {
		ID         int64
		Name       string
		CaffeineMg int64
	}

	// Entry records cups consumed of a given variety on a given date.
	Entry struct {
		ID        int64
		Date      Date
		Cups      int64
		VarietyID int64
	}

	// ConsumptionRow is one row of the ledger joined with the catalog.
	// TotalCaffeine is derived from the current catalog value, never stored,
	// so editing a variety's caffeine retroactively changes historical rows.
	ConsumptionRow struct {
		EntryID       int64
		Date          Date
		Cups          int64
		VarietyID     int64
		Variety       string
		CaffeineMg    int64
		TotalCaffeine int64
	}
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, ErrInvalidValue)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// Equal reports whether both dates are the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("date cannot be zero: %w", ErrInvalidValue)
	}
	return nil
}

// ValidateAsOf checks the date against a reference "today": entries may not
// be dated in the future relative to entry time.
func (d Date) ValidateAsOf(today Date) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.After(today) {
		return fmt.Errorf("date %s is in the future: %w", d, ErrInvalidValue)
	}
	return nil
}

func (v Variety) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("empty variety name: %w", ErrInvalidValue)
	}
	if len(v.Name) > 100 {
		return fmt.Errorf("variety name too long (max 100 characters): %w", ErrInvalidValue)
	}
	if v.CaffeineMg < 0 {
		return fmt.Errorf("caffeine must be non-negative, got %d: %w", v.CaffeineMg, ErrInvalidValue)
	}
	return nil
}

// Validate checks the fields a caller controls. Resolution of VarietyID
// against the catalog happens at write time in the store.
func (e Entry) Validate() error {
	if err := e.Date.ValidateAsOf(Today()); err != nil {
		return err
	}
	if e.Cups < 1 {
		return fmt.Errorf("cups must be at least 1, got %d: %w", e.Cups, ErrInvalidValue)
	}
	return nil
}

// TotalCaffeine computes the derived per-entry caffeine for a catalog value.
func (e Entry) TotalCaffeine(caffeinePerCup int64) int64 {
	return e.Cups * caffeinePerCup
}
