package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateValidateAsOf(t *testing.T) {
	today := NewDate(2025, 6, 15)
	if err := NewDate(2025, 6, 15).ValidateAsOf(today); err != nil {
		t.Fatalf("today should be valid, got %v", err)
	}
	if err := NewDate(2025, 6, 14).ValidateAsOf(today); err != nil {
		t.Fatalf("past date should be valid, got %v", err)
	}
	err := NewDate(2025, 6, 16).ValidateAsOf(today)
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("future date expected ErrInvalidValue, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.String() != "2025-03-09" {
		t.Fatalf("round trip mismatch: %s", d)
	}
	if _, err := ParseDate("09/03/2025"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue for bad format, got %v", err)
	}
}

func TestVarietyValidate(t *testing.T) {
	if err := (Variety{Name: "Arabica", CaffeineMg: 90}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Variety{Name: "Decaf", CaffeineMg: 0}).Validate(); err != nil {
		t.Fatalf("zero caffeine is allowed, got %v", err)
	}

	bads := []Variety{
		{Name: "", CaffeineMg: 90},
		{Name: "   ", CaffeineMg: 90},
		{Name: "Robusta", CaffeineMg: -1},
	}
	for i, v := range bads {
		if err := v.Validate(); !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("case %d expected ErrInvalidValue, got %v", i, err)
		}
	}
}

func TestEntryValidate(t *testing.T) {
	good := Entry{Date: NewDate(2024, 1, 1), Cups: 1, VarietyID: 1}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	if err := (Entry{Date: NewDate(2024, 1, 1), Cups: 0}).Validate(); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("zero cups expected ErrInvalidValue, got %v", err)
	}
	future := Date{Time: time.Now().UTC().AddDate(0, 0, 2)}
	if err := (Entry{Date: future, Cups: 1}).Validate(); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("future date expected ErrInvalidValue, got %v", err)
	}
}

func TestEntryTotalCaffeine(t *testing.T) {
	e := Entry{Date: NewDate(2024, 1, 1), Cups: 3}
	if got := e.TotalCaffeine(95); got != 285 {
		t.Fatalf("expected 285, got %d", got)
	}
	if got := e.TotalCaffeine(0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
