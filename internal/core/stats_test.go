package core

import "testing"

func row(day int, cups, perCup int64, variety string) ConsumptionRow {
	return ConsumptionRow{
		Date:          NewDate(2025, 5, day),
		Cups:          cups,
		Variety:       variety,
		CaffeineMg:    perCup,
		TotalCaffeine: cups * perCup,
	}
}

func TestTotalsFor(t *testing.T) {
	rows := []ConsumptionRow{
		row(1, 2, 100, "Arabica"),
		row(2, 1, 150, "Robusta"),
		row(3, 3, 100, "Arabica"),
	}

	all := TotalsFor(rows, nil)
	if all.Cups != 6 || all.CaffeineMg != 650 {
		t.Fatalf("all totals = %+v", all)
	}

	cutoff := NewDate(2025, 5, 2)
	since := TotalsFor(rows, func(d Date) bool { return !d.Before(cutoff) })
	if since.Cups != 4 || since.CaffeineMg != 450 {
		t.Fatalf("since totals = %+v", since)
	}

	day1 := NewDate(2025, 5, 1)
	only := TotalsFor(rows, func(d Date) bool { return d.Equal(day1) })
	if only.Cups != 2 || only.CaffeineMg != 200 {
		t.Fatalf("day totals = %+v", only)
	}
}

func TestFilterLastDays(t *testing.T) {
	rows := []ConsumptionRow{
		row(1, 1, 100, "Arabica"),
		row(5, 1, 100, "Arabica"),
		row(10, 1, 100, "Arabica"),
	}
	today := NewDate(2025, 5, 10)

	// Window of 7 days ending today covers May 4-10.
	got := FilterLastDays(rows, 7, today)
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	// Non-positive window means no filtering.
	if got := FilterLastDays(rows, 0, today); len(got) != 3 {
		t.Fatalf("expected all rows, got %d", len(got))
	}
}

func TestDailySeries(t *testing.T) {
	rows := []ConsumptionRow{
		row(3, 1, 100, "Arabica"),
		row(1, 2, 100, "Arabica"),
		row(1, 1, 150, "Robusta"),
	}
	got := DailySeries(rows)
	if len(got) != 2 {
		t.Fatalf("expected 2 days, got %d", len(got))
	}
	if !got[0].Date.Equal(NewDate(2025, 5, 1)) || got[0].Cups != 3 || got[0].CaffeineMg != 350 {
		t.Fatalf("day 1 = %+v", got[0])
	}
	if !got[1].Date.Equal(NewDate(2025, 5, 3)) || got[1].Cups != 1 || got[1].CaffeineMg != 100 {
		t.Fatalf("day 3 = %+v", got[1])
	}
}

func TestByVariety(t *testing.T) {
	rows := []ConsumptionRow{
		row(1, 2, 100, "Arabica"),
		row(2, 1, 150, "Robusta"),
		row(3, 3, 100, "Arabica"),
	}
	got := ByVariety(rows)
	if len(got) != 2 {
		t.Fatalf("expected 2 varieties, got %d", len(got))
	}
	// Arabica: 500mg over 5 cups; Robusta: 150mg. Sorted by caffeine desc.
	if got[0].Variety != "Arabica" || got[0].Cups != 5 || got[0].CaffeineMg != 500 || got[0].CaffeinePerCup != 100 {
		t.Fatalf("first = %+v", got[0])
	}
	if got[1].Variety != "Robusta" || got[1].CaffeineMg != 150 {
		t.Fatalf("second = %+v", got[1])
	}
}

func TestDailyCaffeineStats(t *testing.T) {
	// day1: 350mg, day2: 450mg -> avg 400, max 450, one day above 400.
	rows := []ConsumptionRow{
		row(1, 7, 50, "Arabica"),
		row(2, 3, 150, "Robusta"),
	}
	got := DailyCaffeineStats(rows)
	if got.AvgDailyMg != 400 {
		t.Fatalf("avg = %v", got.AvgDailyMg)
	}
	if got.MaxDailyMg != 450 {
		t.Fatalf("max = %d", got.MaxDailyMg)
	}
	if got.HighCaffeineDays != 1 {
		t.Fatalf("high days = %d", got.HighCaffeineDays)
	}

	if got := DailyCaffeineStats(nil); got.AvgDailyMg != 0 || got.MaxDailyMg != 0 || got.HighCaffeineDays != 0 {
		t.Fatalf("empty stats = %+v", got)
	}
}

func TestClassifyCaffeine(t *testing.T) {
	cases := []struct {
		mg   int64
		want CaffeineLevel
	}{
		{0, LevelOK},
		{299, LevelOK},
		{300, LevelOK}, // boundary is inclusive-safe
		{301, LevelWarning},
		{400, LevelWarning}, // boundary is inclusive-safe
		{401, LevelDanger},
	}
	for _, tc := range cases {
		if got := ClassifyCaffeine(tc.mg); got != tc.want {
			t.Fatalf("ClassifyCaffeine(%d) = %s, want %s", tc.mg, got, tc.want)
		}
	}
}
