package core

import "sort"

// Daily caffeine thresholds in milligrams. Comparisons are strict, so a day
// at exactly 300 or 400 mg is not flagged.
const (
	WarningThresholdMg = 300
	DangerThresholdMg  = 400
)

// CaffeineLevel classifies a daily caffeine amount.
type CaffeineLevel string

const (
	LevelOK      CaffeineLevel = "ok"
	LevelWarning CaffeineLevel = "warning"
	LevelDanger  CaffeineLevel = "danger"
)

// ClassifyCaffeine returns the level for a daily caffeine total.
func ClassifyCaffeine(mg int64) CaffeineLevel {
	switch {
	case mg > DangerThresholdMg:
		return LevelDanger
	case mg > WarningThresholdMg:
		return LevelWarning
	default:
		return LevelOK
	}
}

type (
	// Totals is a pair of cup and caffeine sums.
	Totals struct {
		Cups       int64
		CaffeineMg int64
	}

	// DailyTotal is the per-date aggregate of the joined view.
	DailyTotal struct {
		Date       Date
		Cups       int64
		CaffeineMg int64
	}

	// VarietyTotal is the per-variety aggregate of the joined view.
	VarietyTotal struct {
		Variety        string
		Cups           int64
		CaffeineMg     int64
		CaffeinePerCup int64
	}

	// CaffeineStats summarizes daily caffeine exposure over a range.
	// Averages and maxima cover only dates with at least one entry;
	// days without entries are excluded, not treated as zero.
	CaffeineStats struct {
		AvgDailyMg       float64
		MaxDailyMg       int64
		HighCaffeineDays int
	}
)

// TotalsFor sums cups and caffeine over rows whose date matches the predicate.
func TotalsFor(rows []ConsumptionRow, match func(Date) bool) Totals {
	var t Totals
	for _, r := range rows {
		if match != nil && !match(r.Date) {
			continue
		}
		t.Cups += r.Cups
		t.CaffeineMg += r.TotalCaffeine
	}
	return t
}

// FilterSince returns the rows dated on or after cutoff.
func FilterSince(rows []ConsumptionRow, cutoff Date) []ConsumptionRow {
	out := make([]ConsumptionRow, 0, len(rows))
	for _, r := range rows {
		if !r.Date.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// FilterLastDays keeps the rows of the trailing window of n days ending at
// today inclusive. n <= 0 means no filtering.
func FilterLastDays(rows []ConsumptionRow, n int, today Date) []ConsumptionRow {
	if n <= 0 {
		return rows
	}
	cutoff := Date{Time: today.AddDate(0, 0, -(n - 1))}
	return FilterSince(rows, cutoff)
}

// DailySeries groups rows by date and returns one total per distinct date,
// ordered by date ascending. Dates without entries are not filled in.
func DailySeries(rows []ConsumptionRow) []DailyTotal {
	byDate := make(map[string]*DailyTotal)
	for _, r := range rows {
		key := r.Date.String()
		dt, ok := byDate[key]
		if !ok {
			dt = &DailyTotal{Date: r.Date}
			byDate[key] = dt
		}
		dt.Cups += r.Cups
		dt.CaffeineMg += r.TotalCaffeine
	}
	out := make([]DailyTotal, 0, len(byDate))
	for _, dt := range byDate {
		out = append(out, *dt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// ByVariety groups rows by variety name, sorted by caffeine sum descending
// with name as tie-break for a stable order.
func ByVariety(rows []ConsumptionRow) []VarietyTotal {
	byName := make(map[string]*VarietyTotal)
	for _, r := range rows {
		vt, ok := byName[r.Variety]
		if !ok {
			vt = &VarietyTotal{Variety: r.Variety, CaffeinePerCup: r.CaffeineMg}
			byName[r.Variety] = vt
		}
		vt.Cups += r.Cups
		vt.CaffeineMg += r.TotalCaffeine
	}
	out := make([]VarietyTotal, 0, len(byName))
	for _, vt := range byName {
		out = append(out, *vt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CaffeineMg != out[j].CaffeineMg {
			return out[i].CaffeineMg > out[j].CaffeineMg
		}
		return out[i].Variety < out[j].Variety
	})
	return out
}

// DailyCaffeineStats computes average and maximum daily caffeine plus the
// count of days strictly above the danger threshold.
func DailyCaffeineStats(rows []ConsumptionRow) CaffeineStats {
	daily := DailySeries(rows)
	if len(daily) == 0 {
		return CaffeineStats{}
	}
	var stats CaffeineStats
	var sum int64
	for _, d := range daily {
		sum += d.CaffeineMg
		if d.CaffeineMg > stats.MaxDailyMg {
			stats.MaxDailyMg = d.CaffeineMg
		}
		if d.CaffeineMg > DangerThresholdMg {
			stats.HighCaffeineDays++
		}
	}
	stats.AvgDailyMg = float64(sum) / float64(len(daily))
	return stats
}
