package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"kaffee/internal/core"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	varieties, err := s.repo.ListVarieties(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List varieties error", "error", err)
	}

	data := struct {
		Today     string
		Varieties []core.Variety
	}{
		Today:     core.Today().String(),
		Varieties: varieties,
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type overviewDay struct {
	Date     string
	Cups     int64
	Caffeine string
	Level    string
}

type overviewVariety struct {
	Name     string
	Cups     int64
	Caffeine string
	PerCup   string
}

type overviewEntry struct {
	ID       int64
	Date     string
	Cups     int64
	Variety  string
	Caffeine string
}

// handleOverview renders the consumption overview partial for the requested
// day window.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	days := parseDays(r)
	today := core.Today()

	rows, err := s.repo.ListConsumption(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Overview load error", "error", err, "days", days)
		_, _ = w.Write([]byte(`<section id="overview" class="overview"><div class="placeholder">Could not load overview</div></section>`))
		return
	}

	window := core.FilterLastDays(rows, days, today)
	todayTotals := core.TotalsFor(rows, today.Equal)
	weekTotals := core.TotalsFor(core.FilterLastDays(rows, 7, today), nil)
	monthTotals := core.TotalsFor(core.FilterLastDays(rows, 30, today), nil)
	grandTotals := core.TotalsFor(rows, nil)
	windowTotals := core.TotalsFor(window, nil)
	stats := core.DailyCaffeineStats(window)

	windowLabel := "all time"
	if days > 0 {
		windowLabel = fmt.Sprintf("last %d days", days)
	}

	data := struct {
		Days          int
		WindowLabel   string
		Today         string
		TodayCups     int64
		TodayCaffeine string
		TodayLevel    string
		WeekCups      int64
		WeekCaffeine  string
		MonthCups     int64
		MonthCaffeine string
		GrandCups     int64
		GrandCaffeine string
		WindowCups    int64
		AvgDaily      string
		MaxDaily      string
		HighDays      int
		DailyRows     []overviewDay
		VarietyRows   []overviewVariety
		Entries       []overviewEntry
	}{
		Days:          days,
		WindowLabel:   windowLabel,
		Today:         today.String(),
		TodayCups:     todayTotals.Cups,
		TodayCaffeine: formatMg(todayTotals.CaffeineMg),
		TodayLevel:    string(core.ClassifyCaffeine(todayTotals.CaffeineMg)),
		WeekCups:      weekTotals.Cups,
		WeekCaffeine:  formatMg(weekTotals.CaffeineMg),
		MonthCups:     monthTotals.Cups,
		MonthCaffeine: formatMg(monthTotals.CaffeineMg),
		GrandCups:     grandTotals.Cups,
		GrandCaffeine: formatMg(grandTotals.CaffeineMg),
		WindowCups:    windowTotals.Cups,
		AvgDaily:      formatAvg(stats.AvgDailyMg),
		MaxDaily:      formatMg(stats.MaxDailyMg),
		HighDays:      stats.HighCaffeineDays,
	}

	for _, d := range core.DailySeries(window) {
		data.DailyRows = append(data.DailyRows, overviewDay{
			Date:     d.Date.String(),
			Cups:     d.Cups,
			Caffeine: formatMg(d.CaffeineMg),
			Level:    string(core.ClassifyCaffeine(d.CaffeineMg)),
		})
	}
	for _, v := range core.ByVariety(window) {
		data.VarietyRows = append(data.VarietyRows, overviewVariety{
			Name:     template.HTMLEscapeString(v.Variety),
			Cups:     v.Cups,
			Caffeine: formatMg(v.CaffeineMg),
			PerCup:   formatMg(v.CaffeinePerCup),
		})
	}
	for _, e := range window {
		data.Entries = append(data.Entries, overviewEntry{
			ID:       e.EntryID,
			Date:     e.Date.String(),
			Cups:     e.Cups,
			Variety:  template.HTMLEscapeString(e.Variety),
			Caffeine: formatMg(e.TotalCaffeine),
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="overview" class="overview"><div class="placeholder">Today: ` +
			data.TodayCaffeine + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "overview.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "overview.html", "days", days)
		_, _ = w.Write([]byte(`<section id="overview" class="overview"><div class="placeholder">Could not render overview</div></section>`))
	}
}

type dailyPointJSON struct {
	Date       string `json:"date"`
	Cups       int64  `json:"cups"`
	CaffeineMg int64  `json:"caffeine_mg"`
	Level      string `json:"level"`
}

// handleDailySeries returns the per-day aggregates for the requested window
// as JSON, for charting on the client.
func (s *Server) handleDailySeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	days := parseDays(r)

	rows, err := s.repo.ListConsumption(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Daily series load error", "error", err, "days", days)
		http.Error(w, "could not load series", http.StatusInternalServerError)
		return
	}

	window := core.FilterLastDays(rows, days, core.Today())
	series := core.DailySeries(window)

	out := make([]dailyPointJSON, 0, len(series))
	for _, d := range series {
		out = append(out, dailyPointJSON{
			Date:       d.Date.String(),
			Cups:       d.Cups,
			CaffeineMg: d.CaffeineMg,
			Level:      string(core.ClassifyCaffeine(d.CaffeineMg)),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		slog.ErrorContext(r.Context(), "Encode daily series", "error", err)
	}
}
