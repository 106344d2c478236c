package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// parseDays extracts the "days" window from query parameters, clamped to
// [1, 365]. The default is 7. "all" (or 0) selects the full history and is
// returned as 0.
func parseDays(r *http.Request) int {
	days := 7
	if v := strings.TrimSpace(r.URL.Query().Get("days")); v != "" {
		if strings.EqualFold(v, "all") {
			return 0
		}
		if d, err := strconv.Atoi(v); err == nil {
			days = d
		}
	}
	if days < 0 {
		days = 0
	}
	if days > 365 {
		days = 365
	}
	return days
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// formatMg renders a milligram amount for the UI (e.g. "380 mg").
func formatMg(mg int64) string {
	return strconv.FormatInt(mg, 10) + " mg"
}

// formatAvg renders a fractional milligram average with one decimal.
func formatAvg(mg float64) string {
	return fmt.Sprintf("%.1f mg", mg)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
