package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"kaffee/internal/core"
	applog "kaffee/internal/log"
)

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	date := core.Today()
	if v := strings.TrimSpace(r.Form.Get("date")); v != "" {
		parsed, err := core.ParseDate(v)
		if err != nil {
			UnprocessableEntityError("Invalid date, expected YYYY-MM-DD").Write(w)
			return
		}
		date = parsed
	}

	cups := int64(1)
	if v := strings.TrimSpace(r.Form.Get("cups")); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			UnprocessableEntityError("Invalid cup count").Write(w)
			return
		}
		cups = parsed
	}

	varietyName := sanitizeInput(r.Form.Get("variety"))
	if varietyName == "" {
		UnprocessableEntityError("Variety is required").Write(w)
		return
	}
	variety, err := s.repo.GetVarietyByName(r.Context(), varietyName)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			UnprocessableEntityError("Unknown variety: " + varietyName).Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Variety lookup error", "error", err, "variety", varietyName)
		InternalServerError("Could not look up variety").Write(w)
		return
	}

	entry := core.Entry{Date: date, Cups: cups, VarietyID: variety.ID}
	saved, err := s.ledger.AddEntry(r.Context(), entry)
	if err != nil {
		if errors.Is(err, core.ErrInvalidValue) {
			UnprocessableEntityError(err.Error()).Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Entry create error", "error", err,
			"date", date.String(), "cups", cups, "variety", varietyName)
		InternalServerError("Could not save entry").Write(w)
		return
	}

	totalMg := entry.TotalCaffeine(variety.CaffeineMg)
	NewHTMXResponse().
		TriggerEntryCreated(date.String()).
		TriggerFormReset().
		BodyHTML(`<div class="success">Logged ` + strconv.FormatInt(cups, 10) + ` cup(s) of ` +
			template.HTMLEscapeString(variety.Name) + ` on ` + date.String() +
			` (` + formatMg(totalMg) + `)</div>`).
		Write(w)

	s.structured.LogEntryCreated(r.Context(), saved.ID, date.String(), cups, variety.Name)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(r.Form.Get("id")), 10, 64)
	if err != nil || id < 1 {
		BadRequestError("Invalid entry id").Write(w)
		return
	}

	if err := s.ledger.DeleteEntry(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			NotFoundError("Entry not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Entry delete error", "error", err, "id", id)
		InternalServerError("Could not delete entry").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerEntryDeleted(id).
		BodyHTML(`<div class="success">Entry deleted</div>`).
		Write(w)
}

// Wire format of an editable ledger row.
type snapshotRowJSON struct {
	ID      int64  `json:"id"`
	Date    string `json:"date"`
	Cups    int64  `json:"cups"`
	Variety string `json:"variety"`
}

type reconcileRequest struct {
	Original []snapshotRowJSON `json:"original"`
	Edited   []snapshotRowJSON `json:"edited"`
}

type reconcileFailureJSON struct {
	ID      int64  `json:"id,omitempty"`
	Variety string `json:"variety,omitempty"`
	Error   string `json:"error"`
}

type reconcileResponse struct {
	Deleted  int                    `json:"deleted"`
	Updated  int                    `json:"updated"`
	Inserted int                    `json:"inserted"`
	Failures []reconcileFailureJSON `json:"failures,omitempty"`
}

// handleReconcile applies a bulk edit: the client sends the snapshot it
// loaded and the snapshot after editing, and the diff is applied row by row.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}

	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequestError("Invalid JSON body").Write(w)
		return
	}

	original, err := snapshotFromJSON(req.Original)
	if err != nil {
		UnprocessableEntityError("original snapshot: " + err.Error()).Write(w)
		return
	}
	edited, err := snapshotFromJSON(req.Edited)
	if err != nil {
		UnprocessableEntityError("edited snapshot: " + err.Error()).Write(w)
		return
	}

	report, err := s.ledger.Reconcile(r.Context(), original, edited)
	if err != nil {
		s.structured.LogError(r.Context(), "Reconcile failed", err, applog.ComponentLedger, applog.OpReconcile, applog.NewFields())
		InternalServerError("Could not apply edit").Write(w)
		return
	}

	resp := reconcileResponse{
		Deleted:  report.Deleted,
		Updated:  report.Updated,
		Inserted: report.Inserted,
	}
	for _, f := range report.Failures {
		resp.Failures = append(resp.Failures, reconcileFailureJSON{
			ID:      f.Row.ID,
			Variety: f.Row.Variety,
			Error:   f.Err.Error(),
		})
	}

	if resp.Deleted > 0 || resp.Updated > 0 || resp.Inserted > 0 {
		triggers := map[string]any{"ledger:changed": struct{}{}}
		if trig, err := json.Marshal(triggers); err == nil {
			w.Header().Set("HX-Trigger", string(trig))
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(r.Context(), "Encode reconcile response", "error", err)
	}
}

func snapshotFromJSON(rows []snapshotRowJSON) ([]core.SnapshotRow, error) {
	out := make([]core.SnapshotRow, 0, len(rows))
	for _, row := range rows {
		date, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("row id %d: %w", row.ID, err)
		}
		out = append(out, core.SnapshotRow{
			ID:      row.ID,
			Date:    date,
			Cups:    row.Cups,
			Variety: strings.TrimSpace(row.Variety),
		})
	}
	return out, nil
}
