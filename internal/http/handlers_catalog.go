package http

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"kaffee/internal/core"
)

type varietyJSON struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CaffeineMg int64  `json:"caffeine_mg"`
}

// handleVarieties lists the catalog on GET and adds a variety on POST.
func (s *Server) handleVarieties(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listVarieties(w, r)
	case http.MethodPost:
		s.createVariety(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) listVarieties(w http.ResponseWriter, r *http.Request) {
	varieties, err := s.repo.ListVarieties(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List varieties error", "error", err)
		InternalServerError("Could not list varieties").Write(w)
		return
	}

	out := make([]varietyJSON, 0, len(varieties))
	for _, v := range varieties {
		out = append(out, varietyJSON{ID: v.ID, Name: v.Name, CaffeineMg: v.CaffeineMg})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		slog.ErrorContext(r.Context(), "Encode varieties", "error", err)
	}
}

func (s *Server) createVariety(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	caffeineMg := int64(0)
	if v := strings.TrimSpace(r.Form.Get("caffeine_mg")); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			UnprocessableEntityError("Invalid caffeine amount").Write(w)
			return
		}
		caffeineMg = parsed
	}

	variety, err := s.repo.AddVariety(r.Context(), name, caffeineMg)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateName):
			ConflictError("A variety with that name already exists").Write(w)
		case errors.Is(err, core.ErrInvalidValue):
			UnprocessableEntityError(err.Error()).Write(w)
		default:
			slog.ErrorContext(r.Context(), "Variety create error", "error", err, "name", name)
			InternalServerError("Could not save variety").Write(w)
		}
		return
	}

	NewHTMXResponse().
		TriggerCatalogChanged().
		TriggerFormReset().
		BodyHTML(`<div class="success">Added ` + template.HTMLEscapeString(variety.Name) +
			` (` + formatMg(variety.CaffeineMg) + ` per cup)</div>`).
		Write(w)
}

// handleUpdateCaffeine changes the caffeine content of a variety. Past
// entries pick up the new value because totals are derived on read.
func (s *Server) handleUpdateCaffeine(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Invalid variety id").Write(w)
		return
	}
	caffeineMg, err := strconv.ParseInt(strings.TrimSpace(r.Form.Get("caffeine_mg")), 10, 64)
	if err != nil {
		UnprocessableEntityError("Invalid caffeine amount").Write(w)
		return
	}

	if err := s.repo.UpdateCaffeine(r.Context(), id, caffeineMg); err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			NotFoundError("Variety not found").Write(w)
		case errors.Is(err, core.ErrInvalidValue):
			UnprocessableEntityError("Caffeine must not be negative").Write(w)
		default:
			slog.ErrorContext(r.Context(), "Caffeine update error", "error", err, "id", id)
			InternalServerError("Could not update variety").Write(w)
		}
		return
	}

	NewHTMXResponse().
		TriggerCatalogChanged().
		BodyHTML(`<div class="success">Caffeine updated to ` + formatMg(caffeineMg) + ` per cup</div>`).
		Write(w)
}

type deleteVarietiesResponse struct {
	Deleted  []string          `json:"deleted"`
	Failures map[string]string `json:"failures,omitempty"`
}

// handleDeleteVarieties removes the named varieties. Names still referenced
// by ledger entries are reported as failures, not deleted.
func (s *Server) handleDeleteVarieties(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	var names []string
	for _, raw := range r.Form["name"] {
		if name := sanitizeInput(raw); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		BadRequestError("No variety names given").Write(w)
		return
	}

	deleted, failures := s.repo.DeleteVarieties(r.Context(), names)

	resp := deleteVarietiesResponse{Deleted: deleted}
	if len(failures) > 0 {
		resp.Failures = make(map[string]string, len(failures))
		for _, f := range failures {
			resp.Failures[f.Name] = f.Err.Error()
		}
	}
	if resp.Deleted == nil {
		resp.Deleted = []string{}
	}

	if len(deleted) > 0 {
		triggers := map[string]any{"catalog:changed": struct{}{}}
		if trig, err := json.Marshal(triggers); err == nil {
			w.Header().Set("HX-Trigger", string(trig))
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(r.Context(), "Encode delete response", "error", err)
	}
}
