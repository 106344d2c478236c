package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"kaffee/internal/portability"
)

func (s *Server) handleExportVarieties(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	varieties, err := s.repo.ListVarieties(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Export varieties load error", "error", err)
		http.Error(w, "could not load varieties", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="varieties.csv"`)
	if err := portability.ExportVarieties(w, varieties); err != nil {
		slog.ErrorContext(r.Context(), "Export varieties write error", "error", err)
	}
}

func (s *Server) handleExportConsumption(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	rows, err := s.repo.ListConsumption(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Export consumption load error", "error", err)
		http.Error(w, "could not load consumption", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="consumption.csv"`)
	if err := portability.ExportConsumption(w, rows); err != nil {
		slog.ErrorContext(r.Context(), "Export consumption write error", "error", err)
	}
}

type importResponseJSON struct {
	Inserted int                 `json:"inserted"`
	Failures []importFailureJSON `json:"failures,omitempty"`
}

type importFailureJSON struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

func (s *Server) handleImportVarieties(w http.ResponseWriter, r *http.Request) {
	s.handleImport(w, r, func() (portability.ImportReport, error) {
		file, err := importFile(r)
		if err != nil {
			return portability.ImportReport{}, err
		}
		defer file.Close()
		return portability.ImportVarieties(r.Context(), s.repo, file)
	}, "catalog:changed")
}

func (s *Server) handleImportConsumption(w http.ResponseWriter, r *http.Request) {
	s.handleImport(w, r, func() (portability.ImportReport, error) {
		file, err := importFile(r)
		if err != nil {
			return portability.ImportReport{}, err
		}
		defer file.Close()
		return portability.ImportConsumption(r.Context(), s.repo, file)
	}, "ledger:changed")
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request, run func() (portability.ImportReport, error), trigger string) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}

	report, err := run()
	if err != nil {
		slog.ErrorContext(r.Context(), "Import failed", "error", err, "url", r.URL.Path)
		UnprocessableEntityError("Import failed: " + err.Error()).Write(w)
		return
	}

	resp := importResponseJSON{Inserted: report.Inserted}
	for _, f := range report.Failures {
		resp.Failures = append(resp.Failures, importFailureJSON{Line: f.Line, Error: f.Err.Error()})
	}

	if report.Inserted > 0 {
		triggers := map[string]any{trigger: struct{}{}}
		if trig, err := json.Marshal(triggers); err == nil {
			w.Header().Set("HX-Trigger", string(trig))
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(r.Context(), "Encode import response", "error", err)
	}
}

// importFile pulls the uploaded CSV out of the request: a multipart "file"
// field when present, otherwise the raw request body.
func importFile(r *http.Request) (multipartFile, error) {
	if err := r.ParseMultipartForm(10 << 20); err == nil {
		if file, _, err := r.FormFile("file"); err == nil {
			return file, nil
		}
	}
	return r.Body, nil
}

type multipartFile interface {
	Read(p []byte) (int, error)
	Close() error
}
