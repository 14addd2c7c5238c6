package http

import (
	"bytes"
	"net/http"
	"strconv"

	"subtrack/internal/core"
	"subtrack/internal/export"
)

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	months, err := ParseMonths(q)
	if err != nil {
		s.writeError(w, r, "analytics", err)
		return
	}
	d, err := s.spending.Dashboard(r.Context(), q.Get("currency"), months)
	if err != nil {
		s.writeError(w, r, "analytics", err)
		return
	}
	NewJSONResponse().Data(d).Write(w)
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.spending.Reminders(r.Context(), r.URL.Query().Get("currency"))
	if err != nil {
		s.writeError(w, r, "reminders", err)
		return
	}
	NewJSONResponse().Data(nonNil(reminders)).Meta("count", len(reminders)).Write(w)
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	if s.rates == nil {
		NotFoundError("Exchange rates are not configured").Write(w)
		return
	}
	NewJSONResponse().Data(s.rates.Rates(r.Context())).Write(w)
}

func handleCurrencies(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(core.SupportedCurrencies()).Write(w)
}

// handleExport streams every subscription as a CSV or JSON download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		BadRequestError("Unsupported export format", err.Error()).Write(w)
		return
	}

	// Render into a buffer so failures can still produce an error envelope.
	var buf bytes.Buffer
	if err := s.spending.Export(r.Context(), &buf, format, q.Get("currency")); err != nil {
		s.writeError(w, r, "export", err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.FileName(s.spending.Now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
