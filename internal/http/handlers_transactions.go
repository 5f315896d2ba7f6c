package http

import (
	"fmt"
	"net/http"
	"time"

	"milkbook/internal/core"
)

func (s *Server) handlePostEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	entry := core.Entry{
		Kind:     core.ParseEntryKind(req.Kind),
		Quantity: req.Quantity,
		Rate:     req.Rate,
		Amount:   req.Amount,
		Note:     sanitizeInput(req.Note),
	}
	if req.Date != "" {
		day, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: bad date %q, want YYYY-MM-DD", core.ErrValidation, req.Date))
			return
		}
		entry.CreatedAt = day
	}

	posted, err := s.ledger.PostEntry(r.Context(), r.PathValue("id"), entry)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryResponse(posted))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err := s.ledger.DeleteEntry(r.Context(), r.PathValue("id"),
		sanitizeInput(req.Reason), sanitizeInput(req.DeletedBy))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	stmt, err := s.ledger.Statement(r.Context(), r.PathValue("id"), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementResponse(stmt))
}

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	day := time.Now().UTC()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: bad date %q, want YYYY-MM-DD", core.ErrValidation, v))
			return
		}
		day = parsed
	}

	summary, err := s.ledger.DailyReport(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyReportResponse(summary))
}
