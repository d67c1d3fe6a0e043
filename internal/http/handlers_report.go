package http

import (
	"net/http"
	"strings"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := s.reports.Summarize(r.Context(), identityFrom(r.Context()).UserID, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleBudgetComparison(w http.ResponseWriter, r *http.Request) {
	month, year, err := monthYear(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	comparison, err := s.reports.CompareToBudget(r.Context(), identityFrom(r.Context()).UserID, month, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comparison)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID := identityFrom(r.Context()).UserID

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "csv" {
		data, err := s.reports.ExportCSV(r.Context(), userID, from, to)
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename=expenses.csv`)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	// Any other format, including none, gets the filtered list as JSON.
	expenses, err := s.reports.ListForExport(r.Context(), userID, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}
