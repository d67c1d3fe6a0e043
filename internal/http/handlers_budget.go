package http

import (
	"net/http"

	"contabile/internal/core"
)

type upsertBudgetRequest struct {
	Month           int                  `json:"month"`
	Year            int                  `json:"year"`
	TotalBudget     core.Money           `json:"totalBudget"`
	CategoryBudgets core.CategoryBudgets `json:"categoryBudgets"`
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	var req upsertBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	budget, err := s.budgets.Upsert(r.Context(), identityFrom(r.Context()).UserID,
		req.Month, req.Year, req.TotalBudget, req.CategoryBudgets)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.budgets.ListOwn(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	month, err := pathInt(r, "month")
	if err != nil {
		writeError(w, r, err)
		return
	}
	year, err := pathInt(r, "year")
	if err != nil {
		writeError(w, r, err)
		return
	}

	budget, err := s.budgets.Get(r.Context(), identityFrom(r.Context()).UserID, month, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.budgets.Delete(r.Context(), id, identityFrom(r.Context()).UserID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Budget removed"})
}
