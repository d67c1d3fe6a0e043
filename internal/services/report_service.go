package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"contabile/internal/core"
	"contabile/internal/storage"
)

// ReportService is the read-only aggregation side: it never mutates and
// persists nothing of its own.
type ReportService struct {
	storage *storage.SQLiteRepository
}

func NewReportService(storage *storage.SQLiteRepository) *ReportService {
	return &ReportService{storage: storage}
}

// Summarize aggregates the owner's expenses inside the optional inclusive
// [from, to] window by category and status.
func (s *ReportService) Summarize(ctx context.Context, ownerID int64, from, to core.Date) (core.Summary, error) {
	expenses, err := s.storage.ListExpensesByUser(ctx, ownerID, from, to)
	if err != nil {
		return core.Summary{}, fmt.Errorf("load expenses: %w", err)
	}
	return core.Summarize(expenses), nil
}

// CompareToBudget reports actual spend against the budget for the given
// month; core.ErrNotFound when no budget exists for that key. The window
// runs from the first through the last calendar day of the month.
func (s *ReportService) CompareToBudget(ctx context.Context, ownerID int64, month, year int) (core.Comparison, error) {
	budget, err := s.storage.GetBudget(ctx, ownerID, month, year)
	if err != nil {
		return core.Comparison{}, err
	}

	start, end := core.MonthWindow(year, month)
	expenses, err := s.storage.ListExpensesByUser(ctx, ownerID, start, end)
	if err != nil {
		return core.Comparison{}, fmt.Errorf("load expenses: %w", err)
	}

	return core.Compare(budget, expenses), nil
}

// ListForExport returns the filtered expense list for the JSON export
// path, newest first.
func (s *ReportService) ListForExport(ctx context.Context, ownerID int64, from, to core.Date) ([]core.Expense, error) {
	return s.storage.ListExpensesByUser(ctx, ownerID, from, to)
}

var csvHeader = []string{"Date", "Category", "Description", "Amount", "Status"}

// ExportCSV serializes the filtered expenses as CSV. encoding/csv handles
// quoting, so embedded commas and quotes in descriptions stay intact.
func (s *ReportService) ExportCSV(ctx context.Context, ownerID int64, from, to core.Date) ([]byte, error) {
	expenses, err := s.storage.ListExpensesByUser(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range expenses {
		record := []string{
			e.Date.String(),
			e.Category,
			e.Description,
			e.Amount.String(),
			string(e.Status),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
