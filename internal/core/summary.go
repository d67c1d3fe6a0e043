package core

// CategoryStat aggregates count and amount for one category.
type CategoryStat struct {
	Count  int   `json:"count"`
	Amount Money `json:"amount"`
}

// Summary is an on-demand aggregation of a user's expenses.
type Summary struct {
	TotalExpenses int                     `json:"totalExpenses"`
	TotalAmount   Money                   `json:"totalAmount"`
	ByCategory    map[string]CategoryStat `json:"byCategory"`
	ByStatus      map[Status]int          `json:"byStatus"`
}

// CategoryComparison is actual spend vs. budgeted amount for one category.
type CategoryComparison struct {
	Budget    Money `json:"budget"`
	Spent     Money `json:"spent"`
	Remaining Money `json:"remaining"`
}

// Comparison is actual spend vs. budget for one month.
type Comparison struct {
	Month       int                           `json:"month"`
	Year        int                           `json:"year"`
	TotalBudget Money                         `json:"totalBudget"`
	TotalSpent  Money                         `json:"totalSpent"`
	Remaining   Money                         `json:"remaining"`
	Categories  map[string]CategoryComparison `json:"categories"`
}

// Summarize aggregates expenses by category and status. Categories absent
// from the input are absent from ByCategory; ByStatus always carries all
// three states, zero-filled before accumulation.
func Summarize(expenses []Expense) Summary {
	s := Summary{
		TotalExpenses: len(expenses),
		ByCategory:    make(map[string]CategoryStat),
		ByStatus: map[Status]int{
			StatusPending:  0,
			StatusApproved: 0,
			StatusRejected: 0,
		},
	}
	for _, e := range expenses {
		s.TotalAmount = s.TotalAmount.Add(e.Amount)
		stat := s.ByCategory[e.Category]
		stat.Count++
		stat.Amount = stat.Amount.Add(e.Amount)
		s.ByCategory[e.Category] = stat
		s.ByStatus[e.Status]++
	}
	return s
}

// Compare reports per-category spend against a monthly budget. Every fixed
// budget category is present in the result, zero-filled when nothing was
// spent. Expense categories outside the fixed set count toward Other, so
// the per-category spends always sum to the month's total.
func Compare(budget Budget, expenses []Expense) Comparison {
	spent := make(map[string]Money, len(BudgetCategories))
	var total Money
	for _, e := range expenses {
		key := budgetKey(e.Category)
		spent[key] = spent[key].Add(e.Amount)
		total = total.Add(e.Amount)
	}

	c := Comparison{
		Month:       budget.Month,
		Year:        budget.Year,
		TotalBudget: budget.TotalBudget,
		TotalSpent:  total,
		Remaining:   budget.TotalBudget.Sub(total),
		Categories:  make(map[string]CategoryComparison, len(BudgetCategories)),
	}
	for _, cat := range BudgetCategories {
		allotted := budget.CategoryBudgets.Get(cat)
		c.Categories[cat] = CategoryComparison{
			Budget:    allotted,
			Spent:     spent[cat],
			Remaining: allotted.Sub(spent[cat]),
		}
	}
	return c
}

func budgetKey(category string) string {
	for _, cat := range BudgetCategories {
		if category == cat {
			return cat
		}
	}
	return "Other"
}
