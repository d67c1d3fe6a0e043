package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"contabile/internal/auth"
	"contabile/internal/core"
	"contabile/internal/services"
	"contabile/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	tokens := auth.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	authSvc := services.NewAuthService(repo, tokens)
	expenseSvc := services.NewExpenseService(repo, nil)
	budgetSvc := services.NewBudgetService(repo)
	reportSvc := services.NewReportService(repo)

	return NewServer(":0", authSvc, expenseSvc, budgetSvc, reportSvc, 1000, nil)
}

func doJSON(t *testing.T, srv *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-auth-token", token)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func registerUser(t *testing.T, srv *Server, name, email, role string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"email":%q,"password":"secret1","role":%q}`, name, email, role)
	rr := doJSON(t, srv, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "Mario", "mario@example.com", "")

	rr := doJSON(t, srv, http.MethodPost, "/auth/login", "", `{"email":"mario@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "user", resp.User.Role)

	// Wrong password and an unknown email both come back as the same 400.
	rr = doJSON(t, srv, http.MethodPost, "/auth/login", "", `{"email":"mario@example.com","password":"wrong12"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = doJSON(t, srv, http.MethodPost, "/auth/login", "", `{"email":"nobody@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "Mario", "mario@example.com", "")

	rr := doJSON(t, srv, http.MethodPost, "/auth/register", "",
		`{"name":"Other","email":"mario@example.com","password":"secret1","role":""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/expenses", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, srv, http.MethodGet, "/expenses", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestExpenseLifecycle(t *testing.T) {
	srv := newTestServer(t)
	userToken := registerUser(t, srv, "Mario", "mario@example.com", "")
	adminToken := registerUser(t, srv, "Admin", "admin@example.com", "admin")

	// Client-sent status is ignored, new expenses always start pending.
	rr := doJSON(t, srv, http.MethodPost, "/expenses", userToken,
		`{"category":"Food","amount":25.50,"description":"lunch","date":"2024-03-10","status":"approved"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created core.Expense
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, core.StatusPending, created.Status)
	assert.Equal(t, int64(2550), created.Amount.Cents)

	// Owner listing
	rr = doJSON(t, srv, http.MethodGet, "/expenses", userToken, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []core.Expense
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)

	// Admin-wide listing is closed to plain users
	rr = doJSON(t, srv, http.MethodGet, "/expenses/all", userToken, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = doJSON(t, srv, http.MethodGet, "/expenses/all", adminToken, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	// Owner edits fields. Resubmitting the whole record, status included,
	// still works and leaves the status untouched.
	path := fmt.Sprintf("/expenses/%d", created.ID)
	rr = doJSON(t, srv, http.MethodPut, path, userToken, `{"description":"team lunch","status":"rejected"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated core.Expense
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, "team lunch", updated.Description)
	assert.Equal(t, core.StatusPending, updated.Status)

	// Status transitions are admin only
	statusPath := path + "/status"
	rr = doJSON(t, srv, http.MethodPut, statusPath, userToken, `{"status":"approved"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = doJSON(t, srv, http.MethodPut, statusPath, adminToken, `{"status":"approved"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, core.StatusApproved, updated.Status)

	// Another user cannot touch the expense
	otherToken := registerUser(t, srv, "Luigi", "luigi@example.com", "")
	rr = doJSON(t, srv, http.MethodPut, path, otherToken, `{"description":"mine now"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = doJSON(t, srv, http.MethodDelete, path, otherToken, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Owner deletes
	rr = doJSON(t, srv, http.MethodDelete, path, userToken, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = doJSON(t, srv, http.MethodDelete, path, userToken, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestExpenseValidation(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "Mario", "mario@example.com", "")

	cases := []struct {
		name string
		body string
	}{
		{"zero amount", `{"category":"Food","amount":0}`},
		{"negative amount", `{"category":"Food","amount":-5}`},
		{"missing category", `{"amount":10.00}`},
		{"bad json", `{not json`},
	}
	for _, tc := range cases {
		rr := doJSON(t, srv, http.MethodPost, "/expenses", token, tc.body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, tc.name)
	}
}

func TestBudgetEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "Mario", "mario@example.com", "")

	body := `{"month":3,"year":2024,"totalBudget":500,"categoryBudgets":{"Food":100,"Transport":50}}`
	rr := doJSON(t, srv, http.MethodPost, "/budgets", token, body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var budget core.Budget
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &budget))
	assert.Equal(t, int64(50000), budget.TotalBudget.Cents)
	assert.Equal(t, int64(10000), budget.CategoryBudgets.Food.Cents)

	// Upsert keeps a single record per month
	rr = doJSON(t, srv, http.MethodPost, "/budgets", token,
		`{"month":3,"year":2024,"totalBudget":600,"categoryBudgets":{"Food":150}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var second core.Budget
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &second))
	assert.Equal(t, budget.ID, second.ID)

	rr = doJSON(t, srv, http.MethodGet, "/budgets", token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var budgets []core.Budget
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &budgets))
	assert.Len(t, budgets, 1)

	rr = doJSON(t, srv, http.MethodGet, "/budgets/3/2024", token, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = doJSON(t, srv, http.MethodGet, "/budgets/4/2024", token, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = doJSON(t, srv, http.MethodGet, "/budgets/13/2024", token, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, srv, http.MethodPost, "/budgets", token,
		`{"month":0,"year":2024,"totalBudget":1,"categoryBudgets":{}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	path := fmt.Sprintf("/budgets/%d", budget.ID)
	rr = doJSON(t, srv, http.MethodDelete, path, token, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = doJSON(t, srv, http.MethodGet, "/budgets/3/2024", token, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestReportEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "Mario", "mario@example.com", "")

	for _, body := range []string{
		`{"category":"Food","amount":25.50,"description":"lunch","date":"2024-03-10"}`,
		`{"category":"Transport","amount":10.00,"description":"bus","date":"2024-03-11"}`,
		`{"category":"Food","amount":5.00,"description":"coffee","date":"2024-04-01"}`,
	} {
		rr := doJSON(t, srv, http.MethodPost, "/expenses", token, body)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr := doJSON(t, srv, http.MethodGet, "/reports/summary?startDate=2024-03-01&endDate=2024-03-31", token, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var summary core.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.TotalExpenses)
	assert.Equal(t, int64(3550), summary.TotalAmount.Cents)

	rr = doJSON(t, srv, http.MethodGet, "/reports/summary?startDate=oops", token, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Comparison needs a budget for the month
	rr = doJSON(t, srv, http.MethodGet, "/reports/budget-comparison?month=3&year=2024", token, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	body := `{"month":3,"year":2024,"totalBudget":500,"categoryBudgets":{"Food":100,"Transport":50}}`
	rr = doJSON(t, srv, http.MethodPost, "/budgets", token, body)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, srv, http.MethodGet, "/reports/budget-comparison?month=3&year=2024", token, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var comparison core.Comparison
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &comparison))
	assert.Equal(t, int64(50000), comparison.TotalBudget.Cents)
	assert.Equal(t, int64(3550), comparison.TotalSpent.Cents)
	assert.Equal(t, int64(46450), comparison.Remaining.Cents)

	rr = doJSON(t, srv, http.MethodGet, "/reports/budget-comparison?month=3", token, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExportEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "Mario", "mario@example.com", "")

	rr := doJSON(t, srv, http.MethodPost, "/expenses", token,
		`{"category":"Food","amount":25.50,"description":"lunch","date":"2024-03-10"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, srv, http.MethodGet, "/reports/export?format=csv", token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "expenses.csv")
	assert.Contains(t, rr.Body.String(), "Date,Category,Description,Amount,Status")
	assert.Contains(t, rr.Body.String(), "2024-03-10,Food,lunch,25.50,pending")

	// Anything other than csv, including no format at all, gets the JSON list.
	for _, path := range []string{"/reports/export", "/reports/export?format=json", "/reports/export?format=xml"} {
		rr = doJSON(t, srv, http.MethodGet, path, token, "")
		require.Equal(t, http.StatusOK, rr.Code, path)
		var expenses []core.Expense
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &expenses))
		assert.Len(t, expenses, 1, path)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t)
	srv.rateLimiter = newRateLimiter(2)
	t.Cleanup(func() { srv.rateLimiter.stop() })

	token := registerUser(t, srv, "Mario", "mario@example.com", "")

	// The register call above consumed one slot for the test client IP.
	rr := doJSON(t, srv, http.MethodPost, "/expenses", token, `{"category":"Food","amount":1.00}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rr = doJSON(t, srv, http.MethodPost, "/expenses", token, `{"category":"Food","amount":1.00}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	// Reads are not limited
	rr = doJSON(t, srv, http.MethodGet, "/expenses", token, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
