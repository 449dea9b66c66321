package http

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createExpense(t *testing.T, s *Server, token string, body map[string]string) map[string]any {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/expenses", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out map[string]any
	decode(t, rec, &out)
	return out
}

func validExpense() map[string]string {
	return map[string]string{
		"title":    "Pan",
		"amount":   "2.50",
		"category": "GROCERIES",
		"date":     time.Now().UTC().Format("2006-01-02"),
	}
}

func TestCreateExpenseHTTP(t *testing.T) {
	s := newTestServer(t)
	out := registerUser(t, s, "ana@example.com")

	e := createExpense(t, s, out.Tokens.Access, validExpense())
	assert.Equal(t, "Pan", e["title"])
	assert.Equal(t, "2.50", e["amount"])
	assert.Equal(t, "GROCERIES", e["category"])
	assert.Equal(t, "Comestibles", e["category_display"])
	assert.NotEmpty(t, e["created_at"])
}

func TestCreateExpenseValidationHTTP(t *testing.T) {
	s := newTestServer(t)
	out := registerUser(t, s, "ana@example.com")

	body := validExpense()
	body["amount"] = "-3"
	body["category"] = "PETS"
	rec := do(t, s, http.MethodPost, "/expenses", out.Tokens.Access, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	decode(t, rec, &resp)
	assert.Contains(t, resp.Errors, "amount")
	assert.Contains(t, resp.Errors, "category")
}

func TestExpensesRequireAuth(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/expenses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodPost, "/expenses", "", validExpense())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListExpensesHTTP(t *testing.T) {
	s := newTestServer(t)
	out := registerUser(t, s, "ana@example.com")

	for i := 0; i < 3; i++ {
		body := validExpense()
		body["title"] = fmt.Sprintf("Gasto %d", i)
		createExpense(t, s, out.Tokens.Access, body)
	}

	rec := do(t, s, http.MethodGet, "/expenses", out.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Count   int64            `json:"count"`
		Results []map[string]any `json:"results"`
	}
	decode(t, rec, &page)
	assert.Equal(t, int64(3), page.Count)
	assert.Len(t, page.Results, 3)
	// List rows are slim: no description or timestamps.
	assert.NotContains(t, page.Results[0], "description")
	assert.NotContains(t, page.Results[0], "created_at")
}

func TestListExpensesFiltersHTTP(t *testing.T) {
	s := newTestServer(t)
	out := registerUser(t, s, "ana@example.com")

	groceries := validExpense()
	createExpense(t, s, out.Tokens.Access, groceries)

	leisure := validExpense()
	leisure["title"] = "Cine"
	leisure["category"] = "LEISURE"
	leisure["amount"] = "12.00"
	createExpense(t, s, out.Tokens.Access, leisure)

	rec := do(t, s, http.MethodGet, "/expenses?category=LEISURE", out.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Count   int64            `json:"count"`
		Results []map[string]any `json:"results"`
	}
	decode(t, rec, &page)
	require.Equal(t, int64(1), page.Count)
	assert.Equal(t, "Cine", page.Results[0]["title"])

	rec = do(t, s, http.MethodGet, "/expenses?min_amount=10", out.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &page)
	assert.Equal(t, int64(1), page.Count)

	rec = do(t, s, http.MethodGet, "/expenses?period=week", out.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &page)
	assert.Equal(t, int64(2), page.Count)

	rec = do(t, s, http.MethodGet, "/expenses?search=cine", out.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &page)
	assert.Equal(t, int64(1), page.Count)

	rec = do(t, s, http.MethodGet, "/expenses?category=PETS", out.Tokens.Access, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUpdatePatchDeleteExpense(t *testing.T) {
	s := newTestServer(t)
	out := registerUser(t, s, "ana@example.com")
	created := createExpense(t, s, out.Tokens.Access, validExpense())
	id := int64(created["id"].(float64))

	path := fmt.Sprintf("/expenses/%d", id)

	rec := do(t, s, http.MethodGet, path, out.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// PUT replaces everything.
	put := validExpense()
	put["title"] = "Pan integral"
	put["amount"] = "3.00"
	rec = do(t, s, http.MethodPut, path, out.Tokens.Access, put)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var detail map[string]any
	decode(t, rec, &detail)
	assert.Equal(t, "Pan integral", detail["title"])
	assert.Equal(t, "3.00", detail["amount"])

	// PATCH keeps untouched fields.
	rec = do(t, s, http.MethodPatch, path, out.Tokens.Access, map[string]string{"amount": "4.25"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &detail)
	assert.Equal(t, "Pan integral", detail["title"])
	assert.Equal(t, "4.25", detail["amount"])

	rec = do(t, s, http.MethodDelete, path, out.Tokens.Access, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, path, out.Tokens.Access, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForeignExpenseIs404(t *testing.T) {
	s := newTestServer(t)
	owner := registerUser(t, s, "ana@example.com")
	intruder := registerUser(t, s, "bob@example.com")

	created := createExpense(t, s, owner.Tokens.Access, validExpense())
	path := fmt.Sprintf("/expenses/%d", int64(created["id"].(float64)))

	rec := do(t, s, http.MethodGet, path, intruder.Tokens.Access, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPut, path, intruder.Tokens.Access, validExpense())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodDelete, path, intruder.Tokens.Access, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The owner still sees it.
	rec = do(t, s, http.MethodGet, path, owner.Tokens.Access, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExpenseStatsHTTP(t *testing.T) {
	s := newTestServer(t)
	out := registerUser(t, s, "ana@example.com")

	createExpense(t, s, out.Tokens.Access, validExpense())
	leisure := validExpense()
	leisure["category"] = "LEISURE"
	leisure["amount"] = "12.50"
	createExpense(t, s, out.Tokens.Access, leisure)

	rec := do(t, s, http.MethodGet, "/expenses/stats", out.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		TotalExpenses int64             `json:"total_expenses"`
		TotalAmount   string            `json:"total_amount"`
		AverageAmount string            `json:"average_amount"`
		ByCategory    map[string]string `json:"by_category"`
	}
	decode(t, rec, &stats)
	assert.Equal(t, int64(2), stats.TotalExpenses)
	assert.Equal(t, "15.00", stats.TotalAmount)
	assert.Equal(t, "7.50", stats.AverageAmount)
	// Every category is present, zero-filled.
	assert.Len(t, stats.ByCategory, 7)
	assert.Equal(t, "2.50", stats.ByCategory["Comestibles"])
	assert.Equal(t, "12.50", stats.ByCategory["Entretenimiento"])
	assert.Equal(t, "0.00", stats.ByCategory["Salud"])
}

func TestStatsEmptyLedger(t *testing.T) {
	s := newTestServer(t)
	out := registerUser(t, s, "ana@example.com")

	rec := do(t, s, http.MethodGet, "/expenses/stats", out.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		TotalExpenses int64             `json:"total_expenses"`
		TotalAmount   string            `json:"total_amount"`
		AverageAmount string            `json:"average_amount"`
		ByCategory    map[string]string `json:"by_category"`
	}
	decode(t, rec, &stats)
	assert.Zero(t, stats.TotalExpenses)
	assert.Equal(t, "0.00", stats.TotalAmount)
	assert.Equal(t, "0.00", stats.AverageAmount)
	assert.Len(t, stats.ByCategory, 7)
}
