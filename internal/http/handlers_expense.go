package http

import (
	"net/http"
	"strconv"
	"time"

	"gastos/internal/auth"
	"gastos/internal/core"
	"gastos/internal/services"
)

type expenseView struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Amount          string `json:"amount"`
	Category        string `json:"category"`
	CategoryDisplay string `json:"category_display"`
	Date            string `json:"date"`

	// Detail-only fields, omitted from list rows.
	Description *string `json:"description,omitempty"`
	CreatedAt   *string `json:"created_at,omitempty"`
	UpdatedAt   *string `json:"updated_at,omitempty"`
}

func newExpenseListView(e *core.Expense) expenseView {
	return expenseView{
		ID:              e.ID,
		Title:           e.Title,
		Amount:          e.Amount.String(),
		Category:        string(e.Category),
		CategoryDisplay: e.Category.Label(),
		Date:            e.Date.String(),
	}
}

func newExpenseDetailView(e *core.Expense) expenseView {
	v := newExpenseListView(e)
	description := e.Description
	created := e.CreatedAt.UTC().Format(time.RFC3339)
	updated := e.UpdatedAt.UTC().Format(time.RFC3339)
	v.Description = &description
	v.CreatedAt = &created
	v.UpdatedAt = &updated
	return v
}

type expenseBody struct {
	Title       *string `json:"title"`
	Amount      *string `json:"amount"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
}

// input converts the body into service input, falling back to the given
// expense for absent fields. For create and PUT the fallback is empty,
// so absent fields fail validation.
func (b expenseBody) input(base *core.Expense) services.ExpenseInput {
	in := services.ExpenseInput{}
	if base != nil {
		in = services.ExpenseInput{
			Title:       base.Title,
			Amount:      base.Amount.String(),
			Category:    string(base.Category),
			Description: base.Description,
			Date:        base.Date.String(),
		}
	}
	if b.Title != nil {
		in.Title = *b.Title
	}
	if b.Amount != nil {
		in.Amount = *b.Amount
	}
	if b.Category != nil {
		in.Category = *b.Category
	}
	if b.Description != nil {
		in.Description = *b.Description
	}
	if b.Date != nil {
		in.Date = *b.Date
	}
	return in
}

func expenseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func listQuery(r *http.Request) services.ListQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	return services.ListQuery{
		Category:  q.Get("category"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		MinAmount: q.Get("min_amount"),
		MaxAmount: q.Get("max_amount"),
		Period:    q.Get("period"),
		Search:    q.Get("search"),
		Ordering:  q.Get("ordering"),
		Page:      page,
		PageSize:  pageSize,
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())

	var body expenseBody
	if !decodeJSON(w, r, &body) {
		return
	}

	e, err := s.ledger.Create(r.Context(), principal.UserID, body.input(nil))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newExpenseDetailView(e))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())

	page, err := s.ledger.List(r.Context(), principal.UserID, listQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	results := make([]expenseView, 0, len(page.Results))
	for i := range page.Results {
		results = append(results, newExpenseListView(&page.Results[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   page.Count,
		"results": results,
	})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())
	id, ok := expenseID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}

	e, err := s.ledger.Get(r.Context(), principal.UserID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseDetailView(e))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())
	id, ok := expenseID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}

	var body expenseBody
	if !decodeJSON(w, r, &body) {
		return
	}

	// Existence first, so a PUT to a foreign expense is a plain 404
	// before any validation error could leak.
	if _, err := s.ledger.Get(r.Context(), principal.UserID, id); err != nil {
		writeError(w, r, err)
		return
	}

	e, err := s.ledger.Update(r.Context(), principal.UserID, id, body.input(nil))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseDetailView(e))
}

// handlePatchExpense overlays the provided fields on the stored row and
// revalidates the result.
func (s *Server) handlePatchExpense(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())
	id, ok := expenseID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}

	var body expenseBody
	if !decodeJSON(w, r, &body) {
		return
	}

	current, err := s.ledger.Get(r.Context(), principal.UserID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := s.ledger.Update(r.Context(), principal.UserID, id, body.input(current))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseDetailView(e))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())
	id, ok := expenseID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}

	if err := s.ledger.Delete(r.Context(), principal.UserID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExpenseStats(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())

	stats, err := s.ledger.Stats(r.Context(), principal.UserID, listQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	byCategory := make(map[string]string, len(stats.ByCategory))
	for label, total := range stats.ByCategory {
		byCategory[label] = total.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_expenses": stats.Count,
		"total_amount":   stats.Total.String(),
		"average_amount": stats.Average.String(),
		"by_category":    byCategory,
	})
}
