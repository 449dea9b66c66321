package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gastos/internal/amqp"
	"gastos/internal/cache"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/storage"
)

// LedgerService orchestrates expense operations across SQLite, the stats
// cache and AMQP event publishing.
type LedgerService struct {
	repo        *storage.SQLiteRepository
	amqpClient  *amqp.Client
	statsCache  *cache.LRUCache[core.Stats]
	pageSize    int
	maxPageSize int
	logger      *log.Logger

	// today is swappable in tests.
	today func() core.Date
}

func NewLedgerService(repo *storage.SQLiteRepository, amqpClient *amqp.Client, statsCache *cache.LRUCache[core.Stats], pageSize, maxPageSize int, logger *log.Logger) *LedgerService {
	return &LedgerService{
		repo:        repo,
		amqpClient:  amqpClient,
		statsCache:  statsCache,
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
		logger:      logger.WithComponent(log.ComponentLedger),
		today:       core.Today,
	}
}

// ExpenseInput carries the raw field values of a create or full-update
// request, before any parsing.
type ExpenseInput struct {
	Title       string
	Amount      string
	Category    string
	Description string
	Date        string
}

// parse converts raw fields into a validated expense owned by userID.
func (s *LedgerService) parse(in ExpenseInput, userID int64) (*core.Expense, error) {
	fe := core.FieldErrors{}

	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		fe.Add("amount", "a valid positive amount is required")
	}

	category, ok := core.ParseCategory(in.Category)
	if !ok {
		fe.Add("category", fmt.Sprintf("%q is not a valid category", in.Category))
	}

	var date core.Date
	if in.Date == "" {
		fe.Add("date", "date is required")
	} else if date, err = core.ParseDate(in.Date); err != nil {
		fe.Add("date", "date must use the YYYY-MM-DD format")
	}

	e := &core.Expense{
		UserID:      userID,
		Title:       in.Title,
		Amount:      core.Money{Cents: cents},
		Category:    category,
		Description: in.Description,
		Date:        date,
	}

	if err := e.Validate(s.today()); err != nil {
		var vfe core.FieldErrors
		if errors.As(err, &vfe) {
			for k, v := range vfe {
				fe.Add(k, v)
			}
		}
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}
	return e, nil
}

// Create validates and stores a new expense, then publishes a created
// event and drops the owner's cached stats.
func (s *LedgerService) Create(ctx context.Context, userID int64, in ExpenseInput) (*core.Expense, error) {
	e, err := s.parse(in, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, e.ID, userID, amqp.ActionCreated)
	return e, nil
}

func (s *LedgerService) Get(ctx context.Context, userID, id int64) (*core.Expense, error) {
	return s.repo.GetExpense(ctx, userID, id)
}

// Update replaces every mutable field of an owned expense.
func (s *LedgerService) Update(ctx context.Context, userID, id int64, in ExpenseInput) (*core.Expense, error) {
	e, err := s.parse(in, userID)
	if err != nil {
		return nil, err
	}
	e.ID = id

	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, id, userID, amqp.ActionUpdated)
	return s.repo.GetExpense(ctx, userID, id)
}

func (s *LedgerService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.DeleteExpense(ctx, userID, id); err != nil {
		return err
	}

	s.afterMutation(ctx, id, userID, amqp.ActionDeleted)
	return nil
}

// ListQuery carries the raw filter parameters of a list or stats request.
type ListQuery struct {
	Category  string
	StartDate string
	EndDate   string
	MinAmount string
	MaxAmount string
	Period    string
	Search    string
	Ordering  string
	Page      int
	PageSize  int
}

// Periods recognized by the period shorthand, in days back from today.
var periodDays = map[string]int{
	"week":    7,
	"month":   30,
	"3months": 90,
}

// filter validates the query and resolves it into a storage filter. The
// period shorthand sets the start date and wins over an explicit one.
func (s *LedgerService) filter(q ListQuery) (storage.ExpenseFilter, error) {
	fe := core.FieldErrors{}
	f := storage.ExpenseFilter{
		Search:   q.Search,
		Ordering: q.Ordering,
	}

	if q.Category != "" {
		category, ok := core.ParseCategory(q.Category)
		if !ok {
			fe.Add("category", fmt.Sprintf("%q is not a valid category", q.Category))
		} else {
			f.Category = &category
		}
	}
	if q.StartDate != "" {
		d, err := core.ParseDate(q.StartDate)
		if err != nil {
			fe.Add("start_date", "date must use the YYYY-MM-DD format")
		} else {
			f.StartDate = &d
		}
	}
	if q.EndDate != "" {
		d, err := core.ParseDate(q.EndDate)
		if err != nil {
			fe.Add("end_date", "date must use the YYYY-MM-DD format")
		} else {
			f.EndDate = &d
		}
	}
	if q.MinAmount != "" {
		cents, err := core.ParseCents(q.MinAmount)
		if err != nil {
			fe.Add("min_amount", "a valid amount is required")
		} else {
			f.MinCents = &cents
		}
	}
	if q.MaxAmount != "" {
		cents, err := core.ParseCents(q.MaxAmount)
		if err != nil {
			fe.Add("max_amount", "a valid amount is required")
		} else {
			f.MaxCents = &cents
		}
	}
	// Unknown period values leave the result unfiltered.
	if days, ok := periodDays[q.Period]; ok {
		start := s.today().AddDays(-days)
		f.StartDate = &start
	}

	if err := fe.Err(); err != nil {
		return storage.ExpenseFilter{}, err
	}
	return f, nil
}

// ExpensePage is one page of results together with the unpaged count.
type ExpensePage struct {
	Count    int64
	Results  []core.Expense
	Page     int
	PageSize int
}

// List returns a filtered, ordered page of the user's expenses.
func (s *LedgerService) List(ctx context.Context, userID int64, q ListQuery) (*ExpensePage, error) {
	f, err := s.filter(q)
	if err != nil {
		return nil, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = s.pageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}
	f.Limit = pageSize
	f.Offset = (page - 1) * pageSize

	count, err := s.repo.CountExpenses(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	results, err := s.repo.ListExpenses(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	return &ExpensePage{
		Count:    count,
		Results:  results,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Stats aggregates the filtered set. The unfiltered aggregate is cached
// per user and dropped on every mutation.
func (s *LedgerService) Stats(ctx context.Context, userID int64, q ListQuery) (core.Stats, error) {
	f, err := s.filter(q)
	if err != nil {
		return core.Stats{}, err
	}

	unfiltered := f.Category == nil && f.StartDate == nil && f.EndDate == nil &&
		f.MinCents == nil && f.MaxCents == nil && f.Search == ""
	key := statsCacheKey(userID)

	if unfiltered && s.statsCache != nil {
		if cached, ok := s.statsCache.Get(key); ok {
			return cached, nil
		}
	}

	count, total, byCategory, err := s.repo.ExpenseStats(ctx, userID, f)
	if err != nil {
		return core.Stats{}, err
	}
	stats := core.NewStats(count, total, byCategory)

	if unfiltered && s.statsCache != nil {
		s.statsCache.Set(key, stats)
	}
	return stats, nil
}

// afterMutation drops the cached stats and publishes the expense event.
// Publishing is best effort: the row is already durable and the worker's
// catch-up sweep covers missed events.
func (s *LedgerService) afterMutation(ctx context.Context, expenseID, userID int64, action string) {
	if s.statsCache != nil {
		s.statsCache.Delete(statsCacheKey(userID))
	}

	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishExpenseEvent(ctx, expenseID, userID, action); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish expense event",
			log.FieldError, err,
			log.FieldExpenseID, expenseID,
			log.FieldAction, action)
	}
}

func statsCacheKey(userID int64) string {
	return "stats:" + strconv.FormatInt(userID, 10)
}
