package pos

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

type ExpenseParams struct {
	Title    string
	Category record.ExpenseCategory
	Amount   decimal.Decimal
	// Date defaults to today.
	Date  string
	Notes string
}

func (s *Service) AddExpense(ctx context.Context, params ExpenseParams) (record.Expense, error) {
	e := record.Expense{
		ID:         s.newID(),
		CreatedAt:  s.now().UnixMilli(),
		SyncStatus: record.StatusPending,
	}
	s.applyExpense(&e, params)

	if err := s.checkExpense(e); err != nil {
		return record.Expense{}, err
	}

	err := s.cols.Expenses.Update(ctx, func(expenses []record.Expense) ([]record.Expense, error) {
		return append(expenses, e), nil
	})
	if err != nil {
		return record.Expense{}, err
	}

	s.changed("add expense", e.ID)

	return e, nil
}

func (s *Service) UpdateExpense(ctx context.Context, id string, params ExpenseParams) (record.Expense, error) {
	var out record.Expense

	err := s.cols.Expenses.Update(ctx, func(expenses []record.Expense) ([]record.Expense, error) {
		e, ok := find(expenses, id)
		if !ok {
			return nil, fmt.Errorf("%w: expense %s", ErrNotFound, id)
		}

		s.applyExpense(&e, params)
		e.SyncStatus = record.StatusPending

		if err := s.checkExpense(e); err != nil {
			return nil, err
		}

		out = e

		return upsert(expenses, e), nil
	})
	if err != nil {
		return record.Expense{}, err
	}

	s.changed("update expense", id)

	return out, nil
}

func (s *Service) applyExpense(e *record.Expense, params ExpenseParams) {
	e.Title = strings.TrimSpace(params.Title)
	e.Category = params.Category
	e.Amount = params.Amount
	e.Date = cmp.Or(params.Date, s.today())
	e.Notes = strings.TrimSpace(params.Notes)
}

func (s *Service) checkExpense(e record.Expense) error {
	if !slices.Contains(record.ExpenseCategories, e.Category) {
		return fmt.Errorf("%w: expense category %q", ErrInvalid, e.Category)
	}

	if !e.Amount.IsPositive() {
		return fmt.Errorf("%w: expense amount must be positive", ErrInvalid)
	}

	return s.check(e)
}

// ExpensesOn lists the expenses of date, newest first.
func (s *Service) ExpensesOn(ctx context.Context, date string) ([]record.Expense, error) {
	expenses, err := s.cols.Expenses.Load(ctx)
	if err != nil {
		return nil, err
	}

	expenses = slices.DeleteFunc(expenses, func(e record.Expense) bool { return e.Date != date })
	slices.SortStableFunc(expenses, func(a, b record.Expense) int {
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})

	return expenses, nil
}
