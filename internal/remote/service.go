// Package remote is the server side of the sync protocol: the authoritative
// record store every till pushes to and pulls from.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

var (
	ErrEmptyBatch   = errors.New("empty batch")
	ErrInvalidBatch = errors.New("invalid batch")
)

const DefaultReportsLimit = 100

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=remote
type Repository interface {
	BeginBatch(ctx context.Context) (BatchTx, error)

	ListCategories(ctx context.Context) ([]record.Category, error)
	ListProducts(ctx context.Context) ([]record.Product, error)
	ListTransactions(ctx context.Context) ([]record.Transaction, error)
	ListExpenses(ctx context.Context) ([]record.Expense, error)
	ListReports(ctx context.Context, limit int) ([]record.DailyReport, error)
}

// BatchTx upserts one pushed batch atomically.
type BatchTx interface {
	UpsertCategories(ctx context.Context, categories []record.Category) error
	UpsertProducts(ctx context.Context, products []record.Product) error
	UpsertTransactions(ctx context.Context, txs []record.Transaction) error
	UpsertExpenses(ctx context.Context, expenses []record.Expense) error
	UpsertReports(ctx context.Context, reports []record.DailyReport) error
	Commit() error
	Rollback() error
}

type BatchResult struct {
	SyncedCount int
	SyncedIDs   []string
}

type Service struct {
	repo         Repository
	validate     *validator.Validate
	reportsLimit int
}

func NewService(repo Repository, reportsLimit int) *Service {
	if reportsLimit <= 0 {
		reportsLimit = DefaultReportsLimit
	}

	return &Service{
		repo:         repo,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		reportsLimit: reportsLimit,
	}
}

func (s *Service) PushCategories(ctx context.Context, batch []record.Category) (*BatchResult, error) {
	return push(ctx, s, batch, BatchTx.UpsertCategories)
}

func (s *Service) PushProducts(ctx context.Context, batch []record.Product) (*BatchResult, error) {
	return push(ctx, s, batch, BatchTx.UpsertProducts)
}

func (s *Service) PushTransactions(ctx context.Context, batch []record.Transaction) (*BatchResult, error) {
	return push(ctx, s, batch, BatchTx.UpsertTransactions)
}

func (s *Service) PushExpenses(ctx context.Context, batch []record.Expense) (*BatchResult, error) {
	return push(ctx, s, batch, BatchTx.UpsertExpenses)
}

func (s *Service) PushReports(ctx context.Context, batch []record.DailyReport) (*BatchResult, error) {
	return push(ctx, s, batch, BatchTx.UpsertReports)
}

func (s *Service) PullCategories(ctx context.Context) ([]record.Category, error) {
	return pull(s.repo.ListCategories(ctx))
}

func (s *Service) PullProducts(ctx context.Context) ([]record.Product, error) {
	return pull(s.repo.ListProducts(ctx))
}

func (s *Service) PullTransactions(ctx context.Context) ([]record.Transaction, error) {
	return pull(s.repo.ListTransactions(ctx))
}

func (s *Service) PullExpenses(ctx context.Context) ([]record.Expense, error) {
	return pull(s.repo.ListExpenses(ctx))
}

// PullReports returns the newest reports by archival time, newest first.
func (s *Service) PullReports(ctx context.Context) ([]record.DailyReport, error) {
	return pull(s.repo.ListReports(ctx, s.reportsLimit))
}

func push[T record.Syncable[T]](
	ctx context.Context,
	s *Service,
	batch []T,
	upsert func(BatchTx, context.Context, []T) error,
) (*BatchResult, error) {
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}

	for i, r := range batch {
		if err := s.validate.Struct(r); err != nil {
			return nil, fmt.Errorf("%w: record %d (%q): %w", ErrInvalidBatch, i, r.RecordID(), err)
		}
	}

	batch = record.WithStatus(batch, record.StatusSynced)

	btx, err := s.repo.BeginBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	defer btx.Rollback()

	if err := upsert(btx, ctx, batch); err != nil {
		return nil, fmt.Errorf("upsert batch: %w", err)
	}

	if err := btx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}

	ids := uniqueIDs(batch)

	return &BatchResult{SyncedCount: len(ids), SyncedIDs: ids}, nil
}

func pull[T record.Syncable[T]](records []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}

	return record.WithStatus(records, record.StatusSynced), nil
}

func uniqueIDs[T record.Syncable[T]](batch []T) []string {
	seen := make(map[string]struct{}, len(batch))
	ids := make([]string, 0, len(batch))

	for _, r := range batch {
		id := r.RecordID()
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids
}

// Endpoint exposes one entity's push and pull to a transport.
type Endpoint[T any] struct {
	Entity record.Entity
	Push   func(ctx context.Context, batch []T) (*BatchResult, error)
	Pull   func(ctx context.Context) ([]T, error)
}

func (s *Service) Categories() Endpoint[record.Category] {
	return Endpoint[record.Category]{Entity: record.EntityCategories, Push: s.PushCategories, Pull: s.PullCategories}
}

func (s *Service) Products() Endpoint[record.Product] {
	return Endpoint[record.Product]{Entity: record.EntityProducts, Push: s.PushProducts, Pull: s.PullProducts}
}

func (s *Service) Transactions() Endpoint[record.Transaction] {
	return Endpoint[record.Transaction]{Entity: record.EntityTransactions, Push: s.PushTransactions, Pull: s.PullTransactions}
}

func (s *Service) Expenses() Endpoint[record.Expense] {
	return Endpoint[record.Expense]{Entity: record.EntityExpenses, Push: s.PushExpenses, Pull: s.PullExpenses}
}

func (s *Service) Reports() Endpoint[record.DailyReport] {
	return Endpoint[record.DailyReport]{Entity: record.EntityReports, Push: s.PushReports, Pull: s.PullReports}
}
