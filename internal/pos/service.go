// Package pos implements the till's business actions on the local store.
//
// Every action writes its records as pending and then asks for a sync; the
// actions never talk to the network.
package pos

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tillsync/internal/localstore"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrInvalid           = errors.New("invalid input")
	ErrEmptySale         = errors.New("sale has no items")
)

// OpeningCashKey is the device-local key holding the cash float. It is never
// synced.
const OpeningCashKey = "opening_cash"

// OpeningCash is the cash in the drawer when the till opened on Date.
type OpeningCash struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// SyncRequester is told after every local write.
type SyncRequester interface {
	RequestSync()
}

type Collections struct {
	Categories   *localstore.Collection[record.Category]
	Products     *localstore.Collection[record.Product]
	Transactions *localstore.Collection[record.Transaction]
	Expenses     *localstore.Collection[record.Expense]
	Reports      *localstore.Collection[record.DailyReport]
	OpeningCash  *localstore.Collection[OpeningCash]
}

// NewCollections opens every collection the till uses on store.
func NewCollections(store localstore.Store, logger *slog.Logger) Collections {
	return Collections{
		Categories:   localstore.NewCollection[record.Category](store, record.EntityCategories.String(), logger),
		Products:     localstore.NewCollection[record.Product](store, record.EntityProducts.String(), logger),
		Transactions: localstore.NewCollection[record.Transaction](store, record.EntityTransactions.String(), logger),
		Expenses:     localstore.NewCollection[record.Expense](store, record.EntityExpenses.String(), logger),
		Reports:      localstore.NewCollection[record.DailyReport](store, record.EntityReports.String(), logger),
		OpeningCash:  localstore.NewCollection[OpeningCash](store, OpeningCashKey, logger),
	}
}

type Service struct {
	cols     Collections
	sync     SyncRequester
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs replaces the uuid generator.
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(cols Collections, sync SyncRequester, opts ...Option) *Service {
	s := &Service{
		cols:     cols,
		sync:     sync,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) today() string {
	return s.now().Format(time.DateOnly)
}

func (s *Service) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return nil
}

func (s *Service) changed(action string, id string) {
	s.logger.Debug("local record written", "action", action, "id", id)
	s.sync.RequestSync()
}

// upsert replaces the record with rec's id or appends rec.
func upsert[T record.Syncable[T]](records []T, rec T) []T {
	for i, r := range records {
		if r.RecordID() == rec.RecordID() {
			records[i] = rec
			return records
		}
	}

	return append(records, rec)
}

func find[T record.Syncable[T]](records []T, id string) (T, bool) {
	for _, r := range records {
		if r.RecordID() == id {
			return r, true
		}
	}

	var zero T

	return zero, false
}
