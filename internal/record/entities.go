package record

import (
	"github.com/shopspring/decimal"
)

// PaymentMode is how a sale was settled.
type PaymentMode string

const (
	PaymentCash PaymentMode = "cash"
	PaymentUPI  PaymentMode = "upi"
	PaymentCard PaymentMode = "card"
)

// ExpenseCategory groups expenses on the closing report.
type ExpenseCategory string

const (
	ExpenseRawMaterials ExpenseCategory = "raw_materials"
	ExpenseSalary       ExpenseCategory = "salary"
	ExpenseRent         ExpenseCategory = "rent"
	ExpenseUtilities    ExpenseCategory = "utilities"
	ExpensePackaging    ExpenseCategory = "packaging"
	ExpenseMaintenance  ExpenseCategory = "maintenance"
	ExpenseMarketing    ExpenseCategory = "marketing"
	ExpenseOther        ExpenseCategory = "other"
)

// ExpenseCategories is the fixed list offered to users.
var ExpenseCategories = []ExpenseCategory{
	ExpenseRawMaterials,
	ExpenseSalary,
	ExpenseRent,
	ExpenseUtilities,
	ExpensePackaging,
	ExpenseMaintenance,
	ExpenseMarketing,
	ExpenseOther,
}

// UncategorizedID is the category the remote store falls back to when a
// referenced category or product does not exist yet.
const UncategorizedID = "uncategorized"

// Category groups products on the billing screen.
type Category struct {
	ID         string     `json:"id" validate:"required"`
	Name       string     `json:"name" validate:"required"`
	IsDefault  bool       `json:"isDefault"`
	SyncStatus SyncStatus `json:"syncStatus"`
}

func (c Category) RecordID() string      { return c.ID }
func (c Category) SyncState() SyncStatus { return c.SyncStatus }

func (c Category) WithSyncState(s SyncStatus) Category {
	c.SyncStatus = s
	return c
}

// Product is a sellable item. OrderFrequency counts sales and orders the menu.
type Product struct {
	ID             string          `json:"id" validate:"required"`
	Name           string          `json:"name" validate:"required"`
	CategoryID     string          `json:"categoryId" validate:"required"`
	Price          decimal.Decimal `json:"price"`
	Active         bool            `json:"active"`
	OrderFrequency int             `json:"orderFrequency" validate:"gte=0"`
	SyncStatus     SyncStatus      `json:"syncStatus"`
}

func (p Product) RecordID() string      { return p.ID }
func (p Product) SyncState() SyncStatus { return p.SyncStatus }

func (p Product) WithSyncState(s SyncStatus) Product {
	p.SyncStatus = s
	return p
}

// LineItem is one product line of a sale. ProductName and Price are copied at
// sale time so later product edits do not rewrite history.
type LineItem struct {
	ProductID   string          `json:"productId" validate:"required"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Transaction is a completed sale.
type Transaction struct {
	ID          string          `json:"id" validate:"required"`
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
	Timestamp   int64           `json:"timestamp"`
	Items       []LineItem      `json:"items" validate:"dive"`
	Total       decimal.Decimal `json:"total"`
	PaymentMode PaymentMode     `json:"paymentMode" validate:"oneof=cash upi card"`
	SyncStatus  SyncStatus      `json:"syncStatus"`
}

func (t Transaction) RecordID() string      { return t.ID }
func (t Transaction) SyncState() SyncStatus { return t.SyncStatus }

func (t Transaction) WithSyncState(s SyncStatus) Transaction {
	t.SyncStatus = s
	return t
}

// ItemCount is the number of units sold.
func (t Transaction) ItemCount() int {
	n := 0
	for _, it := range t.Items {
		n += it.Quantity
	}

	return n
}

// Expense is money spent by the shop.
type Expense struct {
	ID         string          `json:"id" validate:"required"`
	Title      string          `json:"title" validate:"required"`
	Category   ExpenseCategory `json:"category" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Date       string          `json:"date" validate:"required,datetime=2006-01-02"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  int64           `json:"createdAt"`
	SyncStatus SyncStatus      `json:"syncStatus"`
}

func (e Expense) RecordID() string      { return e.ID }
func (e Expense) SyncState() SyncStatus { return e.SyncStatus }

func (e Expense) WithSyncState(s SyncStatus) Expense {
	e.SyncStatus = s
	return e
}

// DailySummary aggregates a day's sales.
type DailySummary struct {
	TotalSales decimal.Decimal `json:"totalSales"`
	CashSales  decimal.Decimal `json:"cashSales"`
	UPISales   decimal.Decimal `json:"upiSales"`
	CardSales  decimal.Decimal `json:"cardSales"`
	TotalItems int             `json:"totalItems"`
}

// DailyReport is the archived, denormalized snapshot of a closed day.
type DailyReport struct {
	ID               string          `json:"id" validate:"required"`
	Date             string          `json:"date" validate:"required,datetime=2006-01-02"`
	ArchivedAt       int64           `json:"archivedAt"`
	OpeningCash      decimal.Decimal `json:"openingCash"`
	Summary          DailySummary    `json:"summary"`
	TotalExpenses    decimal.Decimal `json:"totalExpenses"`
	NetProfit        decimal.Decimal `json:"netProfit"`
	TransactionCount int             `json:"transactionCount" validate:"gte=0"`
	Transactions     []Transaction   `json:"transactions"`
	Expenses         []Expense       `json:"expenses"`
	SyncStatus       SyncStatus      `json:"syncStatus"`
}

func (r DailyReport) RecordID() string      { return r.ID }
func (r DailyReport) SyncState() SyncStatus { return r.SyncStatus }

func (r DailyReport) WithSyncState(s SyncStatus) DailyReport {
	r.SyncStatus = s
	return r
}
