package pos

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

// SetOpeningCash records today's cash float on this device only.
func (s *Service) SetOpeningCash(ctx context.Context, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: negative opening cash", ErrInvalid)
	}

	entry := OpeningCash{Date: s.today(), Amount: amount}

	return s.cols.OpeningCash.Update(ctx, func(entries []OpeningCash) ([]OpeningCash, error) {
		entries = slices.DeleteFunc(entries, func(e OpeningCash) bool { return e.Date == entry.Date })
		return append(entries, entry), nil
	})
}

// OpeningCashOn returns the float recorded for date, zero when none was set.
func (s *Service) OpeningCashOn(ctx context.Context, date string) (decimal.Decimal, error) {
	entries, err := s.cols.OpeningCash.Load(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	for _, e := range entries {
		if e.Date == date {
			return e.Amount, nil
		}
	}

	return decimal.Zero, nil
}

// DailySummary totals the sales of date by payment mode.
func (s *Service) DailySummary(ctx context.Context, date string) (record.DailySummary, error) {
	txs, err := s.TransactionsOn(ctx, date)
	if err != nil {
		return record.DailySummary{}, err
	}

	return summarize(txs), nil
}

func summarize(txs []record.Transaction) record.DailySummary {
	sum := record.DailySummary{
		TotalSales: decimal.Zero,
		CashSales:  decimal.Zero,
		UPISales:   decimal.Zero,
		CardSales:  decimal.Zero,
	}

	for _, t := range txs {
		sum.TotalSales = sum.TotalSales.Add(t.Total)
		sum.TotalItems += t.ItemCount()

		switch t.PaymentMode {
		case record.PaymentCash:
			sum.CashSales = sum.CashSales.Add(t.Total)
		case record.PaymentUPI:
			sum.UPISales = sum.UPISales.Add(t.Total)
		case record.PaymentCard:
			sum.CardSales = sum.CardSales.Add(t.Total)
		}
	}

	return sum
}

// CloseDay archives today's sales and expenses as a report. Closing the same
// day again refreshes the existing report instead of adding another.
func (s *Service) CloseDay(ctx context.Context) (record.DailyReport, error) {
	date := s.today()

	txs, err := s.TransactionsOn(ctx, date)
	if err != nil {
		return record.DailyReport{}, err
	}

	expenses, err := s.ExpensesOn(ctx, date)
	if err != nil {
		return record.DailyReport{}, err
	}

	opening, err := s.OpeningCashOn(ctx, date)
	if err != nil {
		return record.DailyReport{}, err
	}

	summary := summarize(txs)

	spent := decimal.Zero
	for _, e := range expenses {
		spent = spent.Add(e.Amount)
	}

	report := record.DailyReport{
		Date:             date,
		ArchivedAt:       s.now().UnixMilli(),
		OpeningCash:      opening,
		Summary:          summary,
		TotalExpenses:    spent,
		NetProfit:        summary.TotalSales.Sub(spent),
		TransactionCount: len(txs),
		Transactions:     txs,
		Expenses:         expenses,
		SyncStatus:       record.StatusPending,
	}

	err = s.cols.Reports.Update(ctx, func(reports []record.DailyReport) ([]record.DailyReport, error) {
		report.ID = s.newID()

		for _, r := range reports {
			if r.Date == date {
				report.ID = r.ID
				break
			}
		}

		if err := s.check(report); err != nil {
			return nil, err
		}

		return upsert(reports, report), nil
	})
	if err != nil {
		return record.DailyReport{}, err
	}

	s.changed("close day", report.ID)

	return report, nil
}

// Reports lists archived days, latest first.
func (s *Service) Reports(ctx context.Context) ([]record.DailyReport, error) {
	reports, err := s.cols.Reports.Load(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(reports, func(a, b record.DailyReport) int {
		return cmp.Compare(b.ArchivedAt, a.ArchivedAt)
	})

	return reports, nil
}
