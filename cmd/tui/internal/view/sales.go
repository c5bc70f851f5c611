package view

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tillsync/internal/pos"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

// saleItem wraps a transaction to implement list.Item.
type saleItem struct {
	tx record.Transaction
}

func (i saleItem) Title() string {
	sync := lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("[%s]", i.tx.SyncStatus))

	return fmt.Sprintf("%s  %8s  %-4s  %s", FormatTime(i.tx.Timestamp), FormatMoney(i.tx.Total), i.tx.PaymentMode, sync)
}

func (i saleItem) Description() string {
	parts := make([]string, 0, len(i.tx.Items))
	for _, it := range i.tx.Items {
		parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, it.ProductName))
	}

	return strings.Join(parts, ", ")
}

func (i saleItem) FilterValue() string { return i.Description() }

// SalesModel lists one day's sales with its running summary.
type SalesModel struct {
	CommonModel
	pos *pos.Service

	day     time.Time
	list    list.Model
	summary record.DailySummary
	status  string
}

func NewSalesModel(svc *pos.Service) SalesModel {
	l := list.New([]list.Item{}, saleItemDelegate{}, 0, 0)
	l.Title = "Sales"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return SalesModel{
		pos:  svc,
		day:  time.Now(),
		list: l,
	}
}

func (m SalesModel) Title() string { return "Sales" }

func (m SalesModel) ShortHelp() string {
	return "Esc: back | ←/→: previous/next day | /: filter"
}

func (m SalesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m SalesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case salesLoadedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		items := make([]list.Item, len(msg.txs))
		for i, tx := range msg.txs {
			items[i] = saleItem{tx: tx}
		}

		m.list.SetItems(items)
		m.list.Title = "Sales on " + m.day.Format(time.DateOnly)
		m.summary = msg.summary
		m.status = ""

		if len(msg.txs) == 0 {
			m.status = "No sales on this day."
		}

		return m, nil

	case DataChangedMsg:
		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.Type {
		case tea.KeyEsc:
			return m, Back
		case tea.KeyLeft:
			m.day = m.day.AddDate(0, 0, -1)
			return m, m.loadCmd()
		case tea.KeyRight:
			m.day = m.day.AddDate(0, 0, 1)
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m SalesModel) View() string {
	statusLine := ""
	if m.status != "" {
		statusLine = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n"
	}

	footer := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Render(fmt.Sprintf(
			"Total %s  |  Cash %s  |  UPI %s  |  Card %s  |  Items %d",
			FormatMoney(m.summary.TotalSales),
			FormatMoney(m.summary.CashSales),
			FormatMoney(m.summary.UPISales),
			FormatMoney(m.summary.CardSales),
			m.summary.TotalItems,
		))

	return lipgloss.NewStyle().Padding(1).Render(statusLine + m.list.View() + "\n" + footer)
}

// Messages

type salesLoadedMsg struct {
	txs     []record.Transaction
	summary record.DailySummary
	err     error
}

func (m SalesModel) loadCmd() tea.Cmd {
	date := m.day.Format(time.DateOnly)

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		txs, err := m.pos.TransactionsOn(ctx, date)
		if err != nil {
			return salesLoadedMsg{err: err}
		}

		summary, err := m.pos.DailySummary(ctx, date)

		return salesLoadedMsg{txs: txs, summary: summary, err: err}
	}
}

// saleItemDelegate renders items in the list.
type saleItemDelegate struct{}

func (d saleItemDelegate) Height() int                             { return 2 }
func (d saleItemDelegate) Spacing() int                            { return 0 }
func (d saleItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d saleItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(saleItem)
	if !ok {
		return
	}

	title := i.Title()
	if index == m.Index() {
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("> " + title)
	}

	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintf(w, "    %s\n", lipgloss.NewStyle().Faint(true).Render(i.Description()))
}
