package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tillsync/internal/pos"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

// ReportsModel lists archived day reports from every till.
type ReportsModel struct {
	CommonModel
	pos *pos.Service

	table   table.Model
	reports []record.DailyReport
	err     error
}

func NewReportsModel(svc *pos.Service) ReportsModel {
	return ReportsModel{
		pos: svc,
		table: newTable([]table.Column{
			{Title: "Date", Width: 12},
			{Title: "Closed", Width: 17},
			{Title: "Sales", Width: 7},
			{Title: "Takings", Width: 11},
			{Title: "Expenses", Width: 11},
			{Title: "Net", Width: 11},
			{Title: "Sync", Width: 8},
		}),
	}
}

func (m ReportsModel) Title() string     { return "Day Reports" }
func (m ReportsModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m ReportsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ReportsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsLoadedMsg:
		m.err = msg.err
		m.reports = msg.reports
		m.refreshTable()

		return m, nil

	case DataChangedMsg:
		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 8)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ReportsModel) View() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View()),
	)
}

func (m *ReportsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.reports))
	for _, r := range m.reports {
		rows = append(rows, table.Row{
			r.Date,
			time.UnixMilli(r.ArchivedAt).Format("2006-01-02 15:04"),
			fmt.Sprint(r.TransactionCount),
			FormatMoney(r.Summary.TotalSales),
			FormatMoney(r.TotalExpenses),
			FormatMoney(r.NetProfit),
			r.SyncStatus.String(),
		})
	}

	m.table.SetRows(rows)
}

type reportsLoadedMsg struct {
	reports []record.DailyReport
	err     error
}

func (m ReportsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		reports, err := m.pos.Reports(ctx)

		return reportsLoadedMsg{reports: reports, err: err}
	}
}
