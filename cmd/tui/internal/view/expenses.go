package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tillsync/internal/pos"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

type expensesState int

const (
	expensesStateBrowse expensesState = iota
	expensesStateEdit
)

type ExpensesModel struct {
	CommonModel
	pos *pos.Service

	state    expensesState
	day      time.Time
	table    table.Model
	expenses []record.Expense
	form     *huh.Form
	status   string

	// Form bindings
	editingID    string
	formTitle    string
	formCategory record.ExpenseCategory
	formAmount   string
	formNotes    string
}

func NewExpensesModel(svc *pos.Service) ExpensesModel {
	return ExpensesModel{
		pos: svc,
		day: time.Now(),
		table: newTable([]table.Column{
			{Title: "Time", Width: 6},
			{Title: "Title", Width: 26},
			{Title: "Category", Width: 14},
			{Title: "Amount", Width: 10},
			{Title: "Sync", Width: 8},
		}),
	}
}

func (m ExpensesModel) Title() string { return "Expenses" }

func (m ExpensesModel) ShortHelp() string {
	if m.state == expensesStateEdit {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | a: add | e: edit | ←/→: previous/next day"
}

func (m ExpensesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ExpensesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case expensesLoadedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.expenses = msg.expenses
		m.refreshTable()

		return m, nil

	case DataChangedMsg:
		return m, m.loadCmd()

	case expenseSavedMsg:
		m.status = "Expense saved"
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		}

		m.state = expensesStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	if m.state == expensesStateEdit {
		return m.updateEdit(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "a":
			return m.enterEdit(record.Expense{Category: record.ExpenseOther})
		case "e":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.expenses) {
				return m.enterEdit(m.expenses[idx])
			}

			return m, nil
		case "left":
			m.day = m.day.AddDate(0, 0, -1)
			return m, m.loadCmd()
		case "right":
			m.day = m.day.AddDate(0, 0, 1)
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ExpensesModel) enterEdit(e record.Expense) (tea.Model, tea.Cmd) {
	m.editingID = e.ID
	m.formTitle = e.Title
	m.formCategory = e.Category
	m.formNotes = e.Notes
	m.formAmount = ""

	if e.ID != "" {
		m.formAmount = FormatMoney(e.Amount)
	}

	options := make([]huh.Option[record.ExpenseCategory], 0, len(record.ExpenseCategories))
	for _, c := range record.ExpenseCategories {
		options = append(options, huh.NewOption(strings.ReplaceAll(string(c), "_", " "), c))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("title").
				Title("Title").
				Value(&m.formTitle).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title cannot be empty")
					}

					return nil
				}),

			huh.NewSelect[record.ExpenseCategory]().
				Key("category").
				Title("Category").
				Options(options...).
				Value(&m.formCategory),

			huh.NewInput().
				Key("amount").
				Title("Amount").
				Placeholder("0.00").
				Value(&m.formAmount).
				Validate(func(s string) error {
					d, err := ParseMoney(s)
					if err != nil {
						return err
					}

					if !d.IsPositive() {
						return fmt.Errorf("amount must be positive")
					}

					return nil
				}),

			huh.NewText().
				Key("notes").
				Title("Notes (optional)").
				Value(&m.formNotes),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = expensesStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m ExpensesModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = expensesStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m ExpensesModel) View() string {
	header := fmt.Sprintf("Expenses on %s", activeStyle(m.day.Format(time.DateOnly)))

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View()),
	)

	if m.state == expensesStateEdit && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(54).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ExpensesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.expenses))
	for _, e := range m.expenses {
		rows = append(rows, table.Row{
			FormatTime(e.CreatedAt),
			e.Title,
			string(e.Category),
			FormatMoney(e.Amount),
			e.SyncStatus.String(),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type expensesLoadedMsg struct {
	expenses []record.Expense
	err      error
}

type expenseSavedMsg struct {
	err error
}

func (m ExpensesModel) loadCmd() tea.Cmd {
	date := m.day.Format(time.DateOnly)

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		expenses, err := m.pos.ExpensesOn(ctx, date)

		return expensesLoadedMsg{expenses: expenses, err: err}
	}
}

func (m ExpensesModel) saveCmd() tea.Cmd {
	id := m.editingID
	params := pos.ExpenseParams{
		Title:    m.formTitle,
		Category: m.formCategory,
		Date:     m.day.Format(time.DateOnly),
		Notes:    m.formNotes,
	}
	rawAmount := m.formAmount

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		amount, err := ParseMoney(rawAmount)
		if err != nil {
			return expenseSavedMsg{err: err}
		}

		params.Amount = amount

		if id == "" {
			_, err = m.pos.AddExpense(ctx, params)
		} else {
			_, err = m.pos.UpdateExpense(ctx, id, params)
		}

		return expenseSavedMsg{err: err}
	}
}
