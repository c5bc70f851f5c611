package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tillsync/internal/device"
	"github.com/MrJamesThe3rd/tillsync/internal/pos"
	"github.com/MrJamesThe3rd/tillsync/internal/reconcile"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

const statusRefresh = time.Second

type dashboardState int

const (
	dashboardStateBrowse dashboardState = iota
	dashboardStateOpeningCash
	dashboardStateCloseDay
)

// DashboardModel shows today's takings and the state of background sync.
type DashboardModel struct {
	CommonModel
	device *device.Device

	state   dashboardState
	spinner spinner.Model
	form    *huh.Form

	summary record.DailySummary
	opening string
	top     []pos.ProductSales
	slow    []pos.ProductSales
	counts  map[record.Entity]reconcile.Counts
	syncing bool
	online  bool
	last    reconcile.Result
	hasLast bool
	status  string
	err     error

	// Form bindings
	formOpening string
	formConfirm bool
}

func NewDashboardModel(d *device.Device) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return DashboardModel{
		device:  d,
		spinner: s,
		online:  true,
	}
}

func (m DashboardModel) Title() string { return "Dashboard" }

func (m DashboardModel) ShortHelp() string {
	if m.state != dashboardStateBrowse {
		return "Navigate form | Esc: cancel"
	}

	return "s: sync now | o: opening cash | c: close day | Esc: back"
}

func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.spinner.Tick, tickStatus())
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.summary = msg.summary
			m.opening = FormatMoney(msg.opening)
			m.top = msg.top
			m.slow = msg.slow
			m.counts = msg.counts
		}

		return m, nil

	case DataChangedMsg:
		return m, m.loadCmd()

	case statusTickMsg:
		m.syncing = m.device.Scheduler.State() == reconcile.StateRunning
		m.online = m.device.Monitor.Online()
		m.last, m.hasLast = m.device.Scheduler.LastResult()

		return m, tea.Batch(tickStatus(), m.loadCountsCmd())

	case countsLoadedMsg:
		if msg.err == nil {
			m.counts = msg.counts
		}

		return m, nil

	case dashboardSavedMsg:
		m.status = msg.status
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}

		m.state = dashboardStateBrowse
		m.form = nil

		return m, m.loadCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	if m.state != dashboardStateBrowse {
		return m.updateForm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "s":
			m.device.Scheduler.Trigger(reconcile.ReasonManual)
			m.status = "Sync requested"

			return m, nil
		case "o":
			return m.enterOpeningCash()
		case "c":
			return m.enterCloseDay()
		}
	}

	return m, nil
}

func (m DashboardModel) enterOpeningCash() (tea.Model, tea.Cmd) {
	m.formOpening = m.opening
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("opening").
				Title("Opening cash").
				Placeholder("0.00").
				Value(&m.formOpening).
				Validate(func(s string) error {
					_, err := ParseMoney(s)
					return err
				}),
		),
	).WithWidth(40).WithShowHelp(false)
	m.state = dashboardStateOpeningCash

	return m, m.form.Init()
}

func (m DashboardModel) enterCloseDay() (tea.Model, tea.Cmd) {
	m.formConfirm = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("confirm").
				Title(fmt.Sprintf("Close %s and archive the report?", Today())).
				Affirmative("Yes").
				Negative("No").
				Value(&m.formConfirm),
		),
	).WithWidth(50).WithShowHelp(false)
	m.state = dashboardStateCloseDay

	return m, m.form.Init()
}

func (m DashboardModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = dashboardStateBrowse
		m.form = nil

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == dashboardStateOpeningCash {
		return m, m.saveOpeningCmd()
	}

	if !m.formConfirm {
		m.state = dashboardStateBrowse
		m.form = nil

		return m, nil
	}

	return m, m.closeDayCmd()
}

func (m DashboardModel) View() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	box := lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(40)

	today := box.Render(fmt.Sprintf(
		"Today %s\n\nOpening cash  %10s\nTotal sales   %10s\n  cash        %10s\n  upi         %10s\n  card        %10s\nItems sold    %10d",
		Today(),
		m.opening,
		FormatMoney(m.summary.TotalSales),
		FormatMoney(m.summary.CashSales),
		FormatMoney(m.summary.UPISales),
		FormatMoney(m.summary.CardSales),
		m.summary.TotalItems,
	))

	content := lipgloss.JoinHorizontal(lipgloss.Top, today, box.Render(m.syncView()))
	content = lipgloss.JoinVertical(lipgloss.Left, content,
		lipgloss.JoinHorizontal(lipgloss.Top, box.Render(m.topView()), box.Render(m.slowView())))

	if m.form != nil {
		content = lipgloss.JoinVertical(lipgloss.Left, content, box.Width(56).Render(m.form.View()))
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m DashboardModel) topView() string {
	var b strings.Builder

	b.WriteString("Top selling today\n\n")

	if len(m.top) == 0 {
		b.WriteString(lipgloss.NewStyle().Faint(true).Render("No sales yet"))
		return b.String()
	}

	for i, ps := range m.top {
		fmt.Fprintf(&b, "%d. %-16s x%-3d %9s\n", i+1, truncate(ps.ProductName, 16), ps.Quantity, FormatMoney(ps.Revenue))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m DashboardModel) slowView() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Fewer than %d sold today\n\n", pos.DefaultSlowThreshold)

	if len(m.slow) == 0 {
		b.WriteString(lipgloss.NewStyle().Faint(true).Render("Everything is moving"))
		return b.String()
	}

	none := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	few := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	for _, ps := range m.slow {
		label := few.Render(fmt.Sprintf("%d sold", ps.Quantity))
		if ps.Quantity == 0 {
			label = none.Render("no sales")
		}

		fmt.Fprintf(&b, "%-20s %s\n", truncate(ps.ProductName, 20), label)
	}

	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}

func (m DashboardModel) syncView() string {
	var b strings.Builder

	b.WriteString("Sync  ")

	switch {
	case m.syncing:
		b.WriteString(m.spinner.View() + " syncing")
	case !m.online:
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("offline"))
	default:
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render("online"))
	}

	b.WriteString("\n\n")

	for _, entity := range record.PushOrder {
		c := m.counts[entity]
		fmt.Fprintf(&b, "%-13s %4d  pending %d\n", entity, c.Total, c.Pending)
	}

	if m.hasLast {
		outcome := "ok"

		switch {
		case m.last.Err != nil:
			outcome = "skipped (" + m.last.Err.Error() + ")"
		case m.last.Failed():
			outcome = "with errors"
		}

		fmt.Fprintf(&b, "\nLast sync %s, %s", m.last.StartedAt.Format("15:04:05"), outcome)
	}

	return b.String()
}

// Messages

type dashboardLoadedMsg struct {
	summary record.DailySummary
	opening decimal.Decimal
	top     []pos.ProductSales
	slow    []pos.ProductSales
	counts  map[record.Entity]reconcile.Counts
	err     error
}

type countsLoadedMsg struct {
	counts map[record.Entity]reconcile.Counts
	err    error
}

type dashboardSavedMsg struct {
	status string
	err    error
}

type statusTickMsg struct{}

func tickStatus() tea.Cmd {
	return tea.Tick(statusRefresh, func(time.Time) tea.Msg { return statusTickMsg{} })
}

func (m DashboardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		date := Today()

		summary, err := m.device.POS.DailySummary(ctx, date)
		if err != nil {
			return dashboardLoadedMsg{err: err}
		}

		opening, err := m.device.POS.OpeningCashOn(ctx, date)
		if err != nil {
			return dashboardLoadedMsg{err: err}
		}

		top, err := m.device.POS.TopProducts(ctx, date, pos.DefaultTopProducts)
		if err != nil {
			return dashboardLoadedMsg{err: err}
		}

		slow, err := m.device.POS.SlowMovers(ctx, date, pos.DefaultSlowThreshold)
		if err != nil {
			return dashboardLoadedMsg{err: err}
		}

		counts, err := m.device.Engine.Status(ctx)

		return dashboardLoadedMsg{
			summary: summary,
			opening: opening,
			top:     top,
			slow:    slow,
			counts:  counts,
			err:     err,
		}
	}
}

func (m DashboardModel) loadCountsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		counts, err := m.device.Engine.Status(ctx)

		return countsLoadedMsg{counts: counts, err: err}
	}
}

func (m DashboardModel) saveOpeningCmd() tea.Cmd {
	raw := m.formOpening

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		amount, err := ParseMoney(raw)
		if err != nil {
			return dashboardSavedMsg{err: err}
		}

		return dashboardSavedMsg{status: "Opening cash saved", err: m.device.POS.SetOpeningCash(ctx, amount)}
	}
}

func (m DashboardModel) closeDayCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		report, err := m.device.POS.CloseDay(ctx)
		if err != nil {
			return dashboardSavedMsg{err: err}
		}

		return dashboardSavedMsg{status: fmt.Sprintf(
			"Day closed: %d sales, net %s",
			report.TransactionCount, FormatMoney(report.NetProfit),
		)}
	}
}
