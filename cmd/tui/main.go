package main

import (
	"cmp"
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/tillsync/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/tillsync/internal/config"
	"github.com/MrJamesThe3rd/tillsync/internal/device"
	"github.com/MrJamesThe3rd/tillsync/internal/logging"
)

// The terminal belongs to the UI, so logs go to a file.
const defaultLogFile = "till-tui.log"

type model struct {
	device  *device.Device
	changes <-chan struct{}

	currentView View

	dashboardView view.DashboardModel
	productsView  view.ProductsModel
	salesView     view.SalesModel
	expensesView  view.ExpensesModel
	reportsView   view.ReportsModel
	importView    view.ImportModel
}

type View int

const (
	ViewMenu      View = 0
	ViewDashboard View = 1
	ViewProducts  View = 2
	ViewSales     View = 3
	ViewExpenses  View = 4
	ViewReports   View = 5
	ViewImport    View = 6
)

func newModel(d *device.Device, changes <-chan struct{}) model {
	return model{
		device:        d,
		changes:       changes,
		currentView:   ViewMenu,
		dashboardView: view.NewDashboardModel(d),
		productsView:  view.NewProductsModel(d.POS),
		salesView:     view.NewSalesModel(d.POS),
		expensesView:  view.NewExpensesModel(d.POS),
		reportsView:   view.NewReportsModel(d.POS),
		importView:    view.NewImportModel(d.POS),
	}
}

// waitForChange delivers one DataChangedMsg per coalesced change signal.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}

		return view.DataChangedMsg{}
	}
}

func (m model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewDashboard
				m.dashboardView = view.NewDashboardModel(m.device)

				return m, m.dashboardView.Init()
			case "2":
				m.currentView = ViewProducts
				return m, m.productsView.Init()
			case "3":
				m.currentView = ViewSales
				m.salesView = view.NewSalesModel(m.device.POS)

				return m, m.salesView.Init()
			case "4":
				m.currentView = ViewExpenses
				m.expensesView = view.NewExpensesModel(m.device.POS)

				return m, m.expensesView.Init()
			case "5":
				m.currentView = ViewReports
				return m, m.reportsView.Init()
			case "6":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.device.POS)

				return m, m.importView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	case view.DataChangedMsg:
		// Re-arm the subscription, then let the visible screen reload.
		cmd = waitForChange(m.changes)
		if m.currentView == ViewMenu {
			return m, cmd
		}

		var viewCmd tea.Cmd
		m, viewCmd = m.updateCurrent(msg)

		return m, tea.Batch(cmd, viewCmd)
	}

	return m.updateCurrent(msg)
}

func (m model) updateCurrent(msg tea.Msg) (model, tea.Cmd) {
	var (
		cmd      tea.Cmd
		newModel tea.Model
	)

	switch m.currentView {
	case ViewDashboard:
		newModel, cmd = m.dashboardView.Update(msg)
		m.dashboardView = newModel.(view.DashboardModel)
	case ViewProducts:
		newModel, cmd = m.productsView.Update(msg)
		m.productsView = newModel.(view.ProductsModel)
	case ViewSales:
		newModel, cmd = m.salesView.Update(msg)
		m.salesView = newModel.(view.SalesModel)
	case ViewExpenses:
		newModel, cmd = m.expensesView.Update(msg)
		m.expensesView = newModel.(view.ExpensesModel)
	case ViewReports:
		newModel, cmd = m.reportsView.Update(msg)
		m.reportsView = newModel.(view.ReportsModel)
	case ViewImport:
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		online := "online"
		if !m.device.Monitor.Online() {
			online = "offline"
		}

		return lipgloss.NewStyle().Padding(2).Render(
			"Till " + m.device.ID + " (" + online + ")\n\n" +
				"1. Dashboard\n" +
				"2. Billing\n" +
				"3. Sales\n" +
				"4. Expenses\n" +
				"5. Day Reports\n" +
				"6. Import Catalog\n\n" +
				"q. Quit",
		)
	case ViewDashboard:
		return m.dashboardView.View()
	case ViewProducts:
		return m.productsView.View()
	case ViewSales:
		return m.salesView.View()
	case ViewExpenses:
		return m.expensesView.View()
	case ViewReports:
		return m.reportsView.View()
	case ViewImport:
		return m.importView.View()
	}

	return "Unknown View"
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, logs, err := logging.Setup(logging.Options{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
		File:   cmp.Or(cfg.App.LogFile, defaultLogFile),
	})
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}
	defer logs.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d, err := device.Open(ctx, cfg, device.WithLogger(logger))
	if err != nil {
		logger.Error("failed to open device", "error", err)
		os.Exit(1)
	}
	defer d.Close()

	changes, unsubscribe := d.Bus.Changes()
	defer unsubscribe()

	schedulerDone := make(chan error, 1)
	go func() { schedulerDone <- d.Scheduler.Run(ctx) }()

	p := tea.NewProgram(newModel(d, changes), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("failed to run TUI", "error", err)
	}

	cancel()

	if err := <-schedulerDone; err != nil {
		logger.Error("sync scheduler failed", "error", err)
	}
}
