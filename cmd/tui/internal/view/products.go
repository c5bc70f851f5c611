package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tillsync/internal/pos"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

type productsState int

const (
	productsStateBrowse productsState = iota
	productsStateEdit
	productsStateCheckout
)

// ProductsModel is the billing screen: the menu, a cart and checkout.
type ProductsModel struct {
	CommonModel
	pos *pos.Service

	state      productsState
	table      table.Model
	products   []record.Product
	categories []record.Category
	form       *huh.Form

	// categoryIdx 0 shows every category.
	categoryIdx int
	cart        []pos.SaleLine

	err    error
	status string

	// Form bindings
	editingID    string
	formName     string
	formCategory string
	formPrice    string
	formPayment  record.PaymentMode
}

func NewProductsModel(svc *pos.Service) ProductsModel {
	columns := []table.Column{
		{Title: "Name", Width: 28},
		{Title: "Category", Width: 16},
		{Title: "Price", Width: 10},
		{Title: "Sold", Width: 6},
		{Title: "Active", Width: 7},
		{Title: "Sync", Width: 8},
	}

	return ProductsModel{
		pos:   svc,
		table: newTable(columns),
	}
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func (m ProductsModel) Title() string { return "Billing" }

func (m ProductsModel) ShortHelp() string {
	switch m.state {
	case productsStateEdit, productsStateCheckout:
		return "Navigate form | Esc: cancel"
	}

	return "Enter: add to cart | p: pay | x: clear cart | a: new | e: edit | t: toggle active | c: category | Esc: back"
}

func (m ProductsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ProductsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case productsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.products = msg.products
		m.categories = msg.categories
		m.refreshTable()

		return m, nil

	case DataChangedMsg:
		return m, m.loadCmd()

	case productsSavedMsg:
		m.status = msg.status
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}

		if msg.err == nil && msg.clearCart {
			m.cart = nil
		}

		m.state = productsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 12)
		return m, nil
	}

	switch m.state {
	case productsStateBrowse:
		return m.updateBrowse(msg)
	case productsStateEdit, productsStateCheckout:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m ProductsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "enter":
			if p, ok := m.selected(); ok {
				m.addToCart(p)
			}

			return m, nil
		case "x":
			m.cart = nil
			return m, nil
		case "c":
			m.categoryIdx = (m.categoryIdx + 1) % (len(m.categories) + 1)
			return m, m.loadCmd()
		case "a":
			return m.enterEdit(record.Product{})
		case "e":
			if p, ok := m.selected(); ok {
				return m.enterEdit(p)
			}

			return m, nil
		case "t":
			if p, ok := m.selected(); ok {
				return m, m.toggleCmd(p.ID)
			}

			return m, nil
		case "p":
			return m.enterCheckout()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ProductsModel) selected() (record.Product, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.products) {
		return record.Product{}, false
	}

	return m.products[idx], true
}

func (m *ProductsModel) addToCart(p record.Product) {
	if !p.Active {
		m.status = fmt.Sprintf("%s is not active", p.Name)
		return
	}

	for i := range m.cart {
		if m.cart[i].ProductID == p.ID {
			m.cart[i].Quantity++
			return
		}
	}

	m.cart = append(m.cart, pos.SaleLine{ProductID: p.ID, Quantity: 1})
}

func (m ProductsModel) enterEdit(p record.Product) (tea.Model, tea.Cmd) {
	m.editingID = p.ID
	m.formName = p.Name
	m.formCategory = p.CategoryID
	m.formPrice = ""

	if p.ID != "" {
		m.formPrice = FormatMoney(p.Price)
	}

	options := make([]huh.Option[string], 0, len(m.categories)+1)
	options = append(options, huh.NewOption("Uncategorized", record.UncategorizedID))

	for _, c := range m.categories {
		if c.ID == record.UncategorizedID {
			continue
		}

		options = append(options, huh.NewOption(c.Name, c.ID))
	}

	if m.formCategory == "" {
		m.formCategory = record.UncategorizedID
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Name").
				Value(&m.formName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be empty")
					}

					return nil
				}),

			huh.NewSelect[string]().
				Key("category").
				Title("Category").
				Options(options...).
				Value(&m.formCategory),

			huh.NewInput().
				Key("price").
				Title("Price").
				Placeholder("0.00").
				Value(&m.formPrice).
				Validate(func(s string) error {
					_, err := ParseMoney(s)
					return err
				}),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = productsStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m ProductsModel) enterCheckout() (tea.Model, tea.Cmd) {
	if len(m.cart) == 0 {
		m.status = "Cart is empty"
		return m, nil
	}

	m.formPayment = record.PaymentCash
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[record.PaymentMode]().
				Key("payment").
				Title(fmt.Sprintf("Total %s, paid by", FormatMoney(m.cartTotal()))).
				Options(
					huh.NewOption("Cash", record.PaymentCash),
					huh.NewOption("UPI", record.PaymentUPI),
					huh.NewOption("Card", record.PaymentCard),
				).
				Value(&m.formPayment),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = productsStateCheckout
	m.table.Blur()

	return m, m.form.Init()
}

func (m ProductsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = productsStateBrowse
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

	if m.state == productsStateCheckout {
		return m, m.checkoutCmd()
	}

	return m, m.saveCmd()
}

func (m ProductsModel) View() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	header := fmt.Sprintf("Category: [c] %s", activeStyle(m.categoryLabel()))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	side := m.cartView()
	if m.form != nil {
		side = m.form.View()
	}

	panel := lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(48).
		Render(side)

	content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m ProductsModel) cartView() string {
	if len(m.cart) == 0 {
		return "Cart\n\nEmpty. Press Enter on a product to add it."
	}

	var b strings.Builder

	b.WriteString("Cart\n\n")

	for _, line := range m.cart {
		p, _ := findProduct(m.products, line.ProductID)
		fmt.Fprintf(&b, "%2d x %-22s %8s\n", line.Quantity, p.Name, FormatMoney(p.Price.Mul(decimalInt(line.Quantity))))
	}

	fmt.Fprintf(&b, "\nTotal %s", activeStyle(FormatMoney(m.cartTotal())))

	return b.String()
}

func (m ProductsModel) categoryLabel() string {
	if m.categoryIdx == 0 || m.categoryIdx > len(m.categories) {
		return "All"
	}

	return m.categories[m.categoryIdx-1].Name
}

func (m ProductsModel) categoryFilter() string {
	if m.categoryIdx == 0 || m.categoryIdx > len(m.categories) {
		return ""
	}

	return m.categories[m.categoryIdx-1].ID
}

func (m *ProductsModel) refreshTable() {
	names := make(map[string]string, len(m.categories))
	for _, c := range m.categories {
		names[c.ID] = c.Name
	}

	rows := make([]table.Row, 0, len(m.products))
	for _, p := range m.products {
		active := "yes"
		if !p.Active {
			active = "no"
		}

		rows = append(rows, table.Row{
			p.Name,
			names[p.CategoryID],
			FormatMoney(p.Price),
			fmt.Sprint(p.OrderFrequency),
			active,
			p.SyncStatus.String(),
		})
	}

	m.table.SetRows(rows)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

// Messages

type productsLoadedMsg struct {
	products   []record.Product
	categories []record.Category
	err        error
}

type productsSavedMsg struct {
	status    string
	clearCart bool
	err       error
}

func (m ProductsModel) loadCmd() tea.Cmd {
	filter := m.categoryFilter()

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		cats, err := m.pos.Categories(ctx)
		if err != nil {
			return productsLoadedMsg{err: err}
		}

		products, err := m.pos.Products(ctx, filter)

		return productsLoadedMsg{products: products, categories: cats, err: err}
	}
}

func (m ProductsModel) saveCmd() tea.Cmd {
	id := m.editingID
	name := m.formName
	category := m.formCategory
	rawPrice := m.formPrice

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		price, err := ParseMoney(rawPrice)
		if err != nil {
			return productsSavedMsg{err: err}
		}

		params := pos.ProductParams{Name: name, CategoryID: category, Price: price}

		if id == "" {
			_, err = m.pos.AddProduct(ctx, params)
			return productsSavedMsg{status: "Product added", err: err}
		}

		_, err = m.pos.UpdateProduct(ctx, id, params)

		return productsSavedMsg{status: "Product updated", err: err}
	}
}

func (m ProductsModel) toggleCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		p, err := m.pos.ToggleProductActive(ctx, id)

		return productsSavedMsg{status: fmt.Sprintf("%s active: %t", p.Name, p.Active), err: err}
	}
}

func (m ProductsModel) checkoutCmd() tea.Cmd {
	lines := append([]pos.SaleLine(nil), m.cart...)
	mode := m.formPayment

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		tx, err := m.pos.RecordSale(ctx, lines, mode)
		if err != nil {
			return productsSavedMsg{err: err}
		}

		return productsSavedMsg{
			status:    fmt.Sprintf("Sale of %s recorded (%s)", FormatMoney(tx.Total), mode),
			clearCart: true,
		}
	}
}
