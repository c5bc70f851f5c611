package view

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tillsync/internal/pos"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateFilePick importState = iota
	importStateImporting
	importStateResult
)

// ImportModel loads a product catalog CSV into the menu.
type ImportModel struct {
	CommonModel
	pos *pos.Service

	state      importState
	filePicker filepicker.Model

	result pos.ImportResult
	status string
	err    error
}

func NewImportModel(svc *pos.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		pos:        svc,
		filePicker: fp,
	}
}

func (m ImportModel) Title() string { return "Import Catalog" }

func (m ImportModel) ShortHelp() string { return "Esc: back | Enter: select" }

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			if m.state == importStateResult {
				m.state = importStateFilePick
				m.err = nil
				m.status = ""

				return m, m.filePicker.Init()
			}

			return m, Back
		}

	case importResultMsg:
		m.state = importStateResult
		m.err = msg.err

		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.result = msg.result
		m.status = fmt.Sprintf("Added %d categories, added %d products, updated %d products.",
			msg.result.CategoriesAdded, msg.result.ProductsAdded, msg.result.ProductsUpdated)

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("Importing from %s...", path)

		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			"Select a catalog CSV (name, price, optional category and active columns):\n\n" + m.filePicker.View(),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(
			lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.status) +
				"\n\n(Esc to go back)",
		)
	}

	var skipped strings.Builder
	for _, sk := range m.result.Skipped {
		fmt.Fprintf(&skipped, "\n  row %d: %s", sk.Row, sk.Reason)
	}

	body := lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(m.status)
	if skipped.Len() > 0 {
		body += "\n\nSkipped:" + lipgloss.NewStyle().Faint(true).Render(skipped.String())
	}

	return style.Render(body + "\n\n(Esc to go back)")
}

// Messages

type importResultMsg struct {
	result pos.ImportResult
	err    error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := m.pos.ImportCatalog(ctx, f)

		return importResultMsg{result: result, err: err}
	}
}
