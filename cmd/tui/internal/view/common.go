package view

import (
	tea "github.com/charmbracelet/bubbletea"
)

type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// DataChangedMsg is delivered when a sync cycle changed local records.
// Screens showing records reload on it.
type DataChangedMsg struct{}
