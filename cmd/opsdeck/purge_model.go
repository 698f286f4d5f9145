package main

import (
	"fmt"

	"opsdeck/cmd/opsdeck/ui"
	"opsdeck/internal/logging"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type purgeDoneMsg struct {
	deleted int64
	err     error
}

// purgeModel asks for confirmation, then deletes the history while the
// dialog shows its busy state.
type purgeModel struct {
	dialog  ui.ConfirmModel
	spinner spinner.Model
	help    help.Model
	styles  ui.Styles
	count   int
	purge   func() (int64, error)

	busy      bool
	done      bool
	cancelled bool
	deleted   int64
	err       error
}

func newPurgeModel(count int, styles ui.Styles, purge func() (int64, error)) purgeModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	m := purgeModel{
		spinner: s,
		help:    help.New(),
		styles:  styles,
		count:   count,
		purge:   purge,
	}
	m.dialog = ui.NewConfirmModel(m.dialogConfig(), styles)
	return m
}

func (m purgeModel) dialogConfig() ui.ConfirmConfig {
	return ui.ConfirmConfig{
		ID:      "history-purge",
		IsOpen:  !m.done,
		Title:   "Purge check history",
		Message: fmt.Sprintf("%d recorded runs will be deleted. This action cannot be undone.", m.count),
		IsBusy:  m.busy,
	}
}

func (m purgeModel) Init() tea.Cmd {
	return nil
}

func (m purgeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC && !m.busy {
			m.cancelled = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		// leave a line for the spinner or key help under the overlay
		msg.Height--
		var cmd tea.Cmd
		m.dialog, cmd = m.dialog.Update(msg)
		return m, cmd

	case ui.ConfirmResultMsg:
		if msg.Action == ui.ActionCancel {
			m.cancelled = true
			return m, tea.Quit
		}
		m.busy = true
		m.dialog.SetConfig(m.dialogConfig())
		logging.UI("purging %d check runs", m.count)
		purge := m.purge
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			n, err := purge()
			return purgeDoneMsg{deleted: n, err: err}
		})

	case purgeDoneMsg:
		m.busy = false
		m.done = true
		m.deleted = msg.deleted
		m.err = msg.err
		m.dialog.SetConfig(m.dialogConfig())
		return m, tea.Quit

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.dialog, cmd = m.dialog.Update(msg)
	return m, cmd
}

func (m purgeModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	view := m.dialog.View()
	if m.busy {
		return view + "\n" + m.spinner.View() + m.styles.Muted.Render(" deleting recorded runs")
	}
	return view + "\n" + m.help.ShortHelpView(m.dialog.ShortHelp())
}
