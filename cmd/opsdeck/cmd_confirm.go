package main

import (
	"opsdeck/cmd/opsdeck/ui"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	confirmTitle       string
	confirmMessage     string
	confirmLabel       string
	confirmCancelLabel string
)

// confirmCmd shows a confirmation dialog for shell scripts
var confirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Ask for confirmation; exits 0 when confirmed, 1 otherwise",
	Long: `Shows a blocking confirmation dialog in the terminal.

Example:
  opsdeck confirm --title "Drop staging database" && make drop-staging`,
	Args: cobra.NoArgs,
	RunE: runConfirm,
}

func init() {
	confirmCmd.Flags().StringVar(&confirmTitle, "title", "", "Dialog title (default \"Confirm action\")")
	confirmCmd.Flags().StringVar(&confirmMessage, "message", "", "Dialog message (default \"This action cannot be undone.\")")
	confirmCmd.Flags().StringVar(&confirmLabel, "confirm-label", "", "Confirm button label (default \"Delete permanently\")")
	confirmCmd.Flags().StringVar(&confirmCancelLabel, "cancel-label", "", "Cancel button label (default \"Cancel\")")
}

func runConfirm(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(false)
	defer cancel()

	model := newConfirmPrompt(ui.ConfirmConfig{
		Title:        confirmTitle,
		Message:      confirmMessage,
		ConfirmLabel: confirmLabel,
		CancelLabel:  confirmCancelLabel,
	}, ui.DefaultStyles())

	if _, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(cmd.ErrOrStderr())).Run(); err != nil {
		return err
	}
	if !model.answer.confirmed {
		return errCancelled
	}
	return nil
}

// promptAnswer is shared by the callbacks so the answer survives model copies.
type promptAnswer struct {
	confirmed bool
	answered  bool
}

// confirmPrompt is a one-shot program around the dialog. The answer is
// captured through the dialog callbacks.
type confirmPrompt struct {
	dialog ui.ConfirmModel
	help   help.Model
	answer *promptAnswer
}

func newConfirmPrompt(cfg ui.ConfirmConfig, styles ui.Styles) confirmPrompt {
	answer := &promptAnswer{}
	cfg.IsOpen = true
	cfg.OnConfirm = func() { answer.confirmed, answer.answered = true, true }
	cfg.OnCancel = func() { answer.confirmed, answer.answered = false, true }
	return confirmPrompt{
		dialog: ui.NewConfirmModel(cfg, styles),
		help:   help.New(),
		answer: answer,
	}
}

func (m confirmPrompt) Init() tea.Cmd {
	return nil
}

func (m confirmPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		msg.Height-- // key help line
		var cmd tea.Cmd
		m.dialog, cmd = m.dialog.Update(msg)
		return m, cmd
	case ui.ConfirmResultMsg:
		cfg := m.dialog.Config()
		cfg.IsOpen = false
		m.dialog.SetConfig(cfg)
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.dialog, cmd = m.dialog.Update(msg)
	return m, cmd
}

func (m confirmPrompt) View() string {
	view := m.dialog.View()
	if view == "" {
		return ""
	}
	return view + "\n" + m.help.ShortHelpView(m.dialog.ShortHelp())
}
