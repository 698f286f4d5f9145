package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Defaults substituted for empty ConfirmConfig text fields.
const (
	DefaultConfirmTitle   = "Confirm action"
	DefaultConfirmMessage = "This action cannot be undone."
	DefaultConfirmLabel   = "Delete permanently"
	DefaultCancelLabel    = "Cancel"
	BusyConfirmLabel      = "Working..."

	defaultConfirmID = "confirm-modal"
)

// ConfirmAction identifies one of the two dialog controls.
type ConfirmAction int

const (
	ActionCancel ConfirmAction = iota
	ActionConfirm
)

func (a ConfirmAction) String() string {
	if a == ActionConfirm {
		return "confirm"
	}
	return "cancel"
}

// ConfirmConfig is the caller-owned configuration of a confirmation dialog.
// The dialog holds no state of its own: every render is a function of this value.
type ConfirmConfig struct {
	// ID prefixes element ids in the HTML rendering. Defaults to "confirm-modal".
	ID           string
	IsOpen       bool
	Title        string
	Message      string
	ConfirmLabel string
	CancelLabel  string
	IsBusy       bool
	OnConfirm    func()
	OnCancel     func()
}

// ConfirmControl is one resolved action button.
type ConfirmControl struct {
	Action   ConfirmAction
	Label    string
	Disabled bool
	Danger   bool
}

// ConfirmState is the resolved, render-ready view of a ConfirmConfig.
// A closed dialog resolves to the zero value.
type ConfirmState struct {
	Visible    bool
	Role       string
	AriaModal  bool
	AriaBusy   bool
	TitleID    string
	LabelledBy string
	Title      string
	Message    string
	Cancel     ConfirmControl
	Confirm    ConfirmControl
}

// Controls returns the controls in display order.
func (s ConfirmState) Controls() []ConfirmControl {
	if !s.Visible {
		return nil
	}
	return []ConfirmControl{s.Cancel, s.Confirm}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// ResolveConfirm applies defaults and the busy flag to cfg.
func ResolveConfirm(cfg ConfirmConfig) ConfirmState {
	if !cfg.IsOpen {
		return ConfirmState{}
	}

	titleID := orDefault(cfg.ID, defaultConfirmID) + "-title"
	confirmLabel := orDefault(cfg.ConfirmLabel, DefaultConfirmLabel)
	if cfg.IsBusy {
		confirmLabel = BusyConfirmLabel
	}

	return ConfirmState{
		Visible:    true,
		Role:       "dialog",
		AriaModal:  true,
		AriaBusy:   cfg.IsBusy,
		TitleID:    titleID,
		LabelledBy: titleID,
		Title:      orDefault(cfg.Title, DefaultConfirmTitle),
		Message:    orDefault(cfg.Message, DefaultConfirmMessage),
		Cancel: ConfirmControl{
			Action:   ActionCancel,
			Label:    orDefault(cfg.CancelLabel, DefaultCancelLabel),
			Disabled: cfg.IsBusy,
		},
		Confirm: ConfirmControl{
			Action:   ActionConfirm,
			Label:    confirmLabel,
			Disabled: cfg.IsBusy,
			Danger:   true,
		},
	}
}

// Activate performs a user activation of the given control. The matching
// callback runs only when the dialog is open, not busy, and the callback is set.
// It reports whether a callback ran.
func Activate(cfg ConfirmConfig, action ConfirmAction) bool {
	if !cfg.IsOpen || cfg.IsBusy {
		return false
	}
	var fn func()
	switch action {
	case ActionConfirm:
		fn = cfg.OnConfirm
	case ActionCancel:
		fn = cfg.OnCancel
	}
	if fn == nil {
		return false
	}
	fn()
	return true
}

// RenderConfirm draws the dialog for a terminal. focus selects the highlighted
// control; width and height center the dialog in an overlay when non-zero.
// A closed dialog renders as the empty string.
func RenderConfirm(cfg ConfirmConfig, styles Styles, focus ConfirmAction, width, height int) string {
	state := ResolveConfirm(cfg)
	if !state.Visible {
		return ""
	}

	inner := DialogWidth(width) - styles.Dialog.GetHorizontalFrameSize()

	title := styles.DialogTitle.Width(inner).Render(state.Title)
	body := styles.DialogBody.Width(inner).Render(state.Message)

	buttons := make([]string, 0, 3)
	for i, c := range state.Controls() {
		if i > 0 {
			buttons = append(buttons, lipgloss.NewStyle().Width(ButtonGap).Render(""))
		}
		buttons = append(buttons, renderButton(c, styles, c.Action == focus))
	}
	row := lipgloss.NewStyle().Width(inner).Align(lipgloss.Right).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, buttons...))

	dialog := styles.Dialog.Render(lipgloss.JoinVertical(lipgloss.Left, title, body, row))
	if width <= 0 || height <= 0 {
		return dialog
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, dialog,
		lipgloss.WithWhitespaceBackground(styles.Overlay.GetBackground()))
}

func renderButton(c ConfirmControl, styles Styles, focused bool) string {
	switch {
	case c.Disabled:
		return styles.ButtonDisabled.Render(c.Label)
	case focused:
		return styles.ButtonFocused.Render(c.Label)
	case c.Danger:
		return styles.ButtonDanger.Render(c.Label)
	default:
		return styles.Button.Render(c.Label)
	}
}

// ConfirmResultMsg is emitted after a user activation of an enabled control.
type ConfirmResultMsg struct {
	Action ConfirmAction
}

type confirmKeyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Activate key.Binding
	Cancel   key.Binding
	Confirm  key.Binding
}

func defaultConfirmKeys() confirmKeyMap {
	return confirmKeyMap{
		Next:     key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next")),
		Prev:     key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "previous")),
		Activate: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select")),
		Cancel:   key.NewBinding(key.WithKeys("esc", "n"), key.WithHelp("esc", "cancel")),
		Confirm:  key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
	}
}

// ConfirmModel embeds the dialog in a bubbletea program. It tracks focus and
// terminal size only; open/busy state comes from the host through SetConfig.
type ConfirmModel struct {
	cfg    ConfirmConfig
	styles Styles
	keys   confirmKeyMap
	focus  ConfirmAction
	width  int
	height int
}

// NewConfirmModel creates a dialog model. Focus starts on cancel.
func NewConfirmModel(cfg ConfirmConfig, styles Styles) ConfirmModel {
	return ConfirmModel{
		cfg:    cfg,
		styles: styles,
		keys:   defaultConfirmKeys(),
		focus:  ActionCancel,
	}
}

// SetConfig replaces the caller-owned configuration.
func (m *ConfirmModel) SetConfig(cfg ConfirmConfig) {
	if !m.cfg.IsOpen && cfg.IsOpen {
		m.focus = ActionCancel
	}
	m.cfg = cfg
}

// Config returns the current configuration.
func (m ConfirmModel) Config() ConfirmConfig {
	return m.cfg
}

// Focus returns the highlighted control.
func (m ConfirmModel) Focus() ConfirmAction {
	return m.focus
}

// State returns the resolved dialog state.
func (m ConfirmModel) State() ConfirmState {
	return ResolveConfirm(m.cfg)
}

// Init returns no startup command.
func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

// Update handles key input. Keys are ignored while the dialog is closed or busy.
func (m ConfirmModel) Update(msg tea.Msg) (ConfirmModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if !m.cfg.IsOpen || m.cfg.IsBusy {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Next), key.Matches(msg, m.keys.Prev):
			if m.focus == ActionCancel {
				m.focus = ActionConfirm
			} else {
				m.focus = ActionCancel
			}
		case key.Matches(msg, m.keys.Activate):
			return m, m.activate(m.focus)
		case key.Matches(msg, m.keys.Cancel):
			return m, m.activate(ActionCancel)
		case key.Matches(msg, m.keys.Confirm):
			return m, m.activate(ActionConfirm)
		}
	}
	return m, nil
}

func (m ConfirmModel) activate(action ConfirmAction) tea.Cmd {
	Activate(m.cfg, action)
	return func() tea.Msg { return ConfirmResultMsg{Action: action} }
}

// View renders the dialog, or nothing when closed.
func (m ConfirmModel) View() string {
	return RenderConfirm(m.cfg, m.styles, m.focus, m.width, m.height)
}

// ShortHelp lists the dialog key bindings.
func (m ConfirmModel) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Next, m.keys.Activate, m.keys.Cancel, m.keys.Confirm}
}
