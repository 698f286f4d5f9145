package ui

// Dialog sizing
const (
	DialogMaxWidth = 60
	DialogMinWidth = 30
	DialogMargin   = 4
	ButtonGap      = 2
)

// DialogWidth returns the dialog width for a terminal of the given width.
// A width of zero (size not yet known) yields DialogMaxWidth.
func DialogWidth(terminalWidth int) int {
	if terminalWidth <= 0 {
		return DialogMaxWidth
	}
	w := terminalWidth - DialogMargin
	if w > DialogMaxWidth {
		w = DialogMaxWidth
	}
	if w < DialogMinWidth {
		w = DialogMinWidth
	}
	return w
}
