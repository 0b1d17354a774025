package styles

import (
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

var (
	// Address is used for bus addresses and offsets.
	Address = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	// Eligible marks bytes that may be corrupted.
	Eligible = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Guac.Hex())).Bold(true)

	// Protected marks bytes the classifier refuses.
	Protected = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Cheeky.Hex()))

	// Muted is used for rule names and secondary text.
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Squid.Hex())).Italic(true)
)

// VerdictLabel returns a short coloured label for a verdict. With color
// disabled the plain label is returned.
func VerdictLabel(eligible, color bool) string {
	label := "keep"
	style := Protected
	if eligible {
		label = "ok  "
		style = Eligible
	}
	if !color {
		return label
	}
	return style.Render(label)
}
