package highlight

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Default colors for the highlighted span.
const (
	DefaultForeground = "7"       // ANSI white
	DefaultBackground = "#174525" // dark green
)

var (
	// SpanStyle marks the spanned text inside a line.
	SpanStyle = NewSpanStyle(DefaultForeground, DefaultBackground)

	// HeaderStyle for the table header row.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	// CellStyle for every body cell.
	CellStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

// NewSpanStyle builds a span style from foreground/background color strings.
// Empty strings leave the respective color unset.
func NewSpanStyle(fg, bg string) lipgloss.Style {
	style := lipgloss.NewStyle()
	if fg != "" {
		style = style.Foreground(lipgloss.Color(fg))
	}
	if bg != "" {
		style = style.Background(lipgloss.Color(bg))
	}
	return style
}

// BorderByName maps a border name to a lipgloss border.
func BorderByName(name string) (lipgloss.Border, error) {
	switch strings.ToLower(name) {
	case "", "sharp", "normal":
		return lipgloss.NormalBorder(), nil
	case "rounded":
		return lipgloss.RoundedBorder(), nil
	case "thick":
		return lipgloss.ThickBorder(), nil
	case "double":
		return lipgloss.DoubleBorder(), nil
	case "ascii":
		return lipgloss.ASCIIBorder(), nil
	case "markdown":
		return lipgloss.MarkdownBorder(), nil
	case "hidden":
		return lipgloss.HiddenBorder(), nil
	}
	return lipgloss.Border{}, fmt.Errorf("unknown border %q", name)
}
