package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var popupStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorAccent).
	Padding(1, 2)

// renderPopup draws popup as a bordered card centred over base. base is padded or
// clipped to width x height first.
func renderPopup(base, popup string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	canvas := canvasLines(base, width, height)
	card := strings.Split(popupStyle.Render(popup), "\n")
	cardWidth := 0
	for _, line := range card {
		cardWidth = max(cardWidth, ansi.StringWidth(line))
	}
	if cardWidth == 0 {
		return strings.Join(canvas, "\n")
	}
	x := max((width-cardWidth)/2, 0)
	y := max((height-len(card))/2, 0)
	for i, line := range card {
		row := y + i
		if row >= len(canvas) {
			break
		}
		canvas[row] = spliceLine(canvas[row], padANSI(line, cardWidth), x, width)
	}
	return strings.Join(canvas, "\n")
}

// spliceLine replaces the columns of line starting at x with insert.
func spliceLine(line, insert string, x, width int) string {
	line = padANSI(line, width)
	left := padANSI(ansi.Truncate(line, x, ""), x)
	end := x + ansi.StringWidth(insert)
	right := ""
	if end < width {
		right = strings.TrimPrefix(line, ansi.Truncate(line, end, ""))
	}
	return ansi.Truncate(left+insert+right, width, "")
}

func canvasLines(s string, width, height int) []string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i := range lines {
		lines[i] = padANSI(lines[i], width)
	}
	return lines
}

func padANSI(s string, width int) string {
	s = ansi.Truncate(s, width, "")
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

func fitHeight(s string, height int) string {
	if height <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
