package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	loadingMarker = "loading"
	busyMarker    = "saving"
)

func (a *App) activeScope() string {
	if top := a.screens.top(); top != nil {
		return top.Scope()
	}
	return a.route.scope()
}

func (a *App) renderHeader(width int) string {
	tabs := make([]string, 0, len(allRoutes))
	for i, r := range allRoutes {
		label := fmt.Sprintf("%d:%s", i+1, r.title())
		if r == a.route {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	left := headerAppStyle.Render("UPS Console") + tabSepStyle.Render(" ") + strings.Join(tabs, tabSepStyle.Render("│"))
	right := tabSepStyle.Render(a.state.Section + " · " + a.session.Username() + " ")
	gap := max(width-ansi.StringWidth(left)-ansi.StringWidth(right), 1)
	return bar(headerBarStyle, width, left+strings.Repeat(" ", gap)+right)
}

// renderStatus shows the latest notification plus the loading and busy markers.
func (a *App) renderStatus(width int) string {
	msg := strings.TrimSpace(a.notify.text)
	if msg == "" {
		msg = "Ready"
	}
	var markers []string
	if a.state.ViewLoading {
		markers = append(markers, loadingMarker)
	}
	if a.session.IsProcessingData() {
		markers = append(markers, busyMarker)
	}
	style := statusBarStyle
	if a.notify.isErr {
		style = statusErrBarStyle
	}
	line := style.Render(msg)
	if len(markers) > 0 {
		right := markerStyle.Render("[" + strings.Join(markers, "] [") + "]")
		gap := max(width-ansi.StringWidth(line)-ansi.StringWidth(right), 1)
		line += strings.Repeat(" ", gap) + right
	}
	return bar(style, width, line)
}

func (a *App) renderFooter(width int) string {
	keyStyle := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Background(colorMantle)
	descStyle := lipgloss.NewStyle().Foreground(colorMuted).Background(colorMantle)
	parts := []string{}
	for _, h := range a.keys.Help(a.activeScope()) {
		parts = append(parts, keyStyle.Render(h.Key)+descStyle.Render(" "+h.Desc))
	}
	line := strings.Join(parts, descStyle.Render("  "))
	if line == "" {
		line = descStyle.Render("No shortcuts")
	}
	return bar(footerStyle, width, line)
}

func bar(style lipgloss.Style, width int, text string) string {
	line := padANSI(strings.ReplaceAll(text, "\n", " "), width)
	return style.Width(width).MaxWidth(width).Render(line)
}

func (a *App) renderRoute(width, height int) string {
	switch a.route {
	case routeApplications:
		return a.renderApplications(width, height)
	case routeVariants:
		return a.renderVariants(width, height)
	case routeActivity:
		return a.renderActivity(width, height)
	default:
		return a.renderDashboard(width)
	}
}

func (a *App) renderDashboard(width int) string {
	d := a.dashboard
	lines := []string{
		titleStyle.Render("Overview"),
		fmt.Sprintf("  Applications  %d", d.Totals.Applications),
		fmt.Sprintf("  Devices       %d", d.Totals.Devices),
		fmt.Sprintf("  Messages      %d", d.Totals.Messages),
		"",
		titleStyle.Render("Variants with warnings"),
	}
	if len(d.Warnings) == 0 {
		lines = append(lines, mutedStyle.Render("  none"))
	}
	for _, w := range d.Warnings {
		lines = append(lines, warnTextStyle.Render(fmt.Sprintf("  %s / %s (%s)", w.ApplicationName, w.VariantName, w.VariantType)))
	}
	lines = append(lines, "", titleStyle.Render("Most active applications"))
	if len(d.Active) == 0 {
		lines = append(lines, mutedStyle.Render("  none"))
	}
	for i, app := range d.Active {
		lines = append(lines, fmt.Sprintf("  %d. %s  %d receivers", i+1, app.Name, app.TotalReceivers))
	}
	return lipgloss.NewStyle().Padding(1, 2).MaxWidth(width).Render(strings.Join(lines, "\n"))
}

func (a *App) renderApplications(width, height int) string {
	p := a.apps.Page()
	rows := make([]table.Row, 0, len(p.Items))
	for _, app := range p.Items {
		rows = append(rows, table.Row{app.Name, app.Description, fmt.Sprintf("%d", len(app.Variants)), app.ID})
	}
	cols := splitColumns(width, []string{"Name", "Description", "Variants", "ID"}, []int{3, 4, 1, 3})
	heading := fmt.Sprintf("Page %d of %d · %d applications", p.Current, a.apps.PageCount(), p.Total)
	return renderTable(heading, cols, rows, a.appCursor, width, height, "No applications yet. Press n to create one.")
}

func (a *App) renderVariants(width, height int) string {
	if a.variants == nil {
		return mutedStyle.Render("  No application selected.")
	}
	p := a.variants.Page()
	rows := make([]table.Row, 0, len(p.Items))
	for _, v := range p.Items {
		rows = append(rows, table.Row{v.Name, v.Description, v.ProjectNumber, v.ID})
	}
	cols := splitColumns(width, []string{"Name", "Description", "Sender ID", "ID"}, []int{3, 4, 2, 3})
	heading := fmt.Sprintf("%s · %d android variants", a.selected.Name, p.Total)
	return renderTable(heading, cols, rows, a.varCursor, width, height, "No android variants. Press n to add one.")
}

func (a *App) renderActivity(width, height int) string {
	rows := make([]table.Row, 0, len(a.history))
	for _, e := range a.history {
		rows = append(rows, table.Row{e.At.Local().Format(a.cfg.UI.DateFormat), e.Level, e.Message})
	}
	cols := splitColumns(width, []string{"When", "Level", "Message"}, []int{2, 1, 7})
	return renderTable("Recent activity", cols, rows, a.actCursor, width, height, "Nothing has happened yet.")
}

func renderTable(heading string, cols []table.Column, rows []table.Row, cursor, width, height int, empty string) string {
	head := titleStyle.Render(heading)
	if len(rows) == 0 {
		return head + "\n\n" + mutedStyle.Render(empty)
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(height-3, 3)),
		table.WithWidth(width),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderForeground(colorBorder)
	styles.Selected = styles.Selected.Bold(true).Foreground(colorAccent)
	t.SetStyles(styles)
	t.SetCursor(cursor)
	return head + "\n" + t.View()
}

// splitColumns shares width between columns in proportion to weights.
func splitColumns(width int, titles []string, weights []int) []table.Column {
	total := 0
	for _, w := range weights {
		total += w
	}
	usable := max(width-2*len(titles), len(titles)*4)
	cols := make([]table.Column, len(titles))
	for i, title := range titles {
		cols[i] = table.Column{Title: title, Width: max(usable*weights[i]/total, 4)}
	}
	return cols
}
