package dashboard

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/stats"
)

const (
	dailyChartDays = 14
	noDataText     = "No orders in this period."
)

var money = stats.MoneyFor(false)

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	status := padLines(m.renderStatusLine(), m.width)
	return tabs + "\n" + status
}

func (m *Model) renderStatusLine() string {
	source := m.settings.SourceURL
	if source == "" {
		source = "not set"
	}
	if m.settings.Locked {
		source += " (locked)"
	}
	auto := "off"
	if m.settings.AutoSync {
		auto = "on"
	}
	synced := "never"
	if m.report.Source != nil {
		synced = m.report.Source.FetchedAt.In(m.opts.Now().Location()).Format("2006-01-02 15:04")
	}
	line := fmt.Sprintf("Source: %s  Synced: %s  Auto-sync: %s", source, synced, auto)
	label := periodStyle.Render(m.period.Label(m.opts.Locale))
	return label + "  " + headerStyle.Render(truncateLine(line, max(m.width-lipgloss.Width(label)-2, 10)))
}

func (m *Model) renderHelp() string {
	help := "Period: 1-7 [/]  Nav: left/right  Sync: r  Source: s  Auto-sync: a  Lock: u  Quit: q"
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFooter() string {
	switch {
	case m.errMsg != "":
		return m.renderHelp() + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	case m.status != "":
		return m.renderHelp() + "\n" + okStyle.Render(truncateLine(m.status, m.width))
	}
	return m.renderHelp()
}

func (m *Model) renderBody(height int) string {
	if !m.loaded {
		text := "Loading..."
		if m.syncing {
			text = "Fetching sales data..."
		}
		return fitLines(text, m.width, height)
	}
	if m.activeTab == tabOrders {
		if len(m.report.Orders) == 0 {
			return fitLines(noDataText, m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.ordersTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	if m.errMsg != "" && !m.loaded {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load sales data.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, width))
	m.viewports[tabProducts].SetContent(renderProducts(m.report, width))
	m.viewports[tabMonthly].SetContent(renderMonthly(m.report, width))
}

func renderOverview(r stats.Report, width int) string {
	s := r.Summary
	cards := []string{
		metricCard("Revenue", money(s.TotalRevenue)),
		metricCard("Orders", fmt.Sprintf("%d", s.OrderCount)),
		metricCard("Items sold", fmt.Sprintf("%d", s.TotalItems)),
		metricCard("Avg order", money(s.AverageOrderValue)),
		metricCard(r.Comparison.Current.Label, fmt.Sprintf("%s (%s)", money(r.Comparison.Current.Revenue), stats.FormatPct(r.Comparison.RevenueDeltaPct))),
	}
	parts := []string{layoutCards(cards, width)}
	if len(r.Warnings) > 0 {
		parts = append(parts, errorStyle.Render(fmt.Sprintf("%d rows had unreadable items and count as empty orders.", len(r.Warnings))))
	}
	if s.OrderCount == 0 {
		parts = append(parts, "", noDataText)
		return strings.Join(parts, "\n")
	}
	daily := r.Daily
	if len(daily) > dailyChartDays {
		daily = daily[len(daily)-dailyChartDays:]
	}
	bars := make([]stats.Bar, 0, len(daily))
	values := make([]float64, 0, len(daily))
	for _, p := range daily {
		v := p.Revenue.InexactFloat64()
		values = append(values, v)
		bars = append(bars, stats.Bar{
			Label: p.Day.Format("Jan 02"),
			Value: v,
			Note:  fmt.Sprintf("%s / %d", money(p.Revenue), p.OrderCount),
		})
	}
	parts = append(parts, "", renderChart("Daily revenue", bars, width))
	if len(values) > 1 {
		parts = append(parts, headerStyle.Render("Trend "+stats.Sparkline(values)))
	}
	return strings.Join(parts, "\n")
}

func renderProducts(r stats.Report, width int) string {
	if len(r.Top) == 0 {
		return noDataText
	}
	bars := make([]stats.Bar, 0, len(r.Top))
	for i, p := range r.Top {
		bars = append(bars, stats.Bar{
			Label: fmt.Sprintf("%d. %s", i+1, p.Name),
			Value: p.Revenue.InexactFloat64(),
			Note:  fmt.Sprintf("%s x%d", money(p.Revenue), p.Quantity),
		})
	}
	return renderChart("Best sellers by revenue", bars, width)
}

func renderMonthly(r stats.Report, width int) string {
	c := r.Comparison
	cards := []string{
		metricCard(c.Current.Label, fmt.Sprintf("%s / %d orders", money(c.Current.Revenue), c.Current.OrderCount)),
		metricCard(c.Previous.Label, fmt.Sprintf("%s / %d orders", money(c.Previous.Revenue), c.Previous.OrderCount)),
		metricCard("Change", fmt.Sprintf("revenue %s  orders %s", stats.FormatPct(c.RevenueDeltaPct), stats.FormatPct(c.OrderDeltaPct))),
	}
	parts := []string{layoutCards(cards, width)}
	points := r.Monthly
	title := "Revenue by month (" + r.Period.Label("") + ")"
	if len(points) == 0 {
		points = stats.Monthly(r.All, r.WindowStart.Location())
		title = "Revenue by month (all data)"
	}
	if len(points) == 0 {
		return parts[0]
	}
	bars := make([]stats.Bar, 0, len(points))
	for _, p := range points {
		bars = append(bars, stats.Bar{
			Label: p.Label,
			Value: p.Revenue.InexactFloat64(),
			Note:  fmt.Sprintf("%s / %d", money(p.Revenue), p.OrderCount),
		})
	}
	parts = append(parts, "", renderChart(title, bars, width))
	return strings.Join(parts, "\n")
}

func renderChart(title string, bars []stats.Bar, width int) string {
	var buf bytes.Buffer
	if err := stats.BarChart(&buf, title, bars, width, true); err != nil {
		return fmt.Sprintf("Failed to render chart: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func layoutCards(cards []string, width int) string {
	if len(cards) == 0 {
		return ""
	}
	rows := []string{}
	row := []string{}
	rowWidth := 0
	for _, card := range cards {
		w := lipgloss.Width(card)
		if len(row) > 0 && rowWidth+w > width {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, rowWidth = nil, 0
		}
		row = append(row, card)
		rowWidth += w
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func (m *Model) refreshOrdersTable() {
	_, bodyHeight, _ := m.layoutHeights()
	width := m.width
	if width <= 0 {
		width = 80
	}
	cols, rows := buildOrdersTableData(m.report.Orders, width)
	m.ordersTable.SetRows(nil)
	m.ordersTable.SetColumns(cols)
	m.ordersTable.SetRows(rows)
	m.ordersTable.SetWidth(width)
	m.ordersTable.SetHeight(max(1, bodyHeight-1))
	m.ordersTable.GotoTop()
}

func buildOrdersTable(orders []model.Order, width, height int) table.Model {
	cols, rows := buildOrdersTableData(orders, width)
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithHeight(max(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(ordersTableStyles())
	return t
}

func buildOrdersTableData(orders []model.Order, width int) ([]table.Column, []table.Row) {
	fixed := []table.Column{
		{Title: "Time", Width: 16},
		{Title: "Order", Width: 20},
		{Title: "Customer", Width: 14},
		{Title: "Qty", Width: 4},
		{Title: "Total", Width: 14},
	}
	used := 0
	for _, c := range fixed {
		used += c.Width + 1
	}
	itemsWidth := max(12, width-used-1)
	cols := []table.Column{fixed[0], fixed[1], fixed[2], {Title: "Items", Width: itemsWidth}, fixed[3], fixed[4]}
	rows := make([]table.Row, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, table.Row{
			stats.OrderTime(o),
			o.OrderID,
			o.Customer,
			stats.ItemNames(o),
			fmt.Sprintf("%d", o.TotalQuantity),
			money(o.TotalAmount),
		})
	}
	return cols, rows
}

func ordersTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func modalWidth(width int) int {
	return max(40, min(width-4, 80))
}

func modalInnerWidth(width int) int {
	w := modalWidth(width)
	w -= 6 // 2 border + 4 padding
	if w < 10 {
		return 10
	}
	return w
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if width <= 3 {
		return string(runes[:min(width, len(runes))])
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
