package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
)

// RenderOptions control text output.
type RenderOptions struct {
	ASCII      bool
	Width      int
	ForceColor bool
	// OrderLimit caps the recent orders table; zero means 10.
	OrderLimit int
}

const (
	defaultOrderLimit = 10
	timeLayout        = "2006-01-02 15:04"
	dayLayout         = "Jan 02"
)

// RenderReport writes every section of r.
func RenderReport(w io.Writer, r Report, opts RenderOptions) error {
	money := MoneyFor(opts.ASCII)
	header := fmt.Sprintf("Sales report: %s (%s)", r.Period.Label(""), windowText(r))
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	if r.Source != nil {
		line := fmt.Sprintf("Source: %s, fetched %s, %d rows", r.Source.URL, r.Source.FetchedAt.Format(timeLayout), r.Source.Rows)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	if err := RenderSummary(w, r.Summary, money); err != nil {
		return err
	}
	if err := RenderComparison(w, r.Comparison, money); err != nil {
		return err
	}
	if err := RenderDaily(w, r.Daily, opts); err != nil {
		return err
	}
	if len(r.Monthly) > 0 {
		if err := RenderMonthly(w, r.Monthly, opts); err != nil {
			return err
		}
	}
	if err := RenderTopProducts(w, r.Top, money); err != nil {
		return err
	}
	limit := opts.OrderLimit
	if limit <= 0 {
		limit = defaultOrderLimit
	}
	if err := RenderOrders(w, r.Orders, limit, money); err != nil {
		return err
	}
	return RenderWarnings(w, r.Warnings)
}

// RenderSummary writes the headline metrics.
func RenderSummary(w io.Writer, s model.SummaryMetrics, money Money) error {
	lines := formatTable(nil, [][]string{
		{"Total revenue", money(s.TotalRevenue)},
		{"Orders", strconv.Itoa(s.OrderCount)},
		{"Items sold", strconv.Itoa(s.TotalItems)},
		{"Average order", money(s.AverageOrderValue)},
	}, map[int]bool{1: true})
	return writeSection(w, "Summary", lines)
}

// RenderComparison writes the month-over-month block.
func RenderComparison(w io.Writer, c model.MonthComparison, money Money) error {
	lines := formatTable([]string{"", c.Current.Label, c.Previous.Label, "Change"}, [][]string{
		{"Revenue", money(c.Current.Revenue), money(c.Previous.Revenue), FormatPct(c.RevenueDeltaPct)},
		{"Orders", strconv.Itoa(c.Current.OrderCount), strconv.Itoa(c.Previous.OrderCount), FormatPct(c.OrderDeltaPct)},
	}, map[int]bool{1: true, 2: true, 3: true})
	return writeSection(w, "Month over month", lines)
}

// RenderDaily writes the daily revenue bar chart.
func RenderDaily(w io.Writer, points []model.DailyPoint, opts RenderOptions) error {
	if len(points) == 0 {
		return writeSection(w, "Daily revenue", []string{"No orders in this period."})
	}
	money := MoneyFor(opts.ASCII)
	bars := make([]Bar, len(points))
	for i, p := range points {
		bars[i] = Bar{
			Label: p.Day.Format(dayLayout),
			Value: p.Revenue.InexactFloat64(),
			Note:  fmt.Sprintf("%s (%d)", money(p.Revenue), p.OrderCount),
		}
	}
	if err := BarChart(w, "Daily revenue", bars, opts.Width, opts.ForceColor); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderMonthly writes the per-month breakdown for multi-month periods.
func RenderMonthly(w io.Writer, points []model.MonthlyPoint, opts RenderOptions) error {
	money := MoneyFor(opts.ASCII)
	bars := make([]Bar, len(points))
	for i, p := range points {
		bars[i] = Bar{
			Label: p.Label,
			Value: p.Revenue.InexactFloat64(),
			Note:  fmt.Sprintf("%s (%d)", money(p.Revenue), p.OrderCount),
		}
	}
	if err := BarChart(w, "Monthly revenue", bars, opts.Width, opts.ForceColor); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderTopProducts writes the best sellers table.
func RenderTopProducts(w io.Writer, top []model.ProductRank, money Money) error {
	if len(top) == 0 {
		return writeSection(w, "Top products", []string{"No products sold in this period."})
	}
	rows := make([][]string, len(top))
	for i, p := range top {
		rows[i] = []string{strconv.Itoa(i + 1), p.Name, strconv.Itoa(p.Quantity), money(p.Revenue)}
	}
	lines := formatTable([]string{"#", "Product", "Qty", "Revenue"}, rows, map[int]bool{0: true, 2: true, 3: true})
	return writeSection(w, "Top products", lines)
}

// RenderOrders writes up to limit orders in the given order.
func RenderOrders(w io.Writer, list []model.Order, limit int, money Money) error {
	if len(list) == 0 {
		return writeSection(w, "Recent orders", []string{"No orders in this period."})
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	rows := make([][]string, len(list))
	for i, o := range list {
		rows[i] = []string{
			OrderTime(o),
			o.OrderID,
			truncate(o.Customer, 24),
			truncate(ItemNames(o), 32),
			strconv.Itoa(o.TotalQuantity),
			money(o.TotalAmount),
		}
	}
	lines := formatTable([]string{"Time", "Order", "Customer", "Items", "Qty", "Total"}, rows, map[int]bool{4: true, 5: true})
	return writeSection(w, "Recent orders", lines)
}

// RenderWarnings lists rows whose items could not be decoded.
func RenderWarnings(w io.Writer, warnings []Warning) error {
	if len(warnings) == 0 {
		return nil
	}
	lines := make([]string, len(warnings))
	for i, warn := range warnings {
		lines[i] = fmt.Sprintf("%s: %s", warn.OrderID, warn.Reason)
	}
	return writeSection(w, fmt.Sprintf("Warnings (%d rows with unreadable items)", len(warnings)), lines)
}

func writeSection(w io.Writer, title string, lines []string) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func windowText(r Report) string {
	if r.WindowEnd == nil {
		return "since " + r.WindowStart.Format("2006-01-02")
	}
	last := r.WindowEnd.AddDate(0, 0, -1)
	if last.Equal(r.WindowStart) {
		return r.WindowStart.Format("2006-01-02")
	}
	return r.WindowStart.Format("2006-01-02") + " to " + last.Format("2006-01-02")
}

// OrderTime formats the order timestamp, or the raw text when it did not parse.
func OrderTime(o model.Order) string {
	if !o.HasTime() {
		return o.CreatedRaw
	}
	return o.CreatedAt.Format(timeLayout)
}

// ItemNames joins the product names of an order.
func ItemNames(o model.Order) string {
	names := make([]string, len(o.Items))
	for i, item := range o.Items {
		names[i] = item.Name
	}
	return strings.Join(names, ", ")
}
