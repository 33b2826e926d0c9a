// Package export renders reports to PDF and uploads them to object storage.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/stats"
)

// ContentType is the MIME type of rendered reports.
const ContentType = "application/pdf"

const maxPDFOrders = 50

// RenderPDF renders r as an A4 PDF document.
func RenderPDF(r stats.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePDF writes r as an A4 PDF document to w.
func WritePDF(w io.Writer, r stats.Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetTitle("Sales report", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string {
		return tr(latin1(s))
	}
	money := stats.FormatMMK

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, text("Sales report: "+r.Period.Label("")), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, text(windowLine(r)), "", 1, "C", false, 0, "")
	if r.Source != nil {
		pdf.CellFormat(0, 5, text(fmt.Sprintf("Data fetched %s (%d rows)", r.Source.FetchedAt.Format("2006-01-02 15:04"), r.Source.Rows)), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 5, text("Generated "+r.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "C", false, 0, "")

	section(pdf, "Summary")
	keyValue(pdf, "Total revenue", money(r.Summary.TotalRevenue))
	keyValue(pdf, "Orders", strconv.Itoa(r.Summary.OrderCount))
	keyValue(pdf, "Items sold", strconv.Itoa(r.Summary.TotalItems))
	keyValue(pdf, "Average order", money(r.Summary.AverageOrderValue))

	c := r.Comparison
	section(pdf, "Month over month")
	keyValue(pdf, text(c.Current.Label), fmt.Sprintf("%s / %d orders", money(c.Current.Revenue), c.Current.OrderCount))
	keyValue(pdf, text(c.Previous.Label), fmt.Sprintf("%s / %d orders", money(c.Previous.Revenue), c.Previous.OrderCount))
	keyValue(pdf, "Change", fmt.Sprintf("revenue %s, orders %s", stats.FormatPct(c.RevenueDeltaPct), stats.FormatPct(c.OrderDeltaPct)))

	if len(r.Monthly) > 0 {
		section(pdf, "Monthly revenue")
		widths := []float64{60, 40, 60}
		tableHeader(pdf, widths, []string{"Month", "Orders", "Revenue"})
		for _, m := range r.Monthly {
			tableRow(pdf, widths, []string{text(m.Label), strconv.Itoa(m.OrderCount), money(m.Revenue)})
		}
	}

	section(pdf, "Daily revenue")
	if len(r.Daily) == 0 {
		pdf.CellFormat(0, 5, "No orders in this period.", "", 1, "L", false, 0, "")
	} else {
		widths := []float64{40, 30, 50}
		tableHeader(pdf, widths, []string{"Day", "Orders", "Revenue"})
		for _, d := range r.Daily {
			tableRow(pdf, widths, []string{d.Day.Format("2006-01-02"), strconv.Itoa(d.OrderCount), money(d.Revenue)})
		}
	}

	section(pdf, "Top products")
	if len(r.Top) == 0 {
		pdf.CellFormat(0, 5, "No products sold in this period.", "", 1, "L", false, 0, "")
	} else {
		widths := []float64{10, 90, 25, 50}
		tableHeader(pdf, widths, []string{"#", "Product", "Qty", "Revenue"})
		for i, p := range r.Top {
			tableRow(pdf, widths, []string{strconv.Itoa(i + 1), text(p.Name), strconv.Itoa(p.Quantity), money(p.Revenue)})
		}
	}

	section(pdf, "Orders")
	list := r.Orders
	if len(list) > maxPDFOrders {
		list = list[:maxPDFOrders]
	}
	if len(list) == 0 {
		pdf.CellFormat(0, 5, "No orders in this period.", "", 1, "L", false, 0, "")
	} else {
		widths := []float64{32, 45, 45, 18, 46}
		tableHeader(pdf, widths, []string{"Time", "Order", "Customer", "Qty", "Total"})
		for _, o := range list {
			tableRow(pdf, widths, []string{
				stats.OrderTime(o),
				text(o.OrderID),
				text(o.Customer),
				strconv.Itoa(o.TotalQuantity),
				money(o.TotalAmount),
			})
		}
		if len(r.Orders) > len(list) {
			pdf.CellFormat(0, 5, fmt.Sprintf("... and %d more", len(r.Orders)-len(list)), "", 1, "L", false, 0, "")
		}
	}

	if len(r.Warnings) > 0 {
		section(pdf, fmt.Sprintf("Warnings (%d)", len(r.Warnings)))
		for _, warn := range r.Warnings {
			pdf.MultiCell(0, 4, text(warn.OrderID+": "+warn.Reason), "", "L", false)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, title, "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
}

func keyValue(pdf *gofpdf.Fpdf, key, value string) {
	pdf.CellFormat(50, 5, key, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, value, "", 1, "L", false, 0, "")
}

func tableHeader(pdf *gofpdf.Fpdf, widths []float64, cells []string) {
	pdf.SetFont("Arial", "B", 9)
	tableRow(pdf, widths, cells)
	pdf.SetFont("Arial", "", 9)
}

func tableRow(pdf *gofpdf.Fpdf, widths []float64, cells []string) {
	for i, cell := range cells {
		align := "L"
		if i == len(cells)-1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 5, cell, "", 0, align, false, 0, "")
	}
	pdf.Ln(5)
}

func windowLine(r stats.Report) string {
	start := r.WindowStart.Format("2006-01-02")
	if r.WindowEnd == nil {
		return "Since " + start
	}
	last := r.WindowEnd.Add(-time.Nanosecond).Format("2006-01-02")
	if last == start {
		return start
	}
	return start + " to " + last
}

// latin1 replaces runes the core PDF fonts cannot draw.
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xff {
			return '?'
		}
		return r
	}, s)
}
