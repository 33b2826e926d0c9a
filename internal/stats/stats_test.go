package stats

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
)

var yangon = time.FixedZone("MMT", 6*3600+1800)

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func order(id string, at time.Time, items ...model.LineItem) model.Order {
	o := model.Order{OrderID: id, CreatedAt: at, Items: items, TotalAmount: decimal.Zero}
	for _, item := range items {
		o.TotalAmount = o.TotalAmount.Add(item.Subtotal)
		o.TotalQuantity += item.Quantity
	}
	return o
}

func line(name string, price int64, qty int) model.LineItem {
	return model.LineItem{Name: name, UnitPrice: dec(price), Quantity: qty, Subtotal: dec(price * int64(qty))}
}

func TestSummaryAndTopForSingleProduct(t *testing.T) {
	day := time.Date(2026, 10, 17, 10, 0, 0, 0, yangon)
	sample := []model.Order{
		order("1", day, line("A", 100, 2)),
		order("2", day.Add(time.Hour), line("A", 100, 1)),
	}
	s := Summary(sample)
	if !s.TotalRevenue.Equal(dec(300)) || s.OrderCount != 2 || s.TotalItems != 3 || !s.AverageOrderValue.Equal(dec(150)) {
		t.Fatalf("unexpected summary: %+v", s)
	}
	top := TopProducts(sample, TopN)
	if len(top) != 1 {
		t.Fatalf("expected 1 product, got %d", len(top))
	}
	if top[0].Name != "A" || !top[0].Revenue.Equal(dec(300)) || top[0].Quantity != 3 {
		t.Fatalf("unexpected ranking: %+v", top[0])
	}
}

func TestSummaryEmptyHasZeroAverage(t *testing.T) {
	s := Summary(nil)
	if s.OrderCount != 0 || !s.AverageOrderValue.IsZero() || !s.TotalRevenue.IsZero() {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestSummaryTotalsMatchOrders(t *testing.T) {
	day := time.Date(2026, 10, 17, 10, 0, 0, 0, yangon)
	sample := []model.Order{
		order("1", day, line("A", 1500, 2), line("B", 700, 1)),
		order("2", day, line("C", 2400, 3)),
		order("3", day),
	}
	s := Summary(sample)
	if !s.TotalRevenue.Equal(dec(10900)) || s.TotalItems != 6 {
		t.Fatalf("unexpected totals: %+v", s)
	}
}

func TestTopProductsBoundedAndStable(t *testing.T) {
	day := time.Date(2026, 10, 17, 10, 0, 0, 0, yangon)
	sample := []model.Order{
		order("1", day, line("tie-first", 100, 1), line("big", 1000, 1)),
		order("2", day, line("tie-second", 100, 1), line("b", 500, 1)),
		order("3", day, line("c", 400, 1), line("d", 300, 1), line("e", 50, 1)),
	}
	top := TopProducts(sample, TopN)
	if len(top) != TopN {
		t.Fatalf("expected %d products, got %d", TopN, len(top))
	}
	want := []string{"big", "b", "c", "d", "tie-first"}
	for i, name := range want {
		if top[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, top[i].Name)
		}
	}
	for i := 1; i < len(top); i++ {
		if top[i].Revenue.GreaterThan(top[i-1].Revenue) {
			t.Fatalf("ranking not descending at %d", i)
		}
	}
	if got := TopProducts(sample, 0); got != nil {
		t.Fatalf("expected nil for n=0, got %+v", got)
	}
}

func TestDailyGroupsByLocalDate(t *testing.T) {
	sample := []model.Order{
		order("late", time.Date(2026, 10, 16, 23, 0, 0, 0, yangon), line("A", 100, 1)),
		// 18:00 UTC is 00:30 on the 17th in Yangon.
		order("utc", time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC), line("A", 200, 1)),
		order("early", time.Date(2026, 10, 15, 8, 0, 0, 0, yangon), line("A", 50, 1)),
		{OrderID: "no-time", TotalAmount: dec(999)},
	}
	points := Daily(sample, yangon)
	if len(points) != 3 {
		t.Fatalf("expected 3 days, got %d", len(points))
	}
	wantDays := []int{15, 16, 17}
	wantRevenue := []int64{50, 100, 200}
	for i, p := range points {
		if p.Day.Day() != wantDays[i] || !p.Revenue.Equal(dec(wantRevenue[i])) || p.OrderCount != 1 {
			t.Fatalf("point %d: unexpected %+v", i, p)
		}
		if p.Day.Hour() != 0 || p.Day.Location() != yangon {
			t.Fatalf("point %d: expected local midnight, got %s", i, p.Day)
		}
	}
}

func TestMonthlyBreakdown(t *testing.T) {
	sample := []model.Order{
		order("oct", time.Date(2026, 10, 2, 9, 0, 0, 0, yangon), line("A", 100, 1)),
		order("aug", time.Date(2026, 8, 30, 9, 0, 0, 0, yangon), line("A", 300, 1)),
		order("oct2", time.Date(2026, 10, 9, 9, 0, 0, 0, yangon), line("A", 100, 2)),
	}
	points := Monthly(sample, yangon)
	if len(points) != 2 {
		t.Fatalf("expected 2 months, got %d", len(points))
	}
	if points[0].Label != "August 2026" || !points[0].Revenue.Equal(dec(300)) {
		t.Fatalf("unexpected first month: %+v", points[0])
	}
	if points[1].Label != "October 2026" || !points[1].Revenue.Equal(dec(300)) || points[1].OrderCount != 2 {
		t.Fatalf("unexpected second month: %+v", points[1])
	}
}

func TestCompareMonths(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, yangon)
	sample := []model.Order{
		order("cur1", time.Date(2026, 10, 1, 0, 0, 0, 0, yangon), line("A", 300, 1)),
		order("cur2", time.Date(2026, 10, 17, 11, 0, 0, 0, yangon), line("A", 300, 1)),
		order("future", time.Date(2026, 10, 20, 0, 0, 0, 0, yangon), line("A", 1000, 1)),
		order("prev", time.Date(2026, 9, 30, 23, 59, 0, 0, yangon), line("A", 400, 1)),
		order("old", time.Date(2026, 8, 31, 0, 0, 0, 0, yangon), line("A", 999, 1)),
	}
	c := CompareMonths(sample, now)
	if c.Current.Label != "October 2026" || c.Previous.Label != "September 2026" {
		t.Fatalf("unexpected labels: %q %q", c.Current.Label, c.Previous.Label)
	}
	if !c.Current.Revenue.Equal(dec(600)) || c.Current.OrderCount != 2 {
		t.Fatalf("unexpected current totals: %+v", c.Current)
	}
	if !c.Previous.Revenue.Equal(dec(400)) || c.Previous.OrderCount != 1 {
		t.Fatalf("unexpected previous totals: %+v", c.Previous)
	}
	if c.RevenueDeltaPct != 50 || c.OrderDeltaPct != 100 {
		t.Fatalf("unexpected deltas: %v %v", c.RevenueDeltaPct, c.OrderDeltaPct)
	}
}

func TestCompareMonthsZeroPrevious(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, yangon)
	sample := []model.Order{order("cur", time.Date(2026, 1, 2, 0, 0, 0, 0, yangon), line("A", 300, 1))}
	c := CompareMonths(sample, now)
	if c.Previous.Label != "December 2025" {
		t.Fatalf("expected previous month across the year boundary, got %q", c.Previous.Label)
	}
	if c.RevenueDeltaPct != 0 || c.OrderDeltaPct != 0 {
		t.Fatalf("expected zero deltas, got %v %v", c.RevenueDeltaPct, c.OrderDeltaPct)
	}
}

func TestDeltaPctRounds(t *testing.T) {
	if got := DeltaPct(dec(1), dec(3)); got != -66.67 {
		t.Fatalf("expected -66.67, got %v", got)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("unexpected sparkline: %q", got)
	}
	if got := Sparkline([]float64{2, 2, 2}); len(got) != 3 {
		t.Fatalf("expected one char per value, got %q", got)
	}
}
