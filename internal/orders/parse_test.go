package orders

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
)

func TestParseTotals(t *testing.T) {
	raw := model.RawRecord{
		CreatedTime: "2025-08-26T01:35:55+0000",
		Sender:      "Bhone Khant",
		OrderID:     "ORD-20250826-5b1abb",
		Item:        `[{"item":"Redmi note12","price_per_unit":15000,"quantity":1,"subtotal":15000},{"item":"Gannng","price_per_unit":30000,"quantity":2,"subtotal":60000},{"item":"Lamba","price_per_unit":2400,"quantity":3,"subtotal":7200}]`,
	}
	order, err := Parse(raw, time.UTC)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(order.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(order.Items))
	}
	if !order.TotalAmount.Equal(decimal.NewFromInt(82200)) {
		t.Fatalf("expected total 82200, got %s", order.TotalAmount)
	}
	if order.TotalQuantity != 6 {
		t.Fatalf("expected quantity 6, got %d", order.TotalQuantity)
	}
	want := time.Date(2025, 8, 26, 1, 35, 55, 0, time.UTC)
	if !order.CreatedAt.Equal(want) {
		t.Fatalf("expected %s, got %s", want, order.CreatedAt)
	}
	if order.Customer != "Bhone Khant" || order.OrderID != "ORD-20250826-5b1abb" {
		t.Fatalf("unexpected identity fields: %+v", order)
	}
}

func TestParseTrustsSourceSubtotal(t *testing.T) {
	raw := model.RawRecord{
		OrderID: "ORD-1",
		Item:    `[{"item":"A","price_per_unit":100,"quantity":2,"subtotal":150}]`,
	}
	order, err := Parse(raw, time.UTC)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !order.TotalAmount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected source subtotal 150, got %s", order.TotalAmount)
	}
}

func TestParseEmptyArray(t *testing.T) {
	order, err := Parse(model.RawRecord{OrderID: "ORD-1", Item: "[]"}, time.UTC)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(order.Items) != 0 || !order.TotalAmount.IsZero() || order.TotalQuantity != 0 {
		t.Fatalf("expected zero order, got %+v", order)
	}
}

func TestParseDecodeFailures(t *testing.T) {
	cases := []struct {
		name string
		item string
	}{
		{name: "not json", item: "not json"},
		{name: "empty", item: ""},
		{name: "object", item: `{"item":"A"}`},
		{name: "null", item: "null"},
		{name: "missing subtotal", item: `[{"item":"A","price_per_unit":1,"quantity":1}]`},
		{name: "wrong type", item: `[{"item":"A","price_per_unit":1,"quantity":"two","subtotal":2}]`},
		{name: "truncated", item: `[{"item":"A","price_per_unit":1,`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order, err := Parse(model.RawRecord{OrderID: "ORD-9", Sender: "Aye", Item: tc.item}, time.UTC)
			var derr *DecodeError
			if !errors.As(err, &derr) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
			if derr.OrderID != "ORD-9" {
				t.Fatalf("expected error keyed by order id, got %q", derr.OrderID)
			}
			if len(order.Items) != 0 || !order.TotalAmount.IsZero() || order.TotalQuantity != 0 {
				t.Fatalf("expected zero order, got %+v", order)
			}
			if order.OrderID != "ORD-9" || order.Customer != "Aye" {
				t.Fatalf("expected identity fields to survive, got %+v", order)
			}
		})
	}
}

func TestParseAllKeepsOneOrderPerRow(t *testing.T) {
	raws := []model.RawRecord{
		{OrderID: "A", CreatedTime: "2025-08-26T01:35:55+0000", Item: `[{"item":"A","price_per_unit":100,"quantity":2,"subtotal":200}]`},
		{OrderID: "B", CreatedTime: "garbage", Item: "not json"},
		{OrderID: "C", CreatedTime: "2025-08-24 14:30:45", Item: `[{"item":"A","price_per_unit":100,"quantity":1,"subtotal":100}]`},
	}
	out, warnings := ParseAll(raws, time.UTC, zaptest.NewLogger(t))
	if len(out) != len(raws) {
		t.Fatalf("expected %d orders, got %d", len(raws), len(out))
	}
	if len(warnings) != 1 || warnings[0].OrderID != "B" {
		t.Fatalf("expected one warning for B, got %+v", warnings)
	}
	if out[1].HasTime() {
		t.Fatalf("expected unparsable timestamp to stay zero")
	}
	if !out[2].TotalAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected later rows to parse, got %s", out[2].TotalAmount)
	}
}

func TestParseTimeLayouts(t *testing.T) {
	loc := time.FixedZone("MMT", 6*3600+1800)
	cases := []struct {
		in   string
		want time.Time
	}{
		{in: "2025-08-26T01:35:55+0000", want: time.Date(2025, 8, 26, 1, 35, 55, 0, time.UTC)},
		{in: "2025-08-26T01:35:55Z", want: time.Date(2025, 8, 26, 1, 35, 55, 0, time.UTC)},
		{in: "2025-08-26 08:05:55", want: time.Date(2025, 8, 26, 8, 5, 55, 0, loc)},
		{in: "8/26/2025 8:05:55", want: time.Date(2025, 8, 26, 8, 5, 55, 0, loc)},
		{in: "2025-08-26", want: time.Date(2025, 8, 26, 0, 0, 0, 0, loc)},
	}
	for _, tc := range cases {
		got, ok := ParseTime(tc.in, loc)
		if !ok {
			t.Fatalf("expected %q to parse", tc.in)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ParseTime(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
	if _, ok := ParseTime("yesterday-ish", loc); ok {
		t.Fatalf("expected garbage to fail")
	}
}
