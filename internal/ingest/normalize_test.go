package ingest

import (
	"encoding/json"
	"testing"
)

func TestNormalizeHeaderVariants(t *testing.T) {
	cases := []struct {
		name string
		row  map[string]string
	}{
		{name: "exact", row: map[string]string{"order_id": "ORD-1"}},
		{name: "mixed case with space", row: map[string]string{"Order Id": "ORD-1"}},
		{name: "upper snake", row: map[string]string{"Order_ID": "ORD-1"}},
		{name: "padded", row: map[string]string{"  order id  ": "ORD-1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := Normalize(tc.row)
			if rec.OrderID != "ORD-1" {
				t.Fatalf("expected order id ORD-1, got %q", rec.OrderID)
			}
		})
	}
}

func TestNormalizeSynonyms(t *testing.T) {
	rec := Normalize(map[string]string{
		"Created Time": "2025-08-26T01:35:55+0000",
		"Buyer Name":   "Bhone Khant",
		"Items":        `[{"item":"A","price_per_unit":1,"quantity":1,"subtotal":1}]`,
	})
	if rec.CreatedTime != "2025-08-26T01:35:55+0000" {
		t.Fatalf("unexpected created time: %q", rec.CreatedTime)
	}
	if rec.Sender != "Bhone Khant" {
		t.Fatalf("unexpected sender: %q", rec.Sender)
	}
	if rec.Item == "" {
		t.Fatalf("expected items column to map onto item")
	}
}

func TestNormalizeExactMatchWins(t *testing.T) {
	rec := Normalize(map[string]string{
		"Sender": "folded",
		"sender": "exact",
	})
	if rec.Sender != "exact" {
		t.Fatalf("expected exact header to win, got %q", rec.Sender)
	}
}

func TestNormalizeMissingFieldsAreEmpty(t *testing.T) {
	rec := Normalize(map[string]string{"unrelated": "x"})
	if rec.CreatedTime != "" || rec.Sender != "" || rec.OrderID != "" || rec.Item != "" {
		t.Fatalf("expected empty record, got %+v", rec)
	}
	rec = Normalize(nil)
	if rec.OrderID != "" {
		t.Fatalf("expected empty record for nil row, got %+v", rec)
	}
}

func TestUnescapeItem(t *testing.T) {
	valid := `[{"item":"A","price_per_unit":100,"quantity":2,"subtotal":200}]`
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "already valid", in: valid, want: valid},
		{name: "doubled quotes", in: `[{""item"":""A"",""price_per_unit"":100,""quantity"":2,""subtotal"":200}]`, want: valid},
		{name: "wrapped", in: `"[{""item"":""A"",""price_per_unit"":100,""quantity"":2,""subtotal"":200}]"`, want: valid},
		{name: "carriage returns", in: "[{\"item\":\"A\",\r\n\"price_per_unit\":100,\"quantity\":2,\"subtotal\":200}]", want: "[{\"item\":\"A\",\n\"price_per_unit\":100,\"quantity\":2,\"subtotal\":200}]"},
		{name: "empty", in: "", want: ""},
		{name: "garbage", in: "not json", want: "not json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := UnescapeItem(tc.in)
			if got != tc.want {
				t.Fatalf("UnescapeItem(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestUnescapeItemKeepsEmptyJSONStrings(t *testing.T) {
	in := `[{"item":"","price_per_unit":0,"quantity":0,"subtotal":0}]`
	got := UnescapeItem(in)
	if got != in {
		t.Fatalf("expected valid JSON untouched, got %q", got)
	}
	if !json.Valid([]byte(got)) {
		t.Fatalf("expected valid JSON")
	}
}
