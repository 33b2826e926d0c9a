// Package sample provides built-in and generated demo sales rows.
package sample

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"time"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
)

// Source labels rows that did not come from a configured source.
const Source = "sample"

// CreatedLayout matches the timestamps the order sheet exports.
const CreatedLayout = "2006-01-02T15:04:05-0700"

// Rows returns the built-in sample orders.
func Rows() []model.RawRecord {
	return []model.RawRecord{
		{
			CreatedTime: "2025-08-26T01:35:55+0000",
			Sender:      "Bhone Khant",
			OrderID:     "ORD-20250826-5b1abb",
			Item:        `[{"item":"Redmi note12","price_per_unit":15000,"quantity":1,"subtotal":15000},{"item":"Gannng","price_per_unit":30000,"quantity":2,"subtotal":60000},{"item":"Lamba","price_per_unit":2400,"quantity":3,"subtotal":7200}]`,
		},
		{
			CreatedTime: "2025-08-26T19:41:34+0000",
			Sender:      "Ahha lala",
			OrderID:     "ORD-20250826-41afdf",
			Item:        `[{"item":"Tomato sauce","price_per_unit":12000,"quantity":1,"subtotal":12000},{"item":"Ginger","price_per_unit":30000,"quantity":2,"subtotal":60000},{"item":"Nano","price_per_unit":24000,"quantity":1,"subtotal":24000}]`,
		},
		{
			CreatedTime: "2025-08-25T10:15:20+0000",
			Sender:      "John Doe",
			OrderID:     "ORD-20250825-abc123",
			Item:        `[{"item":"iPhone 15","price_per_unit":450000,"quantity":1,"subtotal":450000}]`,
		},
		{
			CreatedTime: "2025-08-24T14:30:45+0000",
			Sender:      "Jane Smith",
			OrderID:     "ORD-20250824-def456",
			Item:        `[{"item":"Samsung Galaxy","price_per_unit":320000,"quantity":1,"subtotal":320000},{"item":"Case","price_per_unit":5000,"quantity":2,"subtotal":10000}]`,
		},
	}
}

type product struct {
	name  string
	price int64
}

var catalog = []product{
	{name: "Redmi note12", price: 15000},
	{name: "iPhone 15", price: 450000},
	{name: "Samsung Galaxy", price: 320000},
	{name: "Case", price: 5000},
	{name: "Tomato sauce", price: 12000},
	{name: "Ginger", price: 30000},
	{name: "Lamba", price: 2400},
	{name: "လက်ဖက်သုပ်", price: 3500},
	{name: "မုန့်ဟင်းခါး", price: 2500},
	{name: "ထမင်းကြော်", price: 4000},
}

var customers = []string{
	"Bhone Khant", "Ahha lala", "John Doe", "Jane Smith",
	"မောင်မောင်", "အေးအေး", "ကိုကို", "Su Su", "Zaw Min", "Thandar",
}

// Window is how far back generated orders reach.
const Window = 180 * 24 * time.Hour

// Generator produces randomized demo orders.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

type itemJSON struct {
	Item         string `json:"item"`
	PricePerUnit int64  `json:"price_per_unit"`
	Quantity     int    `json:"quantity"`
	Subtotal     int64  `json:"subtotal"`
}

// Generate builds count rows spread over the Window before now, oldest first.
func (g *Generator) Generate(count int, now time.Time) []model.RawRecord {
	if count <= 0 {
		return nil
	}
	offsets := make([]time.Duration, count)
	for i := range offsets {
		offsets[i] = time.Duration(g.rnd.Int63n(int64(Window)))
	}
	// Larger offsets are older.
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] > offsets[j] })

	out := make([]model.RawRecord, 0, count)
	for _, off := range offsets {
		created := now.Add(-off).UTC()
		out = append(out, model.RawRecord{
			CreatedTime: created.Format(CreatedLayout),
			Sender:      customers[g.rnd.Intn(len(customers))],
			OrderID:     fmt.Sprintf("ORD-%s-%06x", created.Format("20060102"), g.rnd.Intn(1<<24)),
			Item:        g.items(),
		})
	}
	return out
}

func (g *Generator) items() string {
	n := 1 + g.rnd.Intn(3)
	picked := g.rnd.Perm(len(catalog))[:n]
	items := make([]itemJSON, 0, n)
	for _, idx := range picked {
		p := catalog[idx]
		qty := 1 + g.rnd.Intn(3)
		items = append(items, itemJSON{
			Item:         p.name,
			PricePerUnit: p.price,
			Quantity:     qty,
			Subtotal:     p.price * int64(qty),
		})
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// WriteCSV writes rows with the canonical header.
func WriteCSV(w io.Writer, rows []model.RawRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"created_time", "sender", "order_id", "item"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.CreatedTime, r.Sender, r.OrderID, r.Item}); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
