// Package orders turns raw records into canonical orders.
package orders

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
)

// timeLayouts are tried in order when parsing created_time.
var timeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2006-01-02",
}

// DecodeError reports an item list that could not be decoded.
type DecodeError struct {
	OrderID string
	Reason  string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order %q: %s: %v", e.OrderID, e.Reason, e.Err)
	}
	return fmt.Sprintf("order %q: %s", e.OrderID, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type itemJSON struct {
	Item         *string          `json:"item"`
	PricePerUnit *decimal.Decimal `json:"price_per_unit"`
	Quantity     *int             `json:"quantity"`
	Subtotal     *decimal.Decimal `json:"subtotal"`
}

// Parse converts a raw record into an order. On a decode failure the order is
// still returned, with no items and zero totals, alongside a *DecodeError.
func Parse(raw model.RawRecord, loc *time.Location) (model.Order, error) {
	order := model.Order{
		CreatedRaw:  raw.CreatedTime,
		Customer:    raw.Sender,
		OrderID:     raw.OrderID,
		Items:       []model.LineItem{},
		TotalAmount: decimal.Zero,
	}
	if ts, ok := ParseTime(raw.CreatedTime, loc); ok {
		order.CreatedAt = ts
	}

	items, err := decodeItems(raw.OrderID, raw.Item)
	if err != nil {
		return order, err
	}
	order.Items = items
	order.TotalAmount, order.TotalQuantity = Totals(items)
	return order, nil
}

// ParseAll parses every record. The result always has one order per record;
// decode failures are logged and returned as warnings.
func ParseAll(raws []model.RawRecord, loc *time.Location, logger *zap.Logger) ([]model.Order, []*DecodeError) {
	if logger == nil {
		logger = zap.NewNop()
	}
	out := make([]model.Order, 0, len(raws))
	var warnings []*DecodeError
	for _, raw := range raws {
		order, err := Parse(raw, loc)
		if err != nil {
			var derr *DecodeError
			if !errors.As(err, &derr) {
				derr = &DecodeError{OrderID: raw.OrderID, Reason: "unexpected error", Err: err}
			}
			warnings = append(warnings, derr)
			logger.Warn("order items could not be decoded",
				zap.String("order_id", raw.OrderID),
				zap.Error(derr),
			)
		}
		if !order.HasTime() {
			logger.Debug("order timestamp could not be parsed",
				zap.String("order_id", raw.OrderID),
				zap.String("created_time", raw.CreatedTime),
			)
		}
		out = append(out, order)
	}
	return out, warnings
}

// Totals sums subtotals and quantities of the items.
func Totals(items []model.LineItem) (decimal.Decimal, int) {
	amount := decimal.Zero
	quantity := 0
	for _, item := range items {
		amount = amount.Add(item.Subtotal)
		quantity += item.Quantity
	}
	return amount, quantity
}

// ParseTime parses a source timestamp. Layouts without an offset are read in
// loc (time.Local when nil).
func ParseTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func decodeItems(orderID, text string) ([]model.LineItem, error) {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) == 0 {
		return nil, &DecodeError{OrderID: orderID, Reason: "item list is empty"}
	}
	if trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			return nil, &DecodeError{OrderID: orderID, Reason: "item list is not valid JSON"}
		}
		return nil, &DecodeError{OrderID: orderID, Reason: "item list is not a JSON array"}
	}

	var raw []itemJSON
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &DecodeError{OrderID: orderID, Reason: "item list is not valid JSON", Err: err}
	}

	items := make([]model.LineItem, 0, len(raw))
	for i, entry := range raw {
		missing := missingFields(entry)
		if len(missing) > 0 {
			return nil, &DecodeError{
				OrderID: orderID,
				Reason:  fmt.Sprintf("item %d is missing %s", i, strings.Join(missing, ", ")),
			}
		}
		items = append(items, model.LineItem{
			Name:      *entry.Item,
			UnitPrice: *entry.PricePerUnit,
			Quantity:  *entry.Quantity,
			Subtotal:  *entry.Subtotal,
		})
	}
	return items, nil
}

func missingFields(entry itemJSON) []string {
	var missing []string
	if entry.Item == nil {
		missing = append(missing, "item")
	}
	if entry.PricePerUnit == nil {
		missing = append(missing, "price_per_unit")
	}
	if entry.Quantity == nil {
		missing = append(missing, "quantity")
	}
	if entry.Subtotal == nil {
		missing = append(missing, "subtotal")
	}
	return missing
}
