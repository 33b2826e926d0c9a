// Package model defines shared data structures.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawRecord is one source row mapped onto the canonical columns.
type RawRecord struct {
	CreatedTime string `json:"created_time" yaml:"created_time"`
	Sender      string `json:"sender" yaml:"sender"`
	OrderID     string `json:"order_id" yaml:"order_id"`
	Item        string `json:"item" yaml:"item"`
}

// LineItem is a single product line inside an order.
type LineItem struct {
	Name      string          `json:"name" yaml:"name"`
	UnitPrice decimal.Decimal `json:"unit_price" yaml:"unit_price"`
	Quantity  int             `json:"quantity" yaml:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal" yaml:"subtotal"`
}

// Order is the canonical, parsed representation of one sales transaction.
// A zero CreatedAt means the source timestamp could not be parsed.
type Order struct {
	CreatedAt     time.Time       `json:"created_at" yaml:"created_at"`
	CreatedRaw    string          `json:"created_raw" yaml:"created_raw"`
	Customer      string          `json:"customer" yaml:"customer"`
	OrderID       string          `json:"order_id" yaml:"order_id"`
	Items         []LineItem      `json:"items" yaml:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount" yaml:"total_amount"`
	TotalQuantity int             `json:"total_quantity" yaml:"total_quantity"`
}

// HasTime reports whether the order timestamp was parsed.
func (o Order) HasTime() bool {
	return !o.CreatedAt.IsZero()
}

// SummaryMetrics are the headline totals for a set of orders.
type SummaryMetrics struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue" yaml:"total_revenue"`
	OrderCount        int             `json:"order_count" yaml:"order_count"`
	TotalItems        int             `json:"total_items" yaml:"total_items"`
	AverageOrderValue decimal.Decimal `json:"average_order_value" yaml:"average_order_value"`
}

// DailyPoint aggregates one calendar day. Day is midnight of that day.
type DailyPoint struct {
	Day        time.Time       `json:"day" yaml:"day"`
	Revenue    decimal.Decimal `json:"revenue" yaml:"revenue"`
	OrderCount int             `json:"order_count" yaml:"order_count"`
}

// ProductRank is one entry of the best-selling products ranking.
type ProductRank struct {
	Name     string          `json:"name" yaml:"name"`
	Revenue  decimal.Decimal `json:"revenue" yaml:"revenue"`
	Quantity int             `json:"quantity" yaml:"quantity"`
}

// MonthTotals holds revenue and order count for one calendar month.
type MonthTotals struct {
	Label      string          `json:"label" yaml:"label"`
	Revenue    decimal.Decimal `json:"revenue" yaml:"revenue"`
	OrderCount int             `json:"order_count" yaml:"order_count"`
}

// MonthComparison compares the current calendar month with the previous one.
type MonthComparison struct {
	Current         MonthTotals `json:"current" yaml:"current"`
	Previous        MonthTotals `json:"previous" yaml:"previous"`
	RevenueDeltaPct float64     `json:"revenue_delta_pct" yaml:"revenue_delta_pct"`
	OrderDeltaPct   float64     `json:"order_delta_pct" yaml:"order_delta_pct"`
}

// MonthlyPoint aggregates one calendar month of a multi-month window.
type MonthlyPoint struct {
	Month      time.Time       `json:"month" yaml:"month"`
	Label      string          `json:"label" yaml:"label"`
	Revenue    decimal.Decimal `json:"revenue" yaml:"revenue"`
	OrderCount int             `json:"order_count" yaml:"order_count"`
}

// Settings are the persisted data source preferences.
type Settings struct {
	SourceURL string
	AutoSync  bool
	Locked    bool
}

// Snapshot describes one stored sync of the data source.
type Snapshot struct {
	ID           string
	FetchedAt    time.Time
	Source       string
	RowCount     int
	WarningCount int
}
