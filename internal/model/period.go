package model

import (
	"fmt"
	"strings"
)

// Period names a reporting window.
type Period string

// Supported reporting windows.
const (
	PeriodToday       Period = "today"
	PeriodYesterday   Period = "yesterday"
	PeriodLastWeek    Period = "last_week"
	PeriodThisMonth   Period = "this_month"
	PeriodLastMonth   Period = "last_month"
	PeriodLast3Months Period = "last_3_months"
	PeriodLast6Months Period = "last_6_months"
)

// Periods lists every window in selector order.
var Periods = []Period{
	PeriodToday,
	PeriodYesterday,
	PeriodLastWeek,
	PeriodThisMonth,
	PeriodLastMonth,
	PeriodLast3Months,
	PeriodLast6Months,
}

var periodLabels = map[Period]string{
	PeriodToday:       "Today",
	PeriodYesterday:   "Yesterday",
	PeriodLastWeek:    "Last 7 days",
	PeriodThisMonth:   "This month",
	PeriodLastMonth:   "Last 30 days",
	PeriodLast3Months: "Last 3 months",
	PeriodLast6Months: "Last 6 months",
}

var periodLabelsMy = map[Period]string{
	PeriodToday:       "ယနေ့",
	PeriodYesterday:   "မနေ့က",
	PeriodLastWeek:    "ပြီးခဲ့သောအပတ်",
	PeriodThisMonth:   "ယခုလ",
	PeriodLastMonth:   "ပြီးခဲ့သောလ",
	PeriodLast3Months: "ပြီးခဲ့သော ၃ လ",
	PeriodLast6Months: "ပြီးခဲ့သော ၆ လ",
}

// ParsePeriod accepts a period name; dashes and case are ignored.
func ParsePeriod(s string) (Period, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	for _, p := range Periods {
		if string(p) == key {
			return p, nil
		}
	}
	names := make([]string, len(Periods))
	for i, p := range Periods {
		names[i] = string(p)
	}
	return "", fmt.Errorf("unknown period %q (available: %s)", s, strings.Join(names, ", "))
}

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	_, ok := periodLabels[p]
	return ok
}

// Label returns a display label. locale "my" selects Burmese.
func (p Period) Label(locale string) string {
	if locale == "my" {
		if label, ok := periodLabelsMy[p]; ok {
			return label
		}
	}
	if label, ok := periodLabels[p]; ok {
		return label
	}
	return string(p)
}

// MultiMonth reports whether the window spans several calendar months.
func (p Period) MultiMonth() bool {
	return p == PeriodLast3Months || p == PeriodLast6Months
}

// Index returns the selector position of p, or -1.
func (p Period) Index() int {
	for i, candidate := range Periods {
		if candidate == p {
			return i
		}
	}
	return -1
}
