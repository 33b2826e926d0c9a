// Package period classifies orders into calendar-anchored reporting windows.
package period

import (
	"time"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
)

// Window is a half-open range [Start, End). A zero End means open-ended.
type Window struct {
	Period model.Period
	Start  time.Time
	End    time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if t.IsZero() || t.Before(w.Start) {
		return false
	}
	return w.End.IsZero() || t.Before(w.End)
}

// StartOfDay returns local midnight of t in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfMonth returns midnight on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// Bounds computes the window for p relative to now, anchored to midnight in
// now's location. Unknown periods yield an empty window.
func Bounds(now time.Time, p model.Period) Window {
	today0 := StartOfDay(now)
	w := Window{Period: p}
	switch p {
	case model.PeriodToday:
		w.Start, w.End = today0, today0.AddDate(0, 0, 1)
	case model.PeriodYesterday:
		w.Start, w.End = today0.AddDate(0, 0, -1), today0
	case model.PeriodLastWeek:
		w.Start, w.End = today0.AddDate(0, 0, -7), today0
	case model.PeriodLastMonth:
		w.Start, w.End = today0.AddDate(0, 0, -30), today0
	case model.PeriodLast3Months:
		w.Start, w.End = today0.AddDate(0, 0, -90), today0
	case model.PeriodLast6Months:
		w.Start, w.End = today0.AddDate(0, 0, -180), today0
	case model.PeriodThisMonth:
		w.Start = StartOfMonth(now)
	default:
		w.Start, w.End = today0, today0
	}
	return w
}

// Filter returns the orders whose timestamp lies in window p. Orders without
// a parsed timestamp never match. The input slice is not modified.
func Filter(orders []model.Order, now time.Time, p model.Period) []model.Order {
	w := Bounds(now, p)
	loc := now.Location()
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if !o.HasTime() {
			continue
		}
		if w.Contains(o.CreatedAt.In(loc)) {
			out = append(out, o)
		}
	}
	return out
}
