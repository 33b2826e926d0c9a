package period

import (
	"testing"
	"time"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
)

var yangon = time.FixedZone("MMT", 6*3600+1800)

func orderAt(id string, t time.Time) model.Order {
	return model.Order{OrderID: id, CreatedAt: t}
}

func ids(orders []model.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.OrderID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTodayAndYesterdayAreExclusive(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 30, 0, 0, yangon)
	var sample []model.Order
	for h := 0; h < 24; h++ {
		sample = append(sample,
			orderAt("today", time.Date(2026, 10, 17, h, 59, 59, 0, yangon)),
			orderAt("yesterday", time.Date(2026, 10, 16, h, 0, 0, 0, yangon)),
			orderAt("older", time.Date(2026, 10, 15, h, 0, 0, 0, yangon)),
		)
	}
	today := Filter(sample, now, model.PeriodToday)
	yesterday := Filter(sample, now, model.PeriodYesterday)
	if len(today) != 24 || len(yesterday) != 24 {
		t.Fatalf("expected 24 orders each, got today=%d yesterday=%d", len(today), len(yesterday))
	}
	for _, o := range today {
		if o.OrderID != "today" {
			t.Fatalf("unexpected order in today: %s", o.OrderID)
		}
	}
	for _, o := range yesterday {
		if o.OrderID != "yesterday" {
			t.Fatalf("unexpected order in yesterday: %s", o.OrderID)
		}
	}
}

func TestTodayUsesNowLocation(t *testing.T) {
	// 2026-10-16T20:00Z is 02:30 on the 17th in Yangon.
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, yangon)
	sample := []model.Order{orderAt("a", time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC))}
	if got := Filter(sample, now, model.PeriodToday); len(got) != 1 {
		t.Fatalf("expected order to be local today, got %v", ids(got))
	}
	if got := Filter(sample, now, model.PeriodYesterday); len(got) != 0 {
		t.Fatalf("expected order not to be yesterday, got %v", ids(got))
	}
}

func TestRollingWindows(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, yangon)
	today0 := time.Date(2026, 10, 17, 0, 0, 0, 0, yangon)
	sample := []model.Order{
		orderAt("today", today0.Add(time.Hour)),
		orderAt("d1", today0.Add(-time.Second)),
		orderAt("d7", today0.AddDate(0, 0, -7)),
		orderAt("d7-", today0.AddDate(0, 0, -7).Add(-time.Second)),
		orderAt("d30", today0.AddDate(0, 0, -30)),
		orderAt("d90", today0.AddDate(0, 0, -90)),
		orderAt("d180", today0.AddDate(0, 0, -180)),
		orderAt("d181", today0.AddDate(0, 0, -181)),
	}
	cases := []struct {
		period model.Period
		want   []string
	}{
		{model.PeriodLastWeek, []string{"d1", "d7"}},
		{model.PeriodLastMonth, []string{"d1", "d7", "d7-", "d30"}},
		{model.PeriodLast3Months, []string{"d1", "d7", "d7-", "d30", "d90"}},
		{model.PeriodLast6Months, []string{"d1", "d7", "d7-", "d30", "d90", "d180"}},
	}
	for _, tc := range cases {
		got := ids(Filter(sample, now, tc.period))
		if !equalIDs(got, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.period, tc.want, got)
		}
	}
}

func TestThisMonthIsOpenEnded(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, yangon)
	sample := []model.Order{
		orderAt("first", time.Date(2026, 10, 1, 0, 0, 0, 0, yangon)),
		orderAt("prev", time.Date(2026, 9, 30, 23, 59, 59, 0, yangon)),
		orderAt("today", now),
		orderAt("future", time.Date(2026, 11, 3, 0, 0, 0, 0, yangon)),
	}
	got := ids(Filter(sample, now, model.PeriodThisMonth))
	want := []string{"first", "today", "future"}
	if !equalIDs(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestUnparsableTimestampNeverMatches(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, yangon)
	sample := []model.Order{{OrderID: "bad", CreatedRaw: "garbage"}}
	for _, p := range model.Periods {
		if got := Filter(sample, now, p); len(got) != 0 {
			t.Fatalf("%s: expected no match, got %v", p, ids(got))
		}
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, yangon)
	var sample []model.Order
	for d := 0; d < 200; d += 3 {
		sample = append(sample, orderAt("o", now.AddDate(0, 0, -d)))
	}
	for _, p := range model.Periods {
		once := Filter(sample, now, p)
		twice := Filter(once, now, p)
		if len(once) != len(twice) {
			t.Fatalf("%s: expected idempotent filter, got %d then %d", p, len(once), len(twice))
		}
		for i := range once {
			if !once[i].CreatedAt.Equal(twice[i].CreatedAt) {
				t.Fatalf("%s: order %d changed between passes", p, i)
			}
		}
	}
}

func TestBoundsAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// DST ends on 2026-11-01; a week back from the 3rd spans the change.
	now := time.Date(2026, 11, 3, 10, 0, 0, 0, loc)
	w := Bounds(now, model.PeriodLastWeek)
	want := time.Date(2026, 10, 27, 0, 0, 0, 0, loc)
	if !w.Start.Equal(want) {
		t.Fatalf("expected start %s, got %s", want, w.Start)
	}
}
