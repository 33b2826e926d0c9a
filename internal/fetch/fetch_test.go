package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

const sheetCSV = "created_time,sender,order_id,item\n" +
	`2025-08-26T01:35:55+0000,Bhone Khant,ORD-1,"[{""item"":""A"",""price_per_unit"":100,""quantity"":1,""subtotal"":100}]"` + "\n"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	return New(Options{Interval: time.Millisecond, Burst: 10, Logger: zaptest.NewLogger(t)})
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("expected user agent header")
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sheetCSV))
	}))
	defer srv.Close()

	rows, err := newTestClient(t).Fetch(context.Background(), srv.URL+"/sheet.csv")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(rows) != 1 || rows[0]["order_id"] != "ORD-1" || rows[0]["sender"] != "Bhone Khant" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(t).Fetch(context.Background(), srv.URL)
	var serr *StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if serr.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status code: %d", serr.StatusCode)
	}
}

func TestFetchRejectsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html>sign in</html>"))
	}))
	defer srv.Close()

	if _, err := newTestClient(t).Fetch(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected html response to fail")
	}
}

func TestFetchLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv")
	if err := os.WriteFile(path, []byte(sheetCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	client := newTestClient(t)
	for _, source := range []string{path, "file://" + path} {
		rows, err := client.Fetch(context.Background(), source)
		if err != nil {
			t.Fatalf("Fetch(%s) failed: %v", source, err)
		}
		if len(rows) != 1 {
			t.Fatalf("Fetch(%s): expected 1 row, got %d", source, len(rows))
		}
	}
}

func TestFetchHonorsRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sheetCSV))
	}))
	defer srv.Close()

	client := New(Options{Interval: time.Hour, Logger: zaptest.NewLogger(t)})
	if _, err := client.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.Fetch(ctx, srv.URL); err == nil {
		t.Fatalf("expected throttled fetch to fail before deadline")
	}
}

func TestFetchEmptySource(t *testing.T) {
	if _, err := newTestClient(t).Fetch(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty source")
	}
}

func TestSheetCSVURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{
			in:   "https://docs.google.com/spreadsheets/d/abc123/edit#gid=42",
			want: "https://docs.google.com/spreadsheets/d/abc123/export?format=csv&gid=42",
		},
		{
			in:   "https://docs.google.com/spreadsheets/d/abc123/edit?usp=sharing",
			want: "https://docs.google.com/spreadsheets/d/abc123/export?format=csv",
		},
		{
			in:   "https://docs.google.com/spreadsheets/d/e/2PACX-xyz/pubhtml",
			want: "https://docs.google.com/spreadsheets/d/e/2PACX-xyz/pub?output=csv",
		},
		{
			in:   "https://docs.google.com/spreadsheets/d/abc123/export?format=csv",
			want: "https://docs.google.com/spreadsheets/d/abc123/export?format=csv",
		},
		{
			in:   "https://example.com/orders.csv",
			want: "https://example.com/orders.csv",
		},
	}
	for _, tc := range cases {
		if got := SheetCSVURL(tc.in); got != tc.want {
			t.Fatalf("SheetCSVURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
