package export

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/sample"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/stats"
)

func testReport(t *testing.T, p model.Period) stats.Report {
	t.Helper()
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	raws := sample.NewSeeded(3).Generate(120, now)
	raws = append(raws, model.RawRecord{OrderID: "BAD", Sender: "မောင်မောင်", Item: "not json"})
	return stats.Build(raws, now, p, zaptest.NewLogger(t))
}

func TestRenderPDF(t *testing.T) {
	for _, p := range []model.Period{model.PeriodToday, model.PeriodLast6Months} {
		body, err := RenderPDF(testReport(t, p))
		if err != nil {
			t.Fatalf("%s: RenderPDF failed: %v", p, err)
		}
		if !bytes.HasPrefix(body, []byte("%PDF-")) {
			t.Fatalf("%s: expected pdf header, got %q", p, body[:min(len(body), 8)])
		}
	}
}

func TestLatin1(t *testing.T) {
	if got := latin1("Café မ"); got != "Café ?" {
		t.Fatalf("unexpected replacement: %q", got)
	}
}

func TestReportKey(t *testing.T) {
	r := stats.Report{Period: model.PeriodThisMonth, GeneratedAt: time.Date(2026, 10, 17, 9, 5, 3, 0, time.UTC)}
	want := "reports/2026/10/salesdash-this_month-20261017-090503.pdf"
	if got := ReportKey(r); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNewUploaderRequiresBucket(t *testing.T) {
	if _, err := NewUploader(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error without bucket")
	}
}

func TestUploadReport(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		ctype  string
		size   int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, ctype, size = r.Method, r.URL.Path, r.Header.Get("Content-Type"), len(body)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	up, err := NewUploader(context.Background(), Config{
		Endpoint:        srv.URL,
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "secret",
		Bucket:          "reports",
		PublicBaseURL:   "https://cdn.example.com/",
	})
	if err != nil {
		t.Fatalf("NewUploader failed: %v", err)
	}
	r := testReport(t, model.PeriodThisMonth)
	url, err := up.UploadReport(context.Background(), r)
	if err != nil {
		t.Fatalf("UploadReport failed: %v", err)
	}
	if want := "https://cdn.example.com/" + ReportKey(r); url != want {
		t.Fatalf("expected %s, got %s", want, url)
	}

	mu.Lock()
	defer mu.Unlock()
	if method != http.MethodPut {
		t.Fatalf("expected PUT, got %s", method)
	}
	if !strings.HasPrefix(path, "/reports/reports/") {
		t.Fatalf("expected path-style key, got %s", path)
	}
	if ctype != ContentType || size == 0 {
		t.Fatalf("unexpected upload: content-type %q, %d bytes", ctype, size)
	}
}

func TestPublicURLWithoutBase(t *testing.T) {
	up := &Uploader{bucket: "reports"}
	if got := up.PublicURL("/a/b.pdf"); got != "s3://reports/a/b.pdf" {
		t.Fatalf("unexpected url: %s", got)
	}
}
