// Package fetch downloads sales rows from a CSV source.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/ingest"
)

const (
	defaultTimeout  = 60 * time.Second
	defaultInterval = 5 * time.Second
	userAgent       = "salesdash/1.0"
)

// StatusError reports a non-200 response from the source.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status fetching %s: %s", e.URL, e.Status)
}

// Options configure a Client.
type Options struct {
	Timeout time.Duration
	// Interval is the minimum spacing between remote fetches.
	Interval time.Duration
	Burst    int
	Logger   *zap.Logger
}

// Client fetches CSV rows over HTTP or from local files.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New builds a Client with defaults for zero options.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Every(opts.Interval), opts.Burst),
		logger:  opts.Logger,
	}
}

// Fetch loads every row of source keyed by header. source may be an http(s)
// URL, a file:// URL or a local path.
func (c *Client) Fetch(ctx context.Context, source string) ([]map[string]string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("source is empty")
	}
	if path, ok := localPath(source); ok {
		rows, err := ingest.LoadFile(path)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("loaded local source", zap.String("path", path), zap.Int("rows", len(rows)))
		return rows, nil
	}

	target := SheetCSVURL(source)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for fetch slot: %w", err)
	}
	started := time.Now()
	resp, err := c.httpRequest(ctx, target)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "text/html") {
		// Private sheets answer with a login page instead of CSV.
		return nil, fmt.Errorf("source returned html instead of csv; is the sheet shared publicly?")
	}
	rows, err := ingest.ReadRows(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logger.Info("fetched source",
		zap.String("url", target),
		zap.Int("rows", len(rows)),
		zap.Duration("took", time.Since(started)),
	)
	return rows, nil
}

func (c *Client) httpRequest(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/csv, */*;q=0.5")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func localPath(source string) (string, bool) {
	if strings.HasPrefix(source, "file://") {
		u, err := url.Parse(source)
		if err != nil {
			return "", false
		}
		return u.Path, true
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return "", false
	}
	return source, true
}

// SheetCSVURL rewrites Google Sheets edit and share links to the CSV export
// endpoint. Other URLs are returned unchanged.
func SheetCSVURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host != "docs.google.com" {
		return raw
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// spreadsheets/d/<id>/...
	if len(parts) < 3 || parts[0] != "spreadsheets" || parts[1] != "d" {
		return raw
	}
	if len(parts) >= 4 && (parts[3] == "export" || parts[3] == "pub" || parts[3] == "gviz") {
		return raw
	}
	id := parts[2]
	if id == "e" {
		// Published-to-web links use /d/e/<id>/pubhtml.
		if len(parts) < 4 {
			return raw
		}
		out := url.URL{Scheme: "https", Host: u.Host, Path: "/spreadsheets/d/e/" + parts[3] + "/pub"}
		q := url.Values{"output": {"csv"}}
		if gid := sheetGID(u); gid != "" {
			q.Set("gid", gid)
		}
		out.RawQuery = q.Encode()
		return out.String()
	}

	out := url.URL{Scheme: "https", Host: u.Host, Path: "/spreadsheets/d/" + id + "/export"}
	q := url.Values{"format": {"csv"}}
	if gid := sheetGID(u); gid != "" {
		q.Set("gid", gid)
	}
	out.RawQuery = q.Encode()
	return out.String()
}

func sheetGID(u *url.URL) string {
	if gid := u.Query().Get("gid"); gid != "" {
		return gid
	}
	frag, err := url.ParseQuery(u.Fragment)
	if err != nil {
		return ""
	}
	return frag.Get("gid")
}
