package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/config"
)

func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("SALESDASH_SOURCE_URL", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--db", filepath.Join(dir, "salesdash.db"), "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestReportJSONSyncsSampleData(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "report", "--format", "json", "--period", "last-6-months", "--timezone", "UTC")
	if err != nil {
		t.Fatalf("report failed: %v\n%s", err, out)
	}
	var decoded struct {
		Period string `json:"period"`
		Source struct {
			URL  string `json:"url"`
			Rows int    `json:"rows"`
		} `json:"source"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if decoded.Period != "last_6_months" {
		t.Fatalf("expected last_6_months, got %q", decoded.Period)
	}
	if decoded.Source.URL != "sample" || decoded.Source.Rows != 4 {
		t.Fatalf("expected sample snapshot, got %+v", decoded.Source)
	}
}

func TestReportRejectsUnknownFormat(t *testing.T) {
	if _, err := runCLI(t, t.TempDir(), "report", "--format", "xml"); err == nil {
		t.Fatalf("expected error for xml format")
	}
}

func TestSourceLockBlocksSet(t *testing.T) {
	dir := t.TempDir()
	if out, err := runCLI(t, dir, "source", "set", "orders.csv"); err != nil {
		t.Fatalf("set failed: %v\n%s", err, out)
	}
	if out, err := runCLI(t, dir, "source", "lock"); err != nil {
		t.Fatalf("lock failed: %v\n%s", err, out)
	}
	if _, err := runCLI(t, dir, "source", "set", "other.csv"); err == nil || !strings.Contains(err.Error(), "locked") {
		t.Fatalf("expected locked error, got %v", err)
	}
	out, err := runCLI(t, dir, "source", "show")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "orders.csv") || !strings.Contains(out, "Locked:    yes") {
		t.Fatalf("unexpected show output:\n%s", out)
	}
}

func TestDemoWritesCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.csv")
	if out, err := runCLI(t, dir, "demo", "--rows", "5", "--seed", "7", "--out", path); err != nil {
		t.Fatalf("demo failed: %v\n%s", err, out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected header and 5 rows, got %d lines", len(lines))
	}
}

func TestConfigOverridesDefaultsButNotFlags(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "config", "salesdash")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := "[dashboard]\nperiod = \"yesterday\"\ntimezone = \"UTC\"\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	out, err := runCLI(t, dir, "report", "--format", "yaml")
	if err != nil {
		t.Fatalf("report failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "period: yesterday") {
		t.Fatalf("expected config period, got:\n%s", out)
	}
	out, err = runCLI(t, dir, "report", "--format", "yaml", "--period", "today")
	if err != nil {
		t.Fatalf("report failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "period: today") {
		t.Fatalf("expected flag period, got:\n%s", out)
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var uncommented []string
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		trimmed := strings.TrimPrefix(line, "# ")
		if strings.Contains(trimmed, " = ") && !strings.Contains(trimmed, "SALESDASH_") {
			uncommented = append(uncommented, trimmed)
			continue
		}
		if strings.HasPrefix(line, "[") {
			uncommented = append(uncommented, line)
		}
	}
	var cfg config.FileConfig
	meta, err := toml.Decode(strings.Join(uncommented, "\n"), &cfg)
	if err != nil {
		t.Fatalf("template does not decode: %v", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		t.Fatalf("template has unknown key %s", undecoded[0])
	}
	if cfg.Dashboard.Period == nil || *cfg.Dashboard.Period != defaultPeriod {
		t.Fatalf("expected default period in template")
	}
}

func TestLoadLocation(t *testing.T) {
	loc, err := loadLocation("")
	if err != nil || loc != time.Local {
		t.Fatalf("expected local zone, got %v %v", loc, err)
	}
	if _, err := loadLocation("Mars/Olympus"); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}

func TestDurationConfig(t *testing.T) {
	v := "15m"
	got, err := durationConfig(&v, time.Hour)
	if err != nil || got != 15*time.Minute {
		t.Fatalf("expected 15m, got %v %v", got, err)
	}
	got, err = durationConfig(nil, time.Hour)
	if err != nil || got != time.Hour {
		t.Fatalf("expected fallback, got %v %v", got, err)
	}
}
