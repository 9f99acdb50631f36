package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"ThreatMonitor/internal/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestURLsCommands(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, fmt.Sprintf("sources:\n  path: %s\n", filepath.Join(dir, "url.txt")))

	out, err := execute(t, "--config", cfgPath, "urls", "add", "http://a.onion", "http://b.onion", "http://a.onion")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "already monitored http://a.onion") {
		t.Fatalf("duplicate not reported:\n%s", out)
	}

	if _, err := execute(t, "--config", cfgPath, "urls", "remove", "http://a.onion"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	out, err = execute(t, "--config", cfgPath, "urls", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if out != "http://b.onion\n" {
		t.Fatalf("list = %q", out)
	}

	if _, err := execute(t, "--config", cfgPath, "urls", "clear"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	out, _ = execute(t, "--config", cfgPath, "urls", "list")
	if out != "" {
		t.Fatalf("list after clear = %q", out)
	}

	if _, err := execute(t, "--config", cfgPath, "urls", "add"); err == nil {
		t.Fatal("add without arguments should fail")
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "chatgpt:\n  apiKey: sk-very-secret\nnotifications:\n  telegram:\n    botToken: bot-secret\n")

	out, err := execute(t, "--config", cfgPath, "--strategy", "model", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "sk-very-secret") || strings.Contains(out, "bot-secret") {
		t.Fatalf("secret leaked:\n%s", out)
	}
	if !strings.Contains(out, masked) {
		t.Fatalf("expected masked value:\n%s", out)
	}
	if !strings.Contains(out, "strategy: model") {
		t.Fatalf("flag override not applied:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version")
	if err != nil || !strings.HasPrefix(out, "threatmonitor ") {
		t.Fatalf("version = %q, %v", out, err)
	}
}

func TestTrainCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	type example struct {
		Text  string `json:"text"`
		Label string `json:"label"`
	}
	var data struct {
		Data []example `json:"data"`
	}
	for i := 0; i < 5; i++ {
		data.Data = append(data.Data,
			example{Text: fmt.Sprintf("selling guns and rifles batch %d", i), Label: "suspicious"},
			example{Text: fmt.Sprintf("cooking recipes for dinner %d", i), Label: "not suspicious"},
		)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	dataPath := filepath.Join(dir, "train.json")
	if err := os.WriteFile(dataPath, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := writeConfig(t, dir, "logging:\n  level: error\n")
	outPath := filepath.Join(dir, "model.json")

	out, err := execute(t, "--config", cfgPath, "train", "--data", dataPath, "--out", outPath)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	for _, want := range []string{"suspicious: 5", "Split: 8 train / 2 test", "Accuracy:", "Model saved to " + outPath} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("artifact not written: %v", err)
	}

	if _, err := execute(t, "--config", cfgPath, "train", "--data", filepath.Join(dir, "missing.json"), "--out", outPath); err == nil {
		t.Fatal("expected error for missing training data")
	}
}

func TestRunCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, fmt.Sprintf(`logging:
  level: error
fetch:
  command: ["sh", "-c", "printf '[{\"url\":\"http://a\",\"html\":\"<p>selling a pistol</p>\"}]' > data.json"]
  workDir: %s
  outputPath: data.json
  timeout: 10s
artifacts:
  extractedPath: %s
model:
  artifactPath: %s
  trainingDataPath: %s
`, dir, filepath.Join(dir, "results.json"), filepath.Join(dir, "model.json"), filepath.Join(dir, "train.json")))

	out, err := execute(t, "--config", cfgPath, "--strategy", "keyword", "run")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	for _, want := range []string{"THREAT ANALYSIS SUMMARY", "Threat Level: HIGH", "http://a"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}

	if _, err := execute(t, "--config", cfgPath, "--strategy", "nope", "run"); err == nil {
		t.Fatal("expected unknown strategy error")
	}
}

func TestPresetListRendersDurations(t *testing.T) {
	t.Parallel()

	got := presetList()
	if got != "10s, 30s, 1m, 5m, 10m, 30m" {
		t.Fatalf("presetList() = %q", got)
	}
	for _, part := range strings.Split(got, ", ") {
		if _, err := time.ParseDuration(part); err != nil {
			t.Fatalf("preset %q is not a valid --interval value: %v", part, err)
		}
	}

	help := newMonitorCommand(&rootOptions{}).Flags().Lookup("interval").Usage
	if !strings.Contains(help, got) {
		t.Fatalf("interval help %q does not list presets", help)
	}
}

func TestHistoryRequiresDatabase(t *testing.T) {
	t.Parallel()
	if os.Getenv("DATABASE_DSN") != "" {
		t.Skip("DATABASE_DSN is set")
	}

	cfgPath := writeConfig(t, t.TempDir(), "logging:\n  level: error\n")
	_, err := execute(t, "--config", cfgPath, "history")
	if !errors.Is(err, errNoDatabase) {
		t.Fatalf("history without dsn = %v, want errNoDatabase", err)
	}
}

type historyRepo struct {
	runs  []domain.RunReport
	limit uint64
}

func (r *historyRepo) SaveRun(context.Context, domain.RunReport) (int64, error) { return 0, nil }

func (r *historyRepo) RecentRuns(_ context.Context, limit uint64) ([]domain.RunReport, error) {
	r.limit = limit
	return r.runs, nil
}

func TestPrintHistory(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &historyRepo{runs: []domain.RunReport{
		{Timestamp: at, ThreatLevel: domain.ThreatHigh, SuspiciousCount: 3, TotalCount: 4,
			Strategy: "keyword", Duration: 1500 * time.Millisecond, Anomalies: 2},
		{Timestamp: at.Add(-time.Minute), ThreatLevel: domain.ThreatLow, Strategy: "model", Error: "fetch failed"},
	}}

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	if err := printHistory(cmd, repo, 5); err != nil {
		t.Fatalf("printHistory: %v", err)
	}
	if repo.limit != 5 {
		t.Fatalf("limit = %d, want 5", repo.limit)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	for _, want := range []string{"2026-03-01T12:00:00Z", "HIGH", "3/4", "keyword", "1.5s", "anomalies=2"} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("first line %q missing %q", lines[0], want)
		}
	}
	if !strings.Contains(lines[1], "error: fetch failed") {
		t.Fatalf("second line %q missing error", lines[1])
	}

	out.Reset()
	if err := writeHistory(&out, nil); err != nil || out.String() != "no runs recorded\n" {
		t.Fatalf("empty history = %q, %v", out.String(), err)
	}
}
