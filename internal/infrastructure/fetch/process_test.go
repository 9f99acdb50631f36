package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ThreatMonitor/internal/config"
	"ThreatMonitor/internal/domain"
)

func TestProcessFetcherReadsOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fetcher := NewProcessFetcher(config.FetchConfig{
		Command:    []string{"sh", "-c", `printf '[{"url":"http://a","status":"ok","html":"<p>hi</p>"}]' > data.json`},
		WorkDir:    dir,
		OutputPath: "data.json",
		Timeout:    10 * time.Second,
	}, nil)

	docs, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(docs) != 1 || docs[0].SourceID != "http://a" || docs[0].Markup != "<p>hi</p>" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
}

func TestProcessFetcherPassesEnv(t *testing.T) {
	t.Parallel()

	fetcher := NewProcessFetcher(config.FetchConfig{
		Command:    []string{"sh", "-c", `printf '[{"url":"%s","html":"<p>x</p>"}]' "$FETCH_MARK" > out.json`},
		WorkDir:    t.TempDir(),
		OutputPath: "out.json",
		Timeout:    10 * time.Second,
		Env:        []string{"FETCH_MARK=http://marked.onion"},
	}, nil)

	docs, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(docs) != 1 || docs[0].SourceID != "http://marked.onion" {
		t.Fatalf("environment not passed to the fetch command: %+v", docs)
	}
}

func TestProcessFetcherTimeout(t *testing.T) {
	t.Parallel()

	fetcher := NewProcessFetcher(config.FetchConfig{
		Command:    []string{"sh", "-c", "exec sleep 5"},
		WorkDir:    t.TempDir(),
		OutputPath: "data.json",
		Timeout:    100 * time.Millisecond,
	}, nil)

	started := time.Now()
	_, err := fetcher.Fetch(context.Background())
	if !errors.Is(err, domain.ErrFetchFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected fetch timeout, got %v", err)
	}
	if time.Since(started) > 4*time.Second {
		t.Fatal("fetch did not honour its timeout")
	}
}

func TestProcessFetcherFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`[{"url":"x"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	cases := map[string]config.FetchConfig{
		"no command":   {},
		"exit status":  {Command: []string{"sh", "-c", "echo boom >&2; exit 3"}, WorkDir: dir, OutputPath: "data.json"},
		"no output":    {Command: []string{"true"}, WorkDir: dir, OutputPath: "missing.json"},
		"bad document": {Command: []string{"true"}, WorkDir: dir, OutputPath: "bad.json"},
	}

	for name, cfg := range cases {
		_, err := NewProcessFetcher(cfg, nil).Fetch(context.Background())
		if !errors.Is(err, domain.ErrFetchFailed) {
			t.Fatalf("%s: expected ErrFetchFailed, got %v", name, err)
		}
	}
}
