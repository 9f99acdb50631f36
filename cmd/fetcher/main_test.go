package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFetcherWritesArtifact(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html><body><a href="http://next.onion/">next</a></body></html>`)
	}))
	defer srv.Close()

	dir := t.TempDir()
	urls := filepath.Join(dir, "url.txt")
	if err := os.WriteFile(urls, []byte(srv.URL+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("logging:\n  level: error\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "data.json")

	cmd := newCommand()
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", cfgPath, "--urls", urls, "--out", out})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var results []struct {
		URL   string   `json:"url"`
		Links []string `json:"links"`
		HTML  string   `json:"html"`
	}
	if err := json.Unmarshal(raw, &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 1 || results[0].URL != srv.URL || len(results[0].Links) != 1 || results[0].HTML == "" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestFetcherEmptyList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "data.json")
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("logging:\n  level: error\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newCommand()
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", cfgPath, "--urls", filepath.Join(dir, "missing.txt"), "--out", out})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var results []json.RawMessage
	if err := json.Unmarshal(raw, &results); err != nil || len(results) != 0 {
		t.Fatalf("expected empty array, got %s (%v)", raw, err)
	}
}

func TestFetcherDefaultsFromConfig(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<p>watched</p>`)
	}))
	defer srv.Close()

	dir := t.TempDir()
	sources := filepath.Join(dir, "watch.txt")
	if err := os.WriteFile(sources, []byte(srv.URL+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "pages.json")
	cfgPath := filepath.Join(dir, "config.yaml")
	raw := "logging:\n  level: error\nsources:\n  path: " + sources + "\nfetch:\n  outputPath: " + out + "\n"
	if err := os.WriteFile(cfgPath, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newCommand()
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", cfgPath})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	artifact, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("fetch.outputPath not written: %v", err)
	}
	var results []struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(artifact, &results); err != nil || len(results) != 1 || results[0].URL != srv.URL {
		t.Fatalf("sources.path not used: %s (%v)", artifact, err)
	}
}
