package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"ThreatMonitor/internal/domain"
)

func TestInsertRunQuery(t *testing.T) {
	t.Parallel()

	report := domain.NewRunReport([]domain.ScoredItem{
		{SourceID: "http://a", Text: "rifle", Verdict: domain.VerdictSuspicious, Score: 3},
	}, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	report.Duration = 1500 * time.Millisecond
	report.Strategy = "keyword"

	query, args, err := insertRunQuery(report)
	if err != nil {
		t.Fatalf("insertRunQuery: %v", err)
	}
	if !strings.HasPrefix(query, "INSERT INTO monitor_runs") || !strings.HasSuffix(query, "RETURNING id") {
		t.Fatalf("unexpected query: %s", query)
	}
	if !strings.Contains(query, "$10") || strings.Contains(query, "?") {
		t.Fatalf("expected dollar placeholders: %s", query)
	}
	if len(args) != 10 {
		t.Fatalf("args = %d, want 10", len(args))
	}
	if args[1] != int64(1500) || args[6] != "HIGH" {
		t.Fatalf("unexpected args: %v", args)
	}

	var items []domain.ScoredItem
	if err := json.Unmarshal(args[9].([]byte), &items); err != nil || len(items) != 1 {
		t.Fatalf("items payload = %s, err %v", args[9], err)
	}
}

func TestRecentRunsQuery(t *testing.T) {
	t.Parallel()

	query, _, err := recentRunsQuery(5)
	if err != nil {
		t.Fatalf("recentRunsQuery: %v", err)
	}
	for _, part := range []string{"FROM monitor_runs", "ORDER BY started_at DESC", "LIMIT 5"} {
		if !strings.Contains(query, part) {
			t.Fatalf("query %q missing %q", query, part)
		}
	}

	query, _, err = recentRunsQuery(0)
	if err != nil || !strings.Contains(query, "LIMIT 20") {
		t.Fatalf("default limit not applied: %q %v", query, err)
	}
}

func TestNilDBIsNoop(t *testing.T) {
	t.Parallel()

	repo := NewPostgresRepository(nil)
	if id, err := repo.SaveRun(context.Background(), domain.RunReport{}); err != nil || id != 0 {
		t.Fatalf("SaveRun = %d, %v", id, err)
	}
	if runs, err := repo.RecentRuns(context.Background(), 3); err != nil || runs != nil {
		t.Fatalf("RecentRuns = %v, %v", runs, err)
	}
}

func TestJSONArtifactsSaveExtracted(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "results.json")
	store := NewJSONArtifacts(path)
	items := []domain.ExtractedItem{{SourceID: "http://a", Text: "one\n\ntwo"}}
	if err := store.SaveExtracted(context.Background(), items); err != nil {
		t.Fatalf("SaveExtracted: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []map[string]string
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, []map[string]string{{"url": "http://a", "text": "one\n\ntwo"}}) {
		t.Fatalf("artifact = %v", got)
	}

	if err := store.SaveExtracted(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	raw, _ = os.ReadFile(path)
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Fatalf("empty run should write [], got %s", raw)
	}
}

func TestSourceList(t *testing.T) {
	t.Parallel()

	list := NewSourceList(filepath.Join(t.TempDir(), "url.txt"))

	if urls, err := list.List(); err != nil || len(urls) != 0 {
		t.Fatalf("missing file should be empty: %v %v", urls, err)
	}

	for _, u := range []string{"http://a", " http://b ", "http://a"} {
		if _, err := list.Add(u); err != nil {
			t.Fatalf("Add(%q): %v", u, err)
		}
	}
	if added, _ := list.Add("http://b"); added {
		t.Fatal("duplicate add must be a no-op")
	}
	if _, err := list.Add("  "); err == nil {
		t.Fatal("expected error for blank url")
	}

	urls, err := list.List()
	if err != nil || !reflect.DeepEqual(urls, []string{"http://a", "http://b"}) {
		t.Fatalf("List = %v, %v", urls, err)
	}

	if removed, err := list.Remove("http://a"); err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	if removed, _ := list.Remove("http://zzz"); removed {
		t.Fatal("removing an absent url should report false")
	}
	urls, _ = list.List()
	if !reflect.DeepEqual(urls, []string{"http://b"}) {
		t.Fatalf("after remove: %v", urls)
	}

	if err := list.Clear(); err != nil {
		t.Fatal(err)
	}
	if urls, _ := list.List(); len(urls) != 0 {
		t.Fatalf("after clear: %v", urls)
	}
}
