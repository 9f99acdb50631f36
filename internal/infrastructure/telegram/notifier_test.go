package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPublishDigest(t *testing.T) {
	t.Parallel()

	var gotPath, gotChat, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(server.Close)

	n := NewNotifier("token", "42", WithBaseURL(server.URL))
	if err := n.PublishDigest(context.Background(), "Threat Level: HIGH"); err != nil {
		t.Fatalf("PublishDigest: %v", err)
	}
	if gotPath != "/bottoken/sendMessage" || gotChat != "42" || gotText != "Threat Level: HIGH" {
		t.Fatalf("unexpected request: %s %s %q", gotPath, gotChat, gotText)
	}
}

func TestPublishDigestErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	t.Cleanup(server.Close)

	if err := NewNotifier("", "42").PublishDigest(context.Background(), "x"); err == nil {
		t.Fatal("expected misconfiguration error")
	}
	err := NewNotifier("token", "42", WithBaseURL(server.URL)).PublishDigest(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("ж", 5000)
	got := truncate(long, maxMessageRunes)
	if utf8.RuneCountInString(got) != maxMessageRunes {
		t.Fatalf("rune count = %d", utf8.RuneCountInString(got))
	}
	if truncate("short", 10) != "short" {
		t.Fatal("short strings must be unchanged")
	}
}
