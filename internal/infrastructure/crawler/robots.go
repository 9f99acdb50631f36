package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
)

var errDisallowed = errors.New("disallowed by robots.txt")

// robotsChecker caches robots.txt per host. Hosts whose robots.txt cannot be
// fetched or parsed are allowed.
type robotsChecker struct {
	client    *http.Client
	userAgent string

	mu    sync.RWMutex
	cache map[string]*robotstxt.RobotsData
}

func newRobotsChecker(client *http.Client, userAgent string) *robotsChecker {
	return &robotsChecker{
		client:    client,
		userAgent: productToken(userAgent),
		cache:     map[string]*robotstxt.RobotsData{},
	}
}

// Allowed reports whether rawURL may be fetched.
func (r *robotsChecker) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return true
	}

	data, err := r.data(ctx, parsed)
	if err != nil {
		return true
	}
	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, r.userAgent)
}

func (r *robotsChecker) data(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.cache[target.Host]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", target.Scheme, target.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.cache[target.Host] = data
	r.mu.Unlock()
	return data, nil
}

// productToken strips the version from "Name/1.0 (...)".
func productToken(userAgent string) string {
	fields := strings.Fields(userAgent)
	if len(fields) == 0 {
		return "*"
	}
	return strings.Split(fields[0], "/")[0]
}
