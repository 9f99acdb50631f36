// Package crawler fetches the monitored URL list, optionally through a
// SOCKS5 proxy such as a local Tor daemon, and records one Result per URL.
package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/proxy"

	"ThreatMonitor/internal/config"
)

// Result is one fetched page as written to the fetch artifact.
type Result struct {
	URL    string   `json:"url"`
	Status string   `json:"status"`
	Links  []string `json:"links"`
	HTML   string   `json:"html"`
}

// Crawler fetches pages with bounded concurrency and per-host rate limits.
type Crawler struct {
	client      *http.Client
	limiter     *hostLimiter
	robots      *robotsChecker
	concurrency int
	maxBody     int64
	userAgent   string
	logger      *slog.Logger
}

// New builds a crawler from the crawler config section.
func New(cfg config.CrawlerConfig, logger *slog.Logger) (*Crawler, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		ForceAttemptHTTP2:   false,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if cfg.SocksProxy != "" {
		dialer, err := proxy.SOCKS5("tcp", cfg.SocksProxy, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks5 dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	c := &Crawler{
		client:      &http.Client{Transport: transport, Timeout: cfg.Timeout},
		limiter:     newHostLimiter(cfg.RequestsPerSecond, 1),
		concurrency: concurrency,
		maxBody:     cfg.MaxBodyBytes,
		userAgent:   cfg.UserAgent,
		logger:      logger,
	}
	if cfg.RespectRobots {
		c.robots = newRobotsChecker(c.client, cfg.UserAgent)
	}
	return c, nil
}

// Crawl fetches every URL and returns results in input order. Per-URL
// failures are recorded in Result.Status rather than returned.
func (c *Crawler) Crawl(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup

	for i, u := range urls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = errorResult(u, "Error", ctx.Err())
				return
			}
			defer func() { <-sem }()

			results[i] = c.fetch(ctx, u)
			c.logger.Info("completed scraping", "url", u, "status", results[i].Status)
		}()
	}

	wg.Wait()
	return results
}

func (c *Crawler) fetch(ctx context.Context, rawURL string) Result {
	if c.robots != nil && !c.robots.Allowed(ctx, rawURL) {
		return errorResult(rawURL, "Error", errDisallowed)
	}
	if err := c.limiter.Wait(ctx, rawURL); err != nil {
		return errorResult(rawURL, "Error", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errorResult(rawURL, "Error", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errorResult(rawURL, "Error", err)
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if c.maxBody > 0 {
		body = io.LimitReader(resp.Body, c.maxBody)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return errorResult(rawURL, "Error reading body", err)
	}

	return Result{URL: rawURL, Status: resp.Status, Links: ExtractLinks(raw), HTML: string(raw)}
}

func errorResult(rawURL, prefix string, err error) Result {
	return Result{URL: rawURL, Status: prefix + ": " + err.Error(), Links: []string{}}
}

// ExtractLinks returns absolute http(s) hrefs in document order.
func ExtractLinks(markup []byte) []string {
	links := []string{}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return links
	}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && strings.HasPrefix(href, "http") {
			links = append(links, href)
		}
	})
	return links
}

// WriteResults writes the fetch artifact without HTML escaping.
func WriteResults(path string, results []Result) error {
	if results == nil {
		results = []Result{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace results: %w", err)
	}
	return nil
}
