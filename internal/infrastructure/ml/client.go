package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ThreatMonitor/internal/classifier"
	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/ports"
)

// RemoteStrategy is the registry name of Client.
const RemoteStrategy = "remote"

// Client scores items through an external inference service.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.Classifier = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Name implements ports.Classifier.
func (c *Client) Name() string { return RemoteStrategy }

// Info implements ports.Classifier.
func (c *Client) Info() domain.ClassifierInfo {
	return domain.ClassifierInfo{Strategy: RemoteStrategy}
}

// Score sends the text to /classify and maps the returned label to a verdict.
func (c *Client) Score(item domain.ExtractedItem) (domain.ScoredItem, error) {
	if err := classifier.ValidateText(item.Text); err != nil {
		return domain.ScoredItem{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.http.Timeout)
	defer cancel()

	var resp struct {
		Label      string   `json:"label"`
		Score      float64  `json:"score"`
		Indicators []string `json:"indicators"`
	}
	payload := map[string]any{"url": item.SourceID, "text": item.Text}
	if err := c.post(ctx, "/classify", payload, &resp); err != nil {
		return domain.ScoredItem{}, fmt.Errorf("%w: remote: %v", domain.ErrClassification, err)
	}
	if resp.Score < 0 {
		return domain.ScoredItem{}, fmt.Errorf("%w: remote returned negative score %v", domain.ErrClassification, resp.Score)
	}

	return domain.ScoredItem{
		SourceID:   item.SourceID,
		Text:       item.Text,
		Verdict:    verdictFromLabel(resp.Label),
		Score:      resp.Score,
		Indicators: resp.Indicators,
	}, nil
}

func verdictFromLabel(label string) domain.Verdict {
	normalized := strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_").Replace(strings.TrimSpace(label)))
	switch normalized {
	case string(domain.VerdictSuspicious):
		return domain.VerdictSuspicious
	case string(domain.VerdictPotentiallySuspicious):
		return domain.VerdictPotentiallySuspicious
	default:
		return domain.VerdictSafe
	}
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
