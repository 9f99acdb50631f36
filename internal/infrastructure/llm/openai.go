package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"ThreatMonitor/internal/config"
	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/ports"
)

const (
	// item text is cut to this many runes before prompting
	maxContentRunes = 800
	maxTokens       = 150
	requestTimeout  = 30 * time.Second
)

const defaultSystemPrompt = "You are a cybersecurity analyst."

// ChatGPTSummarizer writes analyst notes for scored items through an
// OpenAI-compatible chat completion API.
type ChatGPTSummarizer struct {
	client       *openai.Client
	model        string
	systemPrompt string
	limiter      *rate.Limiter
}

var _ ports.Summarizer = (*ChatGPTSummarizer)(nil)

// NewChatGPTSummarizer builds a summarizer from configuration.
func NewChatGPTSummarizer(cfg config.ChatGPTConfig) (*ChatGPTSummarizer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("chatgpt api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &ChatGPTSummarizer{
		client:       openai.NewClientWithConfig(clientConfig),
		model:        model,
		systemPrompt: safePrompt(cfg.SystemPrompt),
		limiter:      rate.NewLimiter(limit, 1),
	}, nil
}

// Summarize asks the model for a short structured assessment of one item.
func (s *ChatGPTSummarizer) Summarize(ctx context.Context, item domain.ScoredItem) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: s.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(item)},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildPrompt(item domain.ScoredItem) string {
	content := []rune(item.Text)
	if len(content) > maxContentRunes {
		content = content[:maxContentRunes]
	}

	var b strings.Builder
	b.WriteString("Forum Post:\n")
	fmt.Fprintf(&b, "URL: %s\n", item.SourceID)
	fmt.Fprintf(&b, "Classifier verdict: %s\n", item.Verdict.Label())
	fmt.Fprintf(&b, "Content: %s\n\n", string(content))
	b.WriteString("Task:\n")
	b.WriteString("1. Summarize in 2-3 sentences.\n")
	b.WriteString("2. Identify any dangerous or illegal activity.\n")
	b.WriteString("3. Give a danger rating (0-10).\n")
	b.WriteString("4. Provide concise reasoning.\n\n")
	b.WriteString("Keep your response structured and concise.")
	return b.String()
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return defaultSystemPrompt
	}
	return prompt
}
