package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"ThreatMonitor/internal/domain"
)

const (
	configPathEnv     = "THREATMON_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	openAIModelEnv    = "OPENAI_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	natsURLEnv        = "NATS_URL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Fetch         FetchConfig        `yaml:"fetch"`
	Artifacts     ArtifactsConfig    `yaml:"artifacts"`
	Classifier    ClassifierConfig   `yaml:"classifier"`
	Model         ModelConfig        `yaml:"model"`
	ML            MLConfig           `yaml:"ml"`
	Sources       SourcesConfig      `yaml:"sources"`
	Crawler       CrawlerConfig      `yaml:"crawler"`
	Database      DatabaseConfig     `yaml:"database"`
	Notifications NotificationConfig `yaml:"notifications"`
	ChatGPT       ChatGPTConfig      `yaml:"chatgpt"`

	// Path is the absolute location of the file the config was read from.
	Path string `yaml:"-"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SchedulerConfig defines how often the pipeline runs.
type SchedulerConfig struct {
	IntervalSeconds int `yaml:"intervalSeconds"`
}

// Interval converts IntervalSeconds to a duration.
func (s SchedulerConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// FetchConfig describes the out-of-process fetch collaborator.
type FetchConfig struct {
	Command    []string      `yaml:"command"`
	WorkDir    string        `yaml:"workDir"`
	OutputPath string        `yaml:"outputPath"`
	Timeout    time.Duration `yaml:"timeout"`
	Env        []string      `yaml:"env"`
}

// ArtifactsConfig points at intermediate artifacts written by the pipeline.
type ArtifactsConfig struct {
	ExtractedPath string `yaml:"extractedPath"`
	SummariesPath string `yaml:"summariesPath"`
}

// ClassifierConfig selects the scoring strategy and its parameters.
type ClassifierConfig struct {
	Strategy   string           `yaml:"strategy"`
	CacheTTL   time.Duration    `yaml:"cacheTTL"`
	Keyword    KeywordConfig    `yaml:"keyword"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
}

// KeywordConfig lists weighted term sets for the keyword strategy.
type KeywordConfig struct {
	Sets []KeywordSetConfig `yaml:"sets"`
}

// KeywordSetConfig is one weighted category of risk terms.
type KeywordSetConfig struct {
	Name   string   `yaml:"name"`
	Weight int      `yaml:"weight"`
	Terms  []string `yaml:"terms"`
}

// ThresholdsConfig maps keyword scores to verdicts.
type ThresholdsConfig struct {
	Suspicious            int `yaml:"suspicious"`
	PotentiallySuspicious int `yaml:"potentiallySuspicious"`
}

// ModelConfig locates the serialized classifier and its training data.
type ModelConfig struct {
	ArtifactPath     string `yaml:"artifactPath"`
	TrainingDataPath string `yaml:"trainingDataPath"`
}

// MLConfig describes remote inference-service integration parameters.
type MLConfig struct {
	InferenceURL string `yaml:"inferenceUrl"`
	APIKey       string `yaml:"apiKey"`
}

// SourcesConfig locates the monitored URL list.
type SourcesConfig struct {
	Path string `yaml:"path"`
}

// CrawlerConfig drives the bundled fetcher program.
type CrawlerConfig struct {
	SocksProxy        string        `yaml:"socksProxy"`
	Timeout           time.Duration `yaml:"timeout"`
	Concurrency       int           `yaml:"concurrency"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	MaxBodyBytes      int64         `yaml:"maxBodyBytes"`
	UserAgent         string        `yaml:"userAgent"`
	RespectRobots     bool          `yaml:"respectRobots"`
}

// DatabaseConfig describes Postgres connection details for run history.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// NotificationConfig encapsulates outbound channels (Telegram, NATS).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	NATS     NATSConfig     `yaml:"nats"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken       string `yaml:"botToken"`
	ChatID         string `yaml:"chatId"`
	MinThreatLevel string `yaml:"minThreatLevel"`
}

// NATSConfig enables publishing reports to a subject.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// ChatGPTConfig defines how to contact an OpenAI-compatible API for summaries.
type ChatGPTConfig struct {
	BaseURL           string  `yaml:"baseUrl"`
	Model             string  `yaml:"model"`
	APIKey            string  `yaml:"apiKey"`
	SystemPrompt      string  `yaml:"systemPrompt"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	MaxItems          int     `yaml:"maxItems"`
}

// Load reads YAML configuration from THREATMON_CONFIG (if set) and applies environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile reads YAML configuration from path (if non-empty) and applies environment overrides.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw); err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
			if abs, err := filepath.Abs(path); err == nil {
				cfg.Path = abs
			} else {
				cfg.Path = path
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Parse decodes a YAML document without defaults applied.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig()
}

// FetchEnv is the extra environment of the fetch collaborator: fetch.env plus
// THREATMON_CONFIG pointing at this config file, so the fetcher reads the
// same sources and crawler settings.
func (c Config) FetchEnv() []string {
	env := slices.Clone(c.Fetch.Env)
	if c.Path != "" {
		env = append(env, configPathEnv+"="+c.Path)
	}
	return env
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(natsURLEnv); v != "" {
		c.Notifications.NATS.URL = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}

	if v := os.Getenv(openAIModelEnv); v != "" {
		c.ChatGPT.Model = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Scheduler.IntervalSeconds > 0 {
		base.Scheduler.IntervalSeconds = override.Scheduler.IntervalSeconds
	}

	if len(override.Fetch.Command) > 0 {
		base.Fetch.Command = override.Fetch.Command
	}
	if override.Fetch.WorkDir != "" {
		base.Fetch.WorkDir = override.Fetch.WorkDir
	}
	if override.Fetch.OutputPath != "" {
		base.Fetch.OutputPath = override.Fetch.OutputPath
	}
	if override.Fetch.Timeout > 0 {
		base.Fetch.Timeout = override.Fetch.Timeout
	}
	if len(override.Fetch.Env) > 0 {
		base.Fetch.Env = override.Fetch.Env
	}

	if override.Artifacts.ExtractedPath != "" {
		base.Artifacts.ExtractedPath = override.Artifacts.ExtractedPath
	}
	if override.Artifacts.SummariesPath != "" {
		base.Artifacts.SummariesPath = override.Artifacts.SummariesPath
	}

	if override.Classifier.Strategy != "" {
		base.Classifier.Strategy = override.Classifier.Strategy
	}
	if override.Classifier.CacheTTL != 0 {
		base.Classifier.CacheTTL = override.Classifier.CacheTTL
	}
	if len(override.Classifier.Keyword.Sets) > 0 {
		base.Classifier.Keyword = override.Classifier.Keyword
	}
	if override.Classifier.Thresholds.Suspicious > 0 {
		base.Classifier.Thresholds.Suspicious = override.Classifier.Thresholds.Suspicious
	}
	if override.Classifier.Thresholds.PotentiallySuspicious > 0 {
		base.Classifier.Thresholds.PotentiallySuspicious = override.Classifier.Thresholds.PotentiallySuspicious
	}

	if override.Model.ArtifactPath != "" {
		base.Model.ArtifactPath = override.Model.ArtifactPath
	}
	if override.Model.TrainingDataPath != "" {
		base.Model.TrainingDataPath = override.Model.TrainingDataPath
	}

	if override.ML.InferenceURL != "" {
		base.ML.InferenceURL = override.ML.InferenceURL
	}
	if override.ML.APIKey != "" {
		base.ML.APIKey = override.ML.APIKey
	}

	if override.Sources.Path != "" {
		base.Sources.Path = override.Sources.Path
	}

	if override.Crawler.SocksProxy != "" {
		base.Crawler.SocksProxy = override.Crawler.SocksProxy
	}
	if override.Crawler.Timeout > 0 {
		base.Crawler.Timeout = override.Crawler.Timeout
	}
	if override.Crawler.Concurrency > 0 {
		base.Crawler.Concurrency = override.Crawler.Concurrency
	}
	if override.Crawler.RequestsPerSecond > 0 {
		base.Crawler.RequestsPerSecond = override.Crawler.RequestsPerSecond
	}
	if override.Crawler.MaxBodyBytes > 0 {
		base.Crawler.MaxBodyBytes = override.Crawler.MaxBodyBytes
	}
	if override.Crawler.UserAgent != "" {
		base.Crawler.UserAgent = override.Crawler.UserAgent
	}
	if override.Crawler.RespectRobots {
		base.Crawler.RespectRobots = true
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.MinThreatLevel != "" {
		base.Notifications.Telegram.MinThreatLevel = override.Notifications.Telegram.MinThreatLevel
	}
	if override.Notifications.NATS.URL != "" {
		base.Notifications.NATS.URL = override.Notifications.NATS.URL
	}
	if override.Notifications.NATS.Subject != "" {
		base.Notifications.NATS.Subject = override.Notifications.NATS.Subject
	}

	if override.ChatGPT.BaseURL != "" {
		base.ChatGPT.BaseURL = override.ChatGPT.BaseURL
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.SystemPrompt != "" {
		base.ChatGPT.SystemPrompt = override.ChatGPT.SystemPrompt
	}
	if override.ChatGPT.RequestsPerSecond > 0 {
		base.ChatGPT.RequestsPerSecond = override.ChatGPT.RequestsPerSecond
	}
	if override.ChatGPT.MaxItems > 0 {
		base.ChatGPT.MaxItems = override.ChatGPT.MaxItems
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Scheduler: SchedulerConfig{IntervalSeconds: domain.DefaultIntervalSeconds},
		Fetch: FetchConfig{
			Command:    []string{"go", "run", "./cmd/fetcher"},
			WorkDir:    ".",
			OutputPath: "data.json",
			Timeout:    60 * time.Second,
		},
		Artifacts: ArtifactsConfig{
			ExtractedPath: "results.json",
			SummariesPath: "summaries.json",
		},
		Classifier: ClassifierConfig{
			Strategy: "keyword",
			CacheTTL: 30 * time.Minute,
			Keyword: KeywordConfig{Sets: []KeywordSetConfig{
				{Name: "weapon", Weight: 3, Terms: []string{"weapon", "gun", "rifle", "pistol", "ammunition", "bomb", "explosive", "toy"}},
				{Name: "extremism", Weight: 4, Terms: []string{"terrorist", "jihad", "attack", "kill", "assassination", "hitman"}},
				{Name: "anti-state", Weight: 2, Terms: []string{"anti-india", "separatist", "kashmir liberation", "pakistan intelligence", "aid"}},
			}},
			Thresholds: ThresholdsConfig{Suspicious: 3, PotentiallySuspicious: 1},
		},
		Model: ModelConfig{
			ArtifactPath:     "threat_classifier.json",
			TrainingDataPath: "model/train.json",
		},
		ML:      MLConfig{InferenceURL: "", APIKey: ""},
		Sources: SourcesConfig{Path: "url.txt"},
		Crawler: CrawlerConfig{
			SocksProxy:        "",
			Timeout:           60 * time.Second,
			Concurrency:       8,
			RequestsPerSecond: 1,
			MaxBodyBytes:      5_000_000,
			UserAgent:         "ThreatMonitor/1.0",
		},
		Database: DatabaseConfig{DSN: ""},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: "", MinThreatLevel: string(domain.ThreatMedium)},
			NATS:     NATSConfig{URL: "", Subject: "threatmonitor.reports"},
		},
		ChatGPT: ChatGPTConfig{
			Model:             "gpt-4o-mini",
			APIKey:            "",
			SystemPrompt:      "You are a cybersecurity analyst. Summarize the forum post in 2-3 sentences, identify any dangerous or illegal activity, give a danger rating (0-10) and concise reasoning.",
			RequestsPerSecond: 1,
			MaxItems:          20,
		},
	}
}
