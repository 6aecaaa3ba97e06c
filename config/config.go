package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds scraper configuration.
type Config struct {
	TargetURL     string
	LanguageXPath string
	LanguageWait  time.Duration

	MaxArticles   int
	MaxCandidates int

	CandidateSelector string
	TitleSelectors    []string
	ParagraphSelector string
	ImageSelector     string

	SettleIterations int
	SettleFraction   float64
	SettlePause      time.Duration

	StartStagger time.Duration
	ImplicitWait time.Duration
	Timeout      time.Duration

	SourceLang         string
	TargetLang         string
	TranslateEndpoint  string
	TranslateAttempts  int
	TranslateBackoff   time.Duration
	TranslateCacheSize int

	RepeatThreshold int

	ImageRoot    string
	RemoteHubURL string
	Credentials  Credentials

	SessionsFile string
	Group        string // local, remote, or all
	LogFile      string
	OutputFile   string
	OutputFormat string // csv, json, or dual
	UserAgent    string
	MetricsAddr  string
	Verbose      bool
}

// DefaultConfig returns the defaults for the El País opinion section.
func DefaultConfig() *Config {
	return &Config{
		TargetURL:     "https://elpais.com/opinion/",
		LanguageXPath: "//html[@lang='es' or @lang='es-ES']",
		LanguageWait:  15 * time.Second,

		MaxArticles:   5,
		MaxCandidates: 10,

		CandidateSelector: "article",
		TitleSelectors:    []string{"header h2", "h2"},
		ParagraphSelector: "p",
		ImageSelector:     "img",

		SettleIterations: 3,
		SettleFraction:   0.7,
		SettlePause:      time.Second,

		StartStagger: time.Second,
		ImplicitWait: 10 * time.Second,
		Timeout:      30 * time.Second,

		SourceLang:         "es",
		TargetLang:         "en",
		TranslateEndpoint:  "https://translate.googleapis.com/translate_a/single",
		TranslateAttempts:  3,
		TranslateBackoff:   time.Second,
		TranslateCacheSize: 256,

		RepeatThreshold: 2,

		ImageRoot:    ".",
		RemoteHubURL: "hub-cloud.browserstack.com/wd/hub",

		Group:        "all",
		LogFile:      "scrape_opinions.log",
		OutputFormat: "json",
		UserAgent:    "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.TargetURL == "" {
		return fmt.Errorf("target URL cannot be empty")
	}
	parsedURL, err := url.Parse(c.TargetURL)
	if err != nil {
		return fmt.Errorf("invalid target URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("target URL must include a host")
	}

	if c.MaxArticles <= 0 {
		return fmt.Errorf("max articles must be positive")
	}
	if c.MaxCandidates < c.MaxArticles {
		return fmt.Errorf("max candidates (%d) cannot be lower than max articles (%d)", c.MaxCandidates, c.MaxArticles)
	}
	if c.CandidateSelector == "" {
		return fmt.Errorf("candidate selector cannot be empty")
	}
	if len(c.TitleSelectors) == 0 {
		return fmt.Errorf("at least one title selector is required")
	}
	if c.SettleIterations < 0 {
		return fmt.Errorf("settle iterations cannot be negative")
	}
	if c.SettleFraction < 0 || c.SettleFraction > 1 {
		return fmt.Errorf("settle fraction must be within [0, 1]")
	}
	if c.SettlePause < 0 {
		return fmt.Errorf("settle pause cannot be negative")
	}
	if c.StartStagger < 0 {
		return fmt.Errorf("start stagger cannot be negative")
	}
	if c.LanguageWait < 0 {
		return fmt.Errorf("language wait cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.TranslateAttempts <= 0 {
		return fmt.Errorf("translate attempts must be positive")
	}
	if c.TranslateBackoff < 0 {
		return fmt.Errorf("translate backoff cannot be negative")
	}
	if c.TranslateCacheSize < 0 {
		return fmt.Errorf("translate cache size cannot be negative")
	}
	if c.SourceLang == "" || c.TargetLang == "" {
		return fmt.Errorf("source and target languages are required")
	}
	if c.RepeatThreshold < 0 {
		return fmt.Errorf("repeat threshold cannot be negative")
	}
	if c.ImageRoot == "" {
		return fmt.Errorf("image root cannot be empty")
	}
	switch c.Group {
	case "local", "remote", "all":
	default:
		return fmt.Errorf("group must be local, remote, or all")
	}
	if c.OutputFile != "" && c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}
