// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/ics-crawler/internal/crawler"
	"github.com/JakeFAU/ics-crawler/internal/report"
)

// DefaultSeeds are the front pages of the four in-scope schools.
var DefaultSeeds = []string{
	"https://www.ics.uci.edu",
	"https://www.cs.uci.edu",
	"https://www.informatics.uci.edu",
	"https://www.stat.uci.edu",
}

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Scope   ScopeConfig   `mapstructure:"scope"`
	Robots  RobotsConfig  `mapstructure:"robots"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Report  ReportConfig  `mapstructure:"report"`
}

// CrawlerConfig governs the fetch loop and deduplication policy.
type CrawlerConfig struct {
	Seeds                 []string `mapstructure:"seeds"`
	Concurrency           int      `mapstructure:"concurrency"`
	UserAgent             string   `mapstructure:"user_agent"`
	MaxPages              int      `mapstructure:"max_pages"`
	StripQuery            bool     `mapstructure:"strip_query"`
	VisitedKey            string   `mapstructure:"visited_key"`
	RequestTimeoutSeconds int      `mapstructure:"request_timeout_seconds"`
	DelayMs               int      `mapstructure:"delay_ms"`
	FetchAttempts         int      `mapstructure:"fetch_attempts"`
}

// ScopeConfig restricts which hosts are crawled and reported.
type ScopeConfig struct {
	AllowedSuffixes []string `mapstructure:"allowed_suffixes"`
	ReportDomain    string   `mapstructure:"report_domain"`
}

// RobotsConfig controls robots.txt compliance.
type RobotsConfig struct {
	Respect        bool `mapstructure:"respect"`
	TimeoutSeconds int  `mapstructure:"timeout_seconds"`
	CacheEnabled   bool `mapstructure:"cache_enabled"`
}

// ServerConfig controls the optional HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ReportConfig controls the end-of-session report.
type ReportConfig struct {
	Path         string `mapstructure:"path"`
	Format       string `mapstructure:"format"`
	TopWords     int    `mapstructure:"top_words"`
	IncludePages bool   `mapstructure:"include_pages"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.seeds", DefaultSeeds)
	v.SetDefault("crawler.concurrency", 4)
	v.SetDefault("crawler.user_agent", "ics-crawler/0.1")
	v.SetDefault("crawler.max_pages", 0)
	v.SetDefault("crawler.strip_query", true)
	v.SetDefault("crawler.visited_key", string(crawler.VisitedKeyRaw))
	v.SetDefault("crawler.request_timeout_seconds", 15)
	v.SetDefault("crawler.delay_ms", 500)
	v.SetDefault("crawler.fetch_attempts", 3)
	v.SetDefault("scope.allowed_suffixes", crawler.DefaultAllowedSuffixes)
	v.SetDefault("scope.report_domain", crawler.DefaultReportDomain)
	v.SetDefault("robots.respect", true)
	v.SetDefault("robots.timeout_seconds", 10)
	v.SetDefault("robots.cache_enabled", true)
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("report.path", "report.yaml")
	v.SetDefault("report.format", string(report.FormatYAML))
	v.SetDefault("report.top_words", report.DefaultTopWords)
	v.SetDefault("report.include_pages", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if len(c.Crawler.Seeds) == 0 {
		return fmt.Errorf("crawler.seeds must list at least one url")
	}
	for _, seed := range c.Crawler.Seeds {
		u, err := url.Parse(seed)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("crawler.seeds: %q is not an absolute http(s) url", seed)
		}
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.MaxPages < 0 {
		return fmt.Errorf("crawler.max_pages must be >= 0")
	}
	switch crawler.VisitedKey(c.Crawler.VisitedKey) {
	case crawler.VisitedKeyRaw, crawler.VisitedKeyNormalized:
	default:
		return fmt.Errorf("crawler.visited_key must be %q or %q", crawler.VisitedKeyRaw, crawler.VisitedKeyNormalized)
	}
	if c.Crawler.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.request_timeout_seconds must be > 0")
	}
	if c.Crawler.DelayMs < 0 {
		return fmt.Errorf("crawler.delay_ms must be >= 0")
	}
	if c.Crawler.FetchAttempts <= 0 {
		return fmt.Errorf("crawler.fetch_attempts must be > 0")
	}
	if strings.TrimSpace(c.Scope.ReportDomain) == "" {
		return fmt.Errorf("scope.report_domain must be set")
	}
	if c.Robots.Respect && c.Robots.TimeoutSeconds <= 0 {
		return fmt.Errorf("robots.timeout_seconds must be > 0 when robots are respected")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	if _, err := report.ParseFormat(c.Report.Format); err != nil {
		return fmt.Errorf("report.format: %w", err)
	}
	if c.Report.TopWords <= 0 {
		return fmt.Errorf("report.top_words must be > 0")
	}
	return nil
}

// RequestTimeout returns the per-page fetch timeout.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Crawler.RequestTimeoutSeconds) * time.Second
}

// Delay returns the minimum spacing between requests to one host.
func (c Config) Delay() time.Duration {
	return time.Duration(c.Crawler.DelayMs) * time.Millisecond
}

// RobotsTimeout returns the robots.txt fetch timeout.
func (c Config) RobotsTimeout() time.Duration {
	return time.Duration(c.Robots.TimeoutSeconds) * time.Second
}

// Normalizer returns the configured URL normalization policy.
func (c Config) Normalizer() crawler.Normalizer {
	return crawler.Normalizer{StripQuery: c.Crawler.StripQuery}
}
