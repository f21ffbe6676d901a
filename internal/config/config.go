// Package config loads and validates audit configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Crawl      CrawlConfig      `mapstructure:"crawl"`
	Fetcher    FetcherConfig    `mapstructure:"fetcher"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Discovery  DiscoveryConfig  `mapstructure:"discovery"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Publisher  PublisherConfig  `mapstructure:"publisher"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	SitesFile  string           `mapstructure:"sites_file"`
	Resume     bool             `mapstructure:"resume"`
}

// ServerConfig controls the status API listener.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// CrawlConfig governs the worker pool.
type CrawlConfig struct {
	Workers        int `mapstructure:"workers"`
	PageBudget     int `mapstructure:"page_budget"`
	RequestDelayMs int `mapstructure:"request_delay_ms"`
	MaxRetries     int `mapstructure:"max_retries"`
	// MaxSessionRestarts caps browser session recreations per site before
	// the site is marked FAILED.
	MaxSessionRestarts int `mapstructure:"max_session_restarts"`
	// StartIndex skips the first N sites of the list, for partial runs.
	StartIndex int `mapstructure:"start_index"`
}

// FetcherConfig configures browser sessions.
type FetcherConfig struct {
	PageTimeoutSeconds int      `mapstructure:"page_timeout_seconds"`
	SettleMs           int      `mapstructure:"settle_ms"`
	ChromePath         string   `mapstructure:"chrome_path"`
	Headful            bool     `mapstructure:"headful"`
	UserAgents         []string `mapstructure:"user_agents"`
}

// ClassifierConfig tunes modality detection thresholds.
type ClassifierConfig struct {
	AddressThreshold   int `mapstructure:"address_threshold"`
	ClickableThreshold int `mapstructure:"clickable_threshold"`
	IndexLinkThreshold int `mapstructure:"index_link_threshold"`
	ForeignPathPenalty int `mapstructure:"foreign_path_penalty"`
}

// DiscoveryConfig configures sitemap discovery.
type DiscoveryConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// CheckpointConfig sets the resume file location and flush cadence.
type CheckpointConfig struct {
	Path         string `mapstructure:"path"`
	PageInterval int    `mapstructure:"page_interval"`
}

// StorageConfig selects the artifact store backend.
type StorageConfig struct {
	// Provider is one of "memory", "local", or "gcs".
	Provider string `mapstructure:"provider"`
	BaseDir  string `mapstructure:"base_dir"`
	Bucket   string `mapstructure:"bucket"`
}

// PublisherConfig selects the summary publisher backend.
type PublisherConfig struct {
	// Provider is one of "memory" or "pubsub".
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
	// Level is a zapcore level name; empty means info.
	Level string `mapstructure:"level"`
}

// Load builds a Config from disk and environment. Environment variables use
// the AUDIT_ prefix with underscores, e.g. AUDIT_CRAWL_WORKERS=8.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AUDIT")
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
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawl.workers", 4)
	v.SetDefault("crawl.page_budget", 50)
	v.SetDefault("crawl.request_delay_ms", 1500)
	v.SetDefault("crawl.max_retries", 3)
	v.SetDefault("crawl.max_session_restarts", 2)
	v.SetDefault("crawl.start_index", 0)
	v.SetDefault("fetcher.page_timeout_seconds", 45)
	v.SetDefault("fetcher.settle_ms", 1500)
	v.SetDefault("fetcher.headful", false)
	v.SetDefault("classifier.address_threshold", 10)
	v.SetDefault("classifier.clickable_threshold", 5)
	v.SetDefault("classifier.index_link_threshold", 3)
	v.SetDefault("classifier.foreign_path_penalty", 3)
	v.SetDefault("discovery.timeout_seconds", 15)
	v.SetDefault("discovery.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	v.SetDefault("checkpoint.path", "checkpoint.json")
	v.SetDefault("checkpoint.page_interval", 25)
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.base_dir", "artifacts")
	v.SetDefault("publisher.provider", "memory")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("sites_file", "sites.json")
	v.SetDefault("resume", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawl.Workers <= 0 {
		return fmt.Errorf("crawl.workers must be > 0")
	}
	if c.Crawl.PageBudget <= 0 {
		return fmt.Errorf("crawl.page_budget must be > 0")
	}
	if c.Crawl.MaxSessionRestarts <= 0 {
		return fmt.Errorf("crawl.max_session_restarts must be > 0")
	}
	if c.Crawl.StartIndex < 0 {
		return fmt.Errorf("crawl.start_index must be >= 0")
	}
	if c.Fetcher.PageTimeoutSeconds <= 0 {
		return fmt.Errorf("fetcher.page_timeout_seconds must be > 0")
	}
	if c.Checkpoint.Path == "" {
		return fmt.Errorf("checkpoint.path is required")
	}
	if c.SitesFile == "" {
		return fmt.Errorf("sites_file is required")
	}
	switch c.Storage.Provider {
	case "memory", "local":
	case "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the gcs provider")
		}
	default:
		return fmt.Errorf("storage.provider must be memory, local, or gcs")
	}
	switch c.Publisher.Provider {
	case "memory":
	case "pubsub":
		if c.Publisher.ProjectID == "" || c.Publisher.Topic == "" {
			return fmt.Errorf("publisher.project_id and publisher.topic are required for the pubsub provider")
		}
	default:
		return fmt.Errorf("publisher.provider must be memory or pubsub")
	}
	return nil
}

// RequestDelay returns the per-site pacing interval.
func (c Config) RequestDelay() time.Duration {
	return time.Duration(c.Crawl.RequestDelayMs) * time.Millisecond
}

// PageTimeout returns the navigation timeout.
func (c Config) PageTimeout() time.Duration {
	return time.Duration(c.Fetcher.PageTimeoutSeconds) * time.Second
}

// SettleDelay returns the post-render settle wait.
func (c Config) SettleDelay() time.Duration {
	return time.Duration(c.Fetcher.SettleMs) * time.Millisecond
}

// DiscoveryTimeout returns the sitemap fetch timeout.
func (c Config) DiscoveryTimeout() time.Duration {
	return time.Duration(c.Discovery.TimeoutSeconds) * time.Second
}
