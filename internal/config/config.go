// Package config loads and validates digest configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Scraper SourcesConfig `mapstructure:"scraper"`
	DB      DBConfig      `mapstructure:"db"`
	AI      AIConfig      `mapstructure:"ai"`
	Email   EmailConfig   `mapstructure:"email"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Digest  DigestConfig  `mapstructure:"digest"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SourcesConfig governs fetching behavior and the list of news sources.
type SourcesConfig struct {
	UserAgent          string         `mapstructure:"user_agent"`
	DelaySeconds       int            `mapstructure:"delay_seconds"`
	TimeoutSeconds     int            `mapstructure:"timeout_seconds"`
	ContentLimit       int            `mapstructure:"content_limit"`
	ContentDelayMillis int            `mapstructure:"content_delay_ms"`
	Sources            []SourceConfig `mapstructure:"sources"`
}

// SourceConfig describes one news source. Kind selects the parser: "jsa",
// "japantimes" and "generic" walk HTML with per-site selectors, "rss" reads
// a feed.
type SourceConfig struct {
	Name         string `mapstructure:"name"`
	URL          string `mapstructure:"url"`
	Kind         string `mapstructure:"kind"`
	InsecureTLS  bool   `mapstructure:"insecure_tls"`
	RenderWithJS bool   `mapstructure:"render_with_js"`
	LinkPrefix   string `mapstructure:"link_prefix"` // restrict link harvesting to hrefs with this prefix
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// AIConfig configures the language-model integration.
type AIConfig struct {
	APIKey              string  `mapstructure:"api_key"`
	Model               string  `mapstructure:"model"`
	EmbeddingModel      string  `mapstructure:"embedding_model"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	RequestDelayMillis  int     `mapstructure:"request_delay_ms"`
	MaxRetries          int     `mapstructure:"max_retries"`
}

// EmailConfig holds SMTP delivery settings.
type EmailConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Pass        string `mapstructure:"pass"`
	To          string `mapstructure:"to"`
	FromName    string `mapstructure:"from_name"`
	HeaderImage string `mapstructure:"header_image"`
}

// ArchiveConfig selects where generated emails are archived.
type ArchiveConfig struct {
	Provider  string `mapstructure:"provider"` // local, gcs, noop
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// DigestConfig shapes digest assembly and clash checking.
type DigestConfig struct {
	MaxArticles     int `mapstructure:"max_articles"`
	ClashWindowDays int `mapstructure:"clash_window_days"`
	TipRotationDays int `mapstructure:"tip_rotation_days"`
	CleanupDays     int `mapstructure:"cleanup_days"`
}

// ServerConfig controls the read-only ops HTTP surface.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SUMONEWS")
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

	if len(cfg.Scraper.Sources) == 0 {
		cfg.Scraper.Sources = DefaultSources()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// DefaultSources returns the three sites the tool was built around.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name: "Japan Sumo Association",
			URL:  "https://www.sumo.or.jp/En/",
			Kind: "jsa",
		},
		{
			Name:       "Japan Times Sumo",
			URL:        "https://www.japantimes.co.jp/sports/sumo/",
			Kind:       "japantimes",
			LinkPrefix: "/sports/sumo/",
		},
		{
			// ifs-sumo.org serves a broken certificate chain.
			Name:        "IFS Sumo",
			URL:         "http://www.ifs-sumo.org/",
			Kind:        "generic",
			InsecureTLS: true,
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scraper.user_agent", "sumo-news-bot/0.1 (Mozilla/5.0 compatible)")
	v.SetDefault("scraper.delay_seconds", 2)
	v.SetDefault("scraper.timeout_seconds", 10)
	v.SetDefault("scraper.content_limit", 1000)
	v.SetDefault("scraper.content_delay_ms", 1000)
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.embedding_model", "text-embedding-004")
	v.SetDefault("ai.similarity_threshold", 0.8)
	v.SetDefault("ai.request_delay_ms", 1000)
	v.SetDefault("ai.max_retries", 3)
	v.SetDefault("email.port", 587)
	v.SetDefault("email.from_name", "Sumo News Bot")
	v.SetDefault("archive.provider", "local")
	v.SetDefault("archive.base_dir", "archives")
	v.SetDefault("digest.max_articles", 10)
	v.SetDefault("digest.clash_window_days", 7)
	v.SetDefault("digest.tip_rotation_days", 30)
	v.SetDefault("digest.cleanup_days", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Scraper.DelaySeconds < 0 {
		return fmt.Errorf("scraper.delay_seconds must be >= 0")
	}
	if c.Scraper.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.timeout_seconds must be > 0")
	}
	for _, src := range c.Scraper.Sources {
		if src.Name == "" || src.URL == "" {
			return fmt.Errorf("every source needs a name and url")
		}
		switch src.Kind {
		case "jsa", "japantimes", "generic", "rss":
		default:
			return fmt.Errorf("source %q: unknown kind %q", src.Name, src.Kind)
		}
	}
	if c.AI.SimilarityThreshold < 0 || c.AI.SimilarityThreshold > 1 {
		return fmt.Errorf("ai.similarity_threshold must be within [0,1]")
	}
	if c.Digest.MaxArticles <= 0 {
		return fmt.Errorf("digest.max_articles must be > 0")
	}
	switch c.Archive.Provider {
	case "local", "gcs", "noop":
	default:
		return fmt.Errorf("unknown archive provider: %s", c.Archive.Provider)
	}
	if c.Archive.Provider == "gcs" && c.Archive.GCSBucket == "" {
		return fmt.Errorf("archive.gcs_bucket must be set when archive provider is gcs")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// RequestTimeout converts the scraper timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutSeconds) * time.Second
}

// SourceDelay is the pause between index fetches of different sources.
func (c Config) SourceDelay() time.Duration {
	return time.Duration(c.Scraper.DelaySeconds) * time.Second
}

// ContentDelay is the pause between article-content fetches.
func (c Config) ContentDelay() time.Duration {
	return time.Duration(c.Scraper.ContentDelayMillis) * time.Millisecond
}

// AIRequestDelay is the fixed pause between sequential model calls.
func (c Config) AIRequestDelay() time.Duration {
	return time.Duration(c.AI.RequestDelayMillis) * time.Millisecond
}
