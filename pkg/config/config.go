// Package config loads configuration for a blockmerge run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"blockmerge/pkg/merge"
	"blockmerge/pkg/sources"
)

const (
	// DefaultConfigPath is read when no path is given and it exists.
	DefaultConfigPath = "/etc/blockmerge/blockmerge.conf"
	configEnvVar      = "BLOCKMERGE_CONFIG"
)

// Config contains all options of a run.
type Config struct {
	Logging    LoggingConfig                 `mapstructure:"logging"`
	Output     OutputConfig                  `mapstructure:"output"`
	Fetch      FetchConfig                   `mapstructure:"fetch"`
	Gate       GateConfig                    `mapstructure:"gate"`
	Exclusions ExclusionsConfig              `mapstructure:"exclusions"`
	Metrics    MetricsConfig                 `mapstructure:"metrics"`
	Catalog    CatalogConfig                 `mapstructure:"catalog"`
	Custom     CustomConfig                  `mapstructure:"custom"`
	Sources    map[string]sources.ListConfig `mapstructure:"-"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `mapstructure:"-"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	ErrorLimit int    `mapstructure:"error_limit"`
}

// OutputConfig holds settings of the generated rule file.
type OutputConfig struct {
	Path              string      `mapstructure:"path"`
	Title             string      `mapstructure:"title"`
	Version           string      `mapstructure:"version"`
	Strict            bool        `mapstructure:"strict"`
	Sort              string      `mapstructure:"sort"`
	Order             merge.Order `mapstructure:"-"`
	CompressWildcards bool        `mapstructure:"compress_wildcards"`
	SpecialRules      []string    `mapstructure:"special_rules"`
	RejectedLog       string      `mapstructure:"rejected_log"`
}

// FetchConfig holds source retrieval settings.
type FetchConfig struct {
	Timeout     time.Duration     `mapstructure:"-"`
	MaxAttempts int               `mapstructure:"max_attempts"`
	BaseDelay   time.Duration     `mapstructure:"-"`
	MaxDelay    time.Duration     `mapstructure:"-"`
	MaxSize     datasize.ByteSize `mapstructure:"-"`
	Concurrency int               `mapstructure:"concurrency"`
	CacheDir    string            `mapstructure:"cache_dir"`
	UserAgent   string            `mapstructure:"user_agent"`
	ContentType string            `mapstructure:"content_type"`
}

// GateConfig holds quality gate settings.
type GateConfig struct {
	MaxFailedSources int `mapstructure:"max_failed_sources"`
}

// ExclusionsConfig holds the trusted substrings never turned into rules.
type ExclusionsConfig struct {
	List []string `mapstructure:"list"`
	Path string   `mapstructure:"path"`
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// CatalogConfig controls the built-in source catalog.
type CatalogConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// CustomConfig holds custom blocklist settings.
type CustomConfig struct {
	List []string `mapstructure:"list"`
}

// ValidateLogLevel ensures the user-provided log level matches the supported set.
func ValidateLogLevel(level string) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(level)] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", level)
	}
	return nil
}

// ValidateContentType ensures a media type has the type/subtype form.
func ValidateContentType(contentType string) error {
	if contentType == "" {
		return nil
	}
	major, minor, ok := strings.Cut(contentType, "/")
	if !ok || major == "" || minor == "" || strings.ContainsAny(contentType, " ;") {
		return fmt.Errorf("invalid content type: %q (want type/subtype)", contentType)
	}
	return nil
}

// Setup loads the TOML configuration and produces a Config instance. An
// empty path falls back to $BLOCKMERGE_CONFIG, then to DefaultConfigPath if
// it exists, then to the built-in defaults.
func Setup(path string) (*Config, error) {
	cfg, err := loadConfig(resolvePath(path))
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func resolvePath(path string) string {
	if path = strings.TrimSpace(path); path != "" {
		return path
	}
	if fromEnv := strings.TrimSpace(os.Getenv(configEnvVar)); fromEnv != "" {
		return fromEnv
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return DefaultConfigPath
	}
	return ""
}

func loadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Path = configPath

	listConfigs, err := parseListConfigs(v)
	if err != nil {
		return nil, err
	}
	cfg.Sources = listConfigs

	if err = parseFetch(v, &cfg.Fetch); err != nil {
		return nil, err
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "stderr")
	v.SetDefault("logging.error_limit", 20)
	v.SetDefault("output.path", "blocklist.txt")
	v.SetDefault("output.title", "Blockmerge Consolidated Blocklist")
	v.SetDefault("output.strict", true)
	v.SetDefault("output.sort", string(merge.OrderSource))
	v.SetDefault("output.compress_wildcards", false)
	v.SetDefault("output.special_rules", []string{"*$popup,third-party"})
	v.SetDefault("fetch.timeout", "20s")
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.base_delay", "1s")
	v.SetDefault("fetch.max_delay", "10s")
	v.SetDefault("fetch.max_size", "64MB")
	v.SetDefault("fetch.concurrency", 1)
	v.SetDefault("fetch.cache_dir", "")
	v.SetDefault("gate.max_failed_sources", 3)
	v.SetDefault("catalog.enabled", true)
}

func parseFetch(v *viper.Viper, fetch *FetchConfig) error {
	var err error
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"fetch.timeout", &fetch.Timeout},
		{"fetch.base_delay", &fetch.BaseDelay},
		{"fetch.max_delay", &fetch.MaxDelay},
	}
	for _, d := range durations {
		*d.dst, err = parseDuration(v.GetString(d.key))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
	}

	fetch.MaxSize, err = parseSize(v.GetString("fetch.max_size"))
	if err != nil {
		return fmt.Errorf("invalid fetch.max_size: %w", err)
	}
	return nil
}

func parseDuration(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}

func parseSize(raw string) (datasize.ByteSize, error) {
	var size datasize.ByteSize
	if raw == "" {
		return 0, nil
	}
	if err := size.UnmarshalText([]byte(raw)); err != nil {
		return 0, err
	}
	return size, nil
}

func validateConfig(cfg *Config) error {
	if err := ValidateLogLevel(cfg.Logging.Level); err != nil {
		return err
	}
	if cfg.Logging.ErrorLimit < 0 {
		return errors.New("logging.error_limit must be >= 0")
	}

	if strings.TrimSpace(cfg.Output.Path) == "" {
		return errors.New("output.path is required")
	}
	order, err := merge.ParseOrder(cfg.Output.Sort)
	if err != nil {
		return fmt.Errorf("invalid output.sort: %w", err)
	}
	cfg.Output.Order = order

	if cfg.Fetch.MaxAttempts < 1 {
		return errors.New("fetch.max_attempts must be >= 1")
	}
	if cfg.Fetch.Timeout < 0 || cfg.Fetch.BaseDelay < 0 || cfg.Fetch.MaxDelay < 0 {
		return errors.New("fetch durations must not be negative")
	}
	if cfg.Fetch.MaxDelay > 0 && cfg.Fetch.MaxDelay < cfg.Fetch.BaseDelay {
		return errors.New("fetch.max_delay must be >= fetch.base_delay")
	}
	if cfg.Fetch.Concurrency < 1 {
		return errors.New("fetch.concurrency must be >= 1")
	}
	if err := ValidateContentType(cfg.Fetch.ContentType); err != nil {
		return fmt.Errorf("invalid fetch.content_type: %w", err)
	}
	if cfg.Fetch.ContentType == "" && cfg.Output.Strict {
		cfg.Fetch.ContentType = sources.PlainText
	}

	if cfg.Gate.MaxFailedSources < 0 {
		return errors.New("gate.max_failed_sources must be >= 0")
	}

	if path := cfg.Exclusions.Path; path != "" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("exclusions.path not accessible: %w", err)
		}
	}

	for id, list := range cfg.Sources {
		if err := ValidateContentType(list.ContentType); err != nil {
			return fmt.Errorf("invalid sources.%s.content_type: %w", id, err)
		}
	}

	return nil
}

func parseListConfigs(v *viper.Viper) (map[string]sources.ListConfig, error) {
	raw := v.GetStringMap("sources")
	if len(raw) == 0 {
		return map[string]sources.ListConfig{}, nil
	}

	listConfigs := make(map[string]sources.ListConfig)
	for key, value := range raw {
		subMap, ok := value.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("sources.%s must be a table", key)
		}
		var cfg sources.ListConfig
		if err := mapstructure.Decode(subMap, &cfg); err != nil {
			return nil, fmt.Errorf("parse sources.%s: %w", key, err)
		}
		listConfigs[strings.ToLower(key)] = cfg
	}

	return listConfigs, nil
}
