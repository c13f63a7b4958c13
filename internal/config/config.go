// Package config loads the docsearch YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nextdocs/docsearch/internal/indexing"
	"github.com/nextdocs/docsearch/internal/search"
	"github.com/nextdocs/docsearch/internal/structure"
)

// DefaultPath is the configuration file looked up when none is given
const DefaultPath = "docsearch.yaml"

// Config is the complete docsearch configuration
type Config struct {
	// Mode is "advanced" (page/heading/text) or "simple" (page only)
	Mode indexing.Mode `yaml:"mode" json:"mode"`

	// Tag enables tag filtered search. Every document must then carry a tag.
	Tag bool `yaml:"tag" json:"tag"`

	// Limit is the default number of raw hits per search, 0 for the mode default
	Limit int `yaml:"limit" json:"limit"`

	CacheSize int `yaml:"cache_size" json:"cache_size"`

	// Listen is the HTTP address for `docsearch serve`
	Listen string `yaml:"listen" json:"listen"`

	// BaseURL prefixes page urls built from content paths
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Content is a markdown directory or a .json manifest. Used when
	// Languages is empty.
	Content string `yaml:"content" json:"content"`

	// Language drives stemming of the single index
	Language string `yaml:"language" json:"language"`

	// Languages makes the deployment internationalized, one index per entry
	Languages []Language `yaml:"languages" json:"languages"`

	// BlockTypes are the markdown blocks indexed as text
	BlockTypes []string `yaml:"block_types" json:"block_types"`

	Watch WatchConfig `yaml:"watch" json:"watch"`

	// dir is the directory of the loaded file; relative content paths resolve against it
	dir string
}

// Language is one locale of an internationalized deployment
type Language struct {
	Code    string `yaml:"code" json:"code"`
	Content string `yaml:"content" json:"content"`
	// BaseURL overrides the top level base_url for this locale
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// WatchConfig configures rebuilds on content changes
type WatchConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Debounce string `yaml:"debounce" json:"debounce"`
}

// ValidationError reports an invalid configuration value
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// NewConfig returns a configuration with every default applied
func NewConfig() *Config {
	return &Config{
		Mode:       indexing.ModeAdvanced,
		CacheSize:  search.DefaultCacheSize,
		Listen:     ":8080",
		BaseURL:    "/docs",
		Content:    "content/docs",
		BlockTypes: append([]string{}, structure.DefaultTypes...),
		Watch:      WatchConfig{Debounce: "200ms"},
		dir:        ".",
	}
}

// Load reads the file at path over the defaults, applies DOCSEARCH_*
// environment overrides and validates the result. A missing file at the
// default path is not an error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		cfg.dir = filepath.Dir(path)
	case os.IsNotExist(err) && !explicit:
		// No config file is fine - use defaults
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies DOCSEARCH_* environment variable overrides
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCSEARCH_MODE"); v != "" {
		c.Mode = indexing.Mode(strings.ToLower(v))
	}
	if v := os.Getenv("DOCSEARCH_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("DOCSEARCH_CONTENT"); v != "" {
		c.Content = v
	}
	if v := os.Getenv("DOCSEARCH_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("DOCSEARCH_TAG"); v != "" {
		c.Tag = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("DOCSEARCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Limit = n
		}
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	switch c.Mode {
	case indexing.ModeAdvanced, indexing.ModeSimple:
	default:
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("must be 'advanced' or 'simple', got %q", c.Mode)}
	}

	if c.Limit < 0 || c.Limit > search.MaxLimit {
		return &ValidationError{Field: "limit", Reason: fmt.Sprintf("must be between 0 and %d, got %d", search.MaxLimit, c.Limit)}
	}
	if c.CacheSize < 0 {
		return &ValidationError{Field: "cache_size", Reason: fmt.Sprintf("must be non-negative, got %d", c.CacheSize)}
	}

	if _, err := structure.New(structure.Options{Types: c.BlockTypes}); err != nil {
		return &ValidationError{Field: "block_types", Reason: err.Error()}
	}

	if _, err := c.DebounceDuration(); err != nil {
		return &ValidationError{Field: "watch.debounce", Reason: err.Error()}
	}

	if !c.I18n() {
		if strings.TrimSpace(c.Content) == "" {
			return &ValidationError{Field: "content", Reason: "is required"}
		}
		return nil
	}

	seen := make(map[string]bool, len(c.Languages))
	for i, lang := range c.Languages {
		field := fmt.Sprintf("languages[%d]", i)
		if lang.Code == "" {
			return &ValidationError{Field: field + ".code", Reason: "is required"}
		}
		if seen[lang.Code] {
			return &ValidationError{Field: field + ".code", Reason: fmt.Sprintf("duplicate language %q", lang.Code)}
		}
		seen[lang.Code] = true
		if strings.TrimSpace(lang.Content) == "" {
			return &ValidationError{Field: field + ".content", Reason: "is required"}
		}
	}
	return nil
}

// I18n reports whether one index is built per language
func (c *Config) I18n() bool {
	return len(c.Languages) > 0
}

// ResolvePath resolves a content path relative to the config file
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}

// LanguageBaseURL returns the base url pages of lang are served under
func (c *Config) LanguageBaseURL(lang Language) string {
	if lang.BaseURL != "" {
		return lang.BaseURL
	}
	return c.BaseURL
}

// DebounceDuration parses the watch debounce interval
func (c *Config) DebounceDuration() (time.Duration, error) {
	if c.Watch.Debounce == "" {
		return 200 * time.Millisecond, nil
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must be non-negative, got %s", d)
	}
	return d, nil
}

// WriteYAML writes the configuration to a YAML file
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
