package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextdocs/docsearch/internal/config"
	"github.com/nextdocs/docsearch/internal/indexing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docsearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	assert.Equal(t, indexing.ModeAdvanced, cfg.Mode)
	assert.Equal(t, 100, cfg.CacheSize)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "/docs", cfg.BaseURL)
	assert.False(t, cfg.I18n())
	require.NoError(t, cfg.Validate())

	d, err := cfg.DebounceDuration()
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, d)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
mode: simple
tag: true
limit: 8
base_url: /guide
languages:
  - code: en
    content: content/en
  - code: fr
    content: /srv/fr
    base_url: /fr/guide
watch:
  enabled: true
  debounce: 1s
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, indexing.ModeSimple, cfg.Mode)
	assert.True(t, cfg.Tag)
	assert.Equal(t, 8, cfg.Limit)
	assert.Equal(t, 100, cfg.CacheSize, "unset fields keep their default")
	assert.True(t, cfg.I18n())
	require.Len(t, cfg.Languages, 2)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "content/en"), cfg.ResolvePath(cfg.Languages[0].Content))
	assert.Equal(t, "/srv/fr", cfg.ResolvePath(cfg.Languages[1].Content))
	assert.Equal(t, "/guide", cfg.LanguageBaseURL(cfg.Languages[0]))
	assert.Equal(t, "/fr/guide", cfg.LanguageBaseURL(cfg.Languages[1]))

	assert.True(t, cfg.Watch.Enabled)
	d, err := cfg.DebounceDuration()
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "mode: advanced\nlisten: \":9000\"\n")

	t.Setenv("DOCSEARCH_MODE", "SIMPLE")
	t.Setenv("DOCSEARCH_LISTEN", ":7000")
	t.Setenv("DOCSEARCH_TAG", "1")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, indexing.ModeSimple, cfg.Mode)
	assert.Equal(t, ":7000", cfg.Listen)
	assert.True(t, cfg.Tag)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("explicit missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := config.Load(writeConfig(t, "mode: [advanced"))
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*config.Config)
		field  string
	}{
		{
			name:   "unknown mode",
			modify: func(c *config.Config) { c.Mode = "fuzzy" },
			field:  "mode",
		},
		{
			name:   "limit above max",
			modify: func(c *config.Config) { c.Limit = 50 },
			field:  "limit",
		},
		{
			name:   "negative cache",
			modify: func(c *config.Config) { c.CacheSize = -1 },
			field:  "cache_size",
		},
		{
			name:   "unknown block type",
			modify: func(c *config.Config) { c.BlockTypes = []string{"paragraph", "image"} },
			field:  "block_types",
		},
		{
			name:   "bad debounce",
			modify: func(c *config.Config) { c.Watch.Debounce = "soon" },
			field:  "watch.debounce",
		},
		{
			name:   "missing content",
			modify: func(c *config.Config) { c.Content = "" },
			field:  "content",
		},
		{
			name: "duplicate language",
			modify: func(c *config.Config) {
				c.Languages = []config.Language{{Code: "en", Content: "a"}, {Code: "en", Content: "b"}}
			},
			field: "languages[1].code",
		},
		{
			name: "language without content",
			modify: func(c *config.Config) {
				c.Languages = []config.Language{{Code: "en"}}
			},
			field: "languages[0].content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			var validationErr *config.ValidationError
			require.True(t, errors.As(err, &validationErr), "got %v", err)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.Languages = []config.Language{{Code: "en", Content: "docs"}}

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Languages, loaded.Languages)
	assert.Equal(t, cfg.Mode, loaded.Mode)
}
