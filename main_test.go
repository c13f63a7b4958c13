package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextdocs/docsearch/internal/config"
	"github.com/nextdocs/docsearch/internal/search"
	"github.com/nextdocs/docsearch/internal/service"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "docsearch version "+version+"\n", out)
}

func TestInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docsearch.yaml")

	_, err := execute(t, "init", "--config", path)
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.NewConfig().Listen, cfg.Listen)

	_, err = execute(t, "init", "--config", path)
	assert.Error(t, err, "an existing file is kept without --force")

	_, err = execute(t, "init", "--config", path, "--force")
	assert.NoError(t, err)
}

func TestQueryCmd(t *testing.T) {
	dir := t.TempDir()
	content := filepath.Join(dir, "content")
	require.NoError(t, os.Mkdir(content, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(content, "routing.md"),
		[]byte("# Routing\n\nRoutes map paths to handlers.\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docsearch.yaml"),
		[]byte("content: content\nbase_url: /docs\n"), 0644))

	out, err := execute(t, "query", "--config", filepath.Join(dir, "docsearch.yaml"), "handlers")
	require.NoError(t, err)

	var results []search.SortedResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "/docs/routing", results[0].URL)
}

func TestIndexCmd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs.json"),
		[]byte(`[{"url": "/a", "title": "A", "content": "## One\n\nFirst."}]`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docsearch.yaml"),
		[]byte("content: docs.json\n"), 0644))

	out, err := execute(t, "index", "--config", filepath.Join(dir, "docsearch.yaml"))
	require.NoError(t, err)

	var status service.Status
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, 1, status.Generation)
	assert.Equal(t, 3, status.Stats[""].Records)
}
