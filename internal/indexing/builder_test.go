package indexing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextdocs/docsearch/internal/indexing"
	"github.com/nextdocs/docsearch/internal/structure"
)

const routingPage = `# Routing

Pages map to files on disk.

## Dynamic segments

Segments in brackets match any value.

## Middleware

Middleware runs before every request.
`

func TestRecords_Advanced(t *testing.T) {
	t.Parallel()

	docs := []indexing.Document{{
		ID:      "routing",
		Title:   "Routing",
		URL:     "/docs/routing",
		Tag:     "v2",
		Content: routingPage,
	}}

	records, stats, err := indexing.Records(docs, indexing.Options{Tag: true})
	require.NoError(t, err)

	want := []indexing.Record{
		{ID: "routing", PageID: "routing", Type: indexing.RecordPage, Content: "Routing", URL: "/docs/routing", Tag: "v2"},
		{ID: "routing0", PageID: "routing", Type: indexing.RecordHeading, Content: "Routing", URL: "/docs/routing#routing", Tag: "v2"},
		{ID: "routing1", PageID: "routing", Type: indexing.RecordHeading, Content: "Dynamic segments", URL: "/docs/routing#dynamic-segments", Tag: "v2"},
		{ID: "routing2", PageID: "routing", Type: indexing.RecordHeading, Content: "Middleware", URL: "/docs/routing#middleware", Tag: "v2"},
		{ID: "routing3", PageID: "routing", Type: indexing.RecordText, Content: "Pages map to files on disk.", URL: "/docs/routing#routing", Tag: "v2"},
		{ID: "routing4", PageID: "routing", Type: indexing.RecordText, Content: "Segments in brackets match any value.", URL: "/docs/routing#dynamic-segments", Tag: "v2"},
		{ID: "routing5", PageID: "routing", Type: indexing.RecordText, Content: "Middleware runs before every request.", URL: "/docs/routing#middleware", Tag: "v2"},
	}
	assert.Equal(t, want, records)
	assert.Equal(t, indexing.Stats{Documents: 1, Pages: 1, Headings: 3, Texts: 3, Records: 7}, stats)
}

func TestRecords_PrestructuredData(t *testing.T) {
	t.Parallel()

	docs := []indexing.Document{{
		ID:    "intro",
		Title: "Intro",
		URL:   "/intro",
		StructuredData: &structure.StructuredData{
			Headings: []structure.Heading{{ID: "setup", Content: "Setup"}},
			Contents: []structure.Content{
				{Content: "Before any heading."},
				{Heading: "setup", Content: "Run the installer."},
			},
		},
		Content: "# Ignored\n\nThis body is not structured.",
	}}

	records, _, err := indexing.Records(docs, indexing.Options{})
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, "/intro#setup", records[1].URL)
	assert.Equal(t, "/intro", records[2].URL, "text without a heading links to the page")
	assert.Equal(t, "/intro#setup", records[3].URL)
	assert.Equal(t, "intro2", records[3].ID)
}

func TestRecords_TagDroppedWhenDisabled(t *testing.T) {
	t.Parallel()

	docs := []indexing.Document{{ID: "a", Title: "A", URL: "/a", Tag: "v1", Content: "text"}}

	records, _, err := indexing.Records(docs, indexing.Options{})
	require.NoError(t, err)
	for _, r := range records {
		assert.Empty(t, r.Tag)
	}
}

func TestRecords_Simple(t *testing.T) {
	t.Parallel()

	docs := []indexing.Document{
		{ID: "a", Title: "Hello", URL: "/test", Content: "Hello"},
		{Title: "Guide", URL: "/guide", Content: "Read the [install notes](/install) first.", Keywords: []string{"setup"}},
	}

	records, stats, err := indexing.Records(docs, indexing.Options{Mode: indexing.ModeSimple})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, indexing.RecordPage, records[0].Type)
	assert.Equal(t, "Hello", records[0].Content)
	assert.Equal(t, "Hello", records[0].Body)

	assert.Equal(t, "/guide", records[1].ID, "simple mode falls back to the url")
	assert.Equal(t, "Read the install notes first.", records[1].Body)
	assert.Equal(t, []string{"setup"}, records[1].Keywords)

	assert.Equal(t, 2, stats.Pages)
	assert.Zero(t, stats.Headings)
}

func TestRecords_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		docs  []indexing.Document
		opts  indexing.Options
		field string
	}{
		{
			name:  "missing url",
			docs:  []indexing.Document{{ID: "a", Title: "A", Path: "docs/a.md"}},
			field: "url",
		},
		{
			name:  "missing title",
			docs:  []indexing.Document{{ID: "a", URL: "/a"}},
			field: "title",
		},
		{
			name:  "missing id in advanced mode",
			docs:  []indexing.Document{{Title: "A", URL: "/a"}},
			field: "id",
		},
		{
			name:  "missing tag with tags enabled",
			docs:  []indexing.Document{{ID: "a", Title: "A", URL: "/a"}},
			opts:  indexing.Options{Tag: true},
			field: "tag",
		},
		{
			name: "duplicate id",
			docs: []indexing.Document{
				{ID: "a", Title: "A", URL: "/a"},
				{ID: "a", Title: "B", URL: "/b"},
			},
			field: "id",
		},
		{
			name: "heading id equals a page id",
			docs: []indexing.Document{
				{ID: "/docs/a", Title: "A", URL: "/docs/a", Content: "## One\n\n## Two\n"},
				{ID: "/docs/a1", Title: "Zebra", URL: "/docs/a1"},
			},
			field: "id",
		},
		{
			name: "page id equals an earlier heading id",
			docs: []indexing.Document{
				{ID: "/docs/a1", Title: "Zebra", URL: "/docs/a1"},
				{ID: "/docs/a", Title: "A", URL: "/docs/a", Content: "## One\n\n## Two\n"},
			},
			field: "id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := indexing.Records(tt.docs, tt.opts)
			require.Error(t, err)

			var fieldErr *indexing.FieldError
			require.True(t, errors.As(err, &fieldErr))
			assert.Equal(t, tt.field, fieldErr.Field)
		})
	}
}

func TestRecords_RecordIDCollisionNamesBothDocuments(t *testing.T) {
	t.Parallel()

	_, _, err := indexing.Records([]indexing.Document{
		{ID: "/docs/a", Title: "A", URL: "/docs/a", Path: "a.md", Content: "## One\n\n## Two\n"},
		{ID: "/docs/a1", Title: "Zebra", URL: "/docs/a1", Path: "a1.md"},
	}, indexing.Options{})
	require.Error(t, err)

	var fieldErr *indexing.FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "a1.md", fieldErr.Document)
	assert.Contains(t, fieldErr.Reason, `"/docs/a1"`)
	assert.Contains(t, fieldErr.Reason, "a.md")
}

func TestFieldError_NamesTheSource(t *testing.T) {
	t.Parallel()

	_, err := indexing.Build(context.Background(), []indexing.Document{{ID: "a", Title: "A", Path: "docs/a.md"}}, indexing.Options{})
	require.Error(t, err)
	assert.Equal(t, `document "docs/a.md": field "url": is required`, err.Error())
}

type recordingEngine struct {
	batches [][]indexing.Record
	closed  bool
}

func (e *recordingEngine) Add(_ context.Context, records []indexing.Record) error {
	e.batches = append(e.batches, records)
	return nil
}

func (e *recordingEngine) Search(context.Context, indexing.Query) ([]indexing.Hit, error) {
	return nil, nil
}

func (e *recordingEngine) Get(string) (indexing.Record, bool) { return indexing.Record{}, false }
func (e *recordingEngine) Count() int                         { return 0 }
func (e *recordingEngine) Close() error                       { e.closed = true; return nil }

func TestBuild_Batches(t *testing.T) {
	t.Parallel()

	docs := make([]indexing.Document, 0, 250)
	for i := range 250 {
		id := "doc" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		docs = append(docs, indexing.Document{ID: id, Title: "Title", URL: "/" + id})
	}

	engine := &recordingEngine{}
	idx, err := indexing.Build(context.Background(), docs, indexing.Options{
		Mode:   indexing.ModeSimple,
		Engine: func(indexing.Options) (indexing.Engine, error) { return engine, nil },
	})
	require.NoError(t, err)

	require.Len(t, engine.batches, 3)
	assert.Len(t, engine.batches[0], indexing.BatchSize)
	assert.Len(t, engine.batches[1], indexing.BatchSize)
	assert.Len(t, engine.batches[2], 50)

	assert.Equal(t, indexing.ModeSimple, idx.Mode())
	assert.Equal(t, 250, idx.Stats().Records)

	require.NoError(t, idx.Close())
	assert.True(t, engine.closed)
}
