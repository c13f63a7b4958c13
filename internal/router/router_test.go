package router_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextdocs/docsearch/internal/indexing"
	"github.com/nextdocs/docsearch/internal/router"
	"github.com/nextdocs/docsearch/internal/search"
)

type fakeSearcher struct {
	mu      sync.Mutex
	name    string
	err     error
	closed  bool
	queries []string
	opts    []search.Options
}

func (f *fakeSearcher) Search(_ context.Context, query string, opts search.Options) ([]search.SortedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	if query == "" {
		return []search.SortedResult{}, nil
	}
	return []search.SortedResult{{Type: indexing.RecordPage, ID: f.name, URL: "/" + f.name, Content: query}}, nil
}

func (f *fakeSearcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestHandleRequest_Locale(t *testing.T) {
	t.Parallel()

	en := &fakeSearcher{name: "en"}
	fr := &fakeSearcher{name: "fr"}
	r := router.New(map[string]search.Searcher{"en": en, "fr": fr})
	ctx := context.Background()

	results := r.HandleRequest(ctx, router.Request{Query: "bonjour", Locale: "fr", Tag: "v1"})
	require.Len(t, results, 1)
	assert.Equal(t, "fr", results[0].ID)
	assert.Equal(t, []search.Options{{Tag: "v1"}}, fr.opts)
	assert.Empty(t, en.queries)

	assert.Equal(t, []string{"en", "fr"}, r.Locales())
}

func TestHandleRequest_FailsClosed(t *testing.T) {
	t.Parallel()

	r := router.New(map[string]search.Searcher{
		"en": &fakeSearcher{name: "en"},
		"de": &fakeSearcher{name: "de", err: errors.New("broken")},
	})
	ctx := context.Background()

	tests := []struct {
		name string
		req  router.Request
	}{
		{name: "unknown locale", req: router.Request{Query: "hello", Locale: "ja"}},
		{name: "missing locale", req: router.Request{Query: "hello"}},
		{name: "locale is matched exactly", req: router.Request{Query: "hello", Locale: "EN"}},
		{name: "search error", req: router.Request{Query: "hallo", Locale: "de"}},
		{name: "empty query", req: router.Request{Locale: "en"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := r.HandleRequest(ctx, tt.req)
			assert.NotNil(t, results)
			assert.Empty(t, results)
		})
	}
}

func TestHandleRequest_Single(t *testing.T) {
	t.Parallel()

	only := &fakeSearcher{name: "docs"}
	r := router.NewSingle(only)

	for _, locale := range []string{"", "en", "anything"} {
		results := r.HandleRequest(context.Background(), router.Request{Query: "hello", Locale: locale})
		require.Len(t, results, 1)
		assert.Equal(t, "docs", results[0].ID)
	}
	assert.Empty(t, r.Locales())
}

func TestSwap(t *testing.T) {
	t.Parallel()

	old := &fakeSearcher{name: "old"}
	next := &fakeSearcher{name: "next"}

	r := router.NewSingle(old)
	r.Swap(router.New(map[string]search.Searcher{"en": next}))

	assert.True(t, old.closed)
	assert.Empty(t, r.HandleRequest(context.Background(), router.Request{Query: "q"}))

	results := r.HandleRequest(context.Background(), router.Request{Query: "q", Locale: "en"})
	require.Len(t, results, 1)
	assert.Equal(t, "next", results[0].ID)

	require.NoError(t, r.Close())
	assert.True(t, next.closed)
	assert.Empty(t, r.HandleRequest(context.Background(), router.Request{Query: "q", Locale: "en"}))
}

func TestSwap_ConcurrentRequests(t *testing.T) {
	t.Parallel()

	r := router.NewSingle(&fakeSearcher{name: "gen0"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				results := r.HandleRequest(context.Background(), router.Request{Query: "q"})
				assert.Len(t, results, 1)
			}
		}()
	}
	for i := 0; i < 10; i++ {
		r.Swap(router.NewSingle(&fakeSearcher{name: "next"}))
	}
	wg.Wait()
}

func TestHandleRequest_RealIndex(t *testing.T) {
	t.Parallel()

	idx, err := indexing.Build(context.Background(), []indexing.Document{
		{ID: "a", Title: "Hello", URL: "/test", Content: "Hello"},
	}, indexing.Options{Mode: indexing.ModeSimple})
	require.NoError(t, err)

	engine, err := search.New(idx, 0)
	require.NoError(t, err)

	r := router.New(map[string]search.Searcher{"en": engine})
	defer r.Close()

	results := r.HandleRequest(context.Background(), router.Request{Query: "Hello", Locale: "en"})
	assert.Equal(t, []search.SortedResult{{Type: indexing.RecordPage, ID: "a", URL: "/test", Content: "Hello"}}, results)
}
