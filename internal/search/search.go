// Package search runs queries against a built index and assembles the
// page-grouped result list returned to clients.
package search

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nextdocs/docsearch/internal/indexing"
)

const (
	// DefaultSimpleLimit bounds raw hits in page-only mode
	DefaultSimpleLimit = 5

	// DefaultAdvancedLimit bounds raw hits in page/heading/text mode
	DefaultAdvancedLimit = 6

	// MaxLimit caps caller supplied limits
	MaxLimit = 20

	// DefaultCacheSize is the number of result lists kept per index
	DefaultCacheSize = 100
)

// SortedResult is one entry of a client facing result list
type SortedResult struct {
	Type    indexing.RecordType `json:"type"`
	ID      string              `json:"id"`
	URL     string              `json:"url"`
	Content string              `json:"content"`
}

// Options narrows a single search
type Options struct {
	// Tag restricts results to records with this tag. Ignored when the
	// index was built without tag filtering.
	Tag string

	// Limit bounds the raw hits. Zero uses the mode default.
	Limit int
}

// Searcher answers queries for one index
type Searcher interface {
	Search(ctx context.Context, query string, opts Options) ([]SortedResult, error)
	Close() error
}

type cacheKey struct {
	query string
	tag   string
	limit int
}

// Engine is the query engine over one indexing.Index
type Engine struct {
	index *indexing.Index
	cache *lru.Cache[cacheKey, []SortedResult]
}

// New creates a query engine. cacheSize <= 0 uses DefaultCacheSize.
func New(index *indexing.Index, cacheSize int) (*Engine, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, []SortedResult](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	return &Engine{index: index, cache: cache}, nil
}

// Index returns the index the engine reads
func (e *Engine) Index() *indexing.Index { return e.index }

// Search runs query and returns page-grouped results.
// An empty query yields an empty list, never an error.
func (e *Engine) Search(ctx context.Context, query string, opts Options) ([]SortedResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SortedResult{}, nil
	}

	tag := opts.Tag
	if !e.index.TagEnabled() {
		tag = ""
	}
	limit := e.limit(opts.Limit)

	key := cacheKey{query: strings.ToLower(query), tag: tag, limit: limit}
	if cached, ok := e.cache.Get(key); ok {
		return clone(cached), nil
	}

	engine := e.index.Engine()
	hits, err := engine.Search(ctx, indexing.Query{Text: query, Tag: tag, Limit: limit})
	if err != nil {
		return nil, err
	}

	var results []SortedResult
	if e.index.Mode() == indexing.ModeSimple {
		results = pages(engine, hits)
	} else {
		results = Group(engine, hits)
	}

	e.cache.Add(key, results)
	return clone(results), nil
}

// Close releases the index
func (e *Engine) Close() error {
	e.cache.Purge()
	return e.index.Close()
}

func (e *Engine) limit(requested int) int {
	switch {
	case requested <= 0 && e.index.Mode() == indexing.ModeSimple:
		return DefaultSimpleLimit
	case requested <= 0:
		return DefaultAdvancedLimit
	case requested > MaxLimit:
		return MaxLimit
	}
	return requested
}

// RecordSource resolves record ids to records
type RecordSource interface {
	Get(id string) (indexing.Record, bool)
}

// Group reassembles ranked hits into page groups. Pages appear in the order
// their first hit was ranked; each page is followed by its matching heading
// and text records in rank order. A page is emitted once even if it matched
// itself, and hits whose page cannot be resolved are dropped.
func Group(records RecordSource, hits []indexing.Hit) []SortedResult {
	type group struct {
		page     indexing.Record
		children []indexing.Record
	}

	var order []string
	groups := make(map[string]*group)

	for _, hit := range hits {
		r, ok := records.Get(hit.ID)
		if !ok {
			continue
		}

		g, ok := groups[r.PageID]
		if !ok {
			page, found := records.Get(r.PageID)
			if !found || page.Type != indexing.RecordPage {
				continue
			}
			g = &group{page: page}
			groups[r.PageID] = g
			order = append(order, r.PageID)
		}

		if r.Type != indexing.RecordPage {
			g.children = append(g.children, r)
		}
	}

	results := make([]SortedResult, 0, len(hits)+len(order))
	for _, pageID := range order {
		g := groups[pageID]
		results = append(results, toResult(g.page))
		for _, child := range g.children {
			results = append(results, toResult(child))
		}
	}
	return results
}

func pages(records RecordSource, hits []indexing.Hit) []SortedResult {
	results := make([]SortedResult, 0, len(hits))
	for _, hit := range hits {
		r, ok := records.Get(hit.ID)
		if !ok {
			continue
		}
		results = append(results, toResult(r))
	}
	return results
}

func toResult(r indexing.Record) SortedResult {
	return SortedResult{Type: r.Type, ID: r.ID, URL: r.URL, Content: r.Content}
}

func clone(results []SortedResult) []SortedResult {
	out := make([]SortedResult, len(results))
	copy(out, results)
	return out
}
