package indexing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// bleveEngine keeps the inverted index in bleve and the records themselves
// in a map, so result assembly never has to load stored fields
type bleveEngine struct {
	mode    Mode
	tagged  bool
	index   bleve.Index
	mu      sync.RWMutex
	records map[string]Record
}

// NewBleveEngine creates an in-memory bleve engine analyzed for opts
func NewBleveEngine(opts Options) (Engine, error) {
	opts = opts.withDefaults()

	indexMapping, err := newIndexMapping(opts)
	if err != nil {
		return nil, err
	}

	index, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &bleveEngine{
		mode:    opts.Mode,
		tagged:  opts.Tag,
		index:   index,
		records: make(map[string]Record),
	}, nil
}

func (e *bleveEngine) Add(ctx context.Context, records []Record) error {
	batch := e.index.NewBatch()
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(r.ID, bleveDocument(e.mode, r)); err != nil {
			return fmt.Errorf("failed to add record %s to batch: %w", r.ID, err)
		}
	}

	if err := e.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index batch: %w", err)
	}

	e.mu.Lock()
	for _, r := range records {
		e.records[r.ID] = r
	}
	e.mu.Unlock()
	return nil
}

func (e *bleveEngine) Search(ctx context.Context, q Query) ([]Hit, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" || q.Limit <= 0 {
		return []Hit{}, nil
	}

	var searchQuery query.Query
	if e.mode == ModeSimple {
		searchQuery = e.simpleQuery(text)
	} else {
		searchQuery = e.advancedQuery(text)
	}

	if e.tagged && q.Tag != "" {
		tagQuery := bleve.NewTermQuery(q.Tag)
		tagQuery.SetField(fieldTag)
		searchQuery = bleve.NewConjunctionQuery(searchQuery, tagQuery)
	}

	req := bleve.NewSearchRequestOptions(searchQuery, q.Limit, 0, false)
	result, err := e.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, Hit{ID: hit.ID, Score: hit.Score})
	}
	return hits, nil
}

// advancedQuery requires every query term to match a term prefix of the
// record content, or every term to match a stemmed content term
func (e *bleveEngine) advancedQuery(text string) query.Query {
	prefix := matchAll(fieldContent, PrefixAnalyzerName, text)
	stemmed := matchAll(fieldStemmed, StrictAnalyzerName, text)

	return withNearby(bleve.NewDisjunctionQuery(prefix, stemmed), text)
}

// simpleQuery matches either the title (by prefix), the body or the keywords
func (e *bleveEngine) simpleQuery(text string) query.Query {
	title := matchAll(fieldTitle, PrefixAnalyzerName, text)
	title.SetBoost(2.0)

	body := matchAll(fieldContent, StrictAnalyzerName, text)

	keywords := bleve.NewMatchQuery(text)
	keywords.SetField(fieldKeywords)
	keywords.Analyzer = StrictAnalyzerName

	return withNearby(bleve.NewDisjunctionQuery(title, body, keywords), text)
}

func matchAll(field, analyzer, text string) *query.MatchQuery {
	q := bleve.NewMatchQuery(text)
	q.SetField(field)
	q.Analyzer = analyzer
	q.SetOperator(query.MatchQueryOperatorAnd)
	return q
}

// withNearby boosts records where the query terms appear next to each other
func withNearby(must query.Query, text string) query.Query {
	if len(strings.Fields(text)) < 2 {
		return must
	}

	nearby := bleve.NewMatchQuery(text)
	nearby.SetField(fieldContext)
	nearby.Analyzer = ContextAnalyzerName

	boolean := bleve.NewBooleanQuery()
	boolean.AddMust(must)
	boolean.AddShould(nearby)
	return boolean
}

func (e *bleveEngine) Get(id string) (Record, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.records[id]
	return r, ok
}

func (e *bleveEngine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.records)
}

func (e *bleveEngine) Close() error {
	return e.index.Close()
}
