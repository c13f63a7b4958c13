// Package router dispatches search requests to the index of the requested
// locale. Unknown locales and failing searches yield empty results.
package router

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/nextdocs/docsearch/internal/search"
)

// Request is one incoming search
type Request struct {
	Query  string `json:"query"`
	Tag    string `json:"tag,omitempty"`
	Locale string `json:"locale,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// Router holds one searcher per locale, or a single searcher that serves
// every request when the deployment isn't internationalized
type Router struct {
	mu        sync.RWMutex
	searchers map[string]search.Searcher
	i18n      bool
}

// New creates a router for an internationalized deployment. Requests are
// served only for the exact locale codes in searchers.
func New(searchers map[string]search.Searcher) *Router {
	r := &Router{i18n: true}
	r.searchers = copyMap(searchers)
	return r
}

// NewSingle creates a router that serves every request from s, whatever the locale
func NewSingle(s search.Searcher) *Router {
	return &Router{searchers: map[string]search.Searcher{"": s}}
}

// HandleRequest runs req against the matching searcher. It never fails:
// an unknown locale, a blank query or a search error all return an empty list.
func (r *Router) HandleRequest(ctx context.Context, req Request) []search.SortedResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := ""
	if r.i18n {
		key = req.Locale
	}

	searcher, ok := r.searchers[key]
	if !ok || searcher == nil {
		return []search.SortedResult{}
	}

	results, err := searcher.Search(ctx, req.Query, search.Options{Tag: req.Tag, Limit: req.Limit})
	if err != nil {
		log.Printf("Search failed (locale=%q, query=%q): %v", req.Locale, req.Query, err)
		return []search.SortedResult{}
	}
	if results == nil {
		return []search.SortedResult{}
	}
	return results
}

// Locales returns the locale codes served, sorted. It is empty for a single index router.
func (r *Router) Locales() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.i18n {
		return []string{}
	}
	locales := make([]string, 0, len(r.searchers))
	for locale := range r.searchers {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return locales
}

// Swap replaces the served searchers with next and closes the previous ones
// once no request is using them
func (r *Router) Swap(next *Router) {
	next.mu.RLock()
	searchers := copyMap(next.searchers)
	i18n := next.i18n
	next.mu.RUnlock()

	r.mu.Lock()
	old := r.searchers
	r.searchers = searchers
	r.i18n = i18n
	r.mu.Unlock()

	closeAll(old)
}

// Close closes every searcher
func (r *Router) Close() error {
	r.mu.Lock()
	old := r.searchers
	r.searchers = map[string]search.Searcher{}
	r.mu.Unlock()

	return closeAll(old)
}

func closeAll(searchers map[string]search.Searcher) error {
	var firstErr error
	for locale, s := range searchers {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil {
			log.Printf("Warning: failed to close index for locale %q: %v", locale, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func copyMap(in map[string]search.Searcher) map[string]search.Searcher {
	out := make(map[string]search.Searcher, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
