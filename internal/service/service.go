// Package service builds the configured indexes and keeps the request
// router serving the latest generation.
package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nextdocs/docsearch/internal/config"
	"github.com/nextdocs/docsearch/internal/indexing"
	"github.com/nextdocs/docsearch/internal/router"
	"github.com/nextdocs/docsearch/internal/search"
	"github.com/nextdocs/docsearch/internal/source"
	"github.com/nextdocs/docsearch/internal/structure"
)

// Status describes the generation currently served
type Status struct {
	Generation int                       `json:"generation"`
	BuiltAt    time.Time                 `json:"built_at"`
	Duration   string                    `json:"duration"`
	Locales    []string                  `json:"locales"`
	Stats      map[string]indexing.Stats `json:"stats"`
}

// Service owns the index generations of one deployment
type Service struct {
	cfg        *config.Config
	structurer *structure.Structurer
	loader     *source.Loader
	router     *router.Router

	// Serializes refresh operations
	refreshMu sync.Mutex

	mu     sync.RWMutex
	status Status
}

// New creates a service. Nothing is served until the first Refresh.
func New(cfg *config.Config) (*Service, error) {
	structurer, err := structure.New(structure.Options{Types: cfg.BlockTypes})
	if err != nil {
		return nil, fmt.Errorf("invalid block types: %w", err)
	}

	loader, err := source.NewLoader(structurer)
	if err != nil {
		return nil, fmt.Errorf("failed to create content loader: %w", err)
	}

	return &Service{
		cfg:        cfg,
		structurer: structurer,
		loader:     loader,
		router:     router.New(nil),
		status:     Status{Locales: []string{}, Stats: map[string]indexing.Stats{}},
	}, nil
}

// Config returns the configuration the service was created with
func (s *Service) Config() *config.Config { return s.cfg }

// Router returns the router serving the current generation
func (s *Service) Router() *router.Router { return s.router }

// Search answers a request, applying the configured default limit
func (s *Service) Search(ctx context.Context, req router.Request) []search.SortedResult {
	if req.Limit == 0 {
		req.Limit = s.cfg.Limit
	}
	return s.router.HandleRequest(ctx, req)
}

// Status returns the current generation
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// ContentPaths returns every resolved content path of the configuration
func (s *Service) ContentPaths() []string {
	if !s.cfg.I18n() {
		return []string{s.cfg.ResolvePath(s.cfg.Content)}
	}
	paths := make([]string, 0, len(s.cfg.Languages))
	for _, lang := range s.cfg.Languages {
		paths = append(paths, s.cfg.ResolvePath(lang.Content))
	}
	return paths
}

// Refresh loads all content, builds a new generation and swaps it in.
// On failure the previous generation keeps serving.
func (s *Service) Refresh(ctx context.Context) (Status, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	log.Printf("Building search indexes...")

	next, stats, err := s.build(ctx)
	if err != nil {
		return s.Status(), err
	}

	s.router.Swap(next)

	s.mu.Lock()
	s.status = Status{
		Generation: s.status.Generation + 1,
		BuiltAt:    time.Now(),
		Duration:   time.Since(start).Round(time.Millisecond).String(),
		Locales:    s.router.Locales(),
		Stats:      stats,
	}
	status := s.status
	s.mu.Unlock()

	log.Printf("✓ Search generation %d ready in %s", status.Generation, status.Duration)
	return status, nil
}

type built struct {
	key    string
	engine *search.Engine
}

func (s *Service) build(ctx context.Context) (*router.Router, map[string]indexing.Stats, error) {
	type job struct {
		key      string
		path     string
		baseURL  string
		language string
	}

	var jobs []job
	if s.cfg.I18n() {
		for _, lang := range s.cfg.Languages {
			jobs = append(jobs, job{
				key:      lang.Code,
				path:     s.cfg.ResolvePath(lang.Content),
				baseURL:  s.cfg.LanguageBaseURL(lang),
				language: lang.Code,
			})
		}
	} else {
		jobs = append(jobs, job{
			path:     s.cfg.ResolvePath(s.cfg.Content),
			baseURL:  s.cfg.BaseURL,
			language: s.cfg.Language,
		})
	}

	results := make([]built, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			engine, err := s.buildOne(ctx, j.path, j.baseURL, j.language)
			if err != nil {
				if j.key != "" {
					return fmt.Errorf("language %s: %w", j.key, err)
				}
				return err
			}
			results[i] = built{key: j.key, engine: engine}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, r := range results {
			if r.engine != nil {
				r.engine.Close()
			}
		}
		return nil, nil, err
	}

	stats := make(map[string]indexing.Stats, len(results))
	if !s.cfg.I18n() {
		stats[""] = results[0].engine.Index().Stats()
		return router.NewSingle(results[0].engine), stats, nil
	}

	searchers := make(map[string]search.Searcher, len(results))
	for _, r := range results {
		searchers[r.key] = r.engine
		stats[r.key] = r.engine.Index().Stats()
	}
	return router.New(searchers), stats, nil
}

func (s *Service) buildOne(ctx context.Context, path, baseURL, language string) (*search.Engine, error) {
	docs, err := s.loader.Load(path, baseURL)
	if err != nil {
		return nil, err
	}

	idx, err := indexing.Build(ctx, docs, s.IndexOptions(language))
	if err != nil {
		return nil, err
	}

	engine, err := search.New(idx, s.cfg.CacheSize)
	if err != nil {
		idx.Close()
		return nil, err
	}
	return engine, nil
}

// IndexOptions returns the builder options for a language
func (s *Service) IndexOptions(language string) indexing.Options {
	return indexing.Options{
		Mode:       s.cfg.Mode,
		Language:   language,
		Tag:        s.cfg.Tag,
		Structurer: s.structurer,
	}
}

// Documents loads the documents of every configured language without indexing them
func (s *Service) Documents() (map[string][]indexing.Document, error) {
	out := make(map[string][]indexing.Document)
	if !s.cfg.I18n() {
		docs, err := s.loader.Load(s.cfg.ResolvePath(s.cfg.Content), s.cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		out[""] = docs
		return out, nil
	}

	for _, lang := range s.cfg.Languages {
		docs, err := s.loader.Load(s.cfg.ResolvePath(lang.Content), s.cfg.LanguageBaseURL(lang))
		if err != nil {
			return nil, fmt.Errorf("language %s: %w", lang.Code, err)
		}
		out[lang.Code] = docs
	}
	return out, nil
}

// Close stops serving and releases every index
func (s *Service) Close() error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if err := s.router.Close(); err != nil {
		return err
	}
	log.Printf("✓ Search indexes closed")
	return nil
}
