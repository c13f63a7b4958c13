package indexing

import "context"

// Query is a full-text lookup against an Engine
type Query struct {
	Text  string
	Tag   string // empty means no tag filter
	Limit int
}

// Hit is a ranked match; hits are returned in descending relevance
type Hit struct {
	ID    string
	Score float64
}

// Engine abstracts the full-text index behind the builder and query engine.
// Records are added once at build time; after that the engine is only read,
// and Search/Get must be safe for concurrent use.
type Engine interface {
	// Add indexes a batch of records
	Add(ctx context.Context, records []Record) error

	// Search returns up to q.Limit hits ranked by relevance
	Search(ctx context.Context, q Query) ([]Hit, error)

	// Get returns a record by id
	Get(id string) (Record, bool)

	// Count returns the number of indexed records
	Count() int

	// Close releases the engine
	Close() error
}

// EngineFactory creates an empty engine for one index
type EngineFactory func(opts Options) (Engine, error)
