package indexing

// Indexing constants
const (
	// BatchSize is the number of records submitted to the engine per batch
	BatchSize = 100

	// MaxNgram is the longest prefix indexed by forward tokenization
	MaxNgram = 25

	// AdvancedContextDepth is the context window (in neighbouring terms) for advanced mode
	AdvancedContextDepth = 2

	// SimpleContextDepth is the context window for the body field in simple mode
	SimpleContextDepth = 1

	// MaxKeywords caps extracted keywords per document
	MaxKeywords = 10

	// IndexSchemaVersion increments when record layout or analysis changes
	// v1: flat chunks, v2: chunks with metadata, v3: page/heading/text records,
	// v4: unstemmed prefixes with a separate stemmed field
	IndexSchemaVersion = 4
)
