package indexing

import "github.com/nextdocs/docsearch/internal/structure"

// Document is one page handed to the index builder by the content loader.
type Document struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	// Tag is required when tag filtering is enabled
	Tag         string `json:"tag,omitempty"`
	Description string `json:"description,omitempty"`
	// Content is the raw markdown/mdx body
	Content  string   `json:"content"`
	Keywords []string `json:"keywords,omitempty"`
	// StructuredData skips structuring of Content when set
	StructuredData *structure.StructuredData `json:"structuredData,omitempty"`
	// Path is the source location, used in build errors
	Path string `json:"-"`
}

// RecordType distinguishes the indexable units of a document.
type RecordType string

const (
	RecordPage    RecordType = "page"
	RecordHeading RecordType = "heading"
	RecordText    RecordType = "text"
)

// Record is a single indexable unit in the search index
type Record struct {
	ID       string     `json:"id"`
	PageID   string     `json:"page_id"`
	Type     RecordType `json:"type"`
	Content  string     `json:"content"`            // page title, heading text or paragraph text
	URL      string     `json:"url"`                // page url, with #slug for headings and text
	Tag      string     `json:"tag,omitempty"`      // classification used for filtered search
	Body     string     `json:"body,omitempty"`     // full page text, simple mode only
	Keywords []string   `json:"keywords,omitempty"` // key terms, simple mode only
}

// Mode selects how documents are decomposed into records.
type Mode string

const (
	// ModeAdvanced emits page, heading and text records grouped by page at query time
	ModeAdvanced Mode = "advanced"
	// ModeSimple emits one page record per document
	ModeSimple Mode = "simple"
)

// Stats summarizes an index build
type Stats struct {
	Documents int `json:"documents"`
	Pages     int `json:"pages"`
	Headings  int `json:"headings"`
	Texts     int `json:"texts"`
	Records   int `json:"records"`
}
