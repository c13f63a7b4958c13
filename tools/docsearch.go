package tools

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nextdocs/docsearch/internal/indexing"
	"github.com/nextdocs/docsearch/internal/router"
	"github.com/nextdocs/docsearch/internal/search"
	"github.com/nextdocs/docsearch/internal/service"
)

// DocSearch is the search service behind the tools
type DocSearch interface {
	Search(ctx context.Context, req router.Request) []search.SortedResult
	Refresh(ctx context.Context) (service.Status, error)
	Status() service.Status
}

// SearchDocumentationInput defines input for documentation search
type SearchDocumentationInput struct {
	Query      string `json:"query" jsonschema:"Search query for documentation"`
	Tag        string `json:"tag,omitempty" jsonschema:"Restrict results to pages with this tag (optional)"`
	Locale     string `json:"locale,omitempty" jsonschema:"Locale code of the documentation to search, required for multi-language sites"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of matches before grouping (optional, max 20)"`
}

// SearchDocumentationOutput defines output for documentation search
type SearchDocumentationOutput struct {
	Results   []search.SortedResult `json:"results"`
	Query     string                `json:"query"`
	TotalHits int                   `json:"total_hits"`
	Pages     int                   `json:"pages"`
}

// RefreshDocumentationIndexInput takes no arguments
type RefreshDocumentationIndexInput struct{}

// RefreshDocumentationIndexOutput defines output for index refresh
type RefreshDocumentationIndexOutput struct {
	Updated        bool      `json:"updated"`
	LastUpdate     time.Time `json:"last_update"`
	Generation     int       `json:"generation"`
	RecordsIndexed int       `json:"records_indexed"`
	Locales        []string  `json:"locales"`
	Message        string    `json:"message"`
}

type docSearchTools struct {
	svc DocSearch
}

// SearchDocumentation searches the indexed documentation.
// Results are grouped by page: every heading or text match follows its page.
func (d *docSearchTools) SearchDocumentation(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentationInput) (*mcp.CallToolResult, SearchDocumentationOutput, error) {
	if input.MaxResults < 0 || input.MaxResults > search.MaxLimit {
		input.MaxResults = search.MaxLimit
	}

	results := d.svc.Search(ctx, router.Request{
		Query:  input.Query,
		Tag:    input.Tag,
		Locale: input.Locale,
		Limit:  input.MaxResults,
	})

	pages := 0
	for _, r := range results {
		if r.Type == indexing.RecordPage {
			pages++
		}
	}

	return nil, SearchDocumentationOutput{
		Results:   results,
		Query:     input.Query,
		TotalHits: len(results),
		Pages:     pages,
	}, nil
}

// RefreshDocumentationIndex reloads all content and rebuilds every index
func (d *docSearchTools) RefreshDocumentationIndex(ctx context.Context, req *mcp.CallToolRequest, input RefreshDocumentationIndexInput) (*mcp.CallToolResult, RefreshDocumentationIndexOutput, error) {
	status, err := d.svc.Refresh(ctx)
	if err != nil {
		return nil, RefreshDocumentationIndexOutput{}, fmt.Errorf("refresh failed: %w", err)
	}

	records := 0
	for _, stats := range status.Stats {
		records += stats.Records
	}

	return nil, RefreshDocumentationIndexOutput{
		Updated:        true,
		LastUpdate:     status.BuiltAt,
		Generation:     status.Generation,
		RecordsIndexed: records,
		Locales:        status.Locales,
		Message:        fmt.Sprintf("Documentation refreshed successfully, %d records indexed in %s", records, status.Duration),
	}, nil
}

// RegisterDocSearchTools registers documentation search tools
func RegisterDocSearchTools(server *mcp.Server, svc DocSearch) error {
	if svc == nil {
		return fmt.Errorf("documentation search service is required")
	}
	d := &docSearchTools{svc: svc}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_documentation",
			Description: "Search the documentation using full-text search. Returns matching pages, each followed by its matching headings and paragraphs with deep links.",
		},
		d.SearchDocumentation,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "refresh_documentation_index",
			Description: "Reload documentation content from disk and rebuild the search indexes",
		},
		d.RefreshDocumentationIndex,
	)

	log.Printf("✓ Registered documentation tools (generation %d)", svc.Status().Generation)
	return nil
}
