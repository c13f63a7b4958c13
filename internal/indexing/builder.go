package indexing

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/nextdocs/docsearch/internal/structure"
)

// Options configures how an index is built
type Options struct {
	// Mode selects page/heading/text decomposition or page-only records
	Mode Mode

	// Language drives stemming. Empty disables language specific analysis.
	Language string

	// Tag makes records filterable by tag and requires every document to carry one
	Tag bool

	// ContextDepth is the number of neighbouring terms indexed together
	// with each term. Zero picks the mode default.
	ContextDepth int

	// Engine creates the full-text engine. Nil uses the in-memory bleve engine.
	Engine EngineFactory

	// Structurer turns raw content into structured data for documents that
	// don't carry it. Nil uses the default block types.
	Structurer *structure.Structurer
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeAdvanced
	}
	if o.ContextDepth <= 0 {
		if o.Mode == ModeSimple {
			o.ContextDepth = SimpleContextDepth
		} else {
			o.ContextDepth = AdvancedContextDepth
		}
	}
	if o.Engine == nil {
		o.Engine = NewBleveEngine
	}
	return o
}

// Index is a built, read-only search index for one language
type Index struct {
	opts   Options
	engine Engine
	stats  Stats
}

// Mode returns the record layout of the index
func (i *Index) Mode() Mode { return i.opts.Mode }

// Language returns the language the index was analyzed for
func (i *Index) Language() string { return i.opts.Language }

// TagEnabled reports whether records can be filtered by tag
func (i *Index) TagEnabled() bool { return i.opts.Tag }

// Engine returns the underlying full-text engine
func (i *Index) Engine() Engine { return i.engine }

// Stats returns what went into the index
func (i *Index) Stats() Stats { return i.stats }

// Close releases the engine
func (i *Index) Close() error { return i.engine.Close() }

// Build validates docs, turns them into records and indexes them in batches.
// A document missing a required field fails the whole build with a *FieldError.
func Build(ctx context.Context, docs []Document, opts Options) (*Index, error) {
	start := time.Now()
	opts = opts.withDefaults()

	records, stats, err := Records(docs, opts)
	if err != nil {
		return nil, err
	}

	engine, err := opts.Engine(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	for i := 0; i < len(records); i += BatchSize {
		end := min(i+BatchSize, len(records))
		if err := engine.Add(ctx, records[i:end]); err != nil {
			engine.Close()
			return nil, fmt.Errorf("failed to index batch %d-%d: %w", i, end, err)
		}
	}

	log.Printf("✓ Indexed %d documents (%d records, %s mode, language=%q) in %v",
		stats.Documents, stats.Records, opts.Mode, opts.Language, time.Since(start).Round(time.Millisecond))

	return &Index{opts: opts, engine: engine, stats: stats}, nil
}

// Records converts documents into index records without indexing them
func Records(docs []Document, opts Options) ([]Record, Stats, error) {
	opts = opts.withDefaults()

	structurer := opts.Structurer
	if structurer == nil {
		var err error
		structurer, err = structure.New(structure.Options{})
		if err != nil {
			return nil, Stats{}, err
		}
	}

	var stats Stats
	records := make([]Record, 0, len(docs))
	seen := make(map[string]string, len(docs))

	for _, doc := range docs {
		if err := validate(doc, opts); err != nil {
			return nil, Stats{}, err
		}

		id := recordID(doc, opts.Mode)
		name := documentName(doc)

		var docRecords []Record
		if opts.Mode == ModeSimple {
			docRecords = simpleRecords(doc, id, opts)
		} else {
			docRecords = advancedRecords(doc, structurer, opts)
		}

		// Child ids are id+counter, so they can collide with another page's id
		for _, r := range docRecords {
			if prev, ok := seen[r.ID]; ok {
				return nil, Stats{}, &FieldError{
					Document: name,
					Field:    "id",
					Reason:   fmt.Sprintf("duplicate record id %q, already used by %s", r.ID, prev),
				}
			}
			seen[r.ID] = name
		}

		stats.Documents++
		for _, r := range docRecords {
			switch r.Type {
			case RecordPage:
				stats.Pages++
			case RecordHeading:
				stats.Headings++
			case RecordText:
				stats.Texts++
			}
		}
		records = append(records, docRecords...)
	}

	stats.Records = len(records)
	return records, stats, nil
}

func validate(doc Document, opts Options) error {
	name := documentName(doc)
	switch {
	case strings.TrimSpace(doc.URL) == "":
		return &FieldError{Document: name, Field: "url", Reason: "is required"}
	case strings.TrimSpace(doc.Title) == "":
		return &FieldError{Document: name, Field: "title", Reason: "is required"}
	case opts.Mode == ModeAdvanced && doc.ID == "":
		return &FieldError{Document: name, Field: "id", Reason: "is required"}
	case opts.Tag && doc.Tag == "":
		return &FieldError{Document: name, Field: "tag", Reason: "is required when tag filtering is enabled"}
	}
	return nil
}

// recordID falls back to the url in simple mode, where documents are
// addressed by their canonical link
func recordID(doc Document, mode Mode) string {
	if doc.ID == "" && mode == ModeSimple {
		return doc.URL
	}
	return doc.ID
}

func recordTag(doc Document, opts Options) string {
	if !opts.Tag {
		return ""
	}
	return doc.Tag
}

func advancedRecords(doc Document, structurer *structure.Structurer, opts Options) []Record {
	data := doc.StructuredData
	if data == nil {
		structured := structurer.Structure(doc.Content)
		data = &structured
	}

	tag := recordTag(doc, opts)
	records := make([]Record, 0, 1+len(data.Headings)+len(data.Contents))
	records = append(records, Record{
		ID:      doc.ID,
		PageID:  doc.ID,
		Type:    RecordPage,
		Content: doc.Title,
		URL:     doc.URL,
		Tag:     tag,
	})

	// Headings and texts share one counter so ids stay unique per page
	counter := 0
	for _, heading := range data.Headings {
		records = append(records, Record{
			ID:      doc.ID + strconv.Itoa(counter),
			PageID:  doc.ID,
			Type:    RecordHeading,
			Content: heading.Content,
			URL:     doc.URL + "#" + heading.ID,
			Tag:     tag,
		})
		counter++
	}

	for _, block := range data.Contents {
		url := doc.URL
		if block.Heading != "" {
			url += "#" + block.Heading
		}
		records = append(records, Record{
			ID:      doc.ID + strconv.Itoa(counter),
			PageID:  doc.ID,
			Type:    RecordText,
			Content: block.Content,
			URL:     url,
			Tag:     tag,
		})
		counter++
	}

	return records
}

func simpleRecords(doc Document, id string, opts Options) []Record {
	body := StripMarkdownLinks(structure.StripESM(structure.StripFrontmatter(doc.Content)))
	if doc.Description != "" {
		body = doc.Description + "\n\n" + body
	}

	keywords := doc.Keywords
	if len(keywords) == 0 {
		keywords = ExtractKeywords(doc.Title, body)
	}

	return []Record{{
		ID:       id,
		PageID:   id,
		Type:     RecordPage,
		Content:  doc.Title,
		URL:      doc.URL,
		Tag:      recordTag(doc, opts),
		Body:     body,
		Keywords: keywords,
	}}
}
