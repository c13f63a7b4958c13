package indexing

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/edgengram"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
	"github.com/blevesearch/bleve/v2/analysis/token/shingle"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"golang.org/x/text/language"
)

const (
	// ForwardAnalyzerName indexes every prefix of every term. It never
	// stems, a stemmed term is not a prefix of the word being typed.
	ForwardAnalyzerName = "docs_forward"

	// PrefixAnalyzerName analyzes queries against forward fields
	PrefixAnalyzerName = "docs_prefix"

	// StrictAnalyzerName indexes whole, stemmed terms
	StrictAnalyzerName = "docs_strict"

	// ContextAnalyzerName indexes runs of neighbouring terms
	ContextAnalyzerName = "docs_context"

	edgeNgramFilterName = "docs_edge_ngram"
	shingleFilterName   = "docs_shingle"
)

// Indexed field names
const (
	fieldContent  = "content"
	fieldStemmed  = "stemmed"
	fieldContext  = "context"
	fieldTitle    = "title"
	fieldKeywords = "keywords"
	fieldTag      = "tag"
	fieldType     = "type"
	fieldPageID   = "page_id"
)

// BaseLanguage reduces a locale code such as "en-US" to its base language.
// Unparseable codes are returned lowercased.
func BaseLanguage(code string) string {
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToLower(code)
	}
	base, _ := tag.Base()
	return base.String()
}

// termFilters returns the token filters shared by all text analyzers
func termFilters(lang string) []string {
	filters := []string{lowercase.Name}
	if BaseLanguage(lang) == "en" {
		filters = append(filters, porter.Name)
	}
	return filters
}

func withFilter(filters []string, name string) []string {
	out := make([]string, 0, len(filters)+1)
	out = append(out, filters...)
	return append(out, name)
}

// newIndexMapping builds the bleve mapping for a mode.
// Advanced mode indexes the content by prefix and by stem, simple mode
// indexes title, body and keywords.
func newIndexMapping(opts Options) (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomTokenFilter(edgeNgramFilterName, map[string]interface{}{
		"type": edgengram.Name,
		"back": false,
		"min":  1.0,
		"max":  float64(MaxNgram),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add edge ngram filter: %w", err)
	}

	depth := opts.ContextDepth
	if depth < 1 {
		depth = 1
	}
	err = indexMapping.AddCustomTokenFilter(shingleFilterName, map[string]interface{}{
		"type":            shingle.Name,
		"min":             2.0,
		"max":             float64(depth + 1),
		"output_original": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add shingle filter: %w", err)
	}

	filters := termFilters(opts.Language)
	analyzers := map[string][]string{
		PrefixAnalyzerName:  {lowercase.Name},
		ForwardAnalyzerName: {lowercase.Name, edgeNgramFilterName},
		StrictAnalyzerName:  filters,
		ContextAnalyzerName: withFilter(filters, shingleFilterName),
	}
	for name, chain := range analyzers {
		err := indexMapping.AddCustomAnalyzer(name, map[string]interface{}{
			"type":          custom.Name,
			"tokenizer":     unicode.Name,
			"token_filters": chain,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add analyzer %s: %w", name, err)
		}
	}
	indexMapping.DefaultAnalyzer = StrictAnalyzerName

	doc := bleve.NewDocumentStaticMapping()
	text := func(analyzer string) *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = analyzer
		fm.Store = false
		fm.IncludeInAll = false
		return fm
	}
	kw := func() *mapping.FieldMapping {
		fm := bleve.NewKeywordFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = false
		fm.IncludeInAll = false
		return fm
	}

	switch opts.Mode {
	case ModeSimple:
		doc.AddFieldMappingsAt(fieldTitle, text(ForwardAnalyzerName))
		doc.AddFieldMappingsAt(fieldContent, text(StrictAnalyzerName))
		doc.AddFieldMappingsAt(fieldKeywords, text(StrictAnalyzerName))
	default:
		doc.AddFieldMappingsAt(fieldContent, text(ForwardAnalyzerName))
		doc.AddFieldMappingsAt(fieldStemmed, text(StrictAnalyzerName))
	}
	doc.AddFieldMappingsAt(fieldContext, text(ContextAnalyzerName))
	doc.AddFieldMappingsAt(fieldTag, kw())
	doc.AddFieldMappingsAt(fieldType, kw())
	doc.AddFieldMappingsAt(fieldPageID, kw())

	indexMapping.DefaultMapping = doc
	return indexMapping, nil
}

// bleveDocument is the field layout a record is indexed under
func bleveDocument(mode Mode, r Record) map[string]interface{} {
	doc := map[string]interface{}{
		fieldType:   string(r.Type),
		fieldPageID: r.PageID,
	}
	if r.Tag != "" {
		doc[fieldTag] = r.Tag
	}

	if mode == ModeSimple {
		doc[fieldTitle] = r.Content
		doc[fieldContent] = r.Body
		doc[fieldContext] = r.Body
		if len(r.Keywords) > 0 {
			doc[fieldKeywords] = r.Keywords
		}
		return doc
	}

	doc[fieldContent] = r.Content
	doc[fieldStemmed] = r.Content
	doc[fieldContext] = r.Content
	return doc
}
