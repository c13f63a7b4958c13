// Package structure extracts headings and prose blocks from markdown and MDX
// documents so they can be indexed at heading granularity.
package structure

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Block types that can be tracked.
const (
	TypeHeading    = "heading"
	TypeParagraph  = "paragraph"
	TypeBlockquote = "blockquote"
	TypeListItem   = "listItem"
	TypeTableCell  = "tableCell"
)

// DefaultTypes are the block types tracked when Options.Types is empty.
var DefaultTypes = []string{TypeParagraph, TypeBlockquote, TypeHeading}

// Heading is a heading of a document together with its slug.
type Heading struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Content is a prose block. Heading holds the slug of the nearest preceding
// heading and is empty for blocks that come before any heading.
type Content struct {
	Heading string `json:"heading,omitempty"`
	Content string `json:"content"`
}

// StructuredData is the headings/contents decomposition of one document.
type StructuredData struct {
	Headings []Heading `json:"headings"`
	// Contents refers to paragraphs; a heading may own several of them.
	Contents []Content `json:"contents"`
}

// Options configures a Structurer.
type Options struct {
	// Types to be scanned. Defaults to DefaultTypes.
	Types []string
}

// Structurer walks markdown block trees. It is safe for concurrent use;
// slug state lives in each Structure call.
type Structurer struct {
	md    goldmark.Markdown
	types map[string]bool
}

// New creates a Structurer. Unknown block types are a configuration error.
func New(opts Options) (*Structurer, error) {
	types := opts.Types
	if len(types) == 0 {
		types = DefaultTypes
	}

	tracked := make(map[string]bool, len(types))
	for _, t := range types {
		switch t {
		case TypeHeading, TypeParagraph, TypeBlockquote, TypeListItem, TypeTableCell:
			tracked[t] = true
		default:
			return nil, fmt.Errorf("unknown block type %q", t)
		}
	}

	return &Structurer{
		md:    goldmark.New(goldmark.WithExtensions(extension.GFM)),
		types: tracked,
	}, nil
}

var defaultStructurer, _ = New(Options{})

// Structure extracts data from markdown/mdx content with the default block types.
func Structure(content string) StructuredData {
	return defaultStructurer.Structure(content)
}

// Structure extracts headings and content blocks in document order.
func (s *Structurer) Structure(content string) StructuredData {
	src := []byte(StripESM(StripFrontmatter(content)))
	doc := s.md.Parser().Parse(text.NewReader(src))

	data := StructuredData{Headings: []Heading{}, Contents: []Content{}}
	slugger := NewSlugger()
	lastHeading := ""

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		kind := blockType(n)
		if kind == "" || !s.types[kind] {
			return ast.WalkContinue, nil
		}

		if kind == TypeHeading {
			heading := flatten(n, src)
			slug := slugger.Slug(heading)
			data.Headings = append(data.Headings, Heading{ID: slug, Content: heading})
			lastHeading = slug
			return ast.WalkSkipChildren, nil
		}

		data.Contents = append(data.Contents, Content{
			Heading: lastHeading,
			Content: flatten(n, src),
		})
		return ast.WalkSkipChildren, nil
	})

	return data
}

// Title returns the text of the first level-one heading, or "".
func (s *Structurer) Title(content string) string {
	src := []byte(StripESM(StripFrontmatter(content)))
	doc := s.md.Parser().Parse(text.NewReader(src))

	title := ""
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			title = strings.TrimSpace(flatten(h, src))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return title
}

// Title returns the first level-one heading using the default Structurer.
func Title(content string) string {
	return defaultStructurer.Title(content)
}

// blockType maps goldmark nodes onto the block type names used in Options.
// Tight list items hold a TextBlock instead of a Paragraph; both count as paragraphs.
func blockType(n ast.Node) string {
	switch n.Kind() {
	case ast.KindHeading:
		return TypeHeading
	case ast.KindParagraph, ast.KindTextBlock:
		return TypeParagraph
	case ast.KindBlockquote:
		return TypeBlockquote
	case ast.KindListItem:
		return TypeListItem
	case extast.KindTableCell:
		return TypeTableCell
	}
	return ""
}

// flatten concatenates the plain text and inline code runs below n.
// Formatting nodes contribute their text children; images and raw HTML contribute nothing.
func flatten(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.AutoLink:
			b.Write(t.Label(src))
			return ast.WalkSkipChildren, nil
		case *ast.Image, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
