// Package source loads documents from markdown trees and JSON manifests.
package source

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nextdocs/docsearch/internal/indexing"
	"github.com/nextdocs/docsearch/internal/structure"
)

// Extensions are the content file types that can be loaded
var Extensions = []string{".md", ".mdx", ".markdown"}

// Loader turns content files into documents for the index builder
type Loader struct {
	structurer *structure.Structurer
	schemas    *schemas
}

// NewLoader creates a loader. A nil structurer uses the default block types.
func NewLoader(structurer *structure.Structurer) (*Loader, error) {
	if structurer == nil {
		var err error
		structurer, err = structure.New(structure.Options{})
		if err != nil {
			return nil, err
		}
	}

	s, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	return &Loader{structurer: structurer, schemas: s}, nil
}

type frontmatter struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tag         string   `json:"tag"`
	Keywords    []string `json:"keywords"`
}

// Load reads a content directory or a .json manifest from the OS filesystem
func (l *Loader) Load(contentPath, baseURL string) ([]indexing.Document, error) {
	info, err := os.Stat(contentPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	if info.IsDir() {
		return l.LoadDir(os.DirFS(contentPath), baseURL)
	}
	if strings.EqualFold(filepath.Ext(contentPath), ".json") {
		return l.LoadManifest(os.DirFS(filepath.Dir(contentPath)), filepath.Base(contentPath))
	}
	return nil, fmt.Errorf("content %s must be a directory or a .json manifest", contentPath)
}

// LoadDir loads every markdown file under fsys in lexical path order.
// Files with other extensions and hidden entries are skipped.
func (l *Loader) LoadDir(fsys fs.FS, baseURL string) ([]indexing.Document, error) {
	var docs []indexing.Document

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != "." && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !supported(p) {
			return nil
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}

		doc, err := l.parseFile(p, string(content))
		if err != nil {
			return err
		}
		doc.URL = PageURL(baseURL, p)
		if doc.ID == "" {
			doc.ID = doc.URL
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if docs == nil {
		docs = []indexing.Document{}
	}
	return docs, nil
}

type manifestEntry struct {
	indexing.Document
	File string `json:"file"`
}

// LoadManifest reads the JSON manifest name from fsys. Entries may carry
// their content inline, pre-structured, or point to a markdown file relative
// to the manifest.
func (l *Loader) LoadManifest(fsys fs.FS, name string) ([]indexing.Document, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &SchemaError{Document: name, Reason: fmt.Sprintf("manifest must be a JSON array: %v", err)}
	}

	docs := make([]indexing.Document, 0, len(raw))
	for i, item := range raw {
		document := fmt.Sprintf("%s[%d]", name, i)

		var value interface{}
		if err := json.Unmarshal(item, &value); err != nil {
			return nil, &SchemaError{Document: document, Reason: err.Error()}
		}
		if err := validate(l.schemas.manifestEntry, document, value); err != nil {
			return nil, err
		}

		var entry manifestEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			return nil, &SchemaError{Document: document, Reason: err.Error()}
		}

		doc := entry.Document
		doc.Path = document
		if entry.File != "" {
			doc, err = l.manifestFile(fsys, path.Join(path.Dir(name), entry.File), doc)
			if err != nil {
				return nil, err
			}
		}

		if doc.Title == "" {
			doc.Title = l.structurer.Title(doc.Content)
		}
		if doc.Title == "" {
			return nil, &SchemaError{Document: doc.Path, Field: "title", Reason: "missing property and no level-one heading in content"}
		}
		if doc.ID == "" {
			doc.ID = doc.URL
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (l *Loader) manifestFile(fsys fs.FS, p string, entry indexing.Document) (indexing.Document, error) {
	if !supported(p) {
		return entry, &SchemaError{
			Document: p,
			Field:    "file",
			Reason:   fmt.Sprintf("unsupported extension %q, want one of %s", path.Ext(p), strings.Join(Extensions, ", ")),
		}
	}

	content, err := fs.ReadFile(fsys, p)
	if err != nil {
		return entry, fmt.Errorf("failed to read %s: %w", p, err)
	}

	doc, err := l.parseFile(p, string(content))
	if err != nil {
		return entry, err
	}

	// Manifest fields win over frontmatter
	doc.URL = entry.URL
	if entry.ID != "" {
		doc.ID = entry.ID
	}
	if entry.Title != "" {
		doc.Title = entry.Title
	}
	if entry.Tag != "" {
		doc.Tag = entry.Tag
	}
	if entry.Description != "" {
		doc.Description = entry.Description
	}
	if len(entry.Keywords) > 0 {
		doc.Keywords = entry.Keywords
	}
	if entry.StructuredData != nil {
		doc.StructuredData = entry.StructuredData
	}
	return doc, nil
}

// parseFile splits and validates frontmatter. The title falls back to the
// first level-one heading.
func (l *Loader) parseFile(p, content string) (indexing.Document, error) {
	raw, body := structure.SplitFrontmatter(content)

	var meta frontmatter
	if raw != "" {
		var decoded interface{}
		if err := yaml.Unmarshal([]byte(raw), &decoded); err != nil {
			return indexing.Document{}, &SchemaError{Document: p, Reason: fmt.Sprintf("invalid frontmatter: %v", err)}
		}
		if decoded == nil {
			decoded = map[string]interface{}{}
		}

		value, err := jsonValue(decoded)
		if err != nil {
			return indexing.Document{}, &SchemaError{Document: p, Reason: fmt.Sprintf("invalid frontmatter: %v", err)}
		}
		if err := validate(l.schemas.frontmatter, p, value); err != nil {
			return indexing.Document{}, err
		}

		if err := decodeValue(p, value, &meta); err != nil {
			return indexing.Document{}, err
		}
	}

	title := meta.Title
	if title == "" {
		title = l.structurer.Title(body)
	}
	if title == "" {
		return indexing.Document{}, &SchemaError{Document: p, Field: "title", Reason: "missing property and no level-one heading in content"}
	}

	return indexing.Document{
		ID:          meta.ID,
		Title:       title,
		Tag:         meta.Tag,
		Description: meta.Description,
		Content:     body,
		Keywords:    meta.Keywords,
		Path:        p,
	}, nil
}

// PageURL maps a content path to its page url. "index" files collapse to
// their directory.
func PageURL(baseURL, p string) string {
	p = strings.TrimSuffix(p, path.Ext(p))
	if p == "index" {
		p = ""
	} else {
		p = strings.TrimSuffix(p, "/index")
	}

	base := strings.TrimSuffix(baseURL, "/")
	if p == "" {
		if base == "" {
			return "/"
		}
		return base
	}
	return base + "/" + p
}

func supported(p string) bool {
	return slices.Contains(Extensions, strings.ToLower(path.Ext(p)))
}
