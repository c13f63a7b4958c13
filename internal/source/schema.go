package source

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/*.json
var schemaFS embed.FS

const (
	frontmatterSchemaURL = "https://nextdocs.dev/schema/frontmatter.json"
	manifestSchemaURL    = "https://nextdocs.dev/schema/manifest.json"
)

// SchemaError reports content metadata that doesn't match its schema.
// Like indexing.FieldError, it is a build-time error naming the source.
type SchemaError struct {
	Document string
	Field    string
	Reason   string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("document %q: %s", e.Document, e.Reason)
	}
	return fmt.Sprintf("document %q: field %q: %s", e.Document, e.Field, e.Reason)
}

type schemas struct {
	frontmatter   *jsonschema.Schema
	manifestEntry *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	compiler := jsonschema.NewCompiler()

	for url, file := range map[string]string{
		frontmatterSchemaURL: "schema/frontmatter.json",
		manifestSchemaURL:    "schema/manifest.json",
	} {
		content, err := schemaFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", file, err)
		}

		var schemaDoc interface{}
		if err := json.Unmarshal(content, &schemaDoc); err != nil {
			return nil, fmt.Errorf("schema %s is invalid: %w", file, err)
		}
		if err := compiler.AddResource(url, schemaDoc); err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", file, err)
		}
	}

	frontmatter, err := compiler.Compile(frontmatterSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile frontmatter schema: %w", err)
	}
	// Entries are validated one at a time so errors can name the entry
	entry, err := compiler.Compile(manifestSchemaURL + "#/items")
	if err != nil {
		return nil, fmt.Errorf("failed to compile manifest schema: %w", err)
	}

	return &schemas{frontmatter: frontmatter, manifestEntry: entry}, nil
}

var printer = message.NewPrinter(language.English)

// validate checks v, which must be made of JSON values, against schema
func validate(schema *jsonschema.Schema, document string, v interface{}) error {
	err := schema.Validate(v)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return &SchemaError{Document: document, Reason: err.Error()}
	}

	leaf := firstCause(validationErr)
	location := append([]string{}, leaf.InstanceLocation...)
	if required, ok := leaf.ErrorKind.(*kind.Required); ok && len(required.Missing) > 0 {
		location = append(location, required.Missing[0])
	}

	return &SchemaError{
		Document: document,
		Field:    strings.Join(location, "."),
		Reason:   leaf.ErrorKind.LocalizedString(printer),
	}
}

// firstCause walks down to the most specific error. Alternatives of an
// anyOf are reported together at the anyOf itself.
func firstCause(err *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(err.Causes) > 0 {
		if _, ok := err.ErrorKind.(*kind.AnyOf); ok {
			break
		}
		err = err.Causes[0]
	}
	return err
}

// jsonValue converts decoded YAML into the value a JSON decoder would produce
func jsonValue(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeValue decodes a validated JSON value into out
func decodeValue(document string, value, out interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &SchemaError{Document: document, Reason: err.Error()}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &SchemaError{Document: document, Reason: err.Error()}
	}
	return nil
}
