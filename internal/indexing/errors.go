package indexing

import "fmt"

// FieldError reports a document the builder cannot index because a field is
// missing or invalid. It is a build-time configuration error.
type FieldError struct {
	Document string // source path, or id/url when the path is unknown
	Field    string
	Reason   string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("document %q: field %q: %s", e.Document, e.Field, e.Reason)
}

// documentName picks the most useful identifier for error messages
func documentName(doc Document) string {
	switch {
	case doc.Path != "":
		return doc.Path
	case doc.ID != "":
		return doc.ID
	case doc.URL != "":
		return doc.URL
	}
	return doc.Title
}
