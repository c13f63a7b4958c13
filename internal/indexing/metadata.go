package indexing

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// keywordPreviewRunes is how much of the content keywords are taken from
const keywordPreviewRunes = 200

var markdownLinkRegex = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)

// StripMarkdownLinks removes markdown link syntax, keeping only the text
// Example: "[Text](url)" -> "Text"
func StripMarkdownLinks(text string) string {
	return markdownLinkRegex.ReplaceAllString(text, "$1")
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "as": true, "by": true, "is": true,
	"it": true, "be": true, "with": true, "from": true, "that": true,
}

// ExtractKeywords extracts key terms from title and content
// Terms keep their first-seen order, so the result is deterministic.
func ExtractKeywords(title, content string) []string {
	// Significant words from the title and the start of the content
	words := strings.Fields(strings.ToLower(title))

	contentPreview := content
	if runes := []rune(content); len(runes) > keywordPreviewRunes {
		contentPreview = string(runes[:keywordPreviewRunes])
	}
	words = append(words, strings.Fields(strings.ToLower(contentPreview))...)

	seen := make(map[string]bool)
	keywords := make([]string, 0, MaxKeywords)
	for _, word := range words {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if utf8.RuneCountInString(word) <= 2 || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) == MaxKeywords {
			break
		}
	}

	return keywords
}
