package structure

import (
	"strconv"
	"strings"
	"unicode"
)

// Slugify turns heading text into a URL fragment.
// Example: "Fields of Tiered Rate Limit" -> "fields-of-tiered-rate-limit"
//
// Letters, marks, numbers, connector punctuation and hyphens survive; every
// space becomes a hyphen and everything else is dropped. Nothing is trimmed,
// so "`tiers` * array" yields "tiers--array".
func Slugify(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r == ' ':
			b.WriteByte('-')
		case r == '-', unicode.IsLetter(r), unicode.IsMark(r), unicode.IsNumber(r), unicode.Is(unicode.Pc, r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Slugger hands out unique slugs for one document.
// Repeated slugs get an incrementing "-N" suffix.
type Slugger struct {
	occurrences map[string]int
}

// NewSlugger returns a slugger with empty de-duplication state.
func NewSlugger() *Slugger {
	return &Slugger{occurrences: make(map[string]int)}
}

// Slug returns the slug for text, unique among the slugs this Slugger has issued.
func (s *Slugger) Slug(text string) string {
	original := Slugify(text)
	slug := original
	for {
		if _, taken := s.occurrences[slug]; !taken {
			break
		}
		s.occurrences[original]++
		slug = original + "-" + strconv.Itoa(s.occurrences[original])
	}
	s.occurrences[slug] = 0
	return slug
}

// Reset forgets every slug issued so far.
func (s *Slugger) Reset() {
	clear(s.occurrences)
}
