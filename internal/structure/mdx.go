package structure

import (
	"regexp"
	"strings"
)

// esmPattern matches the first line of an MDX import or export statement.
var esmPattern = regexp.MustCompile(`^(?:import\s+(?:['"{*]|[\w$]+\s*(?:,|from\b))|export\s+(?:const|let|var|function|async|class|default|\{|\*))`)

// frontmatterPattern matches a leading YAML block: ---\n...\n---
var frontmatterPattern = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---[ \t]*(?:\r?\n|$)`)

// SplitFrontmatter separates a leading YAML frontmatter block from the body.
// The returned frontmatter excludes the fences and is empty when absent.
func SplitFrontmatter(content string) (frontmatter, body string) {
	loc := frontmatterPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return "", content
	}
	return content[loc[2]:loc[3]], content[loc[1]:]
}

// StripFrontmatter removes a leading YAML frontmatter block.
func StripFrontmatter(content string) string {
	_, body := SplitFrontmatter(content)
	return body
}

// StripESM drops MDX import/export statements so they are not indexed as prose.
// A statement starts at column zero outside fenced code and runs to the next blank line.
func StripESM(content string) string {
	if !strings.Contains(content, "import ") && !strings.Contains(content, "export ") {
		return content
	}

	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	fence := ""
	inESM := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if inESM {
			if trimmed == "" {
				inESM = false
				kept = append(kept, line)
			}
			continue
		}

		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			kept = append(kept, line)
			continue
		}

		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fence = trimmed[:3]
			kept = append(kept, line)
			continue
		}

		if esmPattern.MatchString(line) {
			inESM = true
			continue
		}

		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}
