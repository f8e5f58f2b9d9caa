package ingestion

import (
	"regexp"
	"strings"
)

var (
	inlineSpace     = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	extraBlankLines = regexp.MustCompile(`\n\n\n+`)
)

// CleanText normalizes text recovered from markup formats while keeping one
// entry per line so that line-oriented extractors still see section headings.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
	}

	result := strings.Join(lines, "\n")
	result = extraBlankLines.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}
