package ingestion

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

var (
	docxLineBreaks = strings.NewReplacer("</w:p>", "\n", "<w:br/>", "\n", "<w:cr/>", "\n", "<w:tab/>", " ")
	xmlTags        = regexp.MustCompile(`<[^>]+>`)
)

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer func() { _ = doc.Close() }()

	content := docxLineBreaks.Replace(doc.Editable().GetContent())
	content = xmlTags.ReplaceAllString(content, "")
	return CleanText(html.UnescapeString(content)), nil
}
