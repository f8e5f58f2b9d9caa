package ingestion

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// blockSelectors are elements that end a line of visible text.
const blockSelectors = "p, div, li, tr, h1, h2, h3, h4, h5, h6, section, article, header, footer, ul, ol, table"

func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("head, script, style, noscript, template").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return CleanText(doc.Text()), nil
}
