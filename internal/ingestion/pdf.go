package ingestion

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF reads up to MaxPages pages. Encrypted documents are opened with
// the blank password by the reader; anything else is reported as encrypted.
// A page that fails is skipped without affecting the others.
func (e *Extractor) extractPDF(data []byte, doc *Document) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return "", &ExtractError{Reason: ReasonEncrypted, Cause: err}
		}
		return "", &ExtractError{Reason: ReasonCorrupt, Cause: err}
	}

	doc.Encrypted = reader.Trailer().Key("Encrypt").Kind() != pdf.Null
	doc.Pages = reader.NumPage()

	pages := min(doc.Pages, e.opts.MaxPages)
	texts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		text, err := readPage(reader, i)
		if err != nil {
			log.Printf("ingestion=pdf status=page_skipped page=%d path=%s err=%v", i, doc.Path, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		texts = append(texts, text)
		doc.PagesRead++
	}

	return CleanText(strings.Join(texts, "\n")), nil
}

func readPage(reader *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("panic reading page: %v", r)
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	return strings.Join(pageLines(page.Content().Text), "\n"), nil
}

// rowTolerance is the baseline shift, as a fraction of the font size,
// that still counts as the same row (sub- and superscripts).
const rowTolerance = 0.3

// wordGapRatio is the horizontal gap, as a fraction of the font size,
// between two glyphs that is read as a space.
const wordGapRatio = 0.15

// pageLines rebuilds the text rows of a page from its positioned glyphs.
// A row ends when the baseline moves; separately positioned runs on one
// row are joined with a space.
func pageLines(glyphs []pdf.Text) []string {
	var lines []string
	var line strings.Builder
	for i, g := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			switch {
			case newRow(prev, g):
				lines = append(lines, line.String())
				line.Reset()
			case wordGap(prev, g):
				line.WriteByte(' ')
			}
		}
		line.WriteString(g.S)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

func newRow(prev, cur pdf.Text) bool {
	return math.Abs(cur.Y-prev.Y) > rowTolerance*max(prev.FontSize, cur.FontSize)
}

func wordGap(prev, cur pdf.Text) bool {
	if prev.S == " " || cur.S == " " {
		return false
	}
	// Fonts without a Widths table report zero width, so a run's glyphs
	// all sit near its origin and only a new run clears the gap.
	return cur.X-(prev.X+prev.W) > wordGapRatio*max(prev.FontSize, cur.FontSize)
}
