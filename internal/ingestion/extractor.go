// Package ingestion turns uploaded resume files into lowercase plain text.
//
// Extraction is best effort: a missing, oversized, encrypted or corrupt file
// yields empty text instead of an error so that a submission is never blocked
// by an unreadable resume.
package ingestion

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Default extraction limits
const (
	DefaultMaxFileSize int64 = 10 * 1024 * 1024
	DefaultMaxPages          = 20
)

// Options bounds the work done per file.
type Options struct {
	MaxFileSize int64 // bytes; larger files are not read
	MaxPages    int   // PDF pages read at most
}

// DefaultOptions returns the standard limits.
func DefaultOptions() Options {
	return Options{MaxFileSize: DefaultMaxFileSize, MaxPages: DefaultMaxPages}
}

// Extractor reads resume files. It holds no mutable state and is safe for
// concurrent use.
type Extractor struct {
	opts Options
}

// NewExtractor creates an Extractor; zero-valued options fall back to defaults.
func NewExtractor(opts Options) *Extractor {
	defaults := DefaultOptions()
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = defaults.MaxFileSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = defaults.MaxPages
	}
	return &Extractor{opts: opts}
}

// Options returns the effective limits.
func (e *Extractor) Options() Options {
	return e.opts
}

// ExtractText returns the lowercase text of the file at path, or "" when the
// file cannot be read.
func (e *Extractor) ExtractText(path string) string {
	return e.Extract(path).Text
}

// Extract reads the file at path and returns its text with metadata. It never
// panics and never returns nil; failures are recorded in Document.Failure.
func (e *Extractor) Extract(path string) (doc *Document) {
	doc = &Document{Path: path}

	defer func() {
		if r := recover(); r != nil {
			doc.fail(ReasonCorrupt, fmt.Errorf("panic during extraction: %v", r))
		}
		if doc.Failure != nil {
			log.Printf("ingestion=%s status=degraded reason=%s path=%s err=%v",
				formatLabel(doc.Format), doc.Failure.Reason, path, doc.Failure.Cause)
		}
	}()

	info, err := os.Stat(path)
	if err != nil {
		doc.fail(ReasonMissing, err)
		return doc
	}
	if info.IsDir() {
		doc.fail(ReasonUnreadable, fmt.Errorf("%s is a directory", path))
		return doc
	}
	doc.SizeBytes = info.Size()
	if info.Size() > e.opts.MaxFileSize {
		doc.fail(ReasonTooLarge, fmt.Errorf("%d bytes exceeds limit of %d", info.Size(), e.opts.MaxFileSize))
		return doc
	}

	data, err := os.ReadFile(path)
	if err != nil {
		doc.fail(ReasonUnreadable, err)
		return doc
	}
	doc.SHA256 = fingerprint(data)
	doc.Format = DetectFormat(path, data)

	var text string
	switch doc.Format {
	case FormatPDF:
		text, err = e.extractPDF(data, doc)
	case FormatDOCX:
		text, err = extractDOCX(data)
	case FormatHTML:
		text, err = extractHTML(data)
	case FormatText:
		text = CleanText(string(data))
	default:
		err = &ExtractError{Reason: ReasonUnsupported, Cause: fmt.Errorf("unrecognized file type %q", filepath.Ext(path))}
	}
	if err != nil {
		reason := ReasonCorrupt
		if extractErr, ok := err.(*ExtractError); ok {
			reason = extractErr.Reason
			err = extractErr.Cause
		}
		doc.fail(reason, err)
		return doc
	}

	doc.Text = strings.TrimSpace(strings.ToLower(text))
	if doc.Text == "" {
		doc.fail(ReasonNoText, nil)
	}
	return doc
}

// DetectFormat identifies the file format from its extension, falling back
// to sniffing the content when the extension is missing or unknown.
func DetectFormat(path string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".html", ".htm":
		return FormatHTML
	case ".txt", ".text", ".md":
		return FormatText
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return FormatPDF
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return FormatDOCX
	}

	contentType := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(contentType, "text/html"):
		return FormatHTML
	case strings.HasPrefix(contentType, "text/plain"):
		return FormatText
	}
	return FormatUnknown
}

func formatLabel(f Format) string {
	if f == FormatUnknown {
		return "file"
	}
	return string(f)
}
