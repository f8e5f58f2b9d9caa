package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Format identifies the container format of a resume file.
type Format string

// Supported formats
const (
	FormatUnknown Format = ""
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatHTML    Format = "html"
	FormatText    Format = "txt"
)

// Document is the result of extracting one file.
type Document struct {
	Path      string `json:"path"`
	Format    Format `json:"format,omitempty"`
	SizeBytes int64  `json:"size_bytes"`
	SHA256    string `json:"sha256,omitempty"`
	Pages     int    `json:"pages,omitempty"`      // total pages in a PDF
	PagesRead int    `json:"pages_read,omitempty"` // pages that yielded text
	Encrypted bool   `json:"encrypted,omitempty"`
	Text      string `json:"-"`

	// Failure is set when Text is empty because extraction degraded.
	Failure *ExtractError `json:"-"`
}

// Warning returns a short description of the degradation, or "".
func (d *Document) Warning() string {
	if d == nil || d.Failure == nil {
		return ""
	}
	return d.Failure.Reason
}

// ToJSON marshals the document metadata to pretty-printed JSON.
func (d *Document) ToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document metadata to JSON: %w", err)
	}
	return jsonBytes, nil
}

func (d *Document) fail(reason string, cause error) {
	d.Text = ""
	d.Failure = &ExtractError{Path: d.Path, Reason: reason, Cause: cause}
}

// fingerprint computes the SHA256 hex digest of the raw file bytes.
func fingerprint(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
