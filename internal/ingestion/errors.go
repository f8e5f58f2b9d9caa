package ingestion

import "fmt"

// Reasons an extraction degraded to empty text
const (
	ReasonMissing     = "missing"
	ReasonTooLarge    = "too_large"
	ReasonUnreadable  = "unreadable"
	ReasonUnsupported = "unsupported"
	ReasonEncrypted   = "encrypted"
	ReasonCorrupt     = "corrupt"
	ReasonNoText      = "no_text"
)

// ExtractError describes why a document produced no text.
// It never escapes Extract as a returned error; it is recorded on the
// Document and logged.
type ExtractError struct {
	Path   string
	Reason string
	Cause  error
}

func (e *ExtractError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.Path, e.Reason, e.Cause)
	}
	return fmt.Sprintf("extract %s: %s", e.Path, e.Reason)
}

func (e *ExtractError) Unwrap() error {
	return e.Cause
}
