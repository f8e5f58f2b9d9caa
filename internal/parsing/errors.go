package parsing

import "fmt"

// FieldError records a field extractor that failed while parsing a resume.
// The parser logs it and leaves the field at its zero value.
type FieldError struct {
	Field string
	Cause error
}

func (e *FieldError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("field extraction failed: %s: %v", e.Field, e.Cause)
	}
	return fmt.Sprintf("field extraction failed: %s", e.Field)
}

func (e *FieldError) Unwrap() error {
	return e.Cause
}
