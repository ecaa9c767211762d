package models

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ValidationError reports a required field that is missing or a value out
// of range. The rejected operation has no effect.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// validateImage accepts an absent image or bytes that sniff as image/*.
func validateImage(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if mt := ImageContentType(data); !strings.HasPrefix(mt, "image/") {
		return &ValidationError{Field: "image", Message: fmt.Sprintf("unsupported content type %q", mt)}
	}
	return nil
}

// ImageContentType sniffs the MIME type of stored image bytes.
func ImageContentType(data []byte) string {
	return mimetype.Detect(data).String()
}
