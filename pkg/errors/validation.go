package errors

import (
	"slices"
	"strings"
	"unicode"
)

// MaxQueryLength bounds the length of a path query.
const MaxQueryLength = 1024

// ValidateQuery bounds the size of a query received over the network.
// Content is not checked: keys may hold any character, so any query string
// is matched and at worst finds nothing.
func ValidateQuery(query string) error {
	if len(query) > MaxQueryLength {
		return New(ErrCodeInvalidInput, "query too long (max %d characters)", MaxQueryLength)
	}
	return nil
}

// ValidateDocumentSize rejects empty documents and documents larger than
// limit bytes. A non-positive limit disables the upper bound.
func ValidateDocumentSize(size, limit int64) error {
	if size == 0 {
		return New(ErrCodeInvalidInput, "document is empty")
	}
	if limit > 0 && size > limit {
		return New(ErrCodeTooLarge, "document is %d bytes (max %d)", size, limit)
	}
	return nil
}

// ValidateFilePath validates a local file path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidateFilePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateChoice checks that value is one of allowed, reporting code otherwise.
func ValidateChoice(code Code, what, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return New(code, "invalid %s %q (must be one of: %s)", what, value, strings.Join(allowed, ", "))
}
