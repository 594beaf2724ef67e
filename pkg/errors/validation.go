package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds identifiers accepted from callers.
const maxIDLength = 128

// ValidateID checks that an identifier is safe to place in a request path.
// kind names the resource in the error message (e.g. "patient").
//
// The rules are conservative:
//   - No empty identifiers
//   - No control characters or whitespace
//   - No path separators, query or fragment characters
//   - Maximum length of 128 characters
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s id cannot be empty", kind)
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "%s id too long (max %d characters)", kind, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "%s id contains invalid characters", kind)
		}
	}
	if strings.ContainsAny(id, `/\?#%`) || strings.Contains(id, "..") {
		return New(ErrCodeInvalidInput, "%s id contains invalid characters: %q", kind, id)
	}
	return nil
}

// ValidatePath checks a request path supplied by an operator.
// It must be absolute and free of traversal sequences.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}
	if !strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidInput, "path must start with '/': %q", path)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid control characters")
		}
	}
	if strings.Contains(path, "..") || strings.Contains(path, "//") {
		return New(ErrCodeInvalidInput, "path contains traversal sequence: %q", path)
	}
	return nil
}
