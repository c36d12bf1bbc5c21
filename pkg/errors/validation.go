package errors

import (
	"strings"
	"unicode"
)

// ValidateSegment validates one element of an artifact reference (group,
// artifact, version, type or classifier) before it becomes part of a
// filesystem path inside the local repository.
//
// The validation rules are intentionally conservative:
//   - No control characters or null bytes
//   - No path traversal sequences (..)
//   - No path separators (/ or \)
//   - Maximum length of 256 characters
//
// Empty segments are accepted; whether a segment is mandatory is decided by
// the coordinate parser.
func ValidateSegment(kind, value string) error {
	if len(value) > 256 {
		return New(ErrCodeMalformedReference, "%s too long (max 256 characters)", kind)
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return New(ErrCodeMalformedReference, "%s contains invalid control characters", kind)
		}
	}
	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(value, pattern) {
			return New(ErrCodeMalformedReference, "%s contains invalid characters: %q", kind, pattern)
		}
	}
	return nil
}

// ValidatePath validates a repository-relative path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 1024 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 1024
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
