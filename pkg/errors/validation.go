package errors

import (
	"strings"
	"unicode"
)

// ValidateRef validates a revision argument before it is handed to git.
// It rejects anything git would parse as an option and the sequences git
// itself forbids in ref names.
//
// Validation rules:
//   - Ref cannot be empty
//   - Maximum length of 256 characters
//   - No leading dash
//   - No control characters, spaces or null bytes
//   - No "..", "@{" or backslashes
func ValidateRef(ref string) error {
	if ref == "" {
		return New(ErrCodeInvalidRef, "ref cannot be empty")
	}

	if len(ref) > 256 {
		return New(ErrCodeInvalidRef, "ref too long (max 256 characters)")
	}

	if strings.HasPrefix(ref, "-") {
		return New(ErrCodeInvalidRef, "ref %q cannot start with a dash", ref)
	}

	for _, r := range ref {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidRef, "ref contains invalid characters")
		}
	}

	for _, pattern := range []string{"..", "@{", "\\"} {
		if strings.Contains(ref, pattern) {
			return New(ErrCodeInvalidRef, "ref contains invalid sequence: %q", pattern)
		}
	}

	return nil
}

// ValidateRefs validates each ref in turn and returns the first failure.
func ValidateRefs(refs []string) error {
	for _, r := range refs {
		if err := ValidateRef(r); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePath validates a repository-relative path for safety.
// It prevents path traversal when paths come from HTTP query parameters.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
