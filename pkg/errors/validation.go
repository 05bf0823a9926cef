package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateFilePath validates a local file path given on the command line or
// in a configuration file.
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

// ValidateDimensions validates a drawing area and its margin.
// Width and height must be finite and positive, and the margin must leave
// a non-empty area on both axes.
func ValidateDimensions(width, height, margin float64) error {
	for _, v := range []float64{width, height, margin} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidInput, "dimensions must be finite")
		}
	}
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidInput, "width and height must be positive (got %gx%g)", width, height)
	}
	if margin < 0 {
		return New(ErrCodeInvalidInput, "margin must not be negative (got %g)", margin)
	}
	if 2*margin >= width || 2*margin >= height {
		return New(ErrCodeInvalidInput, "margin %g leaves no drawing area in %gx%g", margin, width, height)
	}
	return nil
}
