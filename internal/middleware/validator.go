package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

var analysisIDRe = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)

// ValidateAnalysisID checks the uuid shape of an analysis id.
func ValidateAnalysisID(id string) error {
	if id == "" {
		return fmt.Errorf("analysis ID cannot be empty")
	}
	if !analysisIDRe.MatchString(strings.ToLower(id)) {
		return fmt.Errorf("invalid analysis ID format")
	}
	return nil
}

// ValidateRating checks a feedback rating is on the 1..5 scale.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("invalid rating: %d (allowed: 1-5)", rating)
	}
	return nil
}

// MaxUploadBytes bounds uploaded contract documents.
const MaxUploadBytes = 10 << 20 // 10 MiB

// ValidateUploadSize rejects oversized uploads before staging.
func ValidateUploadSize(size int64) error {
	if size > MaxUploadBytes {
		return fmt.Errorf("file too large: %d bytes (max %d)", size, MaxUploadBytes)
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
