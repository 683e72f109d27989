package worker

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ShouldAnalyze is the cheap prefilter gate run before any cache lookup or
// analysis call. Pure and allocation-light.
//
// Rejects:
//   - empty or shorter-than-minLength text
//   - text starting with a URL scheme or an @handle
//   - boilerplate thanks/welcome messages under six words
func ShouldAnalyze(text string, minLength int) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minLength {
		return false
	}

	lt := strings.ToLower(trimmed)

	if strings.HasPrefix(lt, "http") || strings.HasPrefix(lt, "ftp") || strings.HasPrefix(lt, "@") {
		return false
	}

	// "thank" also matches "thanks".
	if strings.Contains(lt, "thank") || strings.Contains(lt, "welcome") {
		if len(strings.Fields(lt)) < 6 {
			return false
		}
	}

	return true
}

// ContentHash is the deterministic cache key: SHA-256 of the exact text,
// independent of any record metadata.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
