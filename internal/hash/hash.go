// Package hash provides the digests used for duplicate detection.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// URL returns the hex SHA-256 digest of a URL, the primary uniqueness key
// for stored articles. Trailing slashes and scheme case do not matter to the
// sites we scrape, so the URL is lightly normalized first.
func URL(rawURL string) string {
	normalized := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	if i := strings.Index(normalized, "://"); i > 0 {
		normalized = strings.ToLower(normalized[:i]) + normalized[i:]
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Content returns the hex SHA-256 digest of article text, used to catch
// byte-identical stories republished under different URLs. Whitespace runs
// are collapsed so formatting-only differences hash alike.
func Content(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(collapsed))
	return hex.EncodeToString(sum[:])
}
