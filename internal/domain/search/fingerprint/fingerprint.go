// Package fingerprint computes the stable hash that identifies a repeated
// search for billing purposes.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/corpusgate/corpusgate/internal/domain/search/stype"
)

// Compute hashes (requester, type, normalized query) into a stable hex
// fingerprint. The query is lowercased and trimmed so that case and
// surrounding whitespace never defeat repeat detection.
func Compute(requester string, t stype.Type, query string) string {
	norm := strings.ToLower(strings.TrimSpace(query))
	h := sha256.New()
	h.Write([]byte(requester))
	h.Write([]byte{0})
	h.Write([]byte(t))
	h.Write([]byte{0})
	h.Write([]byte(norm))
	return hex.EncodeToString(h.Sum(nil))
}
