// Package checksum fingerprints document snapshots so clients can tell
// which text a result was computed from.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// String returns the digest of a text document.
func String(text string) string {
	return Sum([]byte(text))
}
