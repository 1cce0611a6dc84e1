// Package hash provides the one-way hashing used by the security gate.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of s. An empty input returns
// the empty string: "no value stored", not the hash of "".
func Sum(s string) string {
	if s == "" {
		return ""
	}
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// SumAnswer hashes a recovery answer after normalising it: surrounding
// whitespace is trimmed and the answer is lowercased, so answers compare
// case- and whitespace-insensitively.
func SumAnswer(s string) string {
	return Sum(strings.ToLower(strings.TrimSpace(s)))
}
