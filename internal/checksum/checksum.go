// Package checksum fingerprints post sources for change detection.
package checksum

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// Sum returns the 128-bit xxh3 digest of data as 32 hex characters.
func Sum(data []byte) string {
	h := xxh3.Hash128(data).Bytes()
	return fmt.Sprintf("%x", h[:])
}

// SumString is Sum over a string without copying it.
func SumString(s string) string {
	h := xxh3.HashString128(s).Bytes()
	return fmt.Sprintf("%x", h[:])
}
