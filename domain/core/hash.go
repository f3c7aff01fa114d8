package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash is a hex-encoded content hash used to fingerprint run inputs.
type Hash string

// NewHash hashes data with SHA-256.
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}
