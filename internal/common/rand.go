package common

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString generates a random hex string from size random bytes,
// so the result is twice as long as size. Used for refresh tokens.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WipeByteArray zeroes the slice in place. Used to drop passwords from
// memory after hashing or sending.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
