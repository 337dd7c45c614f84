package utils

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// NewRunID returns a 24 character hex ID: a 4 byte timestamp followed by 8
// random bytes.
func NewRunID() string {
	timestamp := time.Now().Unix()
	randomBytes := make([]byte, 8)
	rand.Read(randomBytes)

	id := make([]byte, 12)
	binary.BigEndian.PutUint32(id[:4], uint32(timestamp))
	copy(id[4:], randomBytes)

	return hex.EncodeToString(id)
}

// IsValidRunID reports whether s looks like an ID produced by NewRunID.
func IsValidRunID(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil && len(s) == 24
}

// EnsureRunID returns s if it is a valid run ID, otherwise a new one.
func EnsureRunID(s string) string {
	if !IsValidRunID(s) {
		return NewRunID()
	}
	return s
}
