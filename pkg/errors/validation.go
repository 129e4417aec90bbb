package errors

import (
	"encoding/hex"
	"strings"
	"unicode"
)

// instanceKeyLen is the length of a hex-encoded SHA-256 instance hash.
const instanceKeyLen = 64

// ValidateInstanceKey checks that key is a hex SHA-256 digest as produced by
// catalogue.Catalogue.Hash. Keys end up in file paths and database ids, so
// anything else is rejected.
func ValidateInstanceKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidKey, "instance key cannot be empty")
	}
	if len(key) != instanceKeyLen {
		return New(ErrCodeInvalidKey, "instance key must be %d hex characters, got %d", instanceKeyLen, len(key))
	}
	if _, err := hex.DecodeString(key); err != nil {
		return New(ErrCodeInvalidKey, "instance key is not hex: %q", key)
	}
	if strings.ToLower(key) != key {
		return New(ErrCodeInvalidKey, "instance key must be lower case")
	}
	return nil
}

// ValidateInstanceName validates a display name attached to a stored
// result. Names are free text but may not contain control characters and
// are capped at 256 bytes.
func ValidateInstanceName(name string) error {
	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "instance name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "instance name contains control characters")
		}
	}
	return nil
}
