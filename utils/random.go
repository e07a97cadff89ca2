package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// GenerateEntryID returns an opaque identifier for a new queue entry.
func GenerateEntryID() (string, error) {
	return GenerateCode(8)
}

func GenerateCode(n int) (string, error) {
	// Make a slice of n random bytes.
	byt := make([]byte, n)

	// Read into the slice.
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	// Return the hexadecimal string.
	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// GenerateSecret returns a hex secret, used when TOKEN_SECRET is unset.
// Tokens issued before a restart will not verify in that case.
func GenerateSecret() string {
	code, err := GenerateCode(32)
	if err != nil {
		return ""
	}
	return code
}
