package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// New returns a random 32-character hex id for external references
// such as notification and job ids.
func New() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
