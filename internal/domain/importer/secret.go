package importer

import (
	"crypto/rand"
	"fmt"
)

const (
	secretLength   = 12
	secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// NewTemporarySecret returns a fresh one-time credential for a newly imported
// user. It is generated per row, never derived from row content, and leaves
// the system only through the welcome notification.
func NewTemporarySecret() (string, error) {
	buf := make([]byte, secretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate temporary secret: %w", err)
	}
	for i, b := range buf {
		buf[i] = secretAlphabet[int(b)%len(secretAlphabet)]
	}
	return string(buf), nil
}
