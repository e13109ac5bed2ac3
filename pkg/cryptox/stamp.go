package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// NewStamp returns a fresh random security stamp of the given length.
func NewStamp(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("stamp size must be positive, got %d", size)
	}
	stamp := make([]byte, size)
	if _, err := rand.Read(stamp); err != nil {
		return nil, fmt.Errorf("failed to generate security stamp: %w", err)
	}
	return stamp, nil
}

// RotateStamp overwrites stamp in place with cryptographically secure random
// bytes. Every token minted before a rotation carries the old value, so a
// verifier that compares the live stamp invalidates all of them at once.
func RotateStamp(stamp []byte) error {
	if len(stamp) == 0 {
		return fmt.Errorf("cannot rotate an empty stamp")
	}
	if _, err := rand.Read(stamp); err != nil {
		return fmt.Errorf("failed to rotate security stamp: %w", err)
	}
	return nil
}

// EncodeStamp renders a stamp the way it is embedded in token claims.
func EncodeStamp(stamp []byte) string {
	return base64.StdEncoding.EncodeToString(stamp)
}

// DecodeStamp parses the claim form back into raw bytes.
func DecodeStamp(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
