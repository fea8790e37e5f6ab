package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

var randomRead = rand.Read

// GenerateRandomToken generates a random token of specified length
func GenerateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := randomRead(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateKey returns size random bytes encoded as "hex" or "base64"
func GenerateKey(size int, encoding string) (string, error) {
	switch size {
	case 16, 24, 32:
	default:
		return "", fmt.Errorf("unsupported key size %d", size)
	}

	key := make([]byte, size)
	if _, err := randomRead(key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}

	switch encoding {
	case "hex":
		return hex.EncodeToString(key), nil
	case "base64":
		return base64.StdEncoding.EncodeToString(key), nil
	default:
		return "", fmt.Errorf("unsupported key encoding %q", encoding)
	}
}

// SecureCompare reports whether a and b are equal in constant time.
// Both sides are hashed first so the comparison does not leak their lengths.
func SecureCompare(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
