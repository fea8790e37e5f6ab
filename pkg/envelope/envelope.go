// Package envelope seals provider payloads as compact JWE (alg=dir, AES-GCM).
package envelope

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v3"
	"github.com/google/uuid"
)

// KeyEncoding names how the shared security key is written in configuration
type KeyEncoding string

const (
	KeyEncodingHex    KeyEncoding = "hex"
	KeyEncodingBase64 KeyEncoding = "base64"
)

const iatLayout = "2006-01-02T15:04:05.000+09:00"

var (
	// ErrInvalidKey is returned when the security key cannot be decoded or has an unsupported size
	ErrInvalidKey = errors.New("invalid envelope key")
	// ErrUndecryptable is returned for any envelope that fails to open
	ErrUndecryptable = errors.New("undecryptable envelope")

	kst = time.FixedZone("KST", 9*60*60)
)

// Cipher seals and opens envelopes with one shared key
type Cipher struct {
	key   []byte
	enc   jose.ContentEncryption
	now   func() time.Time
	nonce func() string
}

// NewCipher decodes the key with the given encoding and picks the content
// encryption from its size: 16, 24 or 32 bytes.
func NewCipher(encodedKey string, encoding KeyEncoding) (*Cipher, error) {
	key, err := DecodeKey(encodedKey, encoding)
	if err != nil {
		return nil, err
	}

	var enc jose.ContentEncryption
	switch len(key) {
	case 16:
		enc = jose.A128GCM
	case 24:
		enc = jose.A192GCM
	case 32:
		enc = jose.A256GCM
	default:
		return nil, fmt.Errorf("%w: key must be 16, 24 or 32 bytes, got %d", ErrInvalidKey, len(key))
	}

	return &Cipher{
		key:   key,
		enc:   enc,
		now:   time.Now,
		nonce: func() string { return uuid.NewString() },
	}, nil
}

// DecodeKey turns a configured key into raw bytes. Base64 accepts the standard
// alphabet first and falls back to the URL-safe one.
func DecodeKey(encodedKey string, encoding KeyEncoding) ([]byte, error) {
	encodedKey = strings.TrimSpace(encodedKey)
	if encodedKey == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	switch encoding {
	case KeyEncodingHex:
		key, err := hex.DecodeString(encodedKey)
		if err != nil {
			return nil, fmt.Errorf("%w: not hex", ErrInvalidKey)
		}
		return key, nil
	case KeyEncodingBase64:
		if key, err := base64.StdEncoding.DecodeString(encodedKey); err == nil {
			return key, nil
		}
		key, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encodedKey, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: not base64", ErrInvalidKey)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: unknown encoding %q", ErrInvalidKey, encoding)
	}
}

// Seal encrypts plaintext into a compact JWE carrying iat and nonce headers
func (c *Cipher) Seal(plaintext []byte) (string, error) {
	opts := (&jose.EncrypterOptions{}).
		WithHeader(jose.HeaderKey("iat"), c.now().In(kst).Format(iatLayout)).
		WithHeader(jose.HeaderKey("nonce"), c.nonce())

	encrypter, err := jose.NewEncrypter(c.enc, jose.Recipient{Algorithm: jose.DIRECT, Key: c.key}, opts)
	if err != nil {
		return "", fmt.Errorf("create encrypter: %w", err)
	}

	obj, err := encrypter.Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("encrypt payload: %w", err)
	}
	return obj.CompactSerialize()
}

// Open decrypts an envelope. A body that is not an envelope is returned as-is.
func (c *Cipher) Open(body []byte) ([]byte, error) {
	token := strings.Trim(string(bytes.TrimSpace(body)), `"`)
	if !IsEnvelope(token) {
		return body, nil
	}

	obj, err := jose.ParseEncrypted(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecryptable, err)
	}
	plaintext, err := obj.Decrypt(c.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecryptable, err)
	}
	return plaintext, nil
}

// IsEnvelope reports whether s looks like a compact JWE
func IsEnvelope(s string) bool {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	return strings.Count(s, ".") == 4 && strings.HasPrefix(s, "eyJ")
}
