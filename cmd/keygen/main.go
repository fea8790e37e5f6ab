package main

import (
	"flag"
	"fmt"
	"log"

	"partner-portal.backend/pkg/crypto"
	"partner-portal.backend/pkg/envelope"
)

func main() {
	size := flag.Int("size", 32, "provider security key size in bytes: 16, 24 or 32")
	encoding := flag.String("encoding", "hex", "provider security key encoding: hex or base64")
	flag.Parse()

	lines, err := buildSecrets(*size, *encoding)
	if err != nil {
		log.Fatalf("failed to generate secrets: %v", err)
	}

	fmt.Println("Generated partner portal secrets")
	for _, l := range lines {
		fmt.Println(l)
	}
}

func validateInputs(size int, encoding string) error {
	switch size {
	case 16, 24, 32:
	default:
		return fmt.Errorf("invalid size: %d (allowed: 16, 24, 32)", size)
	}
	if encoding != string(envelope.KeyEncodingHex) && encoding != string(envelope.KeyEncodingBase64) {
		return fmt.Errorf("invalid encoding: %s (allowed: hex, base64)", encoding)
	}
	return nil
}

// buildSecrets returns .env lines. The provider key is checked by building a
// cipher from it, so a printed key is always one the server accepts.
func buildSecrets(size int, encoding string) ([]string, error) {
	if err := validateInputs(size, encoding); err != nil {
		return nil, err
	}

	securityKey, err := crypto.GenerateKey(size, encoding)
	if err != nil {
		return nil, err
	}
	if _, err := envelope.NewCipher(securityKey, envelope.KeyEncoding(encoding)); err != nil {
		return nil, err
	}

	draftKey, err := crypto.GenerateKey(32, "hex")
	if err != nil {
		return nil, err
	}
	webhookSecret, err := crypto.GenerateRandomToken(24)
	if err != nil {
		return nil, err
	}

	return []string{
		"PROVIDER_SECURITY_KEY=" + securityKey,
		"PROVIDER_KEY_ENCODING=" + encoding,
		"DRAFT_ENCRYPTION_KEY=" + draftKey,
		"WEBHOOK_SECRET=" + webhookSecret,
	}, nil
}
