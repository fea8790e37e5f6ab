package redis

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"partner-portal.backend/internal/domain/entities"
)

const draftKeyPrefix = "onboarding:draft:"

// DraftStore keeps onboarding drafts in Redis, AES-GCM encrypted
type DraftStore struct {
	encryptionKey []byte
	ttl           time.Duration
}

var (
	setDraftValue    = Set
	getDraftValue    = Get
	delDraftValue    = Del
	marshalDraftJSON = json.Marshal
)

// NewDraftStore creates a draft store. The key is 32 bytes, hex encoded.
func NewDraftStore(encryptionKeyHex string, ttl time.Duration) (*DraftStore, error) {
	key, err := hex.DecodeString(encryptionKeyHex)
	if err != nil {
		return nil, errors.New("invalid encryption key hex")
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (64 hex chars)")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DraftStore{encryptionKey: key, ttl: ttl}, nil
}

// Get loads the draft of a partner. A missing draft is (nil, nil).
func (s *DraftStore) Get(ctx context.Context, ownerID uuid.UUID) (*entities.OnboardingDraft, error) {
	encrypted, err := getDraftValue(ctx, draftKey(ownerID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	plaintext, err := s.decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt draft: %w", err)
	}

	var draft entities.OnboardingDraft
	if err := json.Unmarshal(plaintext, &draft); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &draft, nil
}

// Save writes the draft and restarts its TTL
func (s *DraftStore) Save(ctx context.Context, draft *entities.OnboardingDraft) error {
	draft.UpdatedAt = time.Now().UTC()
	jsonData, err := marshalDraftJSON(draft)
	if err != nil {
		return err
	}

	encrypted, err := s.encrypt(jsonData)
	if err != nil {
		return err
	}
	return setDraftValue(ctx, draftKey(draft.OwnerID), encrypted, s.ttl)
}

// Delete drops the draft of a partner
func (s *DraftStore) Delete(ctx context.Context, ownerID uuid.UUID) error {
	return delDraftValue(ctx, draftKey(ownerID))
}

func draftKey(ownerID uuid.UUID) string {
	return draftKeyPrefix + ownerID.String()
}

func (s *DraftStore) encrypt(plaintext []byte) (string, error) {
	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return hex.EncodeToString(ciphertext), nil
}

func (s *DraftStore) decrypt(ciphertextHex string) ([]byte, error) {
	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return nil, err
	}

	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func (s *DraftStore) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
