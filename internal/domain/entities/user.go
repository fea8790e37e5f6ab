package entities

import (
	"time"

	"github.com/google/uuid"
)

// AuthProvider is the social identity provider a partner signed up with
type AuthProvider string

const (
	AuthProviderKakao  AuthProvider = "kakao"
	AuthProviderNaver  AuthProvider = "naver"
	AuthProviderGoogle AuthProvider = "google"
	AuthProviderApple  AuthProvider = "apple"
	AuthProviderEmail  AuthProvider = "email"
)

// Label is the human-readable provider name shown in duplicate hints
func (p AuthProvider) Label() string {
	switch p {
	case AuthProviderKakao:
		return "Kakao"
	case AuthProviderNaver:
		return "Naver"
	case AuthProviderGoogle:
		return "Google"
	case AuthProviderApple:
		return "Apple"
	case AuthProviderEmail:
		return "Email"
	default:
		return "Unknown"
	}
}

// User is the partner account owned by the auth layer; read-only here
type User struct {
	ID           uuid.UUID    `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	AuthProvider AuthProvider `json:"authProvider"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
