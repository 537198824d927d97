package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Preview tokens let teachers share a section draft (including unpublished
// questions) without a login. Only the bcrypt hash is stored.

func GeneratePreviewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func HashPreviewToken(token string) (string, error) {
	if token == "" {
		return "", errors.New("empty token")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	return string(hash), err
}

func VerifyPreviewToken(hashed, token string) bool {
	if hashed == "" || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(token)) == nil
}
