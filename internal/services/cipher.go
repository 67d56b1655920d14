package services

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrCiphertext = errors.New("malformed ciphertext")

// TokenCipher seals secrets stored at rest with XChaCha20-Poly1305, keyed by
// a SHA-256 digest of the configured secret.
type TokenCipher struct {
	aead cipher.AEAD
}

func NewTokenCipher(secret string) (*TokenCipher, error) {
	if secret == "" {
		return nil, errors.New("encryption key must not be empty")
	}
	key := sha256.Sum256([]byte(secret))
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, err
	}
	return &TokenCipher{aead: aead}, nil
}

func (tc *TokenCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, tc.aead.NonceSize(), tc.aead.NonceSize()+len(plaintext)+tc.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := tc.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

func (tc *TokenCipher) Decrypt(encoded string) (string, error) {
	sealed, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil || len(sealed) < tc.aead.NonceSize() {
		return "", ErrCiphertext
	}
	nonce, ciphertext := sealed[:tc.aead.NonceSize()], sealed[tc.aead.NonceSize():]
	plain, err := tc.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrCiphertext
	}
	return string(plain), nil
}
