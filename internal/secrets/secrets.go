// Package secrets encrypts printer API keys at rest. Values are sealed
// with ChaCha20-Poly1305 under a master key from configuration and only
// opened at dispatch time; plaintext keys never reach the database.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrNoMasterKey   = errors.New("secrets master key is not configured")
	ErrInvalidSealed = errors.New("sealed value is malformed")
)

// Box seals and opens secret values under one master key.
type Box struct {
	key []byte
}

// NewBox derives a cipher key from the configured master key string.
// The key is hashed so operators can use any passphrase length.
func NewBox(masterKey string) (*Box, error) {
	if masterKey == "" {
		return nil, ErrNoMasterKey
	}
	sum := sha256.Sum256([]byte(masterKey))
	return &Box{key: sum[:]}, nil
}

// Seal encrypts a plaintext secret into a base64 value safe to store.
func (b *Box) Seal(plaintext string) (string, error) {
	aead, err := chacha20poly1305.New(b.key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (b *Box) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrInvalidSealed
	}
	aead, err := chacha20poly1305.New(b.key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrInvalidSealed
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("open sealed value: %w", err)
	}
	return string(plaintext), nil
}

// Rotate re-seals a value under a new box, for master key rotation.
func Rotate(old, next *Box, sealed string) (string, error) {
	plaintext, err := old.Open(sealed)
	if err != nil {
		return "", err
	}
	return next.Seal(plaintext)
}
