package integration

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/hearthkeep/hub/internal/hubcore/errs"
)

// SecretCodec encrypts is_secret attribute values at rest, following the
// teacher's nonce-prepend AEAD envelope (system/tee/sys_crypto.go's
// aesEncrypt/aesDecrypt) but with chacha20poly1305 in place of AES-GCM.
type SecretCodec struct {
	aead   []byte // raw key; Encrypt/Decrypt use cipher, built once from it in NewSecretCodec
	cipher interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
	}
}

// NewSecretCodec builds a codec from a 32-byte key.
func NewSecretCodec(key []byte) (*SecretCodec, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, errs.ConfigError("invalid secret attribute encryption key", err)
	}
	return &SecretCodec{aead: key, cipher: aead}, nil
}

// Encrypt seals plaintext and returns a base64 envelope (nonce||ciphertext)
// safe to store as an attribute value.
func (c *SecretCodec) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.cipher.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("integration: generate nonce: %w", err)
	}
	sealed := c.cipher.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *SecretCodec) Decrypt(envelope string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", fmt.Errorf("integration: decode envelope: %w", err)
	}
	nonceSize := c.cipher.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("integration: envelope too short")
	}
	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := c.cipher.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("integration: decrypt attribute: %w", err)
	}
	return string(plaintext), nil
}
