// Package crypto encrypts marketplace tokens before they reach the
// credential store. AES-GCM keyed by the SHA-256 of TOKEN_CIPHER_KEY; an
// empty key degrades to pass-through so local development works without one.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

var ErrInvalidCiphertext = errors.New("invalid ciphertext")

type TokenCipher struct {
	aead cipher.AEAD
}

// NewTokenCipher derives an AES-256-GCM cipher from key. An empty key
// returns a pass-through cipher.
func NewTokenCipher(key string) (*TokenCipher, error) {
	if key == "" {
		return &TokenCipher{}, nil
	}

	h := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(h[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &TokenCipher{aead: aead}, nil
}

// Enabled reports whether values are actually encrypted.
func (c *TokenCipher) Enabled() bool {
	return c.aead != nil
}

// Encrypt seals plain and returns base64(nonce || ciphertext).
func (c *TokenCipher) Encrypt(plain string) (string, error) {
	if c.aead == nil {
		return plain, nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *TokenCipher) Decrypt(enc string) (string, error) {
	if c.aead == nil {
		return enc, nil
	}

	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(raw) < c.aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	nonce, ct := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plain), nil
}
