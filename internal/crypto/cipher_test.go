package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCipherRoundTrip(t *testing.T) {
	c, err := NewTokenCipher("unit-test-cipher-key")
	require.NoError(t, err)
	require.True(t, c.Enabled())

	enc, err := c.Encrypt("APP_USR-1234567890-access-token")
	require.NoError(t, err)
	assert.NotEqual(t, "APP_USR-1234567890-access-token", enc)

	plain, err := c.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "APP_USR-1234567890-access-token", plain)
}

func TestTokenCipherNoncesDiffer(t *testing.T) {
	c, err := NewTokenCipher("unit-test-cipher-key")
	require.NoError(t, err)

	a, err := c.Encrypt("same-value")
	require.NoError(t, err)
	b, err := c.Encrypt("same-value")
	require.NoError(t, err)

	// Random nonce per call: identical plaintexts must not produce
	// identical ciphertexts.
	assert.NotEqual(t, a, b)
}

func TestTokenCipherWrongKey(t *testing.T) {
	c1, err := NewTokenCipher("key-one")
	require.NoError(t, err)
	c2, err := NewTokenCipher("key-two")
	require.NoError(t, err)

	enc, err := c1.Encrypt("secret")
	require.NoError(t, err)

	_, err = c2.Decrypt(enc)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestTokenCipherGarbageInput(t *testing.T) {
	c, err := NewTokenCipher("key")
	require.NoError(t, err)

	_, err = c.Decrypt("not base64 at all!!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = c.Decrypt("c2hvcnQ=") // valid base64, shorter than a nonce
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestTokenCipherPassThrough(t *testing.T) {
	c, err := NewTokenCipher("")
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	enc, err := c.Encrypt("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", enc)

	plain, err := c.Decrypt("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", plain)
}
