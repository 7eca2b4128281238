package db

import (
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	secretKey := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, secretKey)
	require.NoError(t, err)
	enc, err := NewGCMEncryptor(string(secretKey))
	require.NoError(t, err)
	val := "some-secret-value-123"
	valEnc, err := enc.Encrypt(val)
	require.NoError(t, err)
	assert.NotEqual(t, val, valEnc)
	valDec, err := enc.Decrypt(valEnc)
	require.NoError(t, err)
	assert.NotEqual(t, valDec, valEnc)
	assert.Equal(t, val, valDec)
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	enc, err := NewGCMEncryptor("token-encryption-key-12345678910")
	require.NoError(t, err)
	first, err := enc.Encrypt("value")
	require.NoError(t, err)
	second, err := enc.Encrypt("value")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestDecryptWithWrongKey(t *testing.T) {
	enc, err := NewGCMEncryptor("token-encryption-key-12345678910")
	require.NoError(t, err)
	other, err := NewGCMEncryptor("another-encryption-key-123456789")
	require.NoError(t, err)
	valEnc, err := enc.Encrypt("value")
	require.NoError(t, err)
	_, err = other.Decrypt(valEnc)
	assert.Error(t, err)
	_, err = enc.Decrypt("c2hvcnQ=")
	assert.Error(t, err)
}

func TestInvalidKeyLength(t *testing.T) {
	_, err := NewGCMEncryptor("too-short")
	assert.Error(t, err)
}
