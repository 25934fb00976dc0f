package cryptocore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

const (
	// NonceLength is the AES-GCM nonce size in bytes.
	NonceLength = 12
	// TagLength is the AES-GCM authentication tag size in bytes.
	TagLength = 16
)

// Seal encrypts plaintext under key with AES-256-GCM, generating a fresh
// random nonce internally — the signature never accepts a caller-supplied
// nonce, so nonce reuse under the same key is structurally impossible.
// The wire layout is nonce‖sealed‖tag. aad, if non-nil, is authenticated
// but not encrypted (e.g. binding the container's format version into
// the tag).
func Seal(key, plaintext, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, aad)

	out := make([]byte, 0, len(nonce)+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// Open decrypts a nonce‖sealed‖tag blob produced by Seal. Any alteration
// to ciphertext, nonce, tag, or aad causes ErrAuthFailure.
func Open(key, blob, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(blob) < NonceLength+TagLength {
		return nil, ErrInvalidCiphertext
	}

	nonce := blob[:NonceLength]
	sealed := blob[NonceLength:]

	plaintext, err := gcm.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, ErrAuthFailure
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return gcm, nil
}

// RandomBytes returns n cryptographically random bytes.
func RandomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid length: %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return b, nil
}
