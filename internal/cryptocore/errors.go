package cryptocore

import "errors"

var (
	// ErrInvalidKeyLength indicates a key is not the expected 32 bytes.
	ErrInvalidKeyLength = errors.New("invalid key length")
	// ErrInvalidSaltLength indicates a salt is not the expected 32 bytes.
	ErrInvalidSaltLength = errors.New("invalid salt length")
	// ErrInvalidNonceLength indicates a nonce is not the expected 12 bytes.
	ErrInvalidNonceLength = errors.New("invalid nonce length")
	// ErrInvalidCiphertext indicates a ciphertext is too short to contain a nonce and tag.
	ErrInvalidCiphertext = errors.New("invalid ciphertext length")
	// ErrAuthFailure indicates AEAD authentication failed: the tag did not verify.
	// Treat as an integrity violation; never proceed with the output.
	ErrAuthFailure = errors.New("authentication failure")
)
