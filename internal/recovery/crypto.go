package recovery

import (
	"encoding/json"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/dodoapps/dodopass/internal/cryptocore"
)

// KDFParams are the Argon2id parameters used to stretch a recovery
// seed into a key capable of unwrapping the stored backup words.
type KDFParams struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"`
	Threads uint8  `json:"threads"`
	KeyLen  uint32 `json:"key_len"`
}

// DefaultKDFParams returns the package defaults (RFC 9106 recommended
// 64MB/1-pass/4-thread Argon2id).
func DefaultKDFParams() *KDFParams {
	return &KDFParams{Time: DefaultTime, Memory: DefaultMemory, Threads: DefaultThreads, KeyLen: DefaultKeyLen}
}

// deriveKey stretches seed (the BIP39 seed, optionally passphrase-salted
// by the caller before calling this) with Argon2id.
func deriveKey(seed, salt []byte, params *KDFParams) []byte {
	if params == nil {
		params = DefaultKDFParams()
	}
	return argon2.IDKey(seed, salt, params.Time, params.Memory, params.Threads, params.KeyLen)
}

// encryptStoredWords seals the 18 stored mnemonic words under key with
// AES-256-GCM. The returned blob already carries its own nonce
// (cryptocore.Seal's nonce‖sealed‖tag layout).
func encryptStoredWords(words []string, key []byte) ([]byte, error) {
	plaintext, err := json.Marshal(words)
	if err != nil {
		return nil, ErrEncryptionFailed
	}
	blob, err := cryptocore.Seal(key, plaintext, nil)
	if err != nil {
		return nil, ErrEncryptionFailed
	}
	return blob, nil
}

// decryptStoredWords reverses encryptStoredWords.
func decryptStoredWords(blob, key []byte) ([]string, error) {
	plaintext, err := cryptocore.Open(key, blob, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	var words []string
	if err := json.Unmarshal(plaintext, &words); err != nil {
		return nil, ErrDecryptionFailed
	}
	return words, nil
}

// randomSalt returns a fresh Argon2 salt of the package's default length.
func randomSalt() ([]byte, error) {
	return cryptocore.RandomBytes(DefaultSaltLen)
}

// saltFromPassphrase mixes an optional 25th-word passphrase into the
// Argon2 salt so the derived key depends on both the mnemonic and the
// passphrase, mirroring BIP39's own optional-passphrase design.
func saltFromPassphrase(baseSalt, passphrase []byte) []byte {
	if len(passphrase) == 0 {
		return baseSalt
	}
	return append(append([]byte(nil), baseSalt...), []byte(strings.TrimSpace(string(passphrase)))...)
}
