// Package cryptocore implements the key hierarchy and AEAD primitive from
// the vault format: PBKDF2 derives a master key from the user's password
// and the container's public salt; HKDF fans the master key out into
// purpose-specific sub-keys so a compromise of one derived key (e.g. the
// search index's HMAC key) never reveals another (e.g. the payload AEAD
// key).
package cryptocore

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"

	"github.com/dodoapps/dodopass/internal/secretbuf"
)

const (
	// KeyLength is the size in bytes of every derived key (AES-256 / HMAC-SHA256).
	KeyLength = 32
	// SaltLength is the required size of the PBKDF2 salt.
	SaltLength = 32
	// DefaultIterations is the PBKDF2 iteration count for newly created vaults (OWASP 2023).
	DefaultIterations = 600_000
	// MinIterations is the recommended minimum iteration count. DeriveMasterKey
	// does not enforce it.
	MinIterations = 600_000
)

// Sub-key HKDF info labels. These are part of the on-disk format: changing
// them without a version bump would make existing vaults unrecoverable.
const (
	labelVaultKey  = "dodopass-vault-key"
	labelSearchKey = "dodopass-search-key"
	labelBackupKey = "dodopass-backup-key"
)

// KeySet holds the full derived key hierarchy for an unlocked vault.
// Every field is a secretbuf.Buffer; callers must call Destroy when the
// vault locks.
type KeySet struct {
	MasterKey *secretbuf.Buffer
	VaultKey  *secretbuf.Buffer
	SearchKey *secretbuf.Buffer
	BackupKey *secretbuf.Buffer
}

// Destroy zeroizes every key in the set. Safe to call multiple times and
// on a nil KeySet.
func (k *KeySet) Destroy() {
	if k == nil {
		return
	}
	for _, b := range []*secretbuf.Buffer{k.MasterKey, k.VaultKey, k.SearchKey, k.BackupKey} {
		if b != nil {
			b.Zero()
		}
	}
}

// DeriveMasterKey runs PBKDF2-HMAC-SHA256 over the password and salt.
// Any iterations > 0 is accepted. The container does not record the count,
// so a vault unlocks only with the same count it was created with.
func DeriveMasterKey(password, salt []byte, iterations int) (*secretbuf.Buffer, error) {
	if len(salt) != SaltLength {
		return nil, ErrInvalidSaltLength
	}
	if iterations <= 0 {
		return nil, fmt.Errorf("invalid iteration count: %d", iterations)
	}
	key := pbkdf2.Key(password, salt, iterations, KeyLength, sha256.New)
	return secretbuf.Wrap(key), nil
}

// DeriveSubKeys expands a master key into the vault/search/backup key
// triad via HKDF-SHA256 with an empty extract salt (the master key is
// already high-entropy) and the format's stable info labels.
func DeriveSubKeys(masterKey *secretbuf.Buffer) (*KeySet, error) {
	vaultKey, err := expand(masterKey.Bytes(), labelVaultKey)
	if err != nil {
		return nil, fmt.Errorf("derive vault key: %w", err)
	}
	searchKey, err := expand(masterKey.Bytes(), labelSearchKey)
	if err != nil {
		return nil, fmt.Errorf("derive search key: %w", err)
	}
	backupKey, err := expand(masterKey.Bytes(), labelBackupKey)
	if err != nil {
		return nil, fmt.Errorf("derive backup key: %w", err)
	}

	return &KeySet{
		MasterKey: masterKey,
		VaultKey:  secretbuf.Wrap(vaultKey),
		SearchKey: secretbuf.Wrap(searchKey),
		BackupKey: secretbuf.Wrap(backupKey),
	}, nil
}

// DeriveKeySet is the convenience entry point used by the vault engine:
// password + salt + iterations -> full KeySet.
func DeriveKeySet(password, salt []byte, iterations int) (*KeySet, error) {
	masterKey, err := DeriveMasterKey(password, salt, iterations)
	if err != nil {
		return nil, err
	}
	keys, err := DeriveSubKeys(masterKey)
	if err != nil {
		masterKey.Zero()
		return nil, err
	}
	return keys, nil
}

func expand(ikm []byte, label string) ([]byte, error) {
	reader := hkdf.New(sha256.New, ikm, nil, []byte(label))
	out := make([]byte, KeyLength)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateSalt returns a fresh cryptographically random 32-byte salt.
func GenerateSalt() ([]byte, error) {
	return RandomBytes(SaltLength)
}
