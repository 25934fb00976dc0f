// Package recoverystore persists BIP39 recovery metadata alongside a
// vault container. It lives outside vaultengine because the recovery
// scheme escrows the master key under a separately derived recovery
// key rather than participating in the engine's own lock state
// machine — the sidecar file never needs to be open for the vault
// itself to be usable.
package recoverystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dodoapps/dodopass/internal/cryptocore"
	"github.com/dodoapps/dodopass/internal/recovery"
)

// ErrNotFound indicates no recovery sidecar exists for a vault.
var ErrNotFound = errors.New("recoverystore: no recovery data for this vault")

// sidecarSuffix names the file relative to the vault path it recovers.
const sidecarSuffix = ".recovery.json"

// Record is the on-disk sidecar shape: the recovery package's own
// metadata plus the vault master key, sealed under the recovery key so
// it's only readable by someone who reconstructs that key via
// recovery.PerformRecovery.
type Record struct {
	Metadata        *recovery.RecoveryMetadata `json:"metadata"`
	WrappedMasterKey []byte                    `json:"wrapped_master_key"`
}

// PathFor returns the sidecar path for a vault file.
func PathFor(vaultPath string) string {
	return vaultPath + sidecarSuffix
}

// Save escrows masterKey under recoveryKey and writes the sidecar
// file next to the vault, permissioned the same as the vault itself.
func Save(vaultPath string, metadata *recovery.RecoveryMetadata, recoveryKey, masterKey []byte) error {
	wrapped, err := cryptocore.Seal(recoveryKey, masterKey, nil)
	if err != nil {
		return fmt.Errorf("recoverystore: wrap master key: %w", err)
	}

	rec := Record{Metadata: metadata, WrappedMasterKey: wrapped}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("recoverystore: encode sidecar: %w", err)
	}

	if err := os.WriteFile(PathFor(vaultPath), data, 0600); err != nil {
		return fmt.Errorf("recoverystore: write sidecar: %w", err)
	}
	return nil
}

// Load reads the sidecar file for vaultPath.
func Load(vaultPath string) (*Record, error) {
	data, err := os.ReadFile(PathFor(vaultPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("recoverystore: read sidecar: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("recoverystore: decode sidecar: %w", err)
	}
	return &rec, nil
}

// Exists reports whether a recovery sidecar is present for vaultPath.
func Exists(vaultPath string) bool {
	_, err := os.Stat(PathFor(vaultPath))
	return err == nil
}

// Unwrap opens the sidecar's escrowed master key using a recovery key
// reconstructed via recovery.PerformRecovery.
func Unwrap(rec *Record, recoveryKey []byte) ([]byte, error) {
	masterKey, err := cryptocore.Open(recoveryKey, rec.WrappedMasterKey, nil)
	if err != nil {
		return nil, fmt.Errorf("recoverystore: unwrap master key: %w", err)
	}
	return masterKey, nil
}

// Delete removes the sidecar file, if any.
func Delete(vaultPath string) error {
	err := os.Remove(PathFor(vaultPath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("recoverystore: delete sidecar: %w", err)
	}
	return nil
}
