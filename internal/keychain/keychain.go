package keychain

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/zalando/go-keyring"
)

const (
	// ServiceName is the identifier used for keychain storage.
	ServiceName = "dodopass"
	// AccountName is the base account identifier for the master key.
	// For vault-specific entries, this becomes "master-key-<vaultID>".
	AccountName = "master-key"
)

var (
	// ErrKeychainUnavailable indicates the system keychain is not available.
	ErrKeychainUnavailable = errors.New("system keychain is not available")
	// ErrNotFound indicates no master key is stored in the keychain.
	ErrNotFound = errors.New("master key not found in keychain")
)

// Service is the concrete keychain/biometric collaborator spec.md §6
// describes abstractly: store_master_key, retrieve_master_key,
// delete_master_key, has_master_key. It stores the raw 32-byte master
// key, base64-encoded, under the platform credential store.
type Service struct {
	available bool
	vaultID   string
}

// New creates a Service scoped to a specific vault. Pass empty string
// for the legacy/global entry.
func New(vaultID string) *Service {
	return &Service{vaultID: sanitizeVaultID(vaultID)}
}

func sanitizeVaultID(vaultID string) string {
	if vaultID == "" || vaultID == "." {
		return ""
	}

	safe := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, vaultID)

	if safe == "" {
		return ""
	}
	return safe
}

func (s *Service) accountName() string {
	if s.vaultID == "" {
		return AccountName
	}
	return fmt.Sprintf("%s-%s", AccountName, s.vaultID)
}

// Ping tests if the system keychain is accessible.
func (s *Service) Ping() error {
	if s.available {
		return nil
	}

	testAccount := "dodopass-availability-test"
	if err := keyring.Set(ServiceName, testAccount, "test"); err != nil {
		return fmt.Errorf("%w: %v", ErrKeychainUnavailable, err)
	}
	_ = keyring.Delete(ServiceName, testAccount)

	s.available = true
	return nil
}

// IsAvailable reports whether the system keychain is usable, probing it
// on demand the first time.
func (s *Service) IsAvailable() bool {
	if !s.available {
		_ = s.Ping()
	}
	return s.available
}

// StoreMasterKey persists the 32-byte master key under the platform
// credential store. It is the store_master_key collaborator call.
func (s *Service) StoreMasterKey(masterKey []byte) error {
	if len(masterKey) != 32 {
		return fmt.Errorf("master key must be 32 bytes, got %d", len(masterKey))
	}
	encoded := base64.StdEncoding.EncodeToString(masterKey)
	if err := keyring.Set(ServiceName, s.accountName(), encoded); err != nil {
		return fmt.Errorf("failed to store master key in keychain: %w", err)
	}
	return nil
}

// RetrieveMasterKey returns the stored 32-byte master key. It is the
// retrieve_master_key collaborator call; callers should treat
// ErrNotFound and ErrKeychainUnavailable as the AuthCancelled/AuthFailed
// cases spec.md §6 names for an abstract collaborator that may prompt.
func (s *Service) RetrieveMasterKey() ([]byte, error) {
	encoded, err := keyring.Get(ServiceName, s.accountName())
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve master key from keychain: %w", err)
	}
	masterKey, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("corrupt keychain entry: %w", err)
	}
	return masterKey, nil
}

// DeleteMasterKey removes the stored master key. It is the
// delete_master_key collaborator call; it does not error when nothing
// is stored.
func (s *Service) DeleteMasterKey() error {
	err := keyring.Delete(ServiceName, s.accountName())
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete master key from keychain: %w", err)
	}
	return nil
}

// HasMasterKey is the has_master_key non-prompting probe. go-keyring's
// Get always reaches into the platform store, so platforms without a
// cheap existence check pay the same cost as RetrieveMasterKey.
func (s *Service) HasMasterKey() bool {
	_, err := keyring.Get(ServiceName, s.accountName())
	return err == nil
}
