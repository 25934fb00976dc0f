package health

import (
	"context"
	"fmt"
	"os"
)

// keychainServiceName is the go-keyring service name dodopass stores
// vault-scoped master keys under.
const keychainServiceName = "dodopass"

// KeychainChecker checks keychain status and looks for orphaned entries
// left behind by deleted vaults.
type KeychainChecker struct {
	defaultVaultPath string
	keyring          KeyringService
}

// NewKeychainChecker creates a new keychain checker backed by the real
// system keyring.
func NewKeychainChecker(defaultVaultPath string) HealthChecker {
	return &KeychainChecker{
		defaultVaultPath: defaultVaultPath,
		keyring:          NewGoKeyringService(),
	}
}

// Name returns the check name.
func (k *KeychainChecker) Name() string {
	return "keychain"
}

// Run executes the keychain check. go-keyring does not support
// enumeration in production, so orphan detection only activates when
// the KeyringService backing this checker (a test mock) supports List.
func (k *KeychainChecker) Run(ctx context.Context) CheckResult {
	details := KeychainCheckDetails{
		Available:       true,
		Backend:         keychainBackendName(),
		OrphanedEntries: []KeychainEntry{},
	}

	if _, err := k.keyring.Get(keychainServiceName, k.defaultVaultPath); err == nil {
		details.CurrentVault = &KeychainEntry{
			Key:       keychainServiceName + ":" + k.defaultVaultPath,
			VaultPath: k.defaultVaultPath,
			Exists:    true,
		}
	}

	entries, err := k.keyring.List(keychainServiceName)
	if err != nil {
		// Enumeration unsupported on this platform/backend; nothing
		// more we can say about orphans.
		return CheckResult{
			Name:    k.Name(),
			Status:  CheckPass,
			Message: "keychain accessible (entry enumeration not supported on this platform)",
			Details: details,
		}
	}

	for _, entry := range entries {
		if entry.User == k.defaultVaultPath {
			continue
		}
		if _, statErr := os.Stat(entry.User); statErr == nil {
			continue
		}
		details.OrphanedEntries = append(details.OrphanedEntries, KeychainEntry{
			Key:       entry.Service + ":" + entry.User,
			VaultPath: entry.User,
			Exists:    false,
		})
	}

	if len(details.OrphanedEntries) > 0 {
		return CheckResult{
			Name:           k.Name(),
			Status:         CheckError,
			Message:        fmt.Sprintf("found %d orphaned keychain entries for deleted vaults", len(details.OrphanedEntries)),
			Recommendation: "remove the orphaned entries from the system keychain",
			Details:        details,
		}
	}

	return CheckResult{
		Name:    k.Name(),
		Status:  CheckPass,
		Message: "keychain is healthy",
		Details: details,
	}
}

func keychainBackendName() string {
	if fileExists("/usr/bin/secret-tool") {
		return "Secret Service"
	}
	return "platform credential store"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
