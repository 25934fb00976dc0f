package keychain

import (
	"bytes"
	"testing"

	"github.com/zalando/go-keyring"
)

const testServiceName = "dodopass-test"

// testService stores entries in the real system keychain under the
// separate dodopass-test service name, keyed by a per-test account, so
// they stay apart from dodopass's own entries.
type testService struct {
	*Service
	account string
}

func newTestService(account string) *testService {
	return &testService{Service: New(""), account: account}
}

func (ts *testService) StoreMasterKey(masterKey []byte) error {
	return keyring.Set(testServiceName, ts.account, string(masterKey))
}

func (ts *testService) RetrieveMasterKey() ([]byte, error) {
	v, err := keyring.Get(testServiceName, ts.account)
	if err == keyring.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}

func (ts *testService) DeleteMasterKey() error {
	err := keyring.Delete(testServiceName, ts.account)
	if err == keyring.ErrNotFound {
		return nil
	}
	return err
}

func (ts *testService) HasMasterKey() bool {
	_, err := keyring.Get(testServiceName, ts.account)
	return err == nil
}

func sampleKey() []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

func TestNew(t *testing.T) {
	ks := New("")
	if ks.vaultID != "" {
		t.Errorf("vaultID = %q, want empty string", ks.vaultID)
	}

	ksVault := New("test-vault")
	if ksVault.vaultID != "test-vault" {
		t.Errorf("vaultID = %q, want %q", ksVault.vaultID, "test-vault")
	}
}

func TestStoreMasterKeyRejectsWrongLength(t *testing.T) {
	ks := New("")
	if !ks.IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	if err := ks.StoreMasterKey([]byte("too short")); err == nil {
		t.Fatal("expected error for non-32-byte key")
	}
}

func TestStoreAndRetrieveMasterKey(t *testing.T) {
	ts := newTestService("store-retrieve")
	if !New("").IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	_ = ts.DeleteMasterKey()
	defer ts.DeleteMasterKey()

	key := sampleKey()
	if err := ts.StoreMasterKey(key); err != nil {
		t.Fatalf("StoreMasterKey() failed: %v", err)
	}

	retrieved, err := ts.RetrieveMasterKey()
	if err != nil {
		t.Fatalf("RetrieveMasterKey() failed: %v", err)
	}
	if !bytes.Equal(retrieved, key) {
		t.Errorf("retrieved key = %x, want %x", retrieved, key)
	}
}

func TestRetrieveMasterKeyNotFound(t *testing.T) {
	ts := newTestService("not-found")
	if !New("").IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	_ = ts.DeleteMasterKey()

	_, err := ts.RetrieveMasterKey()
	if err != ErrNotFound {
		t.Errorf("RetrieveMasterKey() error = %v, want %v", err, ErrNotFound)
	}
}

func TestDeleteMasterKey(t *testing.T) {
	ts := newTestService("delete")
	if !New("").IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	_ = ts.DeleteMasterKey()

	if err := ts.StoreMasterKey(sampleKey()); err != nil {
		t.Fatalf("StoreMasterKey() failed: %v", err)
	}
	if err := ts.DeleteMasterKey(); err != nil {
		t.Fatalf("DeleteMasterKey() failed: %v", err)
	}
	if _, err := ts.RetrieveMasterKey(); err != ErrNotFound {
		t.Errorf("after delete, RetrieveMasterKey() error = %v, want %v", err, ErrNotFound)
	}
}

func TestDeleteMasterKeyNonExistentIsNotAnError(t *testing.T) {
	ts := newTestService("delete-nonexistent")
	if !New("").IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	_ = ts.DeleteMasterKey()

	if err := ts.DeleteMasterKey(); err != nil {
		t.Errorf("DeleteMasterKey() on non-existent entry failed: %v", err)
	}
}

func TestHasMasterKey(t *testing.T) {
	ts := newTestService("has-key")
	if !New("").IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	_ = ts.DeleteMasterKey()

	if ts.HasMasterKey() {
		t.Fatal("HasMasterKey() should be false before storing")
	}
	if err := ts.StoreMasterKey(sampleKey()); err != nil {
		t.Fatalf("StoreMasterKey() failed: %v", err)
	}
	if !ts.HasMasterKey() {
		t.Fatal("HasMasterKey() should be true after storing")
	}
	_ = ts.DeleteMasterKey()
}

func TestSanitizeVaultID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{".", ""},
		{"my-vault", "my-vault"},
		{"my_vault", "my_vault"},
		{"MyVault123", "MyVault123"},
		{"my vault", "my_vault"},
		{"my/vault", "my_vault"},
		{"my\\vault", "my_vault"},
		{"my:vault", "my_vault"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			result := sanitizeVaultID(tc.input)
			if result != tc.expected {
				t.Errorf("sanitizeVaultID(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

func TestAccountName(t *testing.T) {
	tests := []struct {
		vaultID  string
		expected string
	}{
		{"", "master-key"},
		{"my-vault", "master-key-my-vault"},
		{"test_vault", "master-key-test_vault"},
	}

	for _, tc := range tests {
		t.Run(tc.vaultID, func(t *testing.T) {
			ks := New(tc.vaultID)
			result := ks.accountName()
			if result != tc.expected {
				t.Errorf("accountName() = %q, want %q", result, tc.expected)
			}
		})
	}
}

func TestVaultIsolation(t *testing.T) {
	ks1 := newTestService("vault1")
	ks2 := newTestService("vault2")

	if !New("").IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	_ = ks1.DeleteMasterKey()
	_ = ks2.DeleteMasterKey()

	key1 := sampleKey()
	key2 := append([]byte(nil), sampleKey()...)
	key2[0] = 0xFF

	if err := ks1.StoreMasterKey(key1); err != nil {
		t.Fatalf("failed to store key1: %v", err)
	}
	if err := ks2.StoreMasterKey(key2); err != nil {
		t.Fatalf("failed to store key2: %v", err)
	}

	r1, err := ks1.RetrieveMasterKey()
	if err != nil || !bytes.Equal(r1, key1) {
		t.Fatalf("vault1 key mismatch: %x, %v", r1, err)
	}
	r2, err := ks2.RetrieveMasterKey()
	if err != nil || !bytes.Equal(r2, key2) {
		t.Fatalf("vault2 key mismatch: %x, %v", r2, err)
	}

	_ = ks1.DeleteMasterKey()
	_ = ks2.DeleteMasterKey()
}
