// Package auditlog implements the vault's tamper-evident audit trail:
// append-only, HMAC-signed JSON lines, rotated by size with a bounded
// retention window for the rotated-out file.
package auditlog

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Category classifies an audit entry into one of the vault's four event
// domains.
type Category string

const (
	CategorySecurity Category = "security"
	CategoryVault    Category = "vault"
	CategoryAuth     Category = "auth"
	CategorySync     Category = "sync"
)

// Level indicates the severity of an audit entry.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Outcome of the operation the entry describes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeAttempt = "attempt"
)

// Event type constants. Names describe the operation, not the spec
// section that required it.
const (
	EventVaultCreate         = "vault_create"
	EventVaultUnlock         = "vault_unlock"
	EventVaultLock           = "vault_lock"
	EventVaultPasswordChange = "vault_password_change"
	EventItemAccess          = "item_access"
	EventItemAdd             = "item_add"
	EventItemUpdate          = "item_update"
	EventItemDelete          = "item_delete"
	EventSearch              = "search"
	EventKeychainEnable      = "keychain_enable"
	EventKeychainStatus      = "keychain_status"
	EventVaultRemove         = "vault_remove"
	EventBackupCreate        = "backup_create"
	EventBackupRestore       = "backup_restore"
	EventSyncReconcile       = "sync_reconcile"
	EventSyncConflict        = "sync_conflict"
	EventRecoverySetup       = "recovery_setup"
	EventRecoveryPerform     = "recovery_perform"
)

// Entry is a single audit record. ItemTitle (never a password or other
// secret field) is the only item-identifying data carried.
type Entry struct {
	Timestamp     time.Time `json:"timestamp"`
	Category      Category  `json:"category"`
	EventType     string    `json:"event_type"`
	Level         Level     `json:"level"`
	Outcome       string    `json:"outcome"`
	ItemTitle     string    `json:"item_title,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	HMACSignature []byte    `json:"hmac_signature"`
}

// canonicalize produces the byte string an entry's HMAC signs. Field
// order is fixed and must never change without a version bump, since
// changing it silently invalidates every previously signed entry.
func (e *Entry) canonicalize() []byte {
	return []byte(fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		e.Timestamp.Format(time.RFC3339Nano),
		e.Category,
		e.EventType,
		e.Level,
		e.Outcome,
		e.ItemTitle,
	))
}

// Sign computes and stores the entry's HMAC signature.
func (e *Entry) Sign(key []byte) {
	mac := hmac.New(sha256.New, key)
	mac.Write(e.canonicalize())
	e.HMACSignature = mac.Sum(nil)
}

// Verify reports whether the entry's stored signature matches key.
func (e *Entry) Verify(key []byte) error {
	mac := hmac.New(sha256.New, key)
	mac.Write(e.canonicalize())
	expected := mac.Sum(nil)
	if !hmac.Equal(e.HMACSignature, expected) {
		return fmt.Errorf("auditlog: signature mismatch at %s", e.Timestamp)
	}
	return nil
}

// rotationRetention is how long a rotated-out log is kept before
// deletion.
const rotationRetention = 7 * 24 * time.Hour

// defaultMaxSizeBytes is the size at which Log triggers rotation.
const defaultMaxSizeBytes = 10 * 1024 * 1024

// Logger appends signed entries to a file, rotating it once it exceeds
// maxSizeBytes.
type Logger struct {
	filePath     string
	maxSizeBytes int64
	currentSize  int64
	key          []byte
}

// New opens (or prepares to create) an audit log at filePath, signed
// with key. key should be a dedicated audit key, not the vault's master
// or vault key — keep signing capability separate from decryption
// capability.
func New(filePath string, key []byte) (*Logger, error) {
	var currentSize int64
	if info, err := os.Stat(filePath); err == nil {
		currentSize = info.Size()
	}
	return &Logger{
		filePath:     filePath,
		maxSizeBytes: defaultMaxSizeBytes,
		currentSize:  currentSize,
		key:          append([]byte(nil), key...),
	}, nil
}

// ShouldRotate reports whether the log has reached its size threshold.
func (l *Logger) ShouldRotate() bool {
	return l.currentSize >= l.maxSizeBytes
}

// Rotate renames the current log to ".old", deleting any existing
// ".old" file once it is older than the retention window, then starts a
// fresh empty log.
func (l *Logger) Rotate() error {
	oldPath := l.filePath + ".old"
	if info, err := os.Stat(oldPath); err == nil {
		if time.Since(info.ModTime()) > rotationRetention {
			if err := os.Remove(oldPath); err != nil {
				fmt.Fprintf(os.Stderr, "auditlog: failed to delete expired rotated log: %v\n", err)
			}
		}
	}

	if err := os.Rename(l.filePath, oldPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("auditlog: rotate: %w", err)
	}

	f, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("auditlog: create new log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("auditlog: close new log: %w", err)
	}

	l.currentSize = 0
	return nil
}

// Log signs entry, rotates if necessary, and appends it as a JSON line.
func (l *Logger) Log(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	entry.Sign(l.key)

	if l.ShouldRotate() {
		if err := l.Rotate(); err != nil {
			return err
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("auditlog: marshal entry: %w", err)
	}

	f, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("auditlog: open log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("auditlog: write entry: %w", err)
	}
	l.currentSize += int64(len(data) + 1)
	return nil
}
