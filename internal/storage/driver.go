// Package storage implements the vault's on-disk persistence: atomic
// writes (temp file + fsync + rename), timestamped backup rotation, and
// a cooperative-locking variant for vault files kept in a directory
// synced by an external tool.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// VaultPermissions is the mode every vault file and backup is created
// with: readable/writable by the owner only.
const VaultPermissions os.FileMode = 0600

// Driver persists the vault's encoded container bytes. It never
// interprets the bytes it is given — encoding and decryption happen one
// layer up, in the vault engine.
type Driver interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Exists() bool
	Delete() error
	Backup() (string, error)
	ListBackups() ([]BackupInfo, error)
	RestoreBackup(path string) ([]byte, error)
	DeleteBackup(path string) error
}

// FileDriver is the default Driver: a single vault file plus a Backups/
// sibling directory, written via the write-temp-fsync-rename protocol.
type FileDriver struct {
	vaultPath        string
	fs               FileSystem
	backupRetention  int
}

// DefaultBackupRetention is how many rotated backups FileDriver keeps
// before deleting the oldest, absent an override (spec.md leaves N
// implementation-defined).
const DefaultBackupRetention = 10

// NewFileDriver returns a Driver backed by the real filesystem, rooted
// at vaultPath.
func NewFileDriver(vaultPath string) *FileDriver {
	return &FileDriver{
		vaultPath:       vaultPath,
		fs:              NewOSFileSystem(),
		backupRetention: DefaultBackupRetention,
	}
}

// WithBackupRetention overrides the number of rotated backups retained.
func (d *FileDriver) WithBackupRetention(n int) *FileDriver {
	d.backupRetention = n
	return d
}

// WithFileSystem overrides the FileSystem implementation, for tests.
func (d *FileDriver) WithFileSystem(fs FileSystem) *FileDriver {
	d.fs = fs
	return d
}

// Exists reports whether a vault file is present at the configured path.
func (d *FileDriver) Exists() bool {
	_, err := d.fs.Stat(d.vaultPath)
	return err == nil
}

// momentaryMissRetryDelay is how long Read waits before its single
// retry of a failed or missing read. A sync tool's writer can
// unlink-then-rename with a narrow gap where the file briefly doesn't
// exist; one retry rides that out without the caller seeing it.
const momentaryMissRetryDelay = 20 * time.Millisecond

// Read returns the raw container bytes currently on disk. A read that
// finds the file missing or fails is retried once after a brief delay
// before giving up.
func (d *FileDriver) Read() ([]byte, error) {
	data, err := d.readOnce()
	if err == nil {
		return data, nil
	}
	time.Sleep(momentaryMissRetryDelay)
	return d.readOnce()
}

func (d *FileDriver) readOnce() ([]byte, error) {
	if !d.Exists() {
		return nil, ErrVaultNotFound
	}
	data, err := d.fs.ReadFile(d.vaultPath)
	if err != nil {
		return nil, fmt.Errorf("storage: read vault: %w", err)
	}
	return data, nil
}

// Write atomically replaces the vault file with data: write to a
// same-directory temp file, fsync, then rename over the live path.
// Before committing, it rotates the previous live vault into the
// Backups/ directory (best-effort — rotation failure does not block the
// write).
func (d *FileDriver) Write(data []byte) error {
	if err := d.fs.MkdirAll(filepath.Dir(d.vaultPath), 0700); err != nil {
		return fmt.Errorf("storage: create vault directory: %w", err)
	}

	tempPath, err := d.writeTempFile(data)
	if err != nil {
		return err
	}
	defer d.cleanupOrphanedTempFiles(tempPath)

	if d.Exists() {
		if err := d.rotateBackup(); err != nil {
			fmt.Fprintf(os.Stderr, "storage: warning: backup rotation failed: %v\n", err)
		}
	}

	if err := d.atomicRename(tempPath, d.vaultPath); err != nil {
		_ = d.cleanupTempFile(tempPath)
		return err
	}
	return nil
}

// Delete removes the vault file. It does not remove backups.
func (d *FileDriver) Delete() error {
	if err := d.fs.Remove(d.vaultPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete vault: %w", err)
	}
	return nil
}
