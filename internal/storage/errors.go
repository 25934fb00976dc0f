package storage

import "errors"

// Error types surfaced by the storage driver's write and backup paths.
var (
	// ErrVerificationFailed indicates the temp file failed post-write decode
	// verification before it was committed in place of the live vault.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrDiskSpaceExhausted indicates insufficient disk space for the
	// temporary write.
	ErrDiskSpaceExhausted = errors.New("insufficient disk space")

	// ErrPermissionDenied indicates the vault directory could not be
	// written to.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrFilesystemNotAtomic indicates the rename step failed in a way
	// that suggests the filesystem does not support atomic rename
	// (e.g. a cross-device rename).
	ErrFilesystemNotAtomic = errors.New("filesystem does not support atomic operations")

	// ErrVaultNotFound indicates no vault file exists at the configured
	// path.
	ErrVaultNotFound = errors.New("vault not found")

	// ErrLockHeld indicates the coordinated driver could not acquire the
	// vault's advisory lock because another process holds it.
	ErrLockHeld = errors.New("vault is locked by another process")
)
