//go:build linux || darwin

package storage

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// CoordinatedDriver wraps a FileDriver with an advisory flock on a
// sidecar ".lock" file, for vault files that live in a directory
// synced by an external tool (e.g. Dropbox, rclone bisync) where two
// processes on different machines could otherwise race a write.
type CoordinatedDriver struct {
	*FileDriver
	lockPath string
}

// NewCoordinatedDriver wraps vaultPath with advisory locking.
func NewCoordinatedDriver(vaultPath string) *CoordinatedDriver {
	return &CoordinatedDriver{
		FileDriver: NewFileDriver(vaultPath),
		lockPath:   vaultPath + ".lock",
	}
}

// WithLock runs fn while holding an exclusive, non-blocking flock on
// the sidecar lock file, returning ErrLockHeld if another process
// already holds it.
func (d *CoordinatedDriver) WithLock(fn func() error) error {
	// #nosec G304 -- lock path is derived internally from the configured vault path
	f, err := os.OpenFile(d.lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("storage: open lock file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if err == unix.EWOULDBLOCK {
			return ErrLockHeld
		}
		return fmt.Errorf("storage: acquire lock: %w", err)
	}
	defer func() { _ = unix.Flock(int(f.Fd()), unix.LOCK_UN) }()

	return fn()
}

// Write acquires the coordinated lock before delegating to FileDriver.
func (d *CoordinatedDriver) Write(data []byte) error {
	return d.WithLock(func() error { return d.FileDriver.Write(data) })
}
