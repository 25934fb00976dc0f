package storage

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// writeTempFile writes data to a unique temp file in the vault's
// directory (so the later rename stays on one filesystem) and fsyncs
// before returning, per spec.md §4.10's write-temp-fsync-rename
// protocol.
func (d *FileDriver) writeTempFile(data []byte) (string, error) {
	tempPath := d.tempFileName()

	// #nosec G304 -- temp path is generated internally with a timestamp+random suffix
	file, err := d.fs.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, VaultPermissions)
	if err != nil {
		if os.IsPermission(err) {
			return "", fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return "", fmt.Errorf("%w: %v", ErrDiskSpaceExhausted, err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Write(data); err != nil {
		return "", fmt.Errorf("storage: write temp file: %w", err)
	}
	if err := file.Sync(); err != nil {
		return "", fmt.Errorf("storage: sync temp file: %w", err)
	}
	return tempPath, nil
}

func (d *FileDriver) tempFileName() string {
	timestamp := time.Now().Format("20060102-150405")
	return fmt.Sprintf("%s.tmp.%s.%s", d.vaultPath, timestamp, randomHexSuffix(6))
}

func randomHexSuffix(length int) string {
	b := make([]byte, length/2)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("%x", b)
}

// atomicRename commits tempPath over targetPath. Unlinking the target
// first is unnecessary on POSIX (rename replaces atomically) but some
// Windows filesystems require the destination not to exist.
func (d *FileDriver) atomicRename(tempPath, targetPath string) error {
	if err := d.fs.Rename(tempPath, targetPath); err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return fmt.Errorf("%w: %v", ErrFilesystemNotAtomic, err)
	}
	return nil
}

func (d *FileDriver) cleanupTempFile(path string) error {
	if err := d.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "storage: warning: failed to remove temp file %s: %v\n", path, err)
		return err
	}
	return nil
}

// cleanupOrphanedTempFiles removes temp files left behind by a crashed
// previous write. Best-effort: glob or remove failures are logged, not
// returned, since this runs as a deferred cleanup after every write.
func (d *FileDriver) cleanupOrphanedTempFiles(currentTempPath string) {
	pattern := filepath.Join(filepath.Dir(d.vaultPath), filepath.Base(d.vaultPath)+".tmp.*")
	matches, err := d.fs.Glob(pattern)
	if err != nil {
		return
	}
	for _, orphan := range matches {
		if orphan == currentTempPath {
			continue
		}
		if err := d.fs.Remove(orphan); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "storage: warning: failed to remove orphaned temp file %s: %v\n", orphan, err)
		}
	}
}
