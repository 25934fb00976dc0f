package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// BackupInfo describes a single rotated backup file.
type BackupInfo struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// backupsDir returns the Backups/ directory sibling to the vault file.
func (d *FileDriver) backupsDir() string {
	return filepath.Join(filepath.Dir(d.vaultPath), "Backups")
}

// backupFileName timestamps a rotated backup by the moment it was
// rotated out, in UTC, so backups from different client clocks still
// sort consistently.
func (d *FileDriver) backupFileName() string {
	ts := time.Now().UTC().Format("20060102-150405")
	return fmt.Sprintf("%s.%s.bak", filepath.Base(d.vaultPath), ts)
}

// rotateBackup copies the current live vault file into Backups/ before
// it is overwritten, then trims the directory down to backupRetention
// entries (oldest first).
func (d *FileDriver) rotateBackup() error {
	dir := d.backupsDir()
	if err := d.fs.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("storage: create backups directory: %w", err)
	}

	dest := filepath.Join(dir, d.backupFileName())
	if err := d.copyFile(d.vaultPath, dest); err != nil {
		return fmt.Errorf("storage: copy backup: %w", err)
	}

	return d.pruneBackups()
}

// Backup creates an on-demand backup of the current vault file,
// independent of the rotation that Write performs automatically, and
// returns its path.
func (d *FileDriver) Backup() (string, error) {
	if !d.Exists() {
		return "", ErrVaultNotFound
	}
	dir := d.backupsDir()
	if err := d.fs.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("storage: create backups directory: %w", err)
	}
	dest := filepath.Join(dir, d.backupFileName())
	if err := d.copyFile(d.vaultPath, dest); err != nil {
		return "", fmt.Errorf("storage: copy backup: %w", err)
	}
	return dest, nil
}

// ListBackups returns every backup in Backups/, newest first by the
// timestamp embedded in the file name, with file mtime as tiebreaker.
func (d *FileDriver) ListBackups() ([]BackupInfo, error) {
	dir := d.backupsDir()
	matches, err := d.fs.Glob(filepath.Join(dir, filepath.Base(d.vaultPath)+".*.bak"))
	if err != nil {
		return nil, fmt.Errorf("storage: list backups: %w", err)
	}

	backups := make([]BackupInfo, 0, len(matches))
	for _, m := range matches {
		info, err := d.fs.Stat(m)
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{Path: m, ModTime: info.ModTime(), Size: info.Size()})
	}
	// Names share one prefix and embed the rotation timestamp, so name
	// order is timestamp order.
	sort.Slice(backups, func(i, j int) bool {
		if backups[i].Path != backups[j].Path {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].ModTime.After(backups[j].ModTime)
	})
	return backups, nil
}

// pruneBackups deletes the oldest backups beyond backupRetention.
func (d *FileDriver) pruneBackups() error {
	if d.backupRetention <= 0 {
		return nil
	}
	backups, err := d.ListBackups()
	if err != nil {
		return err
	}
	for _, b := range backups[min(len(backups), d.backupRetention):] {
		if err := d.fs.Remove(b.Path); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "storage: warning: failed to prune backup %s: %v\n", b.Path, err)
		}
	}
	return nil
}

// RestoreBackup reads a backup's raw bytes without touching the live
// vault file. The caller (vault engine) is responsible for validating
// and then writing them back via Write.
func (d *FileDriver) RestoreBackup(path string) ([]byte, error) {
	data, err := d.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read backup: %w", err)
	}
	return data, nil
}

// DeleteBackup removes a single backup file.
func (d *FileDriver) DeleteBackup(path string) error {
	if err := d.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete backup: %w", err)
	}
	return nil
}

func (d *FileDriver) copyFile(src, dst string) error {
	srcFile, err := d.fs.OpenFile(src, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("storage: open source: %w", err)
	}
	defer func() { _ = srcFile.Close() }()

	// #nosec G304 -- destination path is derived internally from the configured vault path
	dstFile, err := d.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, VaultPermissions)
	if err != nil {
		return fmt.Errorf("storage: create destination: %w", err)
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("storage: copy: %w", err)
	}
	return dstFile.Sync()
}
