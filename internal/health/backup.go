package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// oldBackupThreshold is how old a backup can get before the check warns
// that rotation may not be running.
const oldBackupThreshold = 24 * time.Hour

// BackupChecker checks the storage driver's Backups/ directory for
// rotated vault backups and flags stale ones.
type BackupChecker struct {
	vaultDir string
}

// NewBackupChecker creates a new backup checker. vaultDir is the
// directory containing the vault file; its Backups/ subdirectory is
// where storage.FileDriver rotates backups.
func NewBackupChecker(vaultDir string) HealthChecker {
	return &BackupChecker{vaultDir: vaultDir}
}

// Name returns the check name.
func (b *BackupChecker) Name() string {
	return "backup"
}

// Run executes the backup check.
func (b *BackupChecker) Run(ctx context.Context) CheckResult {
	details := BackupCheckDetails{VaultDir: b.vaultDir, BackupFiles: []BackupFile{}}

	matches, err := filepath.Glob(filepath.Join(b.vaultDir, "*.bak"))
	if err != nil {
		return CheckResult{
			Name:    b.Name(),
			Status:  CheckError,
			Message: fmt.Sprintf("failed to scan for backups: %v", err),
			Details: details,
		}
	}

	backupsDir := filepath.Join(b.vaultDir, "Backups")
	if nested, err := filepath.Glob(filepath.Join(backupsDir, "*.bak")); err == nil {
		matches = append(matches, nested...)
	}
	if legacy, err := filepath.Glob(filepath.Join(b.vaultDir, "*.backup")); err == nil {
		matches = append(matches, legacy...)
	}

	now := time.Now()
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		ageHours := now.Sub(info.ModTime()).Hours()
		status := "recent"
		switch {
		case ageHours > 7*24:
			status = "abandoned"
		case ageHours > 24:
			status = "old"
		}
		if ageHours > oldBackupThreshold.Hours() {
			details.OldBackups++
		}
		details.BackupFiles = append(details.BackupFiles, BackupFile{
			Path:       path,
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
			AgeHours:   ageHours,
			Status:     status,
		})
	}

	if details.OldBackups > 0 {
		return CheckResult{
			Name:           b.Name(),
			Status:         CheckWarning,
			Message:        fmt.Sprintf("%d backup(s) older than 24 hours", details.OldBackups),
			Recommendation: "verify backup rotation is running and unlock the vault to trigger a fresh backup",
			Details:        details,
		}
	}

	return CheckResult{
		Name:    b.Name(),
		Status:  CheckPass,
		Message: "backups are current",
		Details: details,
	}
}
