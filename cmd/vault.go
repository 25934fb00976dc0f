package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dodoapps/dodopass/internal/keychain"
	"github.com/dodoapps/dodopass/internal/storage"
	"github.com/dodoapps/dodopass/internal/vaultengine"
)

var vaultCmd = &cobra.Command{
	Use:     "vault",
	GroupID: "vault",
	Short:   "Manage dodopass vault files and their on-disk backups",
	Long: `Manage dodopass vault files and their on-disk backups.

Available commands:
  backup  - Create, list, restore, and preview timestamped backups
  remove  - Permanently delete a vault file and its keychain entry`,
}

var vaultBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage on-demand vault backups",
	Long: `Manage on-demand vault backups.

dodopass rotates a backup into <vault-dir>/Backups automatically every
time it saves the vault. This command lets you trigger an additional
backup on demand, inspect what's there, preview a backup's contents
without touching the live vault, and restore from one.`,
}

var vaultBackupListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"info"},
	Short:   "List available backups",
	RunE:    runVaultBackupList,
}

var vaultBackupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an on-demand backup of the vault",
	RunE:  runVaultBackupCreate,
}

var (
	restoreFile  string
	restoreForce bool
	restoreDry   bool
)

var vaultBackupRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the vault from a backup",
	Long: `Restore the vault from a backup file.

By default the newest backup is used. Pass --file to restore from a
specific backup. The current vault is itself rotated into Backups/
before being overwritten, so a bad restore can be undone.`,
	RunE: runVaultBackupRestore,
}

var previewFile string

var vaultBackupPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview the items inside a backup file without restoring it",
	Long: `Decrypt a backup file in place and list the items it contains,
without modifying the live vault. You must provide the master password
that was active when the backup was created.`,
	RunE: runVaultBackupPreview,
}

var (
	removeYes   bool
	removeForce bool
)

var vaultRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Permanently delete the vault file and its keychain entry",
	Long: `Permanently delete the vault file, its audit log, and any master key
stored in the system keychain for it.

IMPORTANT: This operation is irreversible. Rotated backups under
Backups/ are left untouched.`,
	RunE: runVaultRemove,
}

func init() {
	rootCmd.AddCommand(vaultCmd)
	vaultCmd.AddCommand(vaultBackupCmd)
	vaultCmd.AddCommand(vaultRemoveCmd)

	vaultBackupCmd.AddCommand(vaultBackupListCmd)
	vaultBackupCmd.AddCommand(vaultBackupCreateCmd)
	vaultBackupCmd.AddCommand(vaultBackupRestoreCmd)
	vaultBackupCmd.AddCommand(vaultBackupPreviewCmd)

	vaultBackupRestoreCmd.Flags().StringVar(&restoreFile, "file", "", "restore from a specific backup file instead of the newest")
	vaultBackupRestoreCmd.Flags().BoolVarP(&restoreForce, "force", "f", false, "skip the confirmation prompt")
	vaultBackupRestoreCmd.Flags().BoolVar(&restoreDry, "dry-run", false, "show which backup would be restored without making changes")

	vaultBackupPreviewCmd.Flags().StringVar(&previewFile, "file", "", "backup file to preview (required)")
	_ = vaultBackupPreviewCmd.MarkFlagRequired("file")

	vaultRemoveCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "skip the confirmation prompt")
	vaultRemoveCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "remove even if the vault file is missing or unreadable")
}

func runVaultBackupCreate(cmd *cobra.Command, args []string) error {
	vaultPath := GetVaultPath()
	if !pathExists(vaultPath) {
		return fmt.Errorf("vault not found at %s\nCreate one with: dodopass create", vaultPath)
	}

	driver := storage.NewFileDriver(vaultPath)
	path, err := driver.Backup()
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Backup created: %s\n", path)
		return nil
	}

	fmt.Println("Backup created successfully")
	fmt.Printf("Backup:   %s\n", path)
	fmt.Printf("Size:     %s\n", formatSize(info.Size()))
	fmt.Printf("Created:  %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
	return nil
}

func runVaultBackupList(cmd *cobra.Command, args []string) error {
	vaultPath := GetVaultPath()
	driver := storage.NewFileDriver(vaultPath)

	backups, err := driver.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		fmt.Println("No backups found.")
		fmt.Println("\nCreate one with: dodopass vault backup create")
		return nil
	}

	var builder strings.Builder
	table := tablewriter.NewWriter(&builder)
	table.Header([]string{"#", "Age", "Size", "Modified", "Path"})
	for i, b := range backups {
		table.Append([]string{
			strconv.Itoa(i + 1),
			formatAge(time.Since(b.ModTime)),
			formatSize(b.Size),
			b.ModTime.Format("2006-01-02 15:04:05"),
			b.Path,
		})
	}
	_ = table.Render()
	fmt.Print(builder.String())

	totalSize := int64(0)
	for _, b := range backups {
		totalSize += b.Size
	}
	fmt.Printf("\nTotal backup size: %s\n", formatSize(totalSize))
	return nil
}

func runVaultBackupRestore(cmd *cobra.Command, args []string) error {
	vaultPath := GetVaultPath()
	driver := storage.NewFileDriver(vaultPath)

	var selected storage.BackupInfo
	if restoreFile != "" {
		info, err := os.Stat(restoreFile)
		if err != nil {
			return fmt.Errorf("backup file not found: %s", restoreFile)
		}
		selected = storage.BackupInfo{Path: restoreFile, ModTime: info.ModTime(), Size: info.Size()}
	} else {
		backups, err := driver.ListBackups()
		if err != nil {
			return fmt.Errorf("failed to list backups: %w", err)
		}
		if len(backups) == 0 {
			return fmt.Errorf("no backups available\nCreate one with: dodopass vault backup create")
		}
		selected = backups[0]
	}

	if restoreDry {
		fmt.Println("Dry run - no changes will be made\n")
		fmt.Printf("Would restore from: %s\n", selected.Path)
		fmt.Printf("Modified: %s (%s ago)\n", selected.ModTime.Format("2006-01-02 15:04:05"), formatAge(time.Since(selected.ModTime)))
		return nil
	}

	if !restoreForce {
		fmt.Println("Warning: this will overwrite your current vault with the backup.")
		fmt.Printf("Backup: %s\n", selected.Path)
		fmt.Printf("Modified: %s (%s ago)\n\n", selected.ModTime.Format("2006-01-02 15:04:05"), formatAge(time.Since(selected.ModTime)))
		ok, err := promptYesNo("Continue?", false)
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !ok {
			fmt.Println("Restore cancelled.")
			return nil
		}
	}

	data, err := driver.RestoreBackup(selected.Path)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	if err := driver.Write(data); err != nil {
		return fmt.Errorf("failed to restore vault: %w", err)
	}

	fmt.Println("Vault restored successfully from backup.")
	fmt.Printf("Restored from: %s\n", selected.Path)
	fmt.Println("\nUse the backup's master password to unlock your vault.")
	return nil
}

func runVaultBackupPreview(cmd *cobra.Command, args []string) error {
	info, err := os.Stat(previewFile)
	if err != nil {
		return fmt.Errorf("backup file not found: %s", previewFile)
	}

	fmt.Print("Enter the backup's master password: ")
	password, err := readPassword()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	cfg := LoadedConfig()
	driver := storage.NewFileDriver(previewFile).WithBackupRetention(cfg.BackupRetention)
	engine := vaultengine.New(driver, clientID())

	if err := engine.Unlock(cmd.Context(), string(password)); err != nil {
		return fmt.Errorf("failed to decrypt backup (wrong password?): %w", err)
	}
	defer engine.Lock()

	records, err := engine.ListItems()
	if err != nil {
		return fmt.Errorf("failed to read backup items: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("Backup is valid but contains no items.")
		return nil
	}

	sort.Slice(records, func(i, j int) bool {
		return strings.ToLower(records[i].Title) < strings.ToLower(records[j].Title)
	})

	fmt.Printf("Found %d item(s) in backup:\n\n", len(records))
	for i, r := range records {
		fmt.Printf("  %d. %s (%s) - %s\n", i+1, r.Title, r.Category, summaryFor(r))
	}
	fmt.Printf("\nBackup file: %s\n", previewFile)
	fmt.Printf("Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
	return nil
}

func runVaultRemove(cmd *cobra.Command, args []string) error {
	vaultPath := GetVaultPath()
	exists := pathExists(vaultPath)

	if !exists && !removeForce {
		return fmt.Errorf("vault not found at %s", vaultPath)
	}

	if !removeYes {
		fmt.Printf("Warning: this will permanently delete the vault and all stored items.\n")
		fmt.Printf("Are you sure you want to remove %s?\n", vaultPath)
		ok, err := promptYesNo("Continue?", false)
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !ok {
			fmt.Println("Vault removal cancelled.")
			return nil
		}
	}

	var fileDeleted bool
	if exists {
		if err := os.Remove(vaultPath); err != nil {
			return fmt.Errorf("failed to delete vault file: %w", err)
		}
		fileDeleted = true
	}

	ks := keychain.New(getVaultID(vaultPath))
	keychainDeleted := ks.HasMasterKey()
	if keychainDeleted {
		if err := ks.DeleteMasterKey(); err != nil {
			return fmt.Errorf("failed to delete master key from keychain: %w", err)
		}
	}

	auditLogPath := getAuditLogPath(vaultPath)
	auditDeleted := pathExists(auditLogPath)
	if auditDeleted {
		_ = os.Remove(auditLogPath)
	}

	if fileDeleted {
		fmt.Printf("Vault file deleted: %s\n", vaultPath)
	} else {
		fmt.Printf("Vault file not found: %s\n", vaultPath)
	}
	if keychainDeleted {
		fmt.Println("Keychain entry deleted")
	}
	if auditDeleted {
		fmt.Println("Audit log deleted")
	}
	if !fileDeleted && !keychainDeleted && !auditDeleted {
		fmt.Println("Nothing to remove.")
	} else {
		fmt.Println("\nVault removal complete.")
	}
	return nil
}
