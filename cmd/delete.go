package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:     "delete <title or id> [title or id...]",
	GroupID: "credentials",
	Aliases: []string{"rm", "remove"},
	Short:   "Delete items from the vault",
	Long: `Delete removes one or more items from your vault, looked up by exact id
or case-insensitive title match.

Use --force to skip confirmation prompts.`,
	Example: `  dodopass delete github
  dodopass delete github gitlab bitbucket
  dodopass rm old-login --force`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation prompts")
}

func runDelete(cmd *cobra.Command, args []string) error {
	vaultPath := GetVaultPath()
	if !pathExists(vaultPath) {
		return fmt.Errorf("vault not found at %s\nRun 'dodopass create' first", vaultPath)
	}

	cfg := LoadedConfig()
	engine, err := newEngine(vaultPath, cfg.BackupRetention, true)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := unlockEngine(ctx, engine, vaultPath); err != nil {
		return err
	}
	defer engine.Lock()

	deleted, skipped := 0, 0

	for _, query := range args {
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}

		record, err := findItem(engine, query)
		if err != nil {
			fmt.Printf("Error: %s - %v\n", query, err)
			skipped++
			continue
		}

		if !deleteForce {
			ok, err := promptYesNo(fmt.Sprintf("Delete %q (%s)?", record.Title, record.Category), false)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Printf("Skipped: %s\n", record.Title)
				skipped++
				continue
			}
		}

		if err := engine.DeleteItem(record.ID); err != nil {
			fmt.Printf("Error deleting %s: %v\n", record.Title, err)
			skipped++
			continue
		}

		fmt.Printf("Deleted: %s\n", record.Title)
		deleted++
	}

	fmt.Println()
	if deleted > 0 {
		fmt.Printf("Successfully deleted %d item(s)\n", deleted)
	}
	if skipped > 0 {
		fmt.Printf("Skipped %d item(s)\n", skipped)
	}
	return nil
}
