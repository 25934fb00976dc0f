package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchFormat string

var searchCmd = &cobra.Command{
	Use:     "search <query>",
	GroupID: "credentials",
	Short:   "Search items by title, username, urls, notes, or tags",
	Long: `Search tokenizes the query and matches it against the vault's search
index, built over title, username, urls, notes, and tags at unlock time.

Results are ordered favorite-first, then most-recently-modified first.`,
	Example: `  dodopass search github
  dodopass search github --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchFormat, "format", "f", "table", "output format: table, json, simple")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(args[0])

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

	records := engine.Search(query)

	switch strings.ToLower(searchFormat) {
	case "json":
		return outputJSON(records)
	case "simple":
		return outputSimple(records)
	case "table":
		return outputTable(records)
	default:
		return fmt.Errorf("invalid format: %s (valid: table, json, simple)", searchFormat)
	}
}
