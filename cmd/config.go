package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dodoapps/dodopass/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage dodopass configuration",
	Long: `Manage dodopass configuration settings.

Configuration file location:
  $DODOPASS_CONFIG, or the OS config directory (e.g. ~/.config/dodopass/config.yml)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create configuration file with examples",
	Long: `Create a new configuration file at the default location with commented
examples.

If a configuration file already exists, this command will fail. Use
'config reset' to overwrite.`,
	Run: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Check the configuration file for errors and display validation results.

Exit codes:
  0 - Configuration is valid
  1 - Configuration has errors
  2 - File system error (cannot read config file)`,
	Run: runConfigValidate,
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset configuration to defaults",
	Long: `Reset the configuration file to default values.

A backup of the current configuration is created at <config-path>.backup.
If a backup already exists, it is overwritten.`,
	Run: runConfigReset,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configResetCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath, err := config.GetConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Cannot determine config path: %v\n", err)
		os.Exit(2)
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(os.Stderr, "Error: Config file already exists at %s\n", configPath)
		fmt.Fprintf(os.Stderr, "Use 'dodopass config reset' to overwrite\n")
		os.Exit(2)
	}

	template := config.GetDefaultConfigTemplate()
	if err := os.WriteFile(configPath, []byte(template), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to create config file: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Config file created at %s\n", configPath)
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	configPath, err := config.GetConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Cannot determine config path: %v\n", err)
		os.Exit(2)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Println("No config file found, using defaults")
		fmt.Printf("Run 'dodopass config init' to create a config file at %s\n", configPath)
		os.Exit(0)
	}

	cfg, result := config.LoadFromPath(configPath)

	if result.Valid {
		fmt.Println("Config valid")
		fmt.Printf("\nVault path:       %s\n", cfg.VaultPath)
		fmt.Printf("Idle timeout:     %ds\n", cfg.IdleTimeoutSeconds)
		fmt.Printf("Clipboard clear:  %ds\n", cfg.ClipboardClearSeconds)
		fmt.Printf("Backup retention: %d\n", cfg.BackupRetention)

		if len(result.Warnings) > 0 {
			fmt.Println("\nWarnings:")
			for _, w := range result.Warnings {
				if w.Field != "" {
					fmt.Printf("  - %s: %s\n", w.Field, w.Message)
				} else {
					fmt.Printf("  - %s\n", w.Message)
				}
			}
		}
		os.Exit(0)
	}

	fmt.Println("Config has errors:")
	for i, e := range result.Errors {
		fmt.Printf("  %d. %s: %s\n", i+1, e.Field, e.Message)
	}
	fmt.Println("\nUsing default settings. Fix errors and run 'dodopass config validate' again.")
	os.Exit(1)
}

func runConfigReset(cmd *cobra.Command, args []string) {
	configPath, err := config.GetConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Cannot determine config path: %v\n", err)
		os.Exit(2)
	}

	if _, err := os.Stat(configPath); err == nil {
		backupPath := configPath + ".backup"
		current, err := os.ReadFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to read current config: %v\n", err)
			os.Exit(2)
		}
		if err := os.WriteFile(backupPath, current, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to create backup: %v\n", err)
			os.Exit(2)
		}
		fmt.Printf("Config file backed up to %s\n", backupPath)
	}

	template := config.GetDefaultConfigTemplate()
	if err := os.WriteFile(configPath, []byte(template), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to write config file: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Config file reset to defaults at %s\n", configPath)
}
