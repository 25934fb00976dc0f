package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dodoapps/dodopass/internal/config"
)

var (
	cfgFile string
	verbose bool

	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"

	rootCmd = &cobra.Command{
		Use:   "dodopass",
		Short: "A single-user, offline-first password vault",
		Long: `DodoPass is a local-first password and secret manager. A single master
password unlocks one AES-256-GCM encrypted vault file on disk; nothing
leaves the machine unless you explicitly sync it.

Features:
  - PBKDF2-derived key hierarchy: a distinct vault/search/backup key per unlock
  - Optional system keychain integration so you aren't re-typing the
    master password on every command
  - Typed credential categories (login, secure note, credit card, identity)
  - Tamper-evident, HMAC-signed audit log
  - BIP39 mnemonic recovery for the master key
  - Version-vector based sync reconciliation between replicas

Examples:
  # Create a new vault
  dodopass create

  # Add a credential
  dodopass add github

  # Retrieve a credential
  dodopass get github`,
		PersistentPreRunE: initConfig,
	}
)

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dodopass/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddGroup(
		&cobra.Group{ID: "vault", Title: "Vault Management:"},
		&cobra.Group{ID: "credentials", Title: "Credential Operations:"},
		&cobra.Group{ID: "security", Title: "Security & Integration:"},
		&cobra.Group{ID: "utilities", Title: "Utilities:"},
	)
}

// initConfig loads the config file (respecting --config) before any
// subcommand runs, so GetVaultPath and friends see it.
func initConfig(cmd *cobra.Command, args []string) error {
	switch cmd.Name() {
	case "version", "help":
		return nil
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		viper.AddConfigPath(filepath.Join(home, ".dodopass"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
	return nil
}

// GetConfigPath returns the --config path, or ~/.dodopass/config.yaml
// when the flag is unset, for commands (doctor, sync enable) that need to
// display or rewrite it directly.
func GetConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".dodopass", "config.yaml")
	}
	return filepath.Join(home, ".dodopass", "config.yaml")
}

// GetVaultPath returns the configured vault path, expanding ~ and env
// vars, or the default ~/.dodopass/vault.enc.
func GetVaultPath() string {
	path, _ := GetVaultPathWithSource()
	return path
}

// GetVaultPathWithSource returns the vault path along with whether it
// came from "config" or the "default".
func GetVaultPathWithSource() (path string, source string) {
	var vaultPath string
	if viper.IsSet("vault_path") {
		vaultPath = viper.GetString("vault_path")
		if vaultPath != "" {
			source = "config"
		}
	} else {
		cfg, result := config.Load()
		if !result.Valid {
			fmt.Fprintf(os.Stderr, "Configuration validation failed:\n")
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "  - %s: %s\n", e.Field, e.Message)
			}
			fmt.Fprintf(os.Stderr, "\nPlease fix your configuration file and try again.\n")
			os.Exit(1)
		}
		if cfg.VaultPath != "" {
			vaultPath = cfg.VaultPath
			source = "config"
		}
	}

	if vaultPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ".dodopass/vault.enc", "default"
		}
		return filepath.Join(home, ".dodopass", "vault.enc"), "default"
	}

	vaultPath = os.ExpandEnv(vaultPath)
	if strings.HasPrefix(vaultPath, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			vaultPath = filepath.Join(home, vaultPath[1:])
		}
	}
	if !filepath.IsAbs(vaultPath) {
		if home, err := os.UserHomeDir(); err == nil {
			vaultPath = filepath.Join(home, vaultPath)
		}
	}
	return vaultPath, source
}

// LoadedConfig loads and returns the effective config, exiting on a
// validation failure exactly as GetVaultPath does.
func LoadedConfig() *config.Config {
	cfg, result := config.Load()
	if !result.Valid {
		fmt.Fprintf(os.Stderr, "Configuration validation failed:\n")
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  - %s: %s\n", e.Field, e.Message)
		}
		os.Exit(1)
	}
	return cfg
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose || viper.GetBool("verbose")
}
