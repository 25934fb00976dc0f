package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dodoapps/dodopass/internal/cryptocore"
	"github.com/dodoapps/dodopass/internal/keychain"
)

var forceKeychainEnable bool

var keychainCmd = &cobra.Command{
	Use:     "keychain",
	GroupID: "security",
	Short:   "Manage keychain integration for dodopass vaults",
	Long: `Manage system keychain integration for dodopass vaults.

The keychain integration stores your vault master key securely in the
operating system's native credential storage (Windows Credential Manager,
macOS Keychain, or Linux Secret Service). When enabled, dodopass unlocks
the vault without prompting for a password.`,
}

var keychainEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Store the vault master key in the system keychain",
	Long: `Unlock the vault with your master password and store the resulting
master key in the system keychain. Future commands will not prompt for
a password when the keychain is available.`,
	Example: `  dodopass keychain enable
  dodopass keychain enable --force`,
	RunE: runKeychainEnable,
}

var keychainStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display keychain integration status",
	Long: `Display keychain integration status for the current vault, including
keychain availability and whether a master key is currently stored.

This is a read-only operation that does not unlock the vault.`,
	RunE: runKeychainStatus,
}

var keychainDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Remove the vault master key from the system keychain",
	Long: `Delete the master key stored in the system keychain for this vault.
Future commands will prompt for a password again.`,
	RunE: runKeychainDisable,
}

func init() {
	rootCmd.AddCommand(keychainCmd)
	keychainCmd.AddCommand(keychainEnableCmd)
	keychainCmd.AddCommand(keychainStatusCmd)
	keychainCmd.AddCommand(keychainDisableCmd)

	keychainEnableCmd.Flags().BoolVar(&forceKeychainEnable, "force", false, "overwrite an existing keychain entry")
}

func runKeychainEnable(cmd *cobra.Command, args []string) error {
	vaultPath := GetVaultPath()
	if !pathExists(vaultPath) {
		return fmt.Errorf("vault does not exist at %s\nCreate one with: dodopass create", vaultPath)
	}

	ks := keychain.New(getVaultID(vaultPath))
	if !ks.IsAvailable() {
		return fmt.Errorf("%s", getKeychainUnavailableMessage())
	}

	if ks.HasMasterKey() && !forceKeychainEnable {
		fmt.Println("Keychain already enabled for this vault.")
		fmt.Println("Use --force to overwrite the existing entry.")
		return nil
	}

	fmt.Print("Master password: ")
	password, err := readPassword()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	cfg := LoadedConfig()
	engine, err := newEngine(vaultPath, cfg.BackupRetention, false)
	if err != nil {
		return err
	}
	if err := engine.Unlock(cmd.Context(), string(password)); err != nil {
		return fmt.Errorf("failed to unlock vault: %w", err)
	}
	engine.Lock()

	iterations := cfg.Iterations
	if iterations <= 0 {
		iterations = cryptocore.DefaultIterations
	}
	masterKey, err := masterKeyForPassword(vaultPath, string(password), iterations)
	if err != nil {
		return fmt.Errorf("failed to derive master key: %w", err)
	}

	if err := ks.StoreMasterKey(masterKey); err != nil {
		return fmt.Errorf("failed to store master key in keychain: %w", err)
	}

	fmt.Printf("Keychain integration enabled for vault at %s\n\n", vaultPath)
	fmt.Println("Future commands will not prompt for a password when the keychain is available.")
	return nil
}

func runKeychainStatus(cmd *cobra.Command, args []string) error {
	vaultPath := GetVaultPath()

	fmt.Printf("Keychain status for %s:\n\n", vaultPath)

	ks := keychain.New(getVaultID(vaultPath))
	if !ks.IsAvailable() {
		fmt.Println("System keychain:   not available on this platform")
		fmt.Println("Master key stored: n/a")
		return nil
	}

	fmt.Println("System keychain:   available")
	if ks.HasMasterKey() {
		fmt.Println("Master key stored: yes")
		fmt.Println()
		fmt.Println("Your vault master key is stored in the system keychain.")
		fmt.Println("Future commands will not prompt for a password.")
	} else {
		fmt.Println("Master key stored: no")
		fmt.Println()
		fmt.Println("Enable keychain integration with: dodopass keychain enable")
	}
	return nil
}

func runKeychainDisable(cmd *cobra.Command, args []string) error {
	vaultPath := GetVaultPath()
	ks := keychain.New(getVaultID(vaultPath))

	if !ks.HasMasterKey() {
		fmt.Println("Keychain is not enabled for this vault.")
		return nil
	}

	if err := ks.DeleteMasterKey(); err != nil {
		return fmt.Errorf("failed to remove master key from keychain: %w", err)
	}

	fmt.Println("Keychain integration disabled for this vault.")
	fmt.Println("Future commands will prompt for a password.")
	return nil
}
