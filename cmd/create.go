package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dodoapps/dodopass/internal/cryptocore"
	"github.com/dodoapps/dodopass/internal/keychain"
	"github.com/dodoapps/dodopass/internal/recovery"
	"github.com/dodoapps/dodopass/internal/recoverystore"
	"github.com/dodoapps/dodopass/internal/storage"
	"github.com/dodoapps/dodopass/internal/vaultengine"
	"github.com/dodoapps/dodopass/internal/vaultformat"
)

var (
	createUseKeychain bool
	createNoAudit     bool
	createNoRecovery  bool
)

var createCmd = &cobra.Command{
	Use:     "create",
	GroupID: "vault",
	Short:   "Create a new password vault",
	Long: `Create initializes a new encrypted vault for storing credentials.

You will be prompted for a master password. This password encrypts and
decrypts your vault and is never written to disk; losing it means
losing the vault unless you set up a recovery phrase.

By default the vault is stored at ~/.dodopass/vault.enc. To use a
different location, set vault_path in your config file
(~/.dodopass/config.yml or the OS config directory).

Use --use-keychain to store the derived master key in your system's
keychain so you aren't re-typing the master password on every command.`,
	Example: `  dodopass create
  dodopass create --use-keychain`,
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().BoolVar(&createUseKeychain, "use-keychain", false, "store the master key in the system keychain")
	createCmd.Flags().BoolVar(&createNoAudit, "no-audit", false, "skip printing the audit log location; audit logging by later commands is not affected")
	createCmd.Flags().BoolVar(&createNoRecovery, "no-recovery", false, "skip BIP39 recovery phrase generation")
}

func runCreate(cmd *cobra.Command, args []string) error {
	vaultPath := GetVaultPath()

	if pathExists(vaultPath) {
		return fmt.Errorf("vault already exists at %s\n\nTo use a different location, configure vault_path in your config file", vaultPath)
	}

	if err := os.MkdirAll(filepath.Dir(vaultPath), 0700); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}

	fmt.Println("Initializing new password vault")
	fmt.Printf("Vault location: %s\n\n", vaultPath)

	fmt.Printf("Enter master password (min %d characters): ", vaultengine.MinPasswordLength)
	password, err := readPassword()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	fmt.Print("Confirm master password: ")
	confirm, err := readPassword()
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Println()

	if string(password) != string(confirm) {
		return fmt.Errorf("passwords do not match")
	}

	if !cmd.Flags().Changed("use-keychain") {
		createUseKeychain, err = promptYesNo("Store the master key in your system keychain?", true)
		if err != nil {
			return fmt.Errorf("failed to read keychain option: %w", err)
		}
	}

	cfg := LoadedConfig()
	iterations := cfg.Iterations
	if iterations <= 0 {
		iterations = cryptocore.DefaultIterations
	}
	backupRetention := cfg.BackupRetention
	if backupRetention <= 0 {
		backupRetention = storage.DefaultBackupRetention
	}

	driver := storage.NewFileDriver(vaultPath).WithBackupRetention(backupRetention)
	engine := vaultengine.New(driver, clientID(), vaultengine.WithIterations(iterations))

	if err := engine.Create(string(password)); err != nil {
		return fmt.Errorf("failed to create vault: %w", err)
	}

	if createUseKeychain {
		masterKey, err := masterKeyForPassword(vaultPath, string(password), iterations)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not derive key for keychain storage: %v\n", err)
		} else {
			svc := keychain.New(getVaultID(vaultPath))
			if err := svc.StoreMasterKey(masterKey); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %s\n%v\n", getKeychainUnavailableMessage(), err)
				createUseKeychain = false
			}
		}
	}

	var recoveryEnabled bool
	if !createNoRecovery {
		recoveryEnabled, err = setupRecoveryFlow(vaultPath, string(password), iterations)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: recovery setup failed: %v\n", err)
		}
	}

	if !createNoAudit {
		fmt.Printf("Audit logging enabled: %s\n", getAuditLogPath(vaultPath))
	}

	fmt.Println("\nVault initialized successfully!")
	fmt.Printf("Location: %s\n", vaultPath)
	if createUseKeychain {
		fmt.Println("Master key stored in system keychain")
	} else if !recoveryEnabled {
		fmt.Println("Remember your master password - it cannot be recovered if lost!")
	} else {
		fmt.Println("You can recover your vault using the 24-word recovery phrase")
	}

	fmt.Println("\nNext steps:")
	fmt.Println("  Add a credential: dodopass add <title>")
	fmt.Println("  View help:        dodopass --help")

	return nil
}

// masterKeyForPassword independently re-derives the PBKDF2 master key
// for a freshly created vault so it can be escrowed (keychain,
// recovery) without the engine exposing its internal KeySet.
func masterKeyForPassword(vaultPath, password string, iterations int) ([]byte, error) {
	driver := storage.NewFileDriver(vaultPath)
	raw, err := driver.Read()
	if err != nil {
		return nil, err
	}
	container, err := vaultformat.Decode(raw)
	if err != nil {
		return nil, err
	}
	master, err := cryptocore.DeriveMasterKey([]byte(password), container.Salt, iterations)
	if err != nil {
		return nil, err
	}
	defer master.Zero()
	out := make([]byte, len(master.Bytes()))
	copy(out, master.Bytes())
	return out, nil
}

// setupRecoveryFlow generates and displays a 24-word BIP39 recovery
// phrase, optionally protected by a passphrase, and escrows the vault's
// master key under the derived recovery key via recoverystore.
func setupRecoveryFlow(vaultPath, password string, iterations int) (bool, error) {
	setup, err := promptYesNo("Set up a BIP39 recovery phrase?", true)
	if err != nil || !setup {
		return false, err
	}

	var passphrase []byte
	usePassphrase, err := promptYesNo("Advanced: add passphrase protection (25th word)?", false)
	if err != nil {
		return false, err
	}
	if usePassphrase {
		fmt.Println()
		fmt.Println("Passphrase protection:")
		fmt.Println("  - Adds an extra layer on top of the 24-word phrase")
		fmt.Println("  - You need BOTH the words AND the passphrase to recover")
		fmt.Println("  - Losing the passphrase makes recovery impossible")
		fmt.Println()

		fmt.Print("Enter recovery passphrase: ")
		passphrase, err = readPassword()
		if err != nil {
			return false, fmt.Errorf("failed to read passphrase: %w", err)
		}
		fmt.Println()

		fmt.Print("Confirm recovery passphrase: ")
		confirm, err := readPassword()
		if err != nil {
			return false, fmt.Errorf("failed to read confirmation: %w", err)
		}
		fmt.Println()
		if string(passphrase) != string(confirm) {
			return false, fmt.Errorf("passphrases do not match")
		}
	}

	result, err := recovery.SetupRecovery(&recovery.SetupConfig{Passphrase: passphrase})
	if err != nil {
		return false, fmt.Errorf("generate recovery phrase: %w", err)
	}

	masterKey, err := masterKeyForPassword(vaultPath, password, iterations)
	if err != nil {
		return false, fmt.Errorf("derive master key for escrow: %w", err)
	}

	if err := recoverystore.Save(vaultPath, result.Metadata, result.VaultRecoveryKey, masterKey); err != nil {
		return false, fmt.Errorf("save recovery data: %w", err)
	}

	displayMnemonic(result.Mnemonic)

	verify, err := promptYesNo("Verify your backup now?", true)
	if err != nil {
		return true, err
	}
	if verify {
		verifyRecoveryBackup(result.Mnemonic)
	} else {
		fmt.Println("Skipping verification. Make sure you wrote down all 24 words correctly!")
	}

	return true, nil
}

func verifyRecoveryBackup(mnemonic string) {
	positions, err := recovery.SelectVerifyPositions(recovery.VerifyCount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to select verify positions: %v\n", err)
		return
	}

	const maxAttempts = 3
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fmt.Printf("\nVerification (attempt %d/%d):\n", attempt, maxAttempts)
		words := make([]string, len(positions))
		for i, pos := range positions {
			word, err := promptForWord(pos)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to read word: %v\n", err)
				return
			}
			words[i] = word
		}

		err := recovery.VerifyBackup(&recovery.VerifyConfig{
			Mnemonic:        mnemonic,
			VerifyPositions: positions,
			UserWords:       words,
		})
		if err == nil {
			fmt.Println("Backup verified successfully!")
			return
		}
		if attempt < maxAttempts {
			fmt.Println("Verification failed. Please try again.")
		} else {
			fmt.Println("Verification failed after 3 attempts.")
			fmt.Println("Please double check that you wrote down all 24 words correctly.")
		}
	}
}
