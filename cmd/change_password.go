package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dodoapps/dodopass/internal/recovery"
	"github.com/dodoapps/dodopass/internal/recoverystore"
	"github.com/dodoapps/dodopass/internal/vaultengine"
)

var useRecovery bool

var changePasswordCmd = &cobra.Command{
	Use:     "change-password",
	GroupID: "vault",
	Short:   "Change the master password for your vault",
	Long: `Change the master password used to encrypt and decrypt your vault.

You must enter your current master password to authorize the change.
If you've forgotten it, use --recover to unlock with your 24-word
recovery phrase instead.

This operation re-encrypts your vault with the new password.`,
	Example: `  dodopass change-password
  dodopass change-password --recover`,
	RunE: runChangePassword,
}

func init() {
	rootCmd.AddCommand(changePasswordCmd)
	changePasswordCmd.Flags().BoolVar(&useRecovery, "recover", false, "use recovery phrase instead of current password")
}

func runChangePassword(cmd *cobra.Command, args []string) error {
	vaultPath := GetVaultPath()
	if !pathExists(vaultPath) {
		return fmt.Errorf("vault not found at %s\nRun 'dodopass create' first", vaultPath)
	}

	fmt.Println("Change master password")
	fmt.Printf("Vault location: %s\n\n", vaultPath)

	cfg := LoadedConfig()
	engine, err := newEngine(vaultPath, cfg.BackupRetention, true)
	if err != nil {
		return err
	}

	var oldPassword string
	if useRecovery {
		if err := unlockWithRecovery(engine, vaultPath); err != nil {
			return err
		}
	} else {
		fmt.Print("Enter current master password: ")
		pw, err := readPassword()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()
		oldPassword = string(pw)

		ctx := cmd.Context()
		if err := engine.Unlock(ctx, oldPassword); err != nil {
			return fmt.Errorf("failed to unlock vault: %w", err)
		}
	}
	defer engine.Lock()

	fmt.Printf("Enter new master password (min %d characters): ", vaultengine.MinPasswordLength)
	newPassword, err := readPassword()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	fmt.Print("Confirm new master password: ")
	confirm, err := readPassword()
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Println()

	if string(newPassword) != string(confirm) {
		return fmt.Errorf("passwords do not match")
	}

	if useRecovery {
		if err := engine.SetPassword(string(newPassword)); err != nil {
			return fmt.Errorf("failed to change password: %w", err)
		}
	} else {
		if err := engine.ChangePassword(oldPassword, string(newPassword)); err != nil {
			return fmt.Errorf("failed to change password: %w", err)
		}
	}

	fmt.Println("Master password changed successfully!")
	fmt.Println("Remember your new password - it cannot be recovered if lost!")
	return nil
}

// unlockWithRecovery walks the user through the BIP39 challenge-word
// prompt, recovers the vault's master key via internal/recovery and
// internal/recoverystore, and unlocks e with it.
func unlockWithRecovery(e *vaultengine.Engine, vaultPath string) error {
	fmt.Println("Vault recovery mode")
	fmt.Println("You will be prompted for 6 words from your 24-word recovery phrase.")
	fmt.Println()

	if !recoverystore.Exists(vaultPath) {
		return fmt.Errorf("recovery not enabled for this vault")
	}
	rec, err := recoverystore.Load(vaultPath)
	if err != nil {
		return fmt.Errorf("failed to load recovery data: %w", err)
	}

	var passphrase []byte
	if rec.Metadata.PassphraseEnabled {
		fmt.Print("Enter recovery passphrase (25th word): ")
		passphrase, err = readPassword()
		if err != nil {
			return fmt.Errorf("failed to read passphrase: %w", err)
		}
		fmt.Println()
	}

	shuffled := recovery.ShuffleChallengePositions(rec.Metadata.ChallengePositions)

	fmt.Println("Enter the following words from your recovery phrase:")
	challengeWords := make([]string, len(rec.Metadata.ChallengePositions))

	for i, pos := range shuffled {
		fmt.Printf("Word %d/%d (position #%d in your phrase):\n", i+1, len(shuffled), pos+1)
		word, err := promptForWordWithValidation(pos)
		if err != nil {
			return fmt.Errorf("invalid word: %w", err)
		}

		originalIndex := -1
		for j, origPos := range rec.Metadata.ChallengePositions {
			if origPos == pos {
				originalIndex = j
				break
			}
		}
		if originalIndex == -1 {
			return fmt.Errorf("internal error: position mapping failed")
		}
		challengeWords[originalIndex] = word
		fmt.Printf("(%d/%d)\n\n", i+1, len(shuffled))
	}

	fmt.Println("Recovering vault access...")
	recoveryKey, err := recovery.PerformRecovery(&recovery.RecoveryConfig{
		ChallengeWords: challengeWords,
		Passphrase:     passphrase,
		Metadata:       rec.Metadata,
	})
	if err != nil {
		switch err {
		case recovery.ErrInvalidWord:
			return fmt.Errorf("invalid word: one or more words are not in the BIP39 wordlist")
		case recovery.ErrDecryptionFailed:
			return fmt.Errorf("recovery failed: incorrect recovery words or passphrase")
		case recovery.ErrRecoveryDisabled:
			return fmt.Errorf("recovery not enabled for this vault")
		default:
			return fmt.Errorf("recovery failed: %w", err)
		}
	}

	masterKey, err := recoverystore.Unwrap(rec, recoveryKey)
	if err != nil {
		return fmt.Errorf("recovery failed: incorrect recovery words or passphrase")
	}

	if err := e.UnlockWithStoredKey(masterKey); err != nil {
		return fmt.Errorf("failed to unlock vault with recovery key: %w", err)
	}

	fmt.Println("Vault unlocked successfully!")
	fmt.Println()
	return nil
}
