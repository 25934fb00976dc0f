package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dodoapps/dodopass/internal/item"
)

var (
	updateUsername string
	updatePassword string
	updateNotes    string
	updateURLs     []string
	updateTOTP     string
	updateBody     string

	updateCardholder string
	updateCardNumber string
	updateCardCVV    string
	updateCardExpiry string
	updateCardBrand  string

	updateFullName string
	updateEmail    string
	updatePhone    string
	updateAddress  string

	updateFavorite bool
	updateTags     []string
	updateGenerate bool
	updateGenLen   int
)

var updateCmd = &cobra.Command{
	Use:     "update <title or id>",
	GroupID: "credentials",
	Short:   "Update an existing item",
	Long: `Update modifies fields on an existing item, leaving unspecified flags
unchanged. Changing a login's password appends the old password to its
history.`,
	Example: `  dodopass update github --password newpass123
  dodopass update github --generate
  dodopass update github --tags work,personal`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().StringVarP(&updateUsername, "username", "u", "", "new username")
	updateCmd.Flags().StringVarP(&updatePassword, "password", "p", "", "new password")
	updateCmd.Flags().BoolVarP(&updateGenerate, "generate", "g", false, "auto-generate a new secure password")
	updateCmd.Flags().IntVar(&updateGenLen, "gen-length", 20, "length of generated password")
	updateCmd.Flags().StringSliceVar(&updateURLs, "url", nil, "replace login URLs (repeatable)")
	updateCmd.Flags().StringVar(&updateTOTP, "totp-secret", "", "new base32 TOTP secret")
	updateCmd.Flags().StringVar(&updateNotes, "notes", "", "new login notes")

	updateCmd.Flags().StringVar(&updateBody, "body", "", "new secure_note body")

	updateCmd.Flags().StringVar(&updateCardholder, "cardholder", "", "new credit_card cardholder name")
	updateCmd.Flags().StringVar(&updateCardNumber, "number", "", "new credit_card number")
	updateCmd.Flags().StringVar(&updateCardCVV, "cvv", "", "new credit_card CVV")
	updateCmd.Flags().StringVar(&updateCardExpiry, "expiry", "", "new credit_card expiry (MM/YY)")
	updateCmd.Flags().StringVar(&updateCardBrand, "brand", "", "new credit_card brand")

	updateCmd.Flags().StringVar(&updateFullName, "full-name", "", "new identity full name")
	updateCmd.Flags().StringVar(&updateEmail, "email", "", "new identity email")
	updateCmd.Flags().StringVar(&updatePhone, "phone", "", "new identity phone")
	updateCmd.Flags().StringVar(&updateAddress, "address", "", "new identity address")

	updateCmd.Flags().BoolVar(&updateFavorite, "favorite", false, "mark the item as a favorite")
	updateCmd.Flags().StringSliceVar(&updateTags, "tags", nil, "replace tags (comma-separated)")

	updateCmd.MarkFlagsMutuallyExclusive("password", "generate")
}

func runUpdate(cmd *cobra.Command, args []string) error {
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

	record, err := findItem(engine, query)
	if err != nil {
		return err
	}

	if updateGenerate {
		generated, err := generateSecurePassword(updateGenLen)
		if err != nil {
			return fmt.Errorf("failed to generate password: %w", err)
		}
		updatePassword = generated
	}

	changed, err := applyUpdate(cmd, record)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Println("No changes specified.")
		return nil
	}

	if cmd.Flags().Changed("favorite") {
		record.Favorite = updateFavorite
	}
	if cmd.Flags().Changed("tags") {
		record.Tags = item.NormalizeTags(updateTags)
	}

	if err := engine.UpdateItem(record); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	fmt.Println("Item updated successfully!")
	if updateGenerate {
		fmt.Println("Generated a new password.")
	}
	return nil
}

func applyUpdate(cmd *cobra.Command, r *item.Record) (bool, error) {
	changed := false

	switch r.Category {
	case item.CategoryLogin:
		if r.Login == nil {
			return false, fmt.Errorf("item has no login fields")
		}
		if updateUsername != "" {
			r.Login.Username = updateUsername
			changed = true
		}
		if updatePassword != "" {
			r.Login.RotatePassword(updatePassword)
			changed = true
		}
		if cmd.Flags().Changed("url") {
			r.Login.URLs = updateURLs
			changed = true
		}
		if cmd.Flags().Changed("totp-secret") {
			r.Login.TOTPSecret = updateTOTP
			changed = true
		}
		if cmd.Flags().Changed("notes") {
			r.Login.Notes = updateNotes
			changed = true
		}
	case item.CategorySecureNote:
		if r.SecureNote == nil {
			return false, fmt.Errorf("item has no secure_note fields")
		}
		if cmd.Flags().Changed("body") {
			r.SecureNote.Body = updateBody
			changed = true
		}
	case item.CategoryCreditCard:
		if r.CreditCard == nil {
			return false, fmt.Errorf("item has no credit_card fields")
		}
		if updateCardholder != "" {
			r.CreditCard.Cardholder = updateCardholder
			changed = true
		}
		if updateCardNumber != "" {
			r.CreditCard.Number = updateCardNumber
			changed = true
		}
		if updateCardCVV != "" {
			r.CreditCard.CVV = updateCardCVV
			changed = true
		}
		if updateCardExpiry != "" {
			r.CreditCard.Expiry = updateCardExpiry
			changed = true
		}
		if updateCardBrand != "" {
			r.CreditCard.Brand = updateCardBrand
			changed = true
		}
	case item.CategoryIdentity:
		if r.Identity == nil {
			return false, fmt.Errorf("item has no identity fields")
		}
		if updateFullName != "" {
			r.Identity.FullName = updateFullName
			changed = true
		}
		if updateEmail != "" {
			r.Identity.Email = updateEmail
			changed = true
		}
		if updatePhone != "" {
			r.Identity.Phone = updatePhone
			changed = true
		}
		if updateAddress != "" {
			r.Identity.Address = updateAddress
			changed = true
		}
	}

	if cmd.Flags().Changed("favorite") || cmd.Flags().Changed("tags") {
		changed = true
	}

	return changed, nil
}
