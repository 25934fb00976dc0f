package cmd

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dodoapps/dodopass/internal/item"
)

var (
	addCategory   string
	addUsername   string
	addPassword   string
	addURLs       []string
	addNotes      string
	addTOTPSecret string
	addGenerate   bool
	addGenLength  int

	addBody string

	addCardholder string
	addCardNumber string
	addCardCVV    string
	addCardExpiry string
	addCardBrand  string

	addFullName string
	addEmail    string
	addPhone    string
	addAddress  string

	addFavorite bool
	addTags     []string
)

var addCmd = &cobra.Command{
	Use:     "add <title>",
	GroupID: "credentials",
	Short:   "Add a new item to the vault",
	Long: `Add stores a new credential or other record in your vault.

The category determines which fields apply (default: login):
  login        username, password, urls, totp-secret, notes
  secure_note  body
  credit_card  cardholder, number, cvv, expiry, brand
  identity     full-name, email, phone, address

Omitted login fields are prompted for interactively.`,
	Example: `  dodopass add github --username me@example.com --generate
  dodopass add "bank pin" --category secure_note --body "1234"
  dodopass add visa --category credit_card --number 4111111111111111 --expiry 12/29`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addCategory, "category", "c", "login", "item category: login, secure_note, credit_card, identity")

	addCmd.Flags().StringVarP(&addUsername, "username", "u", "", "login username")
	addCmd.Flags().StringVarP(&addPassword, "password", "p", "", "login password (prefer the interactive prompt)")
	addCmd.Flags().StringSliceVar(&addURLs, "url", nil, "login URL (repeatable)")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "login notes")
	addCmd.Flags().StringVar(&addTOTPSecret, "totp-secret", "", "base32 TOTP secret")
	addCmd.Flags().BoolVarP(&addGenerate, "generate", "g", false, "auto-generate a secure password")
	addCmd.Flags().IntVar(&addGenLength, "gen-length", 20, "length of generated password")

	addCmd.Flags().StringVar(&addBody, "body", "", "secure_note body")

	addCmd.Flags().StringVar(&addCardholder, "cardholder", "", "credit_card cardholder name")
	addCmd.Flags().StringVar(&addCardNumber, "number", "", "credit_card number")
	addCmd.Flags().StringVar(&addCardCVV, "cvv", "", "credit_card CVV")
	addCmd.Flags().StringVar(&addCardExpiry, "expiry", "", "credit_card expiry (MM/YY)")
	addCmd.Flags().StringVar(&addCardBrand, "brand", "", "credit_card brand")

	addCmd.Flags().StringVar(&addFullName, "full-name", "", "identity full name")
	addCmd.Flags().StringVar(&addEmail, "email", "", "identity email")
	addCmd.Flags().StringVar(&addPhone, "phone", "", "identity phone")
	addCmd.Flags().StringVar(&addAddress, "address", "", "identity address")

	addCmd.Flags().BoolVar(&addFavorite, "favorite", false, "mark the item as a favorite")
	addCmd.Flags().StringSliceVar(&addTags, "tags", nil, "comma-separated tags")

	addCmd.MarkFlagsMutuallyExclusive("password", "generate")
}

func runAdd(cmd *cobra.Command, args []string) error {
	title := strings.TrimSpace(args[0])
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}

	category, err := item.ParseCategory(addCategory)
	if err != nil {
		return fmt.Errorf("%w (expected login, secure_note, credit_card, or identity)", err)
	}

	vaultPath := GetVaultPath()
	if !pathExists(vaultPath) {
		return fmt.Errorf("vault not found at %s\nRun 'dodopass create' first", vaultPath)
	}

	cfg := LoadedConfig()
	engine, err := newEngine(vaultPath, cfg.BackupRetention, true)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := unlockEngine(ctx, engine, vaultPath); err != nil {
		return err
	}
	defer engine.Lock()

	record, err := buildRecordForAdd(category, title)
	if err != nil {
		return err
	}
	record.Favorite = addFavorite
	record.Tags = item.NormalizeTags(addTags)

	if err := engine.AddItem(record); err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}

	fmt.Printf("Item added successfully!\n")
	fmt.Printf("Title:    %s\n", title)
	fmt.Printf("Category: %s\n", category)
	if len(record.Tags) > 0 {
		fmt.Printf("Tags:     %s\n", strings.Join(record.Tags, ", "))
	}
	return nil
}

func buildRecordForAdd(category item.Category, title string) (*item.Record, error) {
	switch category {
	case item.CategoryLogin:
		return buildLoginForAdd(title)
	case item.CategorySecureNote:
		body := addBody
		if body == "" {
			var err error
			body, err = promptLine("Body: ")
			if err != nil {
				return nil, err
			}
		}
		return item.NewSecureNote(title, item.SecureNoteFields{Body: body}), nil
	case item.CategoryCreditCard:
		if addCardNumber == "" {
			return nil, fmt.Errorf("credit_card requires --number")
		}
		return item.NewCreditCard(title, item.CreditCardFields{
			Cardholder: addCardholder,
			Number:     addCardNumber,
			CVV:        addCardCVV,
			Expiry:     addCardExpiry,
			Brand:      addCardBrand,
		}), nil
	case item.CategoryIdentity:
		return item.NewIdentity(title, item.IdentityFields{
			FullName: addFullName,
			Email:    addEmail,
			Phone:    addPhone,
			Address:  addAddress,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported category %q", category)
	}
}

func buildLoginForAdd(title string) (*item.Record, error) {
	username := addUsername
	if username == "" {
		var err error
		username, err = promptLine("Username: ")
		if err != nil {
			return nil, err
		}
	}

	password := addPassword
	if password == "" {
		if addGenerate {
			generated, err := generateSecurePassword(addGenLength)
			if err != nil {
				return nil, fmt.Errorf("failed to generate password: %w", err)
			}
			password = generated
			fmt.Println("Generated password for this item.")
		} else {
			fmt.Print("Password: ")
			pw, err := readPassword()
			if err != nil {
				return nil, fmt.Errorf("failed to read password: %w", err)
			}
			fmt.Println()
			password = string(pw)
		}
	}

	if username == "" && password == "" {
		return nil, fmt.Errorf("login requires a username or password")
	}

	return item.NewLogin(title, item.LoginFields{
		Username:   username,
		Password:   password,
		URLs:       addURLs,
		TOTPSecret: addTOTPSecret,
		Notes:      addNotes,
	}), nil
}

func promptLine(label string) (string, error) {
	fmt.Print(label)
	return readLineInput()
}

// generateSecurePassword produces a cryptographically random password
// containing at least one lower, upper, digit, and symbol character.
func generateSecurePassword(length int) (string, error) {
	if length < 8 {
		return "", fmt.Errorf("password length must be at least 8 characters")
	}
	if length > 128 {
		return "", fmt.Errorf("password length cannot exceed 128 characters")
	}

	const (
		lowerChars  = "abcdefghijklmnopqrstuvwxyz"
		upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
		digitChars  = "0123456789"
		symbolChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"
	)
	charset := lowerChars + upperChars + digitChars + symbolChars
	password := make([]byte, length)

	requiredSets := []string{lowerChars, upperChars, digitChars, symbolChars}
	for i, reqSet := range requiredSets {
		if i >= length {
			break
		}
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(reqSet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		password[i] = reqSet[idx.Int64()]
	}

	charsetLen := big.NewInt(int64(len(charset)))
	for i := len(requiredSets); i < length; i++ {
		idx, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		password[i] = charset[idx.Int64()]
	}

	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		password[i], password[j.Int64()] = password[j.Int64()], password[i]
	}

	return string(password), nil
}
