package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dodoapps/dodopass/internal/item"
)

var (
	getField string
)

var getCmd = &cobra.Command{
	Use:     "get <title or id>",
	GroupID: "credentials",
	Short:   "Retrieve an item from the vault",
	Long: `Get looks up an item by exact id, falling back to the first item whose
title matches (case-insensitive), and prints its fields.

Use --field to print a single field instead of the full record, handy
for scripting (e.g. piping a password to another command).`,
	Example: `  dodopass get github
  dodopass get github --field password`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringVar(&getField, "field", "", "print only this field (e.g. password, username, body, number)")
}

func runGet(cmd *cobra.Command, args []string) error {
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
	ctx := context.Background()
	if err := unlockEngine(ctx, engine, vaultPath); err != nil {
		return err
	}
	defer engine.Lock()

	record, err := findItem(engine, query)
	if err != nil {
		return err
	}

	if getField != "" {
		value, err := fieldValue(record, getField)
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	}

	printRecord(record)
	return nil
}

func findItem(e engineReader, query string) (*item.Record, error) {
	if r, err := e.GetItem(query); err == nil {
		return r, nil
	}

	items, err := e.ListItems()
	if err != nil {
		return nil, err
	}
	for _, r := range items {
		if strings.EqualFold(r.Title, query) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("no item found matching %q", query)
}

// engineReader is the subset of *vaultengine.Engine that read-oriented
// commands need, so helpers like findItem don't depend on the full type.
type engineReader interface {
	GetItem(id string) (*item.Record, error)
	ListItems() ([]*item.Record, error)
}

func fieldValue(r *item.Record, field string) (string, error) {
	switch strings.ToLower(field) {
	case "title":
		return r.Title, nil
	case "category":
		return string(r.Category), nil
	case "tags":
		return strings.Join(r.Tags, ", "), nil
	}

	switch r.Category {
	case item.CategoryLogin:
		if r.Login == nil {
			break
		}
		switch strings.ToLower(field) {
		case "username":
			return r.Login.Username, nil
		case "password":
			return r.Login.Password, nil
		case "url", "urls":
			return strings.Join(r.Login.URLs, ", "), nil
		case "totp", "totp-secret":
			return r.Login.TOTPSecret, nil
		case "notes":
			return r.Login.Notes, nil
		}
	case item.CategorySecureNote:
		if r.SecureNote != nil && strings.ToLower(field) == "body" {
			return r.SecureNote.Body, nil
		}
	case item.CategoryCreditCard:
		if r.CreditCard == nil {
			break
		}
		switch strings.ToLower(field) {
		case "cardholder":
			return r.CreditCard.Cardholder, nil
		case "number":
			return r.CreditCard.Number, nil
		case "cvv":
			return r.CreditCard.CVV, nil
		case "expiry":
			return r.CreditCard.Expiry, nil
		case "brand":
			return r.CreditCard.Brand, nil
		}
	case item.CategoryIdentity:
		if r.Identity == nil {
			break
		}
		switch strings.ToLower(field) {
		case "full-name", "fullname":
			return r.Identity.FullName, nil
		case "email":
			return r.Identity.Email, nil
		case "phone":
			return r.Identity.Phone, nil
		case "address":
			return r.Identity.Address, nil
		}
	}

	return "", fmt.Errorf("unknown field %q for category %s", field, r.Category)
}

func printRecord(r *item.Record) {
	fmt.Printf("Title:    %s\n", r.Title)
	fmt.Printf("Category: %s\n", r.Category)
	if r.Favorite {
		fmt.Println("Favorite: yes")
	}
	if len(r.Tags) > 0 {
		fmt.Printf("Tags:     %s\n", strings.Join(r.Tags, ", "))
	}

	switch r.Category {
	case item.CategoryLogin:
		if r.Login == nil {
			break
		}
		fmt.Printf("Username: %s\n", r.Login.Username)
		fmt.Printf("Password: %s\n", r.Login.Password)
		if len(r.Login.URLs) > 0 {
			fmt.Printf("URLs:     %s\n", strings.Join(r.Login.URLs, ", "))
		}
		if r.Login.TOTPSecret != "" {
			fmt.Println("TOTP:     configured")
		}
		if r.Login.Notes != "" {
			fmt.Printf("Notes:    %s\n", r.Login.Notes)
		}
	case item.CategorySecureNote:
		if r.SecureNote != nil {
			fmt.Printf("Body:     %s\n", r.SecureNote.Body)
		}
	case item.CategoryCreditCard:
		if r.CreditCard != nil {
			fmt.Printf("Cardholder: %s\n", r.CreditCard.Cardholder)
			fmt.Printf("Number:     %s\n", r.CreditCard.Number)
			fmt.Printf("CVV:        %s\n", r.CreditCard.CVV)
			fmt.Printf("Expiry:     %s\n", r.CreditCard.Expiry)
			if r.CreditCard.Brand != "" {
				fmt.Printf("Brand:      %s\n", r.CreditCard.Brand)
			}
		}
	case item.CategoryIdentity:
		if r.Identity != nil {
			fmt.Printf("Full name: %s\n", r.Identity.FullName)
			fmt.Printf("Email:     %s\n", r.Identity.Email)
			fmt.Printf("Phone:     %s\n", r.Identity.Phone)
			fmt.Printf("Address:   %s\n", r.Identity.Address)
		}
	}

	fmt.Printf("Modified: %s (%s)\n", r.ModifiedAt.Format("2006-01-02 15:04:05"), formatRelativeTime(r.ModifiedAt))
}
