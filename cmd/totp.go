package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mdp/qrterminal/v3"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/spf13/cobra"

	"github.com/dodoapps/dodopass/internal/item"
)

var totpCmd = &cobra.Command{
	Use:     "totp",
	GroupID: "credentials",
	Short:   "Generate codes and QR codes for an item's TOTP secret",
	Long: `Generate codes and QR codes for an item's TOTP secret.

Looks up a login item by exact id, falling back to the first item
whose title matches case-insensitively, and operates on its
login.totp_secret field.`,
}

var totpCodeCmd = &cobra.Command{
	Use:   "code <title or id>",
	Short: "Print the current TOTP code for an item",
	Args:  cobra.ExactArgs(1),
	RunE:  runTOTPCode,
}

var totpQRCmd = &cobra.Command{
	Use:   "qr <title or id>",
	Short: "Render the item's TOTP secret as a terminal QR code",
	Long: `Render the item's TOTP secret as a terminal QR code, suitable for
scanning with an authenticator app.`,
	RunE: runTOTPQR,
}

func init() {
	rootCmd.AddCommand(totpCmd)
	totpCmd.AddCommand(totpCodeCmd)
	totpCmd.AddCommand(totpQRCmd)
}

func runTOTPCode(cmd *cobra.Command, args []string) error {
	record, err := loadTOTPItem(cmd, args[0])
	if err != nil {
		return err
	}

	code, remaining, err := currentTOTPCode(record.Login.TOTPSecret)
	if err != nil {
		return err
	}

	fmt.Println(code)
	fmt.Fprintf(os.Stderr, "valid for %ds\n", remaining)
	return nil
}

func runTOTPQR(cmd *cobra.Command, args []string) error {
	record, err := loadTOTPItem(cmd, args[0])
	if err != nil {
		return err
	}

	uri := buildTOTPURI(record)

	config := qrterminal.Config{
		Level:     qrterminal.L,
		Writer:    os.Stdout,
		BlackChar: qrterminal.BLACK,
		WhiteChar: qrterminal.WHITE,
		QuietZone: 1,
	}
	qrterminal.GenerateWithConfig(uri, config)
	return nil
}

// loadTOTPItem unlocks the vault, finds the requested item, and checks
// it is a login with a TOTP secret configured.
func loadTOTPItem(cmd *cobra.Command, query string) (*item.Record, error) {
	vaultPath := GetVaultPath()
	if !pathExists(vaultPath) {
		return nil, fmt.Errorf("vault not found at %s\nRun 'dodopass create' first", vaultPath)
	}

	cfg := LoadedConfig()
	engine, err := newEngine(vaultPath, cfg.BackupRetention, true)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	if err := unlockEngine(ctx, engine, vaultPath); err != nil {
		return nil, err
	}
	defer engine.Lock()

	record, err := findItem(engine, query)
	if err != nil {
		return nil, err
	}

	if record.Category != item.CategoryLogin || record.Login == nil {
		return nil, fmt.Errorf("%q is not a login item", query)
	}
	if record.Login.TOTPSecret == "" {
		return nil, fmt.Errorf("%q has no TOTP secret configured", query)
	}
	return record, nil
}

// currentTOTPCode generates the current 6-digit TOTP code for a base32
// secret, using the standard 30-second period and SHA1 algorithm, and
// returns the code along with the seconds remaining before it rotates.
func currentTOTPCode(secret string) (string, int, error) {
	now := time.Now()
	code, err := totp.GenerateCodeCustom(secret, now, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate TOTP code: %w", err)
	}

	remaining := 30 - int(now.Unix()%30)
	return code, remaining, nil
}

// buildTOTPURI constructs an otpauth:// URI for an item's TOTP secret so
// it can be re-enrolled in an authenticator app via QR code.
func buildTOTPURI(r *item.Record) string {
	account := r.Login.Username
	if account == "" {
		account = r.Title
	}
	label := url.PathEscape("dodopass") + ":" + url.PathEscape(account)

	params := url.Values{}
	params.Set("secret", r.Login.TOTPSecret)
	params.Set("issuer", "dodopass")

	return fmt.Sprintf("otpauth://totp/%s?%s", label, params.Encode())
}
