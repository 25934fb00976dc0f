package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/howeyc/gopass"
	"golang.org/x/term"

	"github.com/dodoapps/dodopass/internal/auditlog"
	"github.com/dodoapps/dodopass/internal/keychain"
	"github.com/dodoapps/dodopass/internal/recovery"
	"github.com/dodoapps/dodopass/internal/storage"
	"github.com/dodoapps/dodopass/internal/vaultengine"
)

// Shared across ALL stdin reads (passwords, usernames, recovery words)
// to avoid buffering issues when piped test input is read by more than
// one prompt in the same process.
var (
	testStdinScanner *bufio.Scanner
	scannerOnce      sync.Once
)

// readLine reads a line from stdin in test mode using the shared scanner.
func readLine() (string, error) {
	if os.Getenv("DODOPASS_TEST") != "1" {
		return "", fmt.Errorf("readLine should only be called in test mode")
	}

	scannerOnce.Do(func() {
		testStdinScanner = bufio.NewScanner(os.Stdin)
	})

	if !testStdinScanner.Scan() {
		if err := testStdinScanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", fmt.Errorf("no input provided")
	}
	return testStdinScanner.Text(), nil
}

// readLineInput reads a line from stdin, using the shared scanner in
// test mode or a fresh reader otherwise.
func readLineInput() (string, error) {
	if os.Getenv("DODOPASS_TEST") == "1" {
		return readLine()
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads a password from stdin with asterisk masking.
func readPassword() ([]byte, error) {
	if os.Getenv("DODOPASS_TEST") == "1" {
		line, err := readLine()
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		return []byte(line), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var password string
		_, err := fmt.Scanln(&password)
		return []byte(password), err
	}

	return gopass.GetPasswdMasked()
}

// getAuditLogPath returns the audit log path: DODOPASS_AUDIT_LOG env var
// override, or <vault-dir>/audit.log by default.
func getAuditLogPath(vaultPath string) string {
	if p := os.Getenv("DODOPASS_AUDIT_LOG"); p != "" {
		return p
	}
	return filepath.Join(filepath.Dir(vaultPath), "audit.log")
}

// getVaultID derives a stable identifier for the vault from its
// directory name, used as the keychain account name.
func getVaultID(vaultPath string) string {
	return filepath.Base(filepath.Dir(vaultPath))
}

// getKeychainUnavailableMessage returns a platform-specific diagnostic
// for when the system keychain cannot be reached.
func getKeychainUnavailableMessage() string {
	switch runtime.GOOS {
	case "windows":
		return "System keychain not available: Windows Credential Manager access denied.\nTroubleshooting: check user permissions for Credential Manager access."
	case "darwin":
		return "System keychain not available: macOS Keychain access denied.\nTroubleshooting: check Keychain Access.app permissions for dodopass."
	case "linux":
		return "System keychain not available: Linux Secret Service not running or accessible.\nTroubleshooting: ensure gnome-keyring or KWallet is installed and running."
	default:
		return "System keychain not available on this platform."
	}
}

// formatRelativeTime converts a timestamp to a human-readable relative
// duration, e.g. "2 hours ago".
func formatRelativeTime(timestamp time.Time) string {
	duration := time.Now().Sub(timestamp)
	if duration < 0 {
		return "in the future"
	}
	if duration < time.Minute {
		return "just now"
	}
	if duration < time.Hour {
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	}
	if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	if duration < 7*24*time.Hour {
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
	if duration < 30*24*time.Hour {
		weeks := int(duration.Hours() / (24 * 7))
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	}
	if duration < 365*24*time.Hour {
		months := int(duration.Hours() / (24 * 30))
		if months == 1 {
			return "1 month ago"
		}
		return fmt.Sprintf("%d months ago", months)
	}
	years := int(duration.Hours() / (24 * 365))
	if years == 1 {
		return "1 year ago"
	}
	return fmt.Sprintf("%d years ago", years)
}

// pathExists reports whether a file or directory exists at path.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// formatAge is formatRelativeTime without the "ago" suffix, used for
// backup listings where the column header already supplies the context.
func formatAge(d time.Duration) string {
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	if days < 7 {
		return fmt.Sprintf("%d days", days)
	}
	weeks := days / 7
	if weeks == 1 {
		return "1 week"
	}
	if weeks < 4 {
		return fmt.Sprintf("%d weeks", weeks)
	}
	months := days / 30
	if months == 1 {
		return "1 month"
	}
	return fmt.Sprintf("%d months", months)
}

// formatSize formats a byte count as a human-readable size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// logVerbose writes a [VERBOSE] line to stderr when verbose is enabled.
func logVerbose(verbose bool, format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] %s\n", fmt.Sprintf(format, args...))
	}
}

// newEngine builds a vaultengine.Engine over vaultPath's file driver,
// wiring an audit logger unless auditEnabled is false. Commands that open
// an existing vault go through this constructor so the driver, client ID,
// and audit sink stay consistent; create and backup preview build their
// own engine.
func newEngine(vaultPath string, backupRetention int, auditEnabled bool) (*vaultengine.Engine, error) {
	driver := storage.NewFileDriver(vaultPath).WithBackupRetention(backupRetention)

	opts := []vaultengine.Option{}
	if auditEnabled {
		logger, err := auditlog.New(getAuditLogPath(vaultPath), getAuditKey(vaultPath))
		if err == nil {
			opts = append(opts, vaultengine.WithAuditLogger(logger))
		}
	}

	return vaultengine.New(driver, clientID(), opts...), nil
}

// getAuditKey returns the HMAC key used to sign this vault's audit log.
// It prefers the keychain-stored master key (so the audit log and the
// vault share a trust root) and falls back to the vault ID itself when
// no master key is available.
func getAuditKey(vaultPath string) []byte {
	keySvc := keychain.New(getVaultID(vaultPath))
	auditKey, err := keySvc.RetrieveMasterKey()
	if err != nil || len(auditKey) == 0 {
		return []byte(getVaultID(vaultPath))
	}
	return auditKey
}

// clientID returns a stable per-machine identifier used as the version
// vector's client key, derived from the hostname.
func clientID() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "dodopass-client"
}

// unlockEngine unlocks e, trying the system keychain first and falling
// back to an interactive password prompt.
func unlockEngine(ctx context.Context, e *vaultengine.Engine, vaultPath string) error {
	keySvc := keychain.New(getVaultID(vaultPath))
	if masterKey, err := keySvc.RetrieveMasterKey(); err == nil {
		if err := e.UnlockWithStoredKey(masterKey); err == nil {
			if IsVerbose() {
				fmt.Fprintln(os.Stderr, "Unlocked vault using keychain")
			}
			return nil
		}
	}

	fmt.Fprint(os.Stderr, "Master password: ")
	password, err := readPassword()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(os.Stderr)

	if err := e.Unlock(ctx, string(password)); err != nil {
		return fmt.Errorf("failed to unlock vault: %w", err)
	}
	return nil
}

// displayMnemonic formats a 24-word BIP39 mnemonic as a 4x6 grid for
// the user to write down.
func displayMnemonic(mnemonic string) {
	words := strings.Fields(mnemonic)
	if len(words) != 24 {
		fmt.Printf("Invalid mnemonic: expected 24 words, got %d\n", len(words))
		return
	}

	fmt.Println(strings.Repeat("-", 60))
	fmt.Println("Recovery Phrase Setup")
	fmt.Println(strings.Repeat("-", 60))
	fmt.Println("Write down these 24 words in order:")
	fmt.Println()

	for row := 0; row < 6; row++ {
		line := ""
		for col := 0; col < 4; col++ {
			idx := col*6 + row
			if idx < len(words) {
				line += fmt.Sprintf("%3d. %-12s ", idx+1, words[idx])
			}
		}
		fmt.Println(line)
	}

	fmt.Println()
	fmt.Println("WARNINGS:")
	fmt.Println("  - Anyone with this phrase can access your vault")
	fmt.Println("  - Store offline (write on paper, use a safe)")
	fmt.Println("  - Recovery requires 6 random words from this list")
	fmt.Println()
}

// promptForWord prompts for the word at position (0-indexed) and
// returns it lowercased and trimmed.
func promptForWord(position int) (string, error) {
	fmt.Printf("Enter word #%d: ", position+1)

	var word string
	if os.Getenv("DODOPASS_TEST") == "1" {
		line, err := readLine()
		if err != nil {
			return "", err
		}
		word = line
	} else {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read word: %w", err)
		}
		word = line
	}

	return strings.ToLower(strings.TrimSpace(word)), nil
}

// promptYesNo prompts for a yes/no confirmation, returning defaultYes
// if the user presses enter without typing anything.
func promptYesNo(prompt string, defaultYes bool) (bool, error) {
	if defaultYes {
		fmt.Printf("%s (Y/n): ", prompt)
	} else {
		fmt.Printf("%s (y/N): ", prompt)
	}

	var response string
	if os.Getenv("DODOPASS_TEST") == "1" {
		line, err := readLine()
		if err != nil {
			return false, err
		}
		response = line
	} else {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, fmt.Errorf("failed to read response: %w", err)
		}
		response = line
	}

	response = strings.TrimSpace(strings.ToLower(response))
	switch response {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return defaultYes, nil
	}
}

// promptForWordWithValidation prompts for a BIP39 word, retrying up to
// three times on a word not in the wordlist.
func promptForWordWithValidation(position int) (string, error) {
	const maxAttempts = 3

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		word, err := promptForWord(position)
		if err != nil {
			return "", err
		}
		if recovery.ValidateWord(word) {
			return word, nil
		}
		if attempt < maxAttempts {
			fmt.Printf("Invalid word, not in BIP39 wordlist. Try again (%d/%d)\n", attempt, maxAttempts)
			continue
		}
		return "", fmt.Errorf("invalid word after %d attempts", maxAttempts)
	}

	return "", fmt.Errorf("failed to read valid word after %d attempts", maxAttempts)
}
