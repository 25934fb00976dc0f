package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dodoapps/dodopass/internal/auditlog"
)

var verifyAuditCmd = &cobra.Command{
	Use:     "verify-audit [audit-log-path]",
	GroupID: "security",
	Short:   "Verify integrity of the audit log",
	Long: `Verify the integrity of an audit log by checking HMAC signatures on
all entries.

The audit log path can be given as an argument, or defaults to
<vault-dir>/audit.log. Set DODOPASS_AUDIT_LOG to override.`,
	Example: `  dodopass verify-audit
  dodopass verify-audit /path/to/audit.log
  DODOPASS_AUDIT_LOG=/custom/audit.log dodopass verify-audit`,
	RunE: runVerifyAudit,
}

func init() {
	rootCmd.AddCommand(verifyAuditCmd)
}

func runVerifyAudit(cmd *cobra.Command, args []string) error {
	vaultPath := GetVaultPath()

	var auditLogPath string
	if len(args) > 0 {
		auditLogPath = args[0]
	} else {
		auditLogPath = getAuditLogPath(vaultPath)
	}

	fmt.Printf("Verifying audit log: %s\n\n", auditLogPath)

	if !pathExists(auditLogPath) {
		return fmt.Errorf("audit log not found at %s\nThe audit log is created by the first command that unlocks the vault", auditLogPath)
	}

	auditKey := getAuditKey(vaultPath)

	result, err := auditlog.VerifyAll(auditLogPath, auditKey)
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	for _, line := range result.InvalidEntries {
		fmt.Printf("Line %d: HMAC verification FAILED\n", line)
	}

	fmt.Println("====================================")
	fmt.Printf("Total entries: %d\n", result.TotalEntries)
	fmt.Printf("Valid entries: %d\n", result.TotalEntries-len(result.InvalidEntries))

	if !result.Ok() {
		fmt.Printf("Invalid entries: %d\n", len(result.InvalidEntries))
		fmt.Println("\nWARNING: audit log integrity compromised!")
		fmt.Println("Some entries failed HMAC verification. This may indicate tampering or corruption.")
		return fmt.Errorf("audit log verification failed: %d invalid entries", len(result.InvalidEntries))
	}

	fmt.Println("\nAudit log integrity verified. All entries have valid HMAC signatures.")
	return nil
}
