package health

import (
	"context"
	"fmt"
	"os"
)

// VaultChecker checks vault container accessibility and permissions.
type VaultChecker struct {
	vaultPath string
}

// NewVaultChecker creates a new vault checker.
func NewVaultChecker(vaultPath string) HealthChecker {
	return &VaultChecker{vaultPath: vaultPath}
}

// Name returns the check name.
func (v *VaultChecker) Name() string {
	return "vault"
}

// Run executes the vault check: existence, readability, and that the
// file carries owner-only permissions the way storage.VaultPermissions
// requires.
func (v *VaultChecker) Run(ctx context.Context) CheckResult {
	info, err := os.Stat(v.vaultPath)
	if err != nil {
		return CheckResult{
			Name:           v.Name(),
			Status:         CheckError,
			Message:        fmt.Sprintf("vault file not found at %s", v.vaultPath),
			Recommendation: "run the create command to initialize a vault",
			Details: VaultCheckDetails{
				Path:   v.vaultPath,
				Exists: false,
				Error:  err.Error(),
			},
		}
	}

	details := VaultCheckDetails{
		Path:        v.vaultPath,
		Exists:      true,
		Size:        info.Size(),
		Permissions: fmt.Sprintf("%04o", info.Mode().Perm()),
	}

	file, err := os.Open(v.vaultPath)
	if err != nil {
		details.Error = err.Error()
		return CheckResult{
			Name:           v.Name(),
			Status:         CheckError,
			Message:        "vault file exists but is not readable",
			Recommendation: "check file ownership and permissions",
			Details:        details,
		}
	}
	_ = file.Close()
	details.Readable = true

	if info.Mode().Perm() != 0600 {
		return CheckResult{
			Name:           v.Name(),
			Status:         CheckWarning,
			Message:        fmt.Sprintf("vault file has overly permissive mode %s", details.Permissions),
			Recommendation: fmt.Sprintf("chmod 600 %s", v.vaultPath),
			Details:        details,
		}
	}

	return CheckResult{
		Name:    v.Name(),
		Status:  CheckPass,
		Message: "vault file is accessible with correct permissions",
		Details: details,
	}
}
