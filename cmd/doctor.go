package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dodoapps/dodopass/internal/health"
)

var (
	doctorJSON    bool
	doctorQuiet   bool
	doctorVerbose bool
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	GroupID: "utilities",
	Short:   "Check vault health and system configuration",
	Long: `Run comprehensive health checks on your dodopass installation.

The doctor command verifies:
  - Binary version (checks for updates)
  - Vault file accessibility and permissions
  - Configuration file validity
  - Keychain integration status
  - Backup file status

Exit codes:
  0 - All checks passed (healthy)
  1 - Warnings detected (non-critical issues)
  2 - Errors detected (critical issues)`,
	Example: `  dodopass doctor
  dodopass doctor --json
  dodopass doctor --quiet
  dodopass doctor --verbose`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output results as JSON")
	doctorCmd.Flags().BoolVar(&doctorQuiet, "quiet", false, "quiet mode (exit code only, no output)")
	doctorCmd.Flags().BoolVarP(&doctorVerbose, "verbose", "v", false, "verbose output (detailed check execution)")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	vaultPath, vaultSource := GetVaultPathWithSource()
	configPath := GetConfigPath()

	opts := health.CheckOptions{
		CurrentVersion:  version,
		GitHubRepo:      "dodoapps/dodopass",
		VaultPath:       vaultPath,
		VaultPathSource: vaultSource,
		VaultDir:        filepath.Dir(vaultPath),
		ConfigPath:      configPath,
	}

	ctx := context.Background()
	if doctorVerbose {
		fmt.Fprintln(os.Stderr, "Running health checks...")
	}

	report := health.RunChecks(ctx, opts)

	if doctorQuiet {
		os.Exit(report.Summary.ExitCode)
		return nil
	}

	if doctorJSON {
		if err := outputHealthReportJSON(report, opts); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputHumanReadable(report, opts, doctorVerbose)
	}

	os.Exit(report.Summary.ExitCode)
	return nil
}

func outputHumanReadable(report health.HealthReport, opts health.CheckOptions, verbose bool) {
	fmt.Println()
	fmt.Println("DodoPass Health Check Report")
	fmt.Println("====================================")
	fmt.Println()

	fmt.Printf("Vault Path: %s\n", opts.VaultPath)
	fmt.Printf("Path Source: %s\n", opts.VaultPathSource)
	fmt.Println()

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	for _, check := range report.Checks {
		var icon string
		switch check.Status {
		case health.CheckPass:
			icon = "[ok]"
		case health.CheckWarning:
			icon = "[warn]"
		case health.CheckError:
			icon = "[fail]"
		}

		fmt.Printf("%s %s: %s\n", icon, bold(check.Name), check.Message)

		if check.Recommendation != "" {
			fmt.Printf("   -> Recommendation: %s\n", check.Recommendation)
		}
		if verbose && check.Details != nil {
			fmt.Printf("   Details: %+v\n", check.Details)
		}
		fmt.Println()
	}

	fmt.Println("------------------------------------")
	fmt.Printf("Summary: %s passed, %s warnings, %s errors\n",
		green(fmt.Sprintf("%d checks", report.Summary.Passed)),
		yellow(fmt.Sprintf("%d", report.Summary.Warnings)),
		red(fmt.Sprintf("%d", report.Summary.Errors)),
	)

	var exitStatus string
	switch report.Summary.ExitCode {
	case health.ExitHealthy:
		exitStatus = green("Healthy")
	case health.ExitWarnings:
		exitStatus = yellow("Warnings detected")
	case health.ExitErrors:
		exitStatus = red("Errors detected")
	default:
		exitStatus = red(fmt.Sprintf("Unknown exit code: %d", report.Summary.ExitCode))
	}
	fmt.Printf("Status: %s (exit code %d)\n", exitStatus, report.Summary.ExitCode)
	fmt.Println()
}

func outputHealthReportJSON(report health.HealthReport, opts health.CheckOptions) error {
	output := map[string]interface{}{
		"vault_path":        opts.VaultPath,
		"vault_path_source": opts.VaultPathSource,
		"report":            report,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
