package health

import (
	"context"
	"fmt"
	"os"

	"github.com/dodoapps/dodopass/internal/config"
)

// ConfigChecker checks config file validity by running it through the
// same loader and validator the application uses at startup.
type ConfigChecker struct {
	configPath string
}

// NewConfigChecker creates a new config checker.
func NewConfigChecker(configPath string) HealthChecker {
	return &ConfigChecker{configPath: configPath}
}

// Name returns the check name.
func (c *ConfigChecker) Name() string {
	return "config"
}

// Run executes the config check.
func (c *ConfigChecker) Run(ctx context.Context) CheckResult {
	details := ConfigCheckDetails{Path: c.configPath}

	if _, err := os.Stat(c.configPath); os.IsNotExist(err) {
		details.Exists = false
		details.Valid = true
		return CheckResult{
			Name:    c.Name(),
			Status:  CheckPass,
			Message: "no config file present, using defaults",
			Details: details,
		}
	}
	details.Exists = true

	_, validation := config.LoadFromPath(c.configPath)

	for _, w := range validation.Warnings {
		details.UnknownKeys = append(details.UnknownKeys, w.Field)
	}
	for _, e := range validation.Errors {
		details.Errors = append(details.Errors, ConfigError{
			Key:     e.Field,
			Problem: e.Message,
		})
	}
	details.Valid = len(details.Errors) == 0

	if !details.Valid {
		return CheckResult{
			Name:           c.Name(),
			Status:         CheckWarning,
			Message:        fmt.Sprintf("config has %d validation error(s)", len(details.Errors)),
			Recommendation: "review and correct the flagged config fields",
			Details:        details,
		}
	}

	if len(details.UnknownKeys) > 0 {
		return CheckResult{
			Name:           c.Name(),
			Status:         CheckWarning,
			Message:        fmt.Sprintf("config contains %d unrecognized field(s)", len(details.UnknownKeys)),
			Recommendation: "check for typos in config field names",
			Details:        details,
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  CheckPass,
		Message: "config is valid",
		Details: details,
	}
}
