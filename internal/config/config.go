package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the root configuration object containing all user settings.
type Config struct {
	VaultPath string `mapstructure:"vault_path"`

	// IdleTimeoutSeconds is validated and displayed with the rest of the
	// settings. The vault engine does not read it and has no idle lock.
	IdleTimeoutSeconds int `mapstructure:"idle_timeout_seconds"`

	// ClipboardClearSeconds is observed by the clipboard collaborator, not
	// the engine itself, but travels with the rest of the settings.
	ClipboardClearSeconds int `mapstructure:"clipboard_clear_seconds"`

	// Iterations overrides the PBKDF2 iteration count used on vault
	// creation. Zero means "use the format default".
	Iterations int `mapstructure:"iterations"`

	// BackupRetention is how many rotated backups the storage driver keeps.
	BackupRetention int `mapstructure:"backup_retention"`

	// SyncRemote is the filesystem or network path the sync reconciler
	// reads/writes its remote side from. Empty disables sync.
	SyncRemote string `mapstructure:"sync_remote"`

	// LoadErrors is populated during config loading, never read from YAML.
	LoadErrors []string `mapstructure:"-"`
}

// ValidationResult represents the outcome of checking configuration correctness.
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// ValidationError represents a validation error with context.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationWarning represents a non-fatal validation warning.
type ValidationWarning struct {
	Field   string
	Message string
}

const (
	defaultIdleTimeoutSeconds    = 300
	defaultClipboardClearSeconds = 30
	defaultBackupRetention       = 10
)

// GetDefaults returns the default configuration.
func GetDefaults() *Config {
	return &Config{
		IdleTimeoutSeconds:    defaultIdleTimeoutSeconds,
		ClipboardClearSeconds: defaultClipboardClearSeconds,
		BackupRetention:       defaultBackupRetention,
		LoadErrors:            []string{},
	}
}

// GetConfigPath returns the OS-appropriate config file path using os.UserConfigDir().
func GetConfigPath() (string, error) {
	if envPath := os.Getenv("DODOPASS_CONFIG"); envPath != "" {
		return envPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine config directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".dodopass")
	} else {
		configDir = filepath.Join(configDir, "dodopass")
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("cannot create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.yml"), nil
}

// GetDefaultConfigTemplate returns the default config file content with comments.
func GetDefaultConfigTemplate() string {
	return `# DodoPass configuration file.
# All settings are optional - missing values use defaults.

# Path to the vault container file. Empty uses the default location.
vault_path: ""

# Seconds of inactivity before the vault engine locks itself. 0 disables.
idle_timeout_seconds: 300

# Seconds before the clipboard auto-clears a copied secret.
clipboard_clear_seconds: 30

# PBKDF2 iteration override for new vaults. 0 uses the format default.
iterations: 0

# Number of rotated backups the storage driver retains.
backup_retention: 10

# Remote path the sync reconciler treats as the other side of a merge.
# Empty disables sync.
sync_remote: ""
`
}

func detectUnknownFields(v *viper.Viper) []ValidationWarning {
	var warnings []ValidationWarning

	knownFields := map[string]bool{
		"vault_path":              true,
		"idle_timeout_seconds":    true,
		"clipboard_clear_seconds": true,
		"iterations":              true,
		"backup_retention":        true,
		"sync_remote":             true,
	}

	for _, key := range v.AllKeys() {
		if !knownFields[key] {
			warnings = append(warnings, ValidationWarning{
				Field:   key,
				Message: fmt.Sprintf("unknown field '%s' (will be ignored)", key),
			})
		}
	}

	return warnings
}

// shouldLogConfig returns true if config loading should produce log output.
func shouldLogConfig() bool {
	return os.Getenv("DODOPASS_TEST") == ""
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(configPath string) (*Config, *ValidationResult) {
	if shouldLogConfig() {
		fmt.Fprintf(os.Stderr, "[config] loading config from: %s\n", configPath)
	}

	fileInfo, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		if shouldLogConfig() {
			fmt.Fprintf(os.Stderr, "[config] no config file found, using defaults\n")
		}
		return GetDefaults(), &ValidationResult{Valid: true}
	}
	if err != nil {
		return GetDefaults(), &ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "config_file", Message: fmt.Sprintf("cannot access config file: %v", err)},
			},
		}
	}

	const maxFileSize = 100 * 1024
	if fileInfo.Size() > maxFileSize {
		return GetDefaults(), &ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "config_file", Message: fmt.Sprintf("config file too large (size: %d KB, max: 100 KB)", fileInfo.Size()/1024)},
			},
		}
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	defaults := GetDefaults()
	v.SetDefault("vault_path", defaults.VaultPath)
	v.SetDefault("idle_timeout_seconds", defaults.IdleTimeoutSeconds)
	v.SetDefault("clipboard_clear_seconds", defaults.ClipboardClearSeconds)
	v.SetDefault("iterations", defaults.Iterations)
	v.SetDefault("backup_retention", defaults.BackupRetention)
	v.SetDefault("sync_remote", defaults.SyncRemote)

	if err := v.ReadInConfig(); err != nil {
		return GetDefaults(), &ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "config_file", Message: fmt.Sprintf("failed to parse YAML: %v", err)},
			},
		}
	}

	warnings := detectUnknownFields(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return GetDefaults(), &ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "config_file", Message: fmt.Sprintf("failed to unmarshal config: %v", err)},
			},
		}
	}

	validationResult := cfg.Validate()
	validationResult.Warnings = append(validationResult.Warnings, warnings...)

	if !validationResult.Valid {
		return GetDefaults(), validationResult
	}

	return &cfg, validationResult
}

// Load loads configuration from the default config path.
func Load() (*Config, *ValidationResult) {
	configPath, err := GetConfigPath()
	if err != nil {
		return GetDefaults(), &ValidationResult{
			Valid: true,
			Warnings: []ValidationWarning{
				{Field: "config_path", Message: fmt.Sprintf("cannot determine config path: %v", err)},
			},
		}
	}

	return LoadFromPath(configPath)
}

// Validate validates the configuration and returns a validation result.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}

	result = c.validateTimeouts(result)
	result = c.validateVaultPath(result)
	result = c.validateSyncRemote(result)

	if len(result.Errors) > 0 {
		result.Valid = false
	}

	return result
}

func (c *Config) validateTimeouts(result *ValidationResult) *ValidationResult {
	if c.IdleTimeoutSeconds < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "idle_timeout_seconds",
			Message: fmt.Sprintf("must not be negative (got: %d)", c.IdleTimeoutSeconds),
		})
	}
	if c.ClipboardClearSeconds < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "clipboard_clear_seconds",
			Message: fmt.Sprintf("must not be negative (got: %d)", c.ClipboardClearSeconds),
		})
	}
	if c.Iterations < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "iterations",
			Message: fmt.Sprintf("must not be negative (got: %d)", c.Iterations),
		})
	}
	if c.Iterations > 0 && c.Iterations < 100_000 {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "iterations",
			Message: fmt.Sprintf("unusually low iteration count (%d) weakens password stretching", c.Iterations),
		})
	}
	if c.BackupRetention < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "backup_retention",
			Message: fmt.Sprintf("must not be negative (got: %d)", c.BackupRetention),
		})
	}
	return result
}

func (c *Config) validateVaultPath(result *ValidationResult) *ValidationResult {
	if c.VaultPath == "" {
		return result
	}

	if containsNullByte(c.VaultPath) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "vault_path",
			Message: "path contains null byte",
		})
		return result
	}

	expandedPath := os.ExpandEnv(c.VaultPath)
	if len(expandedPath) > 0 && expandedPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			expandedPath = filepath.Join(home, expandedPath[1:])
		}
	}

	if !filepath.IsAbs(expandedPath) && !isPathWithVariable(c.VaultPath) && !filepath.IsAbs(c.VaultPath) {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "vault_path",
			Message: fmt.Sprintf("relative path '%s' will be resolved relative to home directory", c.VaultPath),
		})
	}

	if filepath.IsAbs(expandedPath) {
		parentDir := filepath.Dir(expandedPath)
		if _, err := os.Stat(parentDir); err != nil {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   "vault_path",
				Message: fmt.Sprintf("parent directory '%s' does not exist or is not accessible", parentDir),
			})
		}
	}

	return result
}

func (c *Config) validateSyncRemote(result *ValidationResult) *ValidationResult {
	if c.SyncRemote == "" {
		return result
	}
	if containsNullByte(c.SyncRemote) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "sync_remote",
			Message: "path contains null byte",
		})
	}
	return result
}

func containsNullByte(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '\x00' {
			return true
		}
	}
	return false
}

func isPathWithVariable(path string) bool {
	if len(path) > 0 && path[0] == '~' {
		return true
	}
	for i := 0; i < len(path); i++ {
		if path[i] == '$' || path[i] == '%' {
			return true
		}
	}
	return false
}
