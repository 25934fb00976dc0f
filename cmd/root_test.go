package cmd

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, configDir, yaml string) {
	t.Helper()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	configPath := filepath.Join(configDir, "config.yml")
	if yaml == "" {
		_ = os.Remove(configPath)
		return
	}
	if err := os.WriteFile(configPath, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func withXDGConfigHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	orig := os.Getenv("XDG_CONFIG_HOME")
	t.Cleanup(func() { _ = os.Setenv("XDG_CONFIG_HOME", orig) })
	if err := os.Setenv("XDG_CONFIG_HOME", tmpDir); err != nil {
		t.Fatalf("failed to set XDG_CONFIG_HOME: %v", err)
	}
	return tmpDir
}

func TestGetVaultPath_CustomPath(t *testing.T) {
	tmpDir := withXDGConfigHome(t)

	tests := []struct {
		name         string
		configYAML   string
		expectSuffix string
	}{
		{
			name:         "custom absolute path",
			configYAML:   "vault_path: " + getTestAbsolutePath() + "\n",
			expectSuffix: filepath.Base(getTestAbsolutePath()),
		},
		{
			name:         "empty config uses default",
			configYAML:   "",
			expectSuffix: filepath.Join(".dodopass", "vault.enc"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeTestConfig(t, filepath.Join(tmpDir, "dodopass"), tt.configYAML)

			result := GetVaultPath()
			if !strings.HasSuffix(result, tt.expectSuffix) {
				t.Errorf("expected path to end with %s, got: %s", tt.expectSuffix, result)
			}
		})
	}
}

func TestGetVaultPath_TildeExpansion(t *testing.T) {
	tmpDir := withXDGConfigHome(t)

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	tests := []struct {
		name         string
		configPath   string
		expectPrefix string
	}{
		{
			name:         "tilde expands to home",
			configPath:   "~/.dodopass/custom.enc",
			expectPrefix: filepath.Join(home, ".dodopass"),
		},
		{
			name:         "tilde only",
			configPath:   "~/vault.enc",
			expectPrefix: home,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeTestConfig(t, filepath.Join(tmpDir, "dodopass"), "vault_path: "+tt.configPath+"\n")

			result := GetVaultPath()
			if !strings.HasPrefix(result, tt.expectPrefix) {
				t.Errorf("expected path to start with %s, got: %s", tt.expectPrefix, result)
			}
		})
	}
}

func TestGetVaultPath_EnvVarExpansion(t *testing.T) {
	tmpDir := withXDGConfigHome(t)

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	var envVar string
	if runtime.GOOS == "windows" {
		envVar = "%USERPROFILE%\\.dodopass\\vault.enc"
	} else {
		envVar = "$HOME/.dodopass/vault.enc"
	}

	writeTestConfig(t, filepath.Join(tmpDir, "dodopass"), "vault_path: "+envVar+"\n")

	result := GetVaultPath()
	expected := filepath.Join(home, ".dodopass", "vault.enc")

	if result != expected {
		t.Errorf("environment variable expansion failed.\nexpected: %s\ngot: %s", expected, result)
	}
}

func TestGetVaultPath_RelativeToAbsolute(t *testing.T) {
	tmpDir := withXDGConfigHome(t)

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	tests := []struct {
		name       string
		configPath string
	}{
		{name: "relative path converts to absolute", configPath: "custom/vault.enc"},
		{name: "single file relative path", configPath: "vault.enc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeTestConfig(t, filepath.Join(tmpDir, "dodopass"), "vault_path: "+tt.configPath+"\n")

			result := GetVaultPath()
			if !filepath.IsAbs(result) {
				t.Errorf("expected absolute path, got relative: %s", result)
			}
			if !strings.HasPrefix(result, home) {
				t.Errorf("expected path to start with %s, got: %s", home, result)
			}
		})
	}
}

func TestVaultFlagNotRegistered(t *testing.T) {
	if flag := rootCmd.PersistentFlags().Lookup("vault"); flag != nil {
		t.Errorf("--vault flag should not be registered, but found: %v", flag)
	}
}

func getTestAbsolutePath() string {
	if runtime.GOOS == "windows" {
		return "C:\\custom\\test\\vault.enc"
	}
	return "/custom/test/vault.enc"
}
