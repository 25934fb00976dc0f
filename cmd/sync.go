package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dodoapps/dodopass/internal/syncreconciler"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "security",
	Short:   "Synchronize your vault with a remote over rclone",
	Long: `Synchronize your vault with a remote over rclone.

Sync pulls the remote's vault container down, reconciles its item set
against the local vault by comparing their version vectors, and pushes
the merged result back up. Identical and fast-forward cases resolve
automatically; a genuine conflict (both sides changed independently)
is reported so you can choose how to resolve it.

Prerequisites:
  - rclone must be installed and configured with at least one remote
  - Run 'rclone config' to set up a remote if you haven't already`,
	Example: `  dodopass sync enable gdrive:dodopass/vault.enc
  dodopass sync run
  dodopass sync run --resolve keep_local`,
}

var syncEnableCmd = &cobra.Command{
	Use:   "enable <remote>",
	Short: "Configure the rclone remote used for sync",
	Args:  cobra.ExactArgs(1),
	RunE:  runSyncEnable,
}

var syncResolution string

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Pull, reconcile, and push the vault against its configured remote",
	Long: `Pull the remote vault container, reconcile it with the local vault,
and push the merged result back.

If the version vectors have diverged (both sides changed since the last
sync), pass --resolve to choose a policy: keep_local, keep_remote,
merge, or keep_both. Without --resolve, a conflict is reported and
nothing is written.`,
	RunE: runSyncRun,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncEnableCmd)
	syncCmd.AddCommand(syncRunCmd)

	syncRunCmd.Flags().StringVar(&syncResolution, "resolve", "", "conflict resolution: keep_local, keep_remote, merge, keep_both")
}

func runSyncEnable(cmd *cobra.Command, args []string) error {
	remote := args[0]

	transport := syncreconciler.NewTransport(remote)
	if !transport.IsRcloneInstalled() {
		return fmt.Errorf("rclone is not installed\n\nInstall it and configure a remote with: rclone config")
	}

	if err := setSyncRemote(remote); err != nil {
		return fmt.Errorf("failed to save sync configuration: %w", err)
	}

	fmt.Printf("Sync remote set to: %s\n", remote)
	fmt.Println("Run 'dodopass sync run' to pull, reconcile, and push.")
	return nil
}

func runSyncRun(cmd *cobra.Command, args []string) error {
	vaultPath := GetVaultPath()
	cfg := LoadedConfig()
	if cfg.SyncRemote == "" {
		return fmt.Errorf("sync is not configured\n\nRun: dodopass sync enable <remote>")
	}

	engine, err := newEngine(vaultPath, cfg.BackupRetention, true)
	if err != nil {
		return err
	}
	if err := unlockEngine(cmd.Context(), engine, vaultPath); err != nil {
		return err
	}
	defer engine.Lock()

	localMeta, err := engine.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to snapshot local vault: %w", err)
	}
	localItems, err := engine.ListItems()
	if err != nil {
		return fmt.Errorf("failed to list local items: %w", err)
	}

	remoteContainerPath, cleanup, err := tempVaultCopy()
	if err != nil {
		return err
	}
	defer cleanup()

	transport := syncreconciler.NewTransport(cfg.SyncRemote)
	if err := transport.Pull(remoteContainerPath); err != nil {
		return fmt.Errorf("failed to pull remote vault: %w", err)
	}

	remoteEngine, err := newEngine(remoteContainerPath, 0, false)
	if err != nil {
		return err
	}
	if err := unlockEngine(cmd.Context(), remoteEngine, remoteContainerPath); err != nil {
		return fmt.Errorf("failed to unlock remote vault: %w", err)
	}
	remoteMeta, err := remoteEngine.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to snapshot remote vault: %w", err)
	}
	remoteItems, err := remoteEngine.ListItems()
	if err != nil {
		return fmt.Errorf("failed to list remote items: %w", err)
	}
	remoteEngine.Lock()

	local := syncreconciler.Side{Metadata: localMeta, Items: localItems}
	remote := syncreconciler.Side{Metadata: remoteMeta, Items: remoteItems}

	result, err := syncreconciler.Reconcile(local, remote, syncreconciler.Resolution(syncResolution), localMeta.ClientID)
	if err != nil {
		return fmt.Errorf("failed to reconcile: %w", err)
	}

	switch result.Decision {
	case syncreconciler.Identical:
		fmt.Println("Vault is already in sync with the remote.")
		return nil
	case syncreconciler.Conflict:
		if syncResolution == "" {
			fmt.Println("Sync conflict: local and remote have both changed independently.")
			fmt.Println("Re-run with --resolve keep_local, keep_remote, merge, or keep_both.")
			return nil
		}
	}

	if err := engine.ApplyReconciled(result.Metadata, result.Items); err != nil {
		return fmt.Errorf("failed to apply reconciled state: %w", err)
	}

	if err := transport.Push(vaultPath); err != nil {
		return fmt.Errorf("failed to push merged vault to remote: %w", err)
	}

	fmt.Printf("Sync complete (%s): %d item(s)\n", result.Decision, len(result.Items))
	return nil
}

// tempVaultCopy returns a scratch path for the pulled-down remote
// container plus a cleanup function, since Transport.Pull writes a
// plain file and reconciling it requires pointing a second Engine at
// that file rather than the live vault.
func tempVaultCopy() (string, func(), error) {
	f, err := os.CreateTemp("", "dodopass-sync-*.enc")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	_ = f.Close()
	return path, func() { _ = os.Remove(path) }, nil
}

// setSyncRemote persists sync_remote into the user's config file,
// creating it from the default template first if it does not exist.
func setSyncRemote(remote string) error {
	configPath := GetConfigPath()

	raw, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		raw = []byte(configTemplateForSync())
	} else if err != nil {
		return err
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil || doc == nil {
		doc = map[string]interface{}{}
	}
	doc["sync_remote"] = remote

	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return err
	}
	return os.WriteFile(configPath, out, 0600)
}

func configTemplateForSync() string {
	return "vault_path: \"\"\nsync_remote: \"\"\n"
}
