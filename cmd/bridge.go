package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dodoapps/dodopass/internal/bridge"
)

var bridgeSocketPath string

var bridgeCmd = &cobra.Command{
	Use:     "bridge",
	GroupID: "security",
	Short:   "Run the native-messaging bridge server for the browser extension",
	Long: `Run the native-messaging bridge server.

Unlocks the vault, then listens on a Unix-domain socket for
length-prefixed JSON requests from a browser extension: unlock, lock,
state, search, list_items, get_item, add_item, delete_item. The socket
is removed on exit.

The server holds the vault unlocked in memory for as long as it runs;
stop it with Ctrl-C when you're done.`,
	RunE: runBridge,
}

func init() {
	rootCmd.AddCommand(bridgeCmd)
	bridgeCmd.Flags().StringVar(&bridgeSocketPath, "socket", "", "socket path (default: $TMPDIR/dodopass.sock)")
}

func runBridge(cmd *cobra.Command, args []string) error {
	vaultPath := GetVaultPath()
	if !pathExists(vaultPath) {
		return fmt.Errorf("vault does not exist at %s\nCreate one with: dodopass create", vaultPath)
	}

	socketPath := bridgeSocketPath
	if socketPath == "" {
		socketPath = filepath.Join(os.TempDir(), "dodopass.sock")
	}

	cfg := LoadedConfig()
	engine, err := newEngine(vaultPath, cfg.BackupRetention, true)
	if err != nil {
		return err
	}
	if err := unlockEngine(cmd.Context(), engine, vaultPath); err != nil {
		return err
	}
	defer engine.Lock()

	server := bridge.NewServer(socketPath, bridge.EngineDispatcher{Engine: engine})

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	fmt.Printf("Bridge listening on %s\n", socketPath)
	fmt.Println("Press Ctrl-C to stop.")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("bridge server error: %w", err)
		}
	case <-sigCh:
		fmt.Println("\nShutting down bridge...")
		if err := server.Close(); err != nil {
			return fmt.Errorf("failed to close bridge server: %w", err)
		}
	}
	return nil
}
