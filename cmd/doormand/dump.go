package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apidoorman/doorman-go/internal/config"
	"github.com/apidoorman/doorman-go/internal/configstore"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write an encrypted snapshot of the config store to disk",
	Long: `dump connects to the configured config store backend and writes an
encrypted snapshot to a new file named config_store.dump_path plus a UTC
timestamp suffix, the same naming serve's auto-save loop uses. Useful for
taking an out-of-band backup, or for producing the seed file a MEM-backend
deployment restores from on boot. The EXTERNAL backend does not support
dumps; with it the command returns an error.`,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().String("out", "", "override config_store.dump_path for this dump")
}

func runDump(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	out, _ := cmd.Flags().GetString("out")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if out != "" {
		cfg.ConfigStore.DumpPath = out
	}

	ctx := context.Background()
	store, err := configstore.New(ctx, cfg.ConfigStore)
	if err != nil {
		return fmt.Errorf("init config store: %w", err)
	}
	defer store.Close()

	if err := configstore.SaveDump(store, cfg.ConfigStore.DumpPath, cfg.ConfigStore.EncryptionKey); err != nil {
		return fmt.Errorf("save dump: %w", err)
	}

	fmt.Printf("config store snapshot written to %s.<UTC timestamp>\n", cfg.ConfigStore.DumpPath)
	return nil
}
