package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apidoorman/doorman-go/internal/config"
	"github.com/apidoorman/doorman-go/internal/configstore"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the config store's contents from an encrypted snapshot",
	Long: `restore reads the snapshot at --in (defaulting to the newest
timestamped file under config_store.dump_path) and replaces every
collection in the configured config store backend with its contents. The
EXTERNAL backend does not support restore; with it the command returns an
error.`,
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().String("in", "", "exact snapshot file to restore; defaults to the newest file under config_store.dump_path")
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	in, _ := cmd.Flags().GetString("in")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var data map[string][]map[string]interface{}
	var sourcePath string
	if in != "" {
		sourcePath = in
		data, err = configstore.LoadDump(in, cfg.ConfigStore.EncryptionKey)
	} else {
		sourcePath, err = configstore.FindLatestDumpPath(cfg.ConfigStore.DumpPath)
		if err == nil {
			data, err = configstore.LoadDump(sourcePath, cfg.ConfigStore.EncryptionKey)
		}
	}
	if err != nil {
		return fmt.Errorf("load dump: %w", err)
	}

	ctx := context.Background()
	store, err := configstore.New(ctx, cfg.ConfigStore)
	if err != nil {
		return fmt.Errorf("init config store: %w", err)
	}
	defer store.Close()

	if err := store.Restore(ctx, data); err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	fmt.Printf("config store restored from %s\n", sourcePath)
	return nil
}
