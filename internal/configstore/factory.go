package configstore

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/apidoorman/doorman-go/internal/config"
)

// New constructs the configured Store backend and, for MEM, attempts to
// restore the most recent dump on disk before returning.
func New(ctx context.Context, cfg config.ConfigStoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.ConfigStoreExternal:
		return NewMongoStore(ctx, cfg.MongoURL, cfg.MongoDatabase)
	default:
		store := NewMemoryStore()
		if cfg.EncryptionKey != "" {
			if data, err := LoadLatestDump(cfg.DumpPath, cfg.EncryptionKey); err == nil {
				if err := store.Restore(ctx, data); err != nil {
					log.Warn().Err(err).Msg("configstore.restore_failed")
				} else {
					log.Info().Msg("configstore.restored_from_dump")
				}
			}
		}
		return store, nil
	}
}

// autoSaveCheckInterval is how often the background loop re-reads the
// admin-editable SecuritySettings entity to decide whether a save is due;
// it is independent of (and typically finer-grained than) the save
// frequency itself.
const autoSaveCheckInterval = 5 * time.Second

// StartAutoSave runs a ticker-driven background loop that periodically
// snapshots store to disk. Grounded on the pack's ticker-based background
// scheduler idiom (a reconciliation loop firing on a fixed interval), not on
// any single teacher file. It stops when ctx is cancelled.
//
// The SecuritySettings entity (admin-editable via /platform/security) is the
// live source of truth for enable_auto_save/auto_save_frequency_seconds/
// dump_path; cfg's static values are only the boot-time default used before
// an admin has ever written that entity.
func StartAutoSave(ctx context.Context, store Store, cfg config.ConfigStoreConfig) {
	if cfg.Backend != config.ConfigStoreMemory {
		return
	}
	ticker := time.NewTicker(autoSaveCheckInterval)
	go func() {
		defer ticker.Stop()
		var lastSave time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				enabled, interval, dumpPath := resolveAutoSaveSettings(ctx, store, cfg)
				if !enabled || interval <= 0 {
					continue
				}
				if !lastSave.IsZero() && time.Since(lastSave) < interval {
					continue
				}
				if err := SaveDump(store, dumpPath, cfg.EncryptionKey); err != nil {
					log.Error().Err(err).Msg("configstore.autosave_failed")
					continue
				}
				lastSave = time.Now()
				log.Debug().Msg("configstore.autosave_completed")
			}
		}
	}()
}

// resolveAutoSaveSettings merges the SecuritySettings entity (when one has
// been written) over cfg's static defaults.
func resolveAutoSaveSettings(ctx context.Context, store Store, cfg config.ConfigStoreConfig) (enabled bool, interval time.Duration, dumpPath string) {
	enabled = cfg.EnableAutoSave
	interval = cfg.AutoSaveFrequency.Duration
	dumpPath = cfg.DumpPath

	settings, err := currentSecuritySettings(ctx, store)
	if err != nil || settings == nil {
		return enabled, interval, dumpPath
	}
	enabled = settings.EnableAutoSave
	if settings.AutoSaveFrequencySeconds > 0 {
		interval = time.Duration(settings.AutoSaveFrequencySeconds) * time.Second
	}
	if settings.DumpPath != "" {
		dumpPath = settings.DumpPath
	}
	return enabled, interval, dumpPath
}

// currentSecuritySettings fetches the single SecuritySettings document, if
// any has been written yet.
func currentSecuritySettings(ctx context.Context, store Store) (*SecuritySettings, error) {
	cursor, err := store.Find(ctx, CollectionSecurity, nil, 0, 1)
	if err != nil {
		return nil, err
	}
	docs, err := cursor.ToList(ctx, 1)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	var settings SecuritySettings
	if err := Decode(docs[0], &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}
