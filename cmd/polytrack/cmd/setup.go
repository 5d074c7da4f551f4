package cmd

import (
	"fmt"

	"github.com/dbsmedya/polytrack/internal/config"
	"github.com/dbsmedya/polytrack/internal/configstore"
	"github.com/dbsmedya/polytrack/internal/logger"
	"github.com/dbsmedya/polytrack/internal/tracker"
)

// loadConfigAndLogger loads configuration, applies CLI overrides, and builds
// the logger. Shared by every command.
func loadConfigAndLogger() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.StorePath, overrides.ConfigID)

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

// openTracker opens the config store and constructs the tracker over it.
// The caller closes the returned store.
func openTracker(cfg *config.Config, log *logger.Logger) (*tracker.Tracker, *configstore.SQLite, error) {
	store, err := configstore.OpenSQLite(cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open config store: %w", err)
	}

	t := tracker.New(store, cfg.Store.ConfigID, &tracker.Options{
		KnownTypes:  cfg.Tracker.Types,
		GeneratedBy: "polytrack/" + Version,
		Logger:      log,
	})
	return t, store, nil
}
