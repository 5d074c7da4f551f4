package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/polytrack/internal/database"
	"github.com/dbsmedya/polytrack/internal/discovery"
	"github.com/dbsmedya/polytrack/internal/report"
	"github.com/dbsmedya/polytrack/internal/schema"
	"github.com/dbsmedya/polytrack/internal/tracker"
)

var confirmDiscovered bool

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover polymorphic associations from the live schema",
	Long: `Discover scans every table for {type}_id/{type}_type column pairs,
scores each candidate by typing consistency and foreign-key evidence, and
prints the proposals.

With --confirm, high-confidence proposals are recorded in the tracker store.

Example:
  polytrack discover --config polytrack.yaml --confirm`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().BoolVar(&confirmDiscovered, "confirm", false,
		"Record high-confidence proposals in the tracker store")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	ctx := context.Background()

	dbManager := database.NewManager(cfg)
	if err := dbManager.Connect(ctx); err != nil {
		return err
	}
	defer dbManager.Close()

	t, store, err := openTracker(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := t.Initialize(ctx); err != nil {
		return err
	}

	intro, err := schema.NewMySQLIntrospector(dbManager.DB, cfg.Database.Database)
	if err != nil {
		return err
	}

	engine := discovery.NewEngine(intro, &discovery.Options{
		Tracker:  t,
		CacheTTL: time.Duration(cfg.Discovery.CacheSeconds) * time.Second,
		Logger:   log,
	})

	results := engine.DiscoverPolymorphicTypes(ctx)
	cmd.Print(report.RenderDiscovery(results))

	if !confirmDiscovered {
		return nil
	}

	confirmed := 0
	for _, result := range results {
		if result.Metadata.Confidence != discovery.ConfidenceHigh {
			continue
		}
		for _, target := range result.Targets {
			err := t.AddTarget(ctx, result.Type, target.TableName, target.ModelName,
				&tracker.AddOptions{Source: tracker.SourceDiscovery})
			if err != nil {
				return fmt.Errorf("failed to confirm target %s/%s: %w",
					result.Type, target.TableName, err)
			}
			confirmed++
		}
	}
	cmd.Printf("Confirmed %d high-confidence targets into config %q\n",
		confirmed, cfg.Store.ConfigID)
	return nil
}
