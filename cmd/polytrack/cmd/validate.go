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
)

var skipSchemaScan bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate tracked configuration and scan for schema inconsistencies",
	Long: `Validate checks the application configuration, scans the tracked
polymorphic config for incomplete target entries, and flags half-pairs in the
live schema (an _id column whose _type counterpart is missing, or the
reverse).

Example:
  polytrack validate --config polytrack.yaml`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&skipSchemaScan, "skip-schema", false,
		"Skip the live schema inconsistency scan")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	t, store, err := openTracker(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if err := t.Initialize(ctx); err != nil {
		return err
	}

	trackerReport := t.Validate()
	cmd.Print(report.RenderValidation(trackerReport))

	hasErrors := !trackerReport.Valid

	if !skipSchemaScan {
		dbManager := database.NewManager(cfg)
		if err := dbManager.Connect(ctx); err != nil {
			return err
		}
		defer dbManager.Close()

		intro, err := schema.NewMySQLIntrospector(dbManager.DB, cfg.Database.Database)
		if err != nil {
			return err
		}
		engine := discovery.NewEngine(intro, &discovery.Options{
			Tracker:  t,
			CacheTTL: time.Duration(cfg.Discovery.CacheSeconds) * time.Second,
			Logger:   log,
		})

		inconsistencies, err := engine.DetectSchemaInconsistencies(ctx)
		if err != nil {
			return err
		}
		if len(inconsistencies) > 0 {
			hasErrors = true
			cmd.Printf("\nSchema inconsistencies (%d):\n", len(inconsistencies))
			for _, inc := range inconsistencies {
				cmd.Printf("  - %s.%s: %s\n", inc.Table, inc.Column, inc.Message)
			}
		} else {
			cmd.Println("\nNo schema inconsistencies found.")
		}
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}
	return nil
}
