package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/polytrack/internal/database"
	"github.com/dbsmedya/polytrack/internal/discovery"
	"github.com/dbsmedya/polytrack/internal/report"
	"github.com/dbsmedya/polytrack/internal/schema"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print schema analysis and complexity metrics",
	Long: `Report summarizes the live schema as seen by the discovery scan:
table and column counts, foreign keys, polymorphic pairs, and derived
complexity ratios.

Example:
  polytrack report --config polytrack.yaml`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
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

	intro, err := schema.NewMySQLIntrospector(dbManager.DB, cfg.Database.Database)
	if err != nil {
		return err
	}
	engine := discovery.NewEngine(intro, &discovery.Options{
		CacheTTL: time.Duration(cfg.Discovery.CacheSeconds) * time.Second,
		Logger:   log,
	})

	analysis, err := engine.AnalyzeSchema(ctx)
	if err != nil {
		return err
	}
	metrics, err := engine.CalculateComplexityMetrics(ctx)
	if err != nil {
		return err
	}

	cmd.Print(report.RenderAnalysis(analysis, metrics))
	return nil
}
