package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/polytrack/internal/discovery"
	"github.com/dbsmedya/polytrack/internal/report"
	"github.com/dbsmedya/polytrack/internal/tracker"
)

var targetModelName string

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Manage tracked polymorphic targets",
}

var targetsListCmd = &cobra.Command{
	Use:   "list <type>",
	Short: "List tracked targets for a polymorphic type",
	Args:  cobra.ExactArgs(1),
	RunE:  runTargetsList,
}

var targetsAddCmd = &cobra.Command{
	Use:   "add <type> <table>",
	Short: "Add or refresh a target",
	Long: `Add records a target table for a polymorphic type. The model name
defaults to a PascalCase singular of the table name; pass --model to
override it (e.g. irregular plurals like people -> Person).`,
	Args: cobra.ExactArgs(2),
	RunE: runTargetsAdd,
}

var targetsDeactivateCmd = &cobra.Command{
	Use:   "deactivate <type> <table>",
	Short: "Soft-disable a target (entry is retained)",
	Args:  cobra.ExactArgs(2),
	RunE:  runTargetsDeactivate,
}

var targetsRemoveCmd = &cobra.Command{
	Use:   "remove <type> <table>",
	Short: "Delete a target entry outright",
	Args:  cobra.ExactArgs(2),
	RunE:  runTargetsRemove,
}

func init() {
	targetsAddCmd.Flags().StringVar(&targetModelName, "model", "",
		"Explicit model name for the target")
	targetsCmd.AddCommand(targetsListCmd, targetsAddCmd, targetsDeactivateCmd, targetsRemoveCmd)
	rootCmd.AddCommand(targetsCmd)
}

// withTracker loads config, opens the store, and initializes the tracker
// before invoking fn.
func withTracker(fn func(ctx context.Context, t *tracker.Tracker) error) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
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
	return fn(ctx, t)
}

func runTargetsList(cmd *cobra.Command, args []string) error {
	return withTracker(func(ctx context.Context, t *tracker.Tracker) error {
		cmd.Print(report.RenderTargets(t.AssociationConfig(args[0])))
		return nil
	})
}

func runTargetsAdd(cmd *cobra.Command, args []string) error {
	return withTracker(func(ctx context.Context, t *tracker.Tracker) error {
		typ, table := args[0], args[1]
		model := targetModelName
		if model == "" {
			model = discovery.GenerateModelName(table)
		}
		err := t.AddTarget(ctx, typ, table, model, &tracker.AddOptions{
			Source: tracker.SourceManual,
		})
		if err != nil {
			return err
		}
		cmd.Printf("Added target %s -> %s (%s)\n", typ, table, model)
		return nil
	})
}

func runTargetsDeactivate(cmd *cobra.Command, args []string) error {
	return withTracker(func(ctx context.Context, t *tracker.Tracker) error {
		if err := t.DeactivateTarget(ctx, args[0], args[1]); err != nil {
			return err
		}
		cmd.Printf("Deactivated target %s -> %s\n", args[0], args[1])
		return nil
	})
}

func runTargetsRemove(cmd *cobra.Command, args []string) error {
	return withTracker(func(ctx context.Context, t *tracker.Tracker) error {
		if err := t.RemoveTarget(ctx, args[0], args[1]); err != nil {
			return err
		}
		cmd.Printf("Removed target %s -> %s\n", args[0], args[1])
		return nil
	})
}
