package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/polytrack/internal/configstore"
)

var revisionsCmd = &cobra.Command{
	Use:   "revisions",
	Short: "Show the save history of the tracked configuration",
	Long: `Revisions lists every persisted save of the config document, newest
first. Useful for inspecting when and how often the target mapping changed.`,
	RunE: runRevisions,
}

func init() {
	rootCmd.AddCommand(revisionsCmd)
}

func runRevisions(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	store, err := configstore.OpenSQLite(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	revisions, err := store.Revisions(context.Background(), cfg.Store.ConfigID)
	if err != nil {
		return err
	}
	if len(revisions) == 0 {
		cmd.Printf("No revisions recorded for config %q\n", cfg.Store.ConfigID)
		return nil
	}

	cmd.Printf("Revisions for config %q (%d):\n", cfg.Store.ConfigID, len(revisions))
	for _, rev := range revisions {
		cmd.Printf("  %s  %s\n", rev.SavedAt.Format("2006-01-02 15:04:05"), rev.RevisionID)
	}
	return nil
}
