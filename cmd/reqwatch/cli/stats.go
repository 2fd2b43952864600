package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/reqwatch/reqwatch/internal/audit"
)

var statsDatabase string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print aggregate request statistics as JSON",
	Example: `  reqwatch stats
  reqwatch stats -b ~/.reqwatch/requests.db`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsDatabase, "database", "b", "", "SQLite database path")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if statsDatabase != "" {
		cfg.Database = statsDatabase
	}

	store, err := audit.NewSQLiteStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening log store: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context(), time.Now())
	if err != nil {
		return fmt.Errorf("computing stats: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
