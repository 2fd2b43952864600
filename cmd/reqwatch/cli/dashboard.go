package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reqwatch/reqwatch/internal/audit"
	"github.com/reqwatch/reqwatch/internal/dashboard"
)

var (
	dashAddr     string
	dashDatabase string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Start the web dashboard only (no proxy)",
	Long: `Start the web dashboard for browsing and analyzing logged requests.
Reads from an existing database; nothing new is recorded.`,
	Example: `  reqwatch dashboard -l :8080 -b ~/.reqwatch/requests.db
  reqwatch dashboard -c reqwatch.yaml`,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVarP(&dashAddr, "listen", "l", "", "dashboard listen address")
	dashboardCmd.Flags().StringVarP(&dashDatabase, "database", "b", "", "SQLite database path")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dashAddr != "" {
		cfg.DashboardAddr = dashAddr
	}
	if dashDatabase != "" {
		cfg.Database = dashDatabase
	}

	store, err := audit.NewSQLiteStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening log store: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down dashboard")
		cancel()
	}()

	dash := dashboard.NewServer(cfg.DashboardAddr, store, cfg.PageSize, cfg.RecentLimit, logger)
	return dash.ListenAndServe(ctx)
}
