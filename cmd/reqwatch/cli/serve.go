package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reqwatch/reqwatch/internal/audit"
	"github.com/reqwatch/reqwatch/internal/config"
	"github.com/reqwatch/reqwatch/internal/dashboard"
	"github.com/reqwatch/reqwatch/internal/principal"
	"github.com/reqwatch/reqwatch/internal/proxy"
)

var (
	serveUpstream string
	serveAddr     string
	serveDashAddr string
	serveDatabase string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the auditing proxy + web dashboard",
	Long: `Start the auditing reverse proxy in front of an upstream application,
together with the web dashboard. Every non-excluded request is logged
to the database.`,
	Example: `  reqwatch serve -u http://localhost:3000
  reqwatch serve -c reqwatch.yaml -l :8000 -d 127.0.0.1:8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveUpstream, "upstream", "u", "", "upstream application URL")
	serveCmd.Flags().StringVarP(&serveAddr, "listen", "l", "", "proxy listen address")
	serveCmd.Flags().StringVarP(&serveDashAddr, "dashboard", "d", "", "dashboard listen address")
	serveCmd.Flags().StringVarP(&serveDatabase, "database", "b", "", "SQLite database path")
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveUpstream != "" {
		cfg.Upstream = serveUpstream
	}
	if serveAddr != "" {
		cfg.ProxyAddr = serveAddr
	}
	if serveDashAddr != "" {
		cfg.DashboardAddr = serveDashAddr
	}
	if serveDatabase != "" {
		cfg.Database = serveDatabase
	}
	if cfg.Upstream == "" {
		return fmt.Errorf("no upstream configured; use --upstream or the config file")
	}

	store, err := audit.NewSQLiteStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening log store: %w", err)
	}
	defer store.Close()

	upstream, err := proxy.New(cfg.Upstream, logger)
	if err != nil {
		return err
	}

	resolver := principal.NewHeaderResolver(store, cfg.PrincipalHeader)
	interceptor := audit.NewInterceptor(store, resolver, cfg.ExcludedPaths, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	// Start dashboard in background
	dash := dashboard.NewServer(cfg.DashboardAddr, store, cfg.PageSize, cfg.RecentLimit, logger)
	go func() {
		if err := dash.ListenAndServe(ctx); err != nil {
			logger.Error("dashboard error", "error", err)
		}
	}()

	logger.Info("starting serve mode",
		"upstream", upstream.Target(),
		"proxy", cfg.ProxyAddr,
		"dashboard", cfg.DashboardAddr,
	)

	// Proxy blocks until shutdown
	return proxy.ListenAndServe(ctx, cfg.ProxyAddr, interceptor.Wrap(upstream), logger)
}
