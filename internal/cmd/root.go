package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matthieukhl/pocketpos/internal/analytics"
	"github.com/matthieukhl/pocketpos/internal/config"
	"github.com/matthieukhl/pocketpos/internal/database"
	"github.com/matthieukhl/pocketpos/internal/inventory"
	"github.com/matthieukhl/pocketpos/internal/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pos",
	Short: "PocketPOS - offline-first point of sale",
	Long: `PocketPOS keeps a small shop's products and sales in a local SQLite
store, computes its daily dashboard, and mirrors everything to a remote
store whenever the network is available.

Run it as a server for the HTTP API, or use the CLI commands to set up
the store, seed demo data, print reports and push a sync by hand.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./deploy/config.yaml, ./config.yaml, ...)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadConfigFile(cfgFile)
	}
	return config.LoadConfig()
}

// app holds what every command needs: configuration, a logger and an
// open local store with its schema in place
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *database.DB
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.Init(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	db, err := database.NewConnection(&cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) Close() {
	a.db.Close()
	_ = a.log.Sync()
}

func (a *app) analytics(products *inventory.Store) (*analytics.Engine, error) {
	loc, err := a.cfg.Analytics.Location()
	if err != nil {
		return nil, err
	}
	return analytics.NewEngine(a.db, products,
		analytics.WithLocation(loc),
		analytics.WithLowStockThreshold(a.cfg.Sales.LowStockThreshold)), nil
}
