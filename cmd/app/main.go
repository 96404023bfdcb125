package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"MacroLens/internal/di"
	"MacroLens/pkg/config"
)

var configPath string

// rootCmd is the base command for the MacroLens CLI
var rootCmd = &cobra.Command{
	Use:   "macrolens",
	Short: "MacroLens cross-asset macro analytics",
	Long: `MacroLens loads daily closes for ETFs, futures, indices and currencies,
aligns them on a shared calendar and computes risk/return metrics, return
anomalies and volatility regimes.`,
	SilenceUsage: true,
}

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analytics HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer cleanup()

	// Run application (blocks until signal)
	return app.Run(context.Background())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
