package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"MacroLens/internal/catalog"
	"MacroLens/internal/di"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Copy cleaned Yahoo closes into the ClickHouse price table",
	Long: `Fetch the selected symbols from Yahoo, clean them and store the closes in
the ClickHouse table named by provider.table, so provider.source: clickhouse
can serve them later.

Example:
  macrolens ingest --categories "US Bonds,Energy" --start 2015-01-01`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	addSelectionFlags(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	symbols, start, end, err := selection(catalog.New(cfg.Catalog))
	if err != nil {
		return err
	}

	ing, cleanup, err := di.InitializeIngester(cfg)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer cleanup()

	res, err := ing.Ingest(cmd.Context(), symbols, start, end)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), res)
}
