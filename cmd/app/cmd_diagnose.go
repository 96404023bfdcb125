package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"MacroLens/internal/di"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose SYMBOL",
	Short: "Show the raw provider response for one symbol",
	Long: `Fetch one symbol and print the frame shape, its column labels, the first
rows and which resolution strategy picks the price column.

Example:
  macrolens diagnose CL=F --start 2024-01-01 --end 2024-02-01`,
	Args: cobra.ExactArgs(1),
	RunE: runDiagnose,
}

var diagnoseStart, diagnoseEnd string

func init() {
	rootCmd.AddCommand(diagnoseCmd)
	diagnoseCmd.Flags().StringVar(&diagnoseStart, "start", "", "Start date YYYY-MM-DD (default 30 days before end)")
	diagnoseCmd.Flags().StringVar(&diagnoseEnd, "end", "", "End date YYYY-MM-DD, exclusive (default tomorrow)")
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tk, cleanup, err := di.InitializeToolkit(cfg)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer cleanup()

	start, end, err := parseRange(diagnoseStart, diagnoseEnd, 30)
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), tk.Adapter.Diagnose(cmd.Context(), args[0], start, end))
}
