package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"MacroLens/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the configured instrument categories",
	RunE:  runCatalog,
}

var catalogFormat string

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().StringVar(&catalogFormat, "format", "table", "Output format: table, json")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cats := catalog.New(cfg.Catalog).Categories()

	out := cmd.OutOrStdout()
	if catalogFormat == "json" {
		return writeJSON(out, cats)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tSYMBOLS")
	for _, c := range cats {
		fmt.Fprintf(w, "%s\t%s\n", c.Name, strings.Join(c.Symbols, ", "))
	}
	return w.Flush()
}
