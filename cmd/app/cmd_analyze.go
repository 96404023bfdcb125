package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"MacroLens/internal/catalog"
	"MacroLens/internal/di"
	"MacroLens/internal/domain/models"
	"MacroLens/internal/usecase"
	"MacroLens/pkg/util"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Load a panel and print metrics, anomalies and regimes",
	Long: `Load the selected symbols and categories over [start, end) and run every
analytics engine once.

Examples:
  macrolens analyze --categories "US Equities" --start 2024-01-01 --end 2025-01-01
  macrolens analyze --symbols SPY,TLT,GLD --format csv > metrics.csv
  macrolens analyze --symbols SPY --window 20 --threshold 3 --format json`,
	RunE: runAnalyze,
}

var (
	selSymbols    []string
	selCategories []string
	selStart      string
	selEnd        string

	analyzeWindow    int
	analyzeThreshold float64
	analyzeMode      string
	analyzeFormat    string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addSelectionFlags(analyzeCmd)

	analyzeCmd.Flags().IntVar(&analyzeWindow, "window", 0, "Rolling window in trading days (0 = configured default)")
	analyzeCmd.Flags().Float64Var(&analyzeThreshold, "threshold", 0, "Anomaly |z| threshold (0 = configured default)")
	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", "", "Also normalize prices: absolute, base100 or cumulative")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "table", "Output format: table, json, csv")
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&selSymbols, "symbols", nil, "Comma separated tickers")
	cmd.Flags().StringSliceVar(&selCategories, "categories", nil, "Comma separated catalog categories")
	cmd.Flags().StringVar(&selStart, "start", "", "Start date YYYY-MM-DD (default one year before end)")
	cmd.Flags().StringVar(&selEnd, "end", "", "End date YYYY-MM-DD, exclusive (default tomorrow)")
}

// selection resolves the symbol and date flags.
func selection(cat *catalog.Catalog) ([]string, time.Time, time.Time, error) {
	symbols, err := cat.Resolve(selCategories, selSymbols)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	start, end, err := parseRange(selStart, selEnd, 365)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	return symbols, start, end, nil
}

// parseRange reads --start/--end. A missing end means tomorrow so today's bar
// is included; a missing start means lookbackDays before end.
func parseRange(from, to string, lookbackDays int) (time.Time, time.Time, error) {
	_, end := util.TrailingRange(time.Now(), 0)
	if to != "" {
		t, ok := util.ParseTime(to)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end %q", to)
		}
		end = t
	}
	start := end.AddDate(0, 0, -lookbackDays)
	if from != "" {
		t, ok := util.ParseTime(from)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start %q", from)
		}
		start = t
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start=%s end=%s", usecase.ErrInvalidRange,
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return start, end, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	switch analyzeFormat {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("invalid --format %q: want table, json or csv", analyzeFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tk, cleanup, err := di.InitializeToolkit(cfg)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer cleanup()

	symbols, start, end, err := selection(tk.Catalog)
	if err != nil {
		return err
	}

	rep, err := tk.Analyzer.Analyze(cmd.Context(), usecase.AnalysisParams{
		Symbols:   symbols,
		Start:     start,
		End:       end,
		Window:    analyzeWindow,
		Threshold: analyzeThreshold,
		Mode:      models.NormalizeMode(analyzeMode),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch analyzeFormat {
	case "json":
		return writeJSON(out, rep)
	case "csv":
		return usecase.WriteMetricsCSV(out, rep.Metrics)
	default:
		return printReport(out, rep)
	}
}

func printReport(out io.Writer, rep *usecase.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tTOTAL%\tANN%\tVOL%\tSHARPE\tMAXDD%\tVAR95%\tCALMAR\tSKEW\tKURT\tOBS")
	for _, r := range rep.Metrics {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%d\n",
			r.Symbol, r.TotalReturn, r.AnnualizedReturn, r.Volatility, r.Sharpe,
			r.MaxDrawdown, r.VaR95, r.Calmar, r.Skewness, r.Kurtosis, r.Observations)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tREGIME\tANOMALIES")
	anomalies := map[string]int{}
	for _, a := range rep.Anomalies {
		anomalies[a.Symbol] = len(a.Anomalies)
	}
	for _, t := range rep.Regimes {
		fmt.Fprintf(w, "%s\t%s\t%d\n", t.Symbol, t.Current, anomalies[t.Symbol])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(rep.Load.Failures) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Failures:")
		for _, sym := range sortedKeys(rep.Load.Failures) {
			fmt.Fprintf(out, "  %s: %s\n", sym, rep.Load.Failures[sym])
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
