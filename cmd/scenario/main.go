package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spac_dashboard/pkg/api/scenario"
	"spac_dashboard/pkg/core/config"
	"spac_dashboard/pkg/core/dealfile"
	"spac_dashboard/pkg/core/logging"
	"spac_dashboard/pkg/core/observability"
	"spac_dashboard/pkg/core/redemption"
	"spac_dashboard/pkg/core/report"
)

var (
	// Global flags
	verbose bool
	workers int

	// eval flags
	rateFlags []string
	gridFlag  string
	format    string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "scenario",
	Short: "SPAC redemption and dilution scenarios",
	Long: `scenario evaluates a SPAC business combination under different shareholder
redemption rates: cash delivered to the target, the minimum cash condition,
and the pro-forma ownership split.

Deal sheets may be YAML, Hjson or JSON.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = logging.New(level, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var evalCmd = &cobra.Command{
	Use:   "eval <deal-file>",
	Short: "Evaluate redemption scenarios for a deal sheet",
	Args:  cobra.ExactArgs(1),
	RunE:  runEval,
}

var maxViableCmd = &cobra.Command{
	Use:   "max-viable <deal-file>",
	Short: "Print the highest redemption rate that still meets the minimum cash condition",
	Args:  cobra.ExactArgs(1),
	RunE:  runMaxViable,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", config.Default().Engine.Workers, "Parallel scenario evaluations (1 = sequential)")
	rootCmd.PersistentFlags().StringVar(&gridFlag, "grid", "", "Rate grid as start:end:step, e.g. 0:100:5")

	evalCmd.Flags().StringArrayVar(&rateFlags, "rate", nil, "Redemption rate in percent (repeatable)")
	evalCmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json, markdown or html")

	rootCmd.AddCommand(evalCmd, maxViableCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runEval(cmd *cobra.Command, args []string) error {
	switch format {
	case "table", "json", "markdown", "html":
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	sheet, err := dealfile.Load(args[0])
	if err != nil {
		return err
	}
	res, err := evaluate(sheet)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	title := sheetTitle(sheet)
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "markdown":
		_, err = fmt.Fprint(out, report.Markdown(title, sheet.Inputs, res.Scenarios, res.Summary))
		return err
	case "html":
		html, err := report.HTML(title, sheet.Inputs, res.Scenarios, res.Summary)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, html)
		return err
	default:
		return writeTable(out, res)
	}
}

func runMaxViable(cmd *cobra.Command, args []string) error {
	sheet, err := dealfile.Load(args[0])
	if err != nil {
		return err
	}
	// A grid gives a finer answer than the standard rates.
	if len(sheet.Rates) == 0 && sheet.Grid == nil && gridFlag == "" {
		g := redemption.DefaultGrid
		sheet.Grid = &g
	}
	res, err := evaluate(sheet)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !res.Summary.MaxViableRate.Valid {
		_, err = fmt.Fprintln(out, "none viable")
		return err
	}
	_, err = fmt.Fprintf(out, "%s%%\n", res.Summary.MaxViableRate.Decimal.String())
	return err
}

// evaluate runs the rates or grid from flags, falling back to the sheet and then to the
// standard rates.
func evaluate(sheet *dealfile.Sheet) (*scenario.Result, error) {
	rates := sheet.Rates
	grid := sheet.Grid

	if len(rateFlags) > 0 || gridFlag != "" {
		if len(rateFlags) > 0 && gridFlag != "" {
			return nil, fmt.Errorf("--rate and --grid are mutually exclusive")
		}
		rates, grid = nil, nil
		for _, raw := range rateFlags {
			r, err := decimal.NewFromString(strings.TrimSuffix(raw, "%"))
			if err != nil {
				return nil, fmt.Errorf("invalid --rate %q: %w", raw, err)
			}
			rates = append(rates, r)
		}
		if gridFlag != "" {
			g, err := parseGrid(gridFlag)
			if err != nil {
				return nil, err
			}
			grid = &g
		}
	}

	engine := config.Default().Engine
	engine.Workers = workers
	runner := scenario.NewRunner(engine, nil)

	logger.Debug("evaluating deal sheet",
		zap.String("ticker", sheet.Ticker),
		zap.Int("rates", len(rates)),
		zap.Bool("grid", grid != nil),
		zap.Int("workers", workers))

	if grid != nil {
		return runner.GridScenarios(sheet.Inputs, grid, observability.ModeGrid)
	}
	return runner.Rates(sheet.Inputs, rates)
}

// parseGrid reads start:end:step.
func parseGrid(s string) (redemption.GridSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return redemption.GridSpec{}, fmt.Errorf("invalid --grid %q: want start:end:step", s)
	}
	var vals [3]decimal.Decimal
	for i, p := range parts {
		d, err := decimal.NewFromString(strings.TrimSpace(p))
		if err != nil {
			return redemption.GridSpec{}, fmt.Errorf("invalid --grid %q: %w", s, err)
		}
		vals[i] = d
	}
	g := redemption.GridSpec{Start: vals[0], End: vals[1], Step: vals[2]}
	return g, g.Validate()
}

func sheetTitle(sheet *dealfile.Sheet) string {
	switch {
	case sheet.Name != "" && sheet.Ticker != "":
		return fmt.Sprintf("%s (%s) redemption scenarios", sheet.Name, sheet.Ticker)
	case sheet.Ticker != "":
		return sheet.Ticker + " redemption scenarios"
	default:
		return "Redemption scenarios"
	}
}

func writeTable(out io.Writer, res *scenario.Result) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "RATE %\tREDEEMED\tCASH FROM TRUST\tTOTAL CASH\tPRO-FORMA\tPUBLIC %\tSPONSOR %\tPIPE %\tTARGET %\tMIN CASH\t")
	for _, s := range res.Scenarios {
		status := "met"
		if !s.MeetsMinimumCash {
			status = "short " + s.CashShortfall.StringFixed(0)
		}
		if s.IsDegenerate() {
			status = "degenerate"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			s.RedemptionRatePercent.String(),
			s.SharesRedeemed,
			s.CashFromTrust.StringFixed(2),
			s.TotalCashAvailable.StringFixed(2),
			s.ProFormaShares.StringFixed(0),
			pct(s.PublicOwnershipPercent),
			pct(s.SponsorOwnershipPercent),
			pct(s.PIPEOwnershipPercent),
			pct(s.TargetOwnershipPercent),
			status,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	viable := "none viable"
	if res.Summary.MaxViableRate.Valid {
		viable = res.Summary.MaxViableRate.Decimal.String() + "%"
	}
	_, err := fmt.Fprintf(out, "\nmax viable redemption rate: %s\n", viable)
	return err
}

func pct(p decimal.NullDecimal) string {
	if !p.Valid {
		return "n/a"
	}
	return p.Decimal.StringFixed(2)
}
