package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"evdash/internal/config"
	"evdash/internal/dataset"
	"evdash/internal/infrastructure"
	"evdash/internal/report"
	"evdash/internal/services"
	"evdash/internal/session"
	"evdash/internal/snapshot"
	"evdash/pkg/contracts"
	"evdash/pkg/contracts/domain"
)

type rootOptions struct {
	configFile   string
	datasetsDir  string
	logLevel     string
	maker        string
	year         int
	category     string
	vehicleClass string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "evreport",
		Short:         "Offline EV sales reports",
		Long:          "Render the EV insights report from the dataset files without starting the dashboard server.",
		Version:       contracts.GetFullVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "config file (defaults to config.yaml discovery)")
	pf.StringVar(&opts.datasetsDir, "datasets-dir", "", "directory holding the five dataset files")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
	pf.StringVar(&opts.maker, "maker", domain.All, "EV maker filter")
	pf.IntVar(&opts.year, "year", 0, "year filter (defaults to the latest year)")
	pf.StringVar(&opts.category, "category", domain.All, "vehicle category filter")
	pf.StringVar(&opts.vehicleClass, "vehicle-class", domain.All, "vehicle class filter")

	cmd.AddCommand(
		newSummaryCmd(opts),
		newExportCmd(opts),
		newSnapshotCmd(opts),
	)
	return cmd
}

// filterRequest holds only the filter flags given on the command line.
func (o *rootOptions) filterRequest(cmd *cobra.Command) services.FilterRequest {
	var req services.FilterRequest
	flags := cmd.Flags()
	if flags.Changed("maker") {
		req.Maker = &o.maker
	}
	if flags.Changed("year") {
		req.Year = &o.year
	}
	if flags.Changed("category") {
		req.Category = &o.category
	}
	if flags.Changed("vehicle-class") {
		req.VehicleClass = &o.vehicleClass
	}
	return req
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.datasetsDir != "" {
		cfg.Datasets.Dir = o.datasetsDir
	}
	cfg.Logging.Level = o.logLevel
	return cfg, nil
}

// reportSession loads the datasets and opens a dashboard session with the
// flag filters applied. Any filter flag shows the filters first.
func (o *rootOptions) reportSession(ctx context.Context, cmd *cobra.Command) (*services.DashboardService, string, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, "", err
	}
	logger := infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())

	data, err := dataset.LoadDataset(cfg.Datasets.Sources(), logger)
	if err != nil {
		return nil, "", err
	}

	store := session.NewStore(session.Options{TTL: time.Hour}, logger, nil)
	svc := services.NewDashboardService(report.NewPipeline(data, logger, nil), store, logger, nil)
	id, _, _ := svc.Session(ctx, "")

	req := o.filterRequest(cmd)
	if req.Empty() {
		return svc, id, nil
	}
	if _, err := svc.Toggle(ctx, id); err != nil {
		return nil, "", err
	}
	if _, err := svc.UpdateFilters(ctx, id, req); err != nil {
		return nil, "", err
	}
	logger.DebugContext(ctx, "filters applied", slog.String("session_id", id))
	return svc, id, nil
}

func newSummaryCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the report for the selected filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, id, err := root.reportSession(ctx, cmd)
			if err != nil {
				return err
			}
			rep, err := svc.Report(ctx, id)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			return writeSummary(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	return cmd
}

func newExportCmd(root *rootOptions) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered sales table as CSV or the full report as XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ef := services.ExportFormat(format)
			if ef != services.ExportCSV && ef != services.ExportXLSX {
				return fmt.Errorf("%w: %s", services.ErrUnknownExport, format)
			}
			if output == "" {
				output = defaultExportName(ef)
			}

			ctx := cmd.Context()
			svc, id, err := root.reportSession(ctx, cmd)
			if err != nil {
				return err
			}

			if output == "-" {
				return svc.Export(ctx, id, ef, cmd.OutOrStdout())
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := svc.Export(ctx, id, ef, f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(services.ExportCSV), "csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout")
	return cmd
}

func newSnapshotCmd(root *rootOptions) *cobra.Command {
	var (
		baseURL   string
		output    string
		timeout   time.Duration
		landscape bool
		chrome    string
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print a running dashboard to PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := root.filterRequest(cmd)
			target, err := snapshot.PageURL(baseURL, filterQuery(req))
			if err != nil {
				return err
			}

			logger := infrastructure.NewLogger(config.LoggingConfig{Level: root.logLevel}, cmd.ErrOrStderr())
			capturer := snapshot.New(snapshot.Options{
				Timeout:     timeout,
				Settle:      snapshot.DefaultSettle,
				Landscape:   landscape,
				ExecPath:    chrome,
				ShowFilters: !req.Empty(),
			}, logger)

			pdf, err := capturer.PDF(cmd.Context(), target)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, pdf, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", output, len(pdf))
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "dashboard address")
	cmd.Flags().StringVarP(&output, "output", "o", "ev_dashboard.pdf", "PDF file")
	cmd.Flags().DurationVar(&timeout, "timeout", snapshot.DefaultTimeout, "capture timeout")
	cmd.Flags().BoolVar(&landscape, "landscape", true, "landscape pages")
	cmd.Flags().StringVar(&chrome, "chrome", "", "Chrome executable")
	return cmd
}

func defaultExportName(format services.ExportFormat) string {
	if format == services.ExportXLSX {
		return "ev_report.xlsx"
	}
	return "ev_sales.csv"
}

// filterQuery encodes req the way the dashboard filter form submits it.
func filterQuery(req services.FilterRequest) url.Values {
	q := url.Values{}
	if req.Maker != nil {
		q.Set("maker", *req.Maker)
	}
	if req.Year != nil {
		q.Set("year", strconv.Itoa(*req.Year))
	}
	if req.Category != nil {
		q.Set("category", *req.Category)
	}
	if req.VehicleClass != nil {
		q.Set("vehicle_class", *req.VehicleClass)
	}
	return q
}

func writeSummary(w io.Writer, rep *domain.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	f := rep.Filters

	fmt.Fprintf(tw, "%s\n", rep.Title)
	fmt.Fprintf(tw, "Filters:\t%s\n", rep.Mode)
	fmt.Fprintf(tw, "Maker:\t%s\n", f.Maker)
	fmt.Fprintf(tw, "Year:\t%d\n", rep.Year)
	fmt.Fprintf(tw, "Category:\t%s\n", f.Category)
	fmt.Fprintf(tw, "Vehicle class:\t%s\n", f.VehicleClass)
	fmt.Fprintf(tw, "Rows:\t%d\n", len(rep.Table))

	fmt.Fprintf(tw, "\nTotal sales by year\n")
	for _, t := range rep.Views.TotalsByYear {
		fmt.Fprintf(tw, "  %d\t%s\n", t.Year, number(t.Sales))
	}

	fmt.Fprintf(tw, "\nTop makers\n")
	for i, g := range rep.Views.TopMakers {
		fmt.Fprintf(tw, "  %d. %s\t%s\n", i+1, g.Key, number(g.Sales))
	}

	fmt.Fprintf(tw, "\nMarket share\n")
	for _, s := range rep.Views.MarketShare {
		fmt.Fprintf(tw, "  %s\t%.1f%%\n", s.Maker, s.Share*100)
	}

	fmt.Fprintf(tw, "\nYear-over-year growth\n")
	if len(rep.Views.Growth) == 0 {
		fmt.Fprintf(tw, "  none\n")
	}
	for _, g := range rep.Views.Growth {
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%+.1f%%\n", g.Maker, g.Category, g.Year, g.Growth)
	}
	return tw.Flush()
}

func number(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
