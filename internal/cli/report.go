package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/revaldyhazza/analisadolproperty/internal/config"
	"github.com/revaldyhazza/analisadolproperty/internal/dataprocessing"
	apperrors "github.com/revaldyhazza/analisadolproperty/internal/errors"
	"github.com/revaldyhazza/analisadolproperty/internal/exporter"
	"github.com/revaldyhazza/analisadolproperty/internal/infrastructure"
	"github.com/revaldyhazza/analisadolproperty/internal/services"
	"github.com/revaldyhazza/analisadolproperty/internal/validation"
	api "github.com/revaldyhazza/analisadolproperty/pkg/contracts/api/v1"
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

// reportOptions are the inputs of one offline report.
type reportOptions struct {
	Claims      string
	Outstanding string
	Query       api.QueryRequest
	Out         string
	BOM         bool
	JSON        bool
}

func newReportCommand(v *viper.Viper) *cobra.Command {
	var (
		opts               reportOptions
		monthMin, monthMax int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Reconcile two workbooks and print or export the summary",
		Long: `Report runs the analysis pipeline once over a claims register and an
outstanding claims register, without a server.

Example:
  analisadol report --claims klaim.xlsx --outstanding os.xlsx
  analisadol report --claims klaim.xlsx --outstanding os.xlsx --ranges ">12" --out late.xlsx
  analisadol report --claims klaim.xlsx --outstanding os.xlsx --dol-start 2023-01-01 --dol-end 2023-12-31 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !v.IsSet("log-level") {
				v.Set("log-level", "warn")
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("month-min") {
				opts.Query.MonthMin = &monthMin
			}
			if cmd.Flags().Changed("month-max") {
				opts.Query.MonthMax = &monthMax
			}

			logger := infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())
			return runReport(cmd.Context(), cfg, opts, cmd.OutOrStdout(), logger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Claims, "claims", "", "claims register workbook (klaim)")
	f.StringVar(&opts.Outstanding, "outstanding", "", "outstanding claims register workbook (os)")
	f.StringSliceVar(&opts.Query.Ranges, "ranges", nil, "claim age ranges to keep: 0-3, >3-6, >6-9, >9-12, >12")
	f.StringVar(&opts.Query.DOLStart, "dol-start", "", "first date of loss to keep (YYYY-MM-DD)")
	f.StringVar(&opts.Query.DOLEnd, "dol-end", "", "last date of loss to keep (YYYY-MM-DD)")
	f.IntVar(&monthMin, "month-min", 0, "lowest Bulan ke- to keep")
	f.IntVar(&monthMax, "month-max", 0, "highest Bulan ke- to keep")
	f.StringVar(&opts.Out, "out", "", "write the filtered rows to an .xlsx or .csv file")
	f.BoolVar(&opts.BOM, "bom", false, "prefix CSV output with a UTF-8 byte order mark")
	f.BoolVar(&opts.JSON, "json", false, "print the summary as JSON")
	_ = cmd.MarkFlagRequired("claims")
	_ = cmd.MarkFlagRequired("outstanding")
	return cmd
}

// reportResult is the JSON form of a report.
type reportResult struct {
	Claims          dataprocessing.PrepareStats `json:"claims"`
	Outstanding     dataprocessing.PrepareStats `json:"outstanding"`
	Reconcile       api.ReconcileSummary        `json:"reconcile"`
	RowsAfterFilter int                         `json:"rows_after_filter"`
	Warnings        []string                    `json:"warnings,omitempty"`
	Summary         *domain.Summary             `json:"summary"`
	Charts          []domain.ChartSpec          `json:"charts,omitempty"`
	Output          string                      `json:"output,omitempty"`
}

func runReport(ctx context.Context, cfg *config.Config, opts reportOptions, out io.Writer, logger *slog.Logger) error {
	params, err := services.FilterParams(opts.Query)
	if err != nil {
		return err
	}

	files := validation.NewFileValidator(logger)
	for _, path := range []string{opts.Claims, opts.Outstanding} {
		if err := files.ValidateWorkbook(path, cfg.Upload.MaxBytes); err != nil {
			switch {
			case errors.Is(err, validation.ErrFileTooLarge):
				return fmt.Errorf("%w: %w", services.ErrUploadTooLarge, err)
			case errors.Is(err, validation.ErrNotWorkbook), errors.Is(err, validation.ErrTempWorkbook):
				return fmt.Errorf("%w: %w", services.ErrUnsupportedFormat, err)
			}
			return err
		}
	}
	if opts.Out != "" {
		if err := files.ValidateOutputDirectory(filepath.Dir(opts.Out)); err != nil {
			return err
		}
	}

	pipeline := dataprocessing.NewPipeline(dataprocessing.DefaultPipelineOptions(), logger, nil)
	loader := dataprocessing.NewLoader(cfg.Cache.WorkbookTTL, logger)

	inputs := []struct {
		source domain.Source
		path   string
	}{
		{domain.SourceClaims, opts.Claims},
		{domain.SourceOutstanding, opts.Outstanding},
	}
	tables := make([]*dataprocessing.Table, len(inputs))
	stats := make([]dataprocessing.PrepareStats, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		g.Go(func() error {
			data, err := os.ReadFile(in.path)
			if err != nil {
				return fmt.Errorf("read %s workbook: %w", in.source, err)
			}
			raw, _, err := loader.Load(gctx, string(in.source), data)
			if err != nil {
				return err
			}
			tables[i], stats[i], err = pipeline.Prepare(gctx, in.source, raw)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	ds, err := pipeline.Build(ctx, tables[0], tables[1])
	if err != nil {
		return err
	}
	report, err := pipeline.Report(ctx, ds, params)
	if err != nil {
		return err
	}

	result := reportResult{
		Claims:      stats[0],
		Outstanding: stats[1],
		Reconcile: api.ReconcileSummary{
			ClaimsOnly:          ds.Reconcile.ClaimsOnly,
			OutstandingOnly:     ds.Reconcile.OutstandingOnly,
			Both:                ds.Reconcile.Both,
			MissingKeys:         ds.Reconcile.MissingKeys,
			SeparatorCollisions: ds.Reconcile.SeparatorCollisions,
			DroppedRows:         ds.Derive.DroppedRows,
			UnparsedDates:       ds.Derive.UnparsedDates,
			UnmappedCause:       ds.Derive.UnmappedCause,
		},
		RowsAfterFilter: report.Rows.Len(),
		Warnings:        report.Filter.Warnings,
		Summary:         report.Summary,
		Charts:          report.Charts,
	}

	if opts.Out != "" {
		if err := saveReport(opts.Out, opts.BOM, report); err != nil {
			return err
		}
		result.Output = opts.Out
	}

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return printReport(out, result)
}

func saveReport(path string, bom bool, report *dataprocessing.Report) error {
	var write func(io.Writer) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		write = func(w io.Writer) error {
			return exporter.WriteXLSX(w, report.Rows, report.Summary)
		}
	case ".csv":
		write = func(w io.Writer) error {
			return exporter.NewCSVWriter(exporter.CSVOptions{BOMPrefix: bom}).Write(w, report.Rows)
		}
	default:
		return fmt.Errorf("%w: output must end in .xlsx or .csv", services.ErrUnsupportedFormat)
	}

	if err := exporter.SaveFile(path, write); err != nil {
		return apperrors.NewExportError("write report", err).
			WithContext("path", path).
			WithContext("rows", report.Rows.Len())
	}
	return nil
}

func printReport(out io.Writer, r reportResult) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Claims (klaim)\t%d rows\t%d duplicates removed\n", r.Claims.RowsOut, r.Claims.Duplicates)
	fmt.Fprintf(tw, "Outstanding (os)\t%d rows\t%d duplicates removed\n", r.Outstanding.RowsOut, r.Outstanding.Duplicates)
	fmt.Fprintf(tw, "Reconcile\tklaim only %d\tos only %d\tboth %d\n",
		r.Reconcile.ClaimsOnly, r.Reconcile.OutstandingOnly, r.Reconcile.Both)
	fmt.Fprintf(tw, "Rows after filter\t%d\n", r.RowsAfterFilter)
	for _, w := range r.Warnings {
		fmt.Fprintf(tw, "Warning\t%s\n", w)
	}

	if r.Summary != nil && r.Summary.Rows > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Kategori\tJumlah")
		for _, c := range r.Summary.CategoryCounts {
			fmt.Fprintf(tw, "%s\t%d\n", c.Kategori, c.Jumlah)
		}

		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Range Klaim\tKategori Cause\tJumlah Klaim")
		for _, g := range r.Summary.GroupedCounts {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", g.Range, causeName(g.CauseCategory), g.Count)
		}
	}
	if r.Output != "" {
		fmt.Fprintf(tw, "\nWritten to\t%s\n", r.Output)
	}
	return tw.Flush()
}

func causeName(c *string) string {
	if c == nil {
		return exporter.UnclassifiedLabel
	}
	return *c
}
