package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"voteaudit/adapters/ectjson"
	"voteaudit/adapters/excel"
	"voteaudit/app"
	"voteaudit/domain/election"
	"voteaudit/internal/benford"
	"voteaudit/internal/config"
	"voteaudit/internal/container"
	"voteaudit/internal/migration"
	"voteaudit/internal/testkit"
	"voteaudit/ports"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "voteaudit",
		Short:         "Statistical anomaly screening for constituency election results",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults plus VOTEAUDIT_* env when empty)")

	loadConfig := func() (*config.Config, error) {
		return config.Load(configPath)
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(loadConfig),
		newBenfordCmd(loadConfig),
		newGenerateCmd(),
		newMigrateCmd(loadConfig),
	)
	return rootCmd
}

type configLoader func() (*config.Config, error)

// sourceOptions selects and configures a UnitSource.
type sourceOptions struct {
	input     string
	format    string
	provinces string
	parties   string
	candSheet string
}

func (o *sourceOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.input, "input", "i", "", "unit file or ECT stats URL")
	cmd.Flags().StringVar(&o.format, "format", "", "json | xlsx | csv | ect (default: from extension)")
	cmd.Flags().StringVar(&o.provinces, "provinces", "", "ECT province lookup (file or URL), format ect only")
	cmd.Flags().StringVar(&o.parties, "parties", "", "ECT party lookup (file or URL), format ect only")
	cmd.Flags().StringVar(&o.candSheet, "candidates", "", "candidate CSV for a csv unit file")
	_ = cmd.MarkFlagRequired("input")
}

func (o *sourceOptions) source() (ports.UnitSource, error) {
	format := strings.ToLower(o.format)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(o.input)), ".")
	}

	switch format {
	case "json":
		return ectjson.NewFileSource(o.input), nil
	case "xlsx", "csv":
		cfg := excel.DefaultExcelConfig(o.input)
		cfg.CandidatesPath = o.candSheet
		return excel.NewUnitSource(cfg), nil
	case "ect":
		return ectjson.NewStatsSource(ectjson.StatsConfig{
			Stats:     o.input,
			Provinces: o.provinces,
			Parties:   o.parties,
		}), nil
	}
	return nil, fmt.Errorf("unknown input format %q (want json, xlsx, csv or ect)", format)
}

func newAnalyzeCmd(loadConfig configLoader) *cobra.Command {
	var (
		src     sourceOptions
		out     string
		htmlOut string
		summary bool
		store   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run every detector over a unit collection and write the anomaly report",
		Long: `Run every detector over a unit collection and write the anomaly report.

Example: voteaudit analyze --input election_data.json --out report.json --html summary.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			source, err := src.source()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			if store {
				if err := c.InitWithDatabase(ctx); err != nil {
					return err
				}
			}

			report, err := c.Audit.AnalyzeSource(ctx, source)
			if err != nil {
				return err
			}

			if htmlOut != "" {
				if err := os.WriteFile(htmlOut, app.RenderSummaryHTML(report), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", htmlOut, err)
				}
			}
			if summary {
				_, err := io.WriteString(cmd.OutOrStdout(), app.RenderSummary(report))
				if out == "" {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), out, report)
		},
	}

	src.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "report JSON path (stdout when empty)")
	cmd.Flags().StringVar(&htmlOut, "html", "", "also write an HTML summary to this path")
	cmd.Flags().BoolVar(&summary, "summary", false, "print a Markdown summary instead of JSON on stdout")
	cmd.Flags().BoolVar(&store, "store", false, "persist the report to the configured database")
	return cmd
}

func writeJSON(stdout io.Writer, path string, v any) error {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newBenfordCmd(loadConfig configLoader) *cobra.Command {
	var src sourceOptions

	cmd := &cobra.Command{
		Use:   "benford",
		Short: "Test candidate vote counts against Benford's first-digit law",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			source, err := src.source()
			if err != nil {
				return err
			}
			units, err := source.LoadUnits(cmd.Context())
			if err != nil {
				return err
			}
			if err := election.Validate(units); err != nil {
				return err
			}

			result := benford.NewTester(cfg.Analysis.Thresholds).AnalyzeUnits(units)
			out := cmd.OutOrStdout()
			if !result.Valid {
				fmt.Fprintf(out, "not tested: %s\n", result.Reason)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "digit\tobserved\tobserved %\texpected %\tdeviation\t")
			for _, d := range result.Digits {
				fmt.Fprintf(tw, "%d\t%d\t%.2f\t%.2f\t%+.2f\t\n", d.Digit, d.ObservedCount, d.ObservedPct, d.ExpectedPct, d.Deviation)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nn=%d chi2=%.3f p=%.6f verdict=%s\n%s\n",
				result.SampleSize, result.Summary.ChiSquare, result.Summary.PValue, result.Summary.Verdict, result.Interpretation)
			return nil
		},
	}
	src.register(cmd)
	return cmd
}

func newGenerateCmd() *cobra.Command {
	gen := testkit.DefaultElectionConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a deterministic synthetic election (.json, .xlsx or .csv)",
		Long: `Write a deterministic synthetic election.

Example: voteaudit generate --provinces 77 --per-province 5 --anomalous 4 --out demo.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := testkit.NewElectionGenerator(gen).Generate()
			if err != nil {
				return err
			}

			switch strings.ToLower(filepath.Ext(out)) {
			case ".json":
				err = ectjson.WriteFile(out, units)
			case ".xlsx", ".csv":
				err = excel.WriteUnits(out, units)
			default:
				return fmt.Errorf("--out must end in .json, .xlsx or .csv")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d units to %s\n", len(units), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "election_data.json", "output path")
	cmd.Flags().IntVar(&gen.Provinces, "provinces", gen.Provinces, "number of provinces")
	cmd.Flags().IntVar(&gen.UnitsPerProvince, "per-province", gen.UnitsPerProvince, "constituencies per province")
	cmd.Flags().IntVar(&gen.CandidatesPerUnit, "candidates", gen.CandidatesPerUnit, "candidates per constituency")
	cmd.Flags().IntVar(&gen.AnomalousUnits, "anomalous", gen.AnomalousUnits, "units with implausible turnout and invalid rates")
	cmd.Flags().IntVar(&gen.MismatchUnits, "mismatch", gen.MismatchUnits, "units whose turnout arithmetic does not add up")
	cmd.Flags().Int64Var(&gen.Seed, "seed", gen.Seed, "random seed")
	return cmd
}

func newMigrateCmd(loadConfig configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the report store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled() {
				return fmt.Errorf("no database configured (set DATABASE_URL)")
			}

			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			// InitWithDatabase runs the migration
			if err := c.InitWithDatabase(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %s applied (%s)\n", migration.NewRunner().Version(), cfg.Database.Driver)
			return nil
		},
	}
}
