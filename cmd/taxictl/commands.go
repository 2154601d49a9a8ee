package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbanmobility/taxi-backend-go/internal/cleaning"
	"github.com/urbanmobility/taxi-backend-go/internal/config"
	"github.com/urbanmobility/taxi-backend-go/internal/database"
	"github.com/urbanmobility/taxi-backend-go/internal/dataset"
	"github.com/urbanmobility/taxi-backend-go/internal/quality"
	"github.com/urbanmobility/taxi-backend-go/internal/repository"
	"github.com/urbanmobility/taxi-backend-go/internal/service"
)

// pathFlags override the batch file locations from configuration
type pathFlags struct {
	raw     string
	cleaned string
	log     string
}

func (p pathFlags) resolve(cfg *config.Config) service.IngestPaths {
	return service.IngestPaths{
		Raw:     firstNonEmpty(p.raw, cfg.Pipeline.RawPath),
		Cleaned: firstNonEmpty(p.cleaned, cfg.Pipeline.CleanedPath),
		Log:     firstNonEmpty(p.log, cfg.Pipeline.LogPath),
	}
}

func profileCmd(opts *globalOptions) *cobra.Command {
	var paths pathFlags

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Report data quality issues in a raw trip feed",
		Long: `Profile a raw trip feed without modifying it.

Reports missing values per column, duplicates, duration and passenger
anomalies, coordinates outside the service area, vendor and flag
distributions and the IQR duration outlier count.

Examples:
  taxictl profile --raw data/train.csv
  taxictl profile --raw data/train.csv -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.setup()
			if err != nil {
				return err
			}
			policy, err := cfg.Pipeline.CleaningPolicy()
			if err != nil {
				return err
			}

			records, err := dataset.ReadRawFile(paths.resolve(cfg).Raw)
			if err != nil {
				return err
			}
			return quality.WriteReport(cmd.OutOrStdout(), opts.output, quality.ProfileRaw(records, policy))
		},
	}

	cmd.Flags().StringVar(&paths.raw, "raw", "", "Raw trip CSV (default from config)")
	return cmd
}

func cleanCmd(opts *globalOptions) *cobra.Command {
	var paths pathFlags

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean a raw trip feed into an enriched CSV and a cleaning log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			svc, err := newIngestService(cfg, nil, logger)
			if err != nil {
				return err
			}
			_, report, err := svc.Clean(paths.resolve(cfg))
			if err != nil {
				return err
			}
			return quality.WriteReport(cmd.OutOrStdout(), opts.output, report)
		},
	}

	cmd.Flags().StringVar(&paths.raw, "raw", "", "Raw trip CSV (default from config)")
	cmd.Flags().StringVar(&paths.cleaned, "cleaned", "", "Cleaned CSV to write (default from config)")
	cmd.Flags().StringVar(&paths.log, "log", "", "Cleaning log to write (default from config)")
	return cmd
}

func loadCmd(opts *globalOptions) *cobra.Command {
	var paths pathFlags

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Replace the stored trips with a cleaned CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := newIngestService(cfg, db, logger)
			if err != nil {
				return err
			}
			n, err := svc.LoadFile(cmd.Context(), paths.resolve(cfg).Cleaned)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d trips\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&paths.cleaned, "cleaned", "", "Cleaned CSV to load (default from config)")
	return cmd
}

func verifyCmd(opts *globalOptions) *cobra.Command {
	var paths pathFlags

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a cleaned CSV against the cleaning rules",
		Long: `Verify a cleaned CSV.

Reports missing values, value ranges, summary statistics and category
distributions, and recomputes every derived column. Exits non-zero when
any record breaks a rule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.setup()
			if err != nil {
				return err
			}
			policy, err := cfg.Pipeline.CleaningPolicy()
			if err != nil {
				return err
			}

			records, err := dataset.ReadCleanFile(paths.resolve(cfg).Cleaned)
			if err != nil {
				return err
			}
			v := quality.Verify(records, policy)
			if err := quality.WriteReport(cmd.OutOrStdout(), opts.output, v); err != nil {
				return err
			}
			if !v.OK() {
				return fmt.Errorf("%d rule violations in %d records", len(v.Violations), v.Rows)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&paths.cleaned, "cleaned", "", "Cleaned CSV to verify (default from config)")
	return cmd
}

func runCmd(opts *globalOptions) *cobra.Command {
	var paths pathFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Clean a raw feed, write both output files and load the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := newIngestService(cfg, db, logger)
			if err != nil {
				return err
			}
			report, err := svc.Run(cmd.Context(), paths.resolve(cfg))
			if err != nil {
				return err
			}
			return quality.WriteReport(cmd.OutOrStdout(), opts.output, report)
		},
	}

	cmd.Flags().StringVar(&paths.raw, "raw", "", "Raw trip CSV (default from config)")
	cmd.Flags().StringVar(&paths.cleaned, "cleaned", "", "Cleaned CSV to write (default from config)")
	cmd.Flags().StringVar(&paths.log, "log", "", "Cleaning log to write (default from config)")
	return cmd
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// newIngestService wires the pipeline to the store. db may be nil for
// file-only commands.
func newIngestService(cfg *config.Config, db *database.DB, logger *zap.Logger) (*service.IngestService, error) {
	policy, err := cfg.Pipeline.CleaningPolicy()
	if err != nil {
		return nil, err
	}
	pipeline := cleaning.NewPipeline(policy, logger)
	if db == nil {
		return service.NewIngestService(pipeline, nil, logger), nil
	}
	return service.NewIngestService(pipeline,
		repository.NewTripLoader(db, cfg.Pipeline.BatchSize, logger),
		logger,
	), nil
}
