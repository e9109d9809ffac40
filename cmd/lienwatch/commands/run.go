package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lienwatch/internal/config"
	"lienwatch/internal/export"
	"lienwatch/internal/logger"
	"lienwatch/internal/lookup"
	"lienwatch/internal/models"
	"lienwatch/internal/pipeline"
	"lienwatch/internal/roster"
	"lienwatch/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full scrape and enrichment pipeline",
	Long: `Scrape the county court roster, enrich every property address from
the valuation and deals sources, persist the joined records, and
optionally export them to a file.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringP("output", "o", "", "export file (default: no file export)")
	flags.String("format", "", "export format: csv, json, jsonl, yaml, xlsx (default: from output extension)")
	flags.Bool("no-zillow", false, "skip valuation enrichment")
	flags.Bool("no-dealio", false, "skip deal enrichment")
	flags.Bool("no-store", false, "skip database storage")

	_ = viper.BindPFlag("export_path", flags.Lookup("output"))
	_ = viper.BindPFlag("export_format", flags.Lookup("format"))
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	p, cleanup, err := buildPipeline(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := p.Run(ctx)
	if err != nil {
		logger.Error("pipeline failed", "error", err)
		return err
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		format, err := export.ParseFormat(cfg.ExportFormat, output)
		if err != nil {
			return err
		}
		flat := make([]models.FlatRecord, len(result.Records))
		for i, rec := range result.Records {
			flat[i] = rec.Flatten()
		}
		if err := export.ToFile(output, format, flat); err != nil {
			return err
		}
		logger.Info("exported records", "path", output, "format", format, "records", len(flat))
	}

	return nil
}

// buildPipeline wires the configured stages. The returned cleanup
// releases every fetcher and the database handle.
func buildPipeline(cmd *cobra.Command, cfg *config.Config) (*pipeline.Pipeline, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Debug("cleanup error", "error", err)
			}
		}
	}

	rosterFetcher, err := newFetcher(cfg)
	if err != nil {
		return nil, nil, err
	}
	rosterScraper := roster.New(rosterFetcher, cfg.CountyURL)
	closers = append(closers, rosterScraper.Close)

	p := &pipeline.Pipeline{
		Roster:        rosterScraper,
		MaxConcurrent: cfg.MaxConcurrent,
		TargetZips:    cfg.TargetZips,
	}

	if skip, _ := cmd.Flags().GetBool("no-zillow"); !skip {
		f, err := newFetcher(cfg)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		z := lookup.NewZillow(f, cfg.ZillowURL)
		closers = append(closers, z.Close)
		p.Zillow = z
	}

	if skip, _ := cmd.Flags().GetBool("no-dealio"); !skip {
		f, err := newFetcher(cfg)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		d := lookup.NewDealio(f, cfg.DealioURL)
		closers = append(closers, d.Close)
		p.Dealio = d
	}

	if skip, _ := cmd.Flags().GetBool("no-store"); !skip {
		db, err := store.Open(cfg.DatabasePath)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, db.Close)
		p.Store = db
	}

	return p, cleanup, nil
}
