package commands

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"lienwatch/internal/logger"
	"lienwatch/internal/roster"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Scrape the court roster without enrichment",
	Long: `Scrape foreclosure cases from the county court roster and write them
as JSON, skipping the property enrichment stages.`,
	RunE: runRoster,
}

func init() {
	rootCmd.AddCommand(rosterCmd)

	flags := rosterCmd.Flags()
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.Bool("filter", false, "keep only rows with foreclosure markers")
	flags.Bool("details", false, "follow case detail links to fill missing fields")
	flags.Bool("dates", false, "list the available roster dates and exit")
}

func runRoster(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	scraper := roster.New(fetcher, cfg.CountyURL)
	defer scraper.Close()

	if filter, _ := cmd.Flags().GetBool("filter"); filter {
		scraper.FilterForeclosure = true
	}
	if details, _ := cmd.Flags().GetBool("details"); details {
		scraper.FollowDetails = true
	}

	if datesOnly, _ := cmd.Flags().GetBool("dates"); datesOnly {
		dates, err := scraper.AvailableDates(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(dates)
	}

	cases, err := scraper.Scrape(ctx)
	if err != nil {
		logger.Error("roster scrape failed", "error", err)
		return err
	}
	logger.Info("roster scrape complete", "cases", len(cases))

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(cases)
}
