// Package commands implements the CLI commands for lienwatch.
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lienwatch/internal/config"
	"lienwatch/internal/fetch"
	"lienwatch/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "lienwatch",
	Short: "Foreclosure case scraper with property enrichment",
	Long: `Lienwatch scrapes foreclosure cases from the county court roster and
enriches each property with valuation and deal data from real-estate
sites.

Examples:
  # Run the full pipeline and export to CSV
  lienwatch run -o foreclosures.csv

  # Scrape the roster only
  lienwatch roster -o cases.json

  # Look up a single address
  lienwatch lookup "123 Main St, Rock Hill, SC 29732"

  # Run every two weeks
  lienwatch schedule --immediate`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logger.Options{
			Debug: viper.GetBool("debug"),
			Quiet: viper.GetBool("quiet"),
		})
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.lienwatch.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().String("strategy", "", "fetch strategy: static, impersonate, browser, undetected")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("strategy", rootCmd.PersistentFlags().Lookup("strategy"))
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".lienwatch")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("LIENWATCH")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig builds the validated runtime config from viper state.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// fetchConfig maps runtime config onto the fetch layer's knobs.
func fetchConfig(cfg *config.Config) fetch.Config {
	return fetch.Config{
		UserAgents:        cfg.UserAgents,
		RequestsPerSecond: cfg.RequestsPerSecond,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		Timeout:           cfg.Timeout,
		PageLoadTimeout:   cfg.PageLoadTimeout,
		Headless:          cfg.Headless,
	}
}

// newFetcher builds one fetcher for the configured strategy. Each
// consumer gets its own instance so per-target rate limits stay
// independent.
func newFetcher(cfg *config.Config) (fetch.Fetcher, error) {
	return fetch.New(fetch.Strategy(cfg.Strategy), fetchConfig(cfg))
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
