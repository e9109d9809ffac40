package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lienwatch/internal/lookup"
	"lienwatch/internal/models"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup \"street, city, state zip\"",
	Short: "Look up a single property address",
	Long: `Query the enrichment sources for one address and print whatever they
return as JSON. Useful for checking selectors and fetch strategies
against a live page.`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)

	lookupCmd.Flags().String("source", "both", "enrichment source: zillow, dealio, both")
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	addr := parseAddressArg(args[0])
	if addr.IsEmpty() {
		return fmt.Errorf("address needs at least a street: %q", args[0])
	}

	source, _ := cmd.Flags().GetString("source")

	ctx, cancel := signalContext()
	defer cancel()

	out := map[string]any{"address": addr.FullAddress()}

	if source == "zillow" || source == "both" {
		f, err := newFetcher(cfg)
		if err != nil {
			return err
		}
		z := lookup.NewZillow(f, cfg.ZillowURL)
		listing, err := z.LookupOne(ctx, addr)
		z.Close()
		if err != nil {
			return err
		}
		out["zillow"] = listing
	}

	if source == "dealio" || source == "both" {
		f, err := newFetcher(cfg)
		if err != nil {
			return err
		}
		d := lookup.NewDealio(f, cfg.DealioURL)
		deal, err := d.LookupOne(ctx, addr)
		d.Close()
		if err != nil {
			return err
		}
		out["dealio"] = deal
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// parseAddressArg splits a comma-separated address argument into its
// components. Missing components stay empty; the state defaults to the
// jurisdiction's when only street and city are given.
func parseAddressArg(s string) models.Address {
	addr := models.Address{State: models.DefaultState}
	parts := strings.Split(s, ",")

	addr.Street = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		addr.City = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		tail := strings.Fields(strings.TrimSpace(parts[2]))
		if len(tail) > 0 {
			addr.State = strings.ToUpper(tail[0])
		}
		if len(tail) > 1 {
			addr.ZipCode = tail[1]
		}
	}
	return addr
}
