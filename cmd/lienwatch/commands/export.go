package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"lienwatch/internal/export"
	"lienwatch/internal/logger"
	"lienwatch/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored records to a file",
	Long: `Write every record in the database to a file. The format is taken
from --format or inferred from the output extension.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	flags := exportCmd.Flags()
	flags.StringP("output", "o", "", "output file (required)")
	flags.String("format", "", "export format: csv, json, jsonl, yaml, xlsx")
	_ = exportCmd.MarkFlagRequired("output")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	formatName, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatName, output)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	recs, err := db.All()
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("no records in %s; run the pipeline first", cfg.DatabasePath)
	}

	if err := export.ToFile(output, format, recs); err != nil {
		return err
	}
	logger.Info("exported records", "path", output, "format", format, "records", len(recs))
	return nil
}
