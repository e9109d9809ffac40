package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"lienwatch/internal/logger"
	"lienwatch/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a fixed cadence",
	Long: `Run the full pipeline repeatedly on the configured interval until
interrupted. Each run rebuilds its fetch sessions so a crashed browser
in one run cannot poison the next.`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	flags := scheduleCmd.Flags()
	flags.Bool("immediate", false, "run once immediately instead of waiting for the first interval")
	flags.Int("days", 0, "override the configured interval in days")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if days, _ := cmd.Flags().GetInt("days"); days > 0 {
		cfg.ScheduleDays = days
	}

	ctx, cancel := signalContext()
	defer cancel()

	immediate, _ := cmd.Flags().GetBool("immediate")
	runner := &schedule.Runner{
		Interval:  cfg.ScheduleInterval(),
		Immediate: immediate,
	}
	logger.Info("scheduler starting", "interval", runner.Interval, "immediate", immediate)

	err = runner.Run(ctx, func(runCtx context.Context) error {
		p, cleanup, err := buildPipeline(cmd, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		_, err = p.Run(runCtx)
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
