package cmd

import (
	"fmt"
	"time"

	"forex-signal/config"
	"forex-signal/internal/schedule"
	"forex-signal/internal/service"
	"forex-signal/internal/strategy"

	"github.com/spf13/cobra"
)

var (
	nextCount int
	nextFrom  string
	checkAt   string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Inspect job schedules (UTC)",
}

var scheduleNextCmd = &cobra.Command{
	Use:   "next [job]",
	Short: "List upcoming firings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if nextCount < 1 {
			return fmt.Errorf("--count must be at least 1, got %d", nextCount)
		}
		sched, err := loadSchedule(args)
		if err != nil {
			return err
		}
		from, err := parseInstant(nextFrom)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schedule: %s\n", sched)
		for _, t := range sched.Upcoming(from, nextCount) {
			fmt.Fprintln(cmd.OutOrStdout(), t.Format(time.RFC3339))
		}
		return nil
	},
}

var scheduleCheckCmd = &cobra.Command{
	Use:   "check [job]",
	Short: "Report whether the job fires at the given minute",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sched, err := loadSchedule(args)
		if err != nil {
			return err
		}
		at, err := parseInstant(checkAt)
		if err != nil {
			return err
		}
		verdict := "skip"
		if sched.Matches(at) {
			verdict = "fire"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", at.UTC().Format(time.RFC3339), verdict)
		return nil
	},
}

func init() {
	scheduleNextCmd.Flags().IntVar(&nextCount, "count", 5, "number of firings to list")
	scheduleNextCmd.Flags().StringVar(&nextFrom, "from", "", "start instant, RFC3339 (default now)")
	scheduleCheckCmd.Flags().StringVar(&checkAt, "at", "", "instant to check, RFC3339 (default now)")
	scheduleCmd.AddCommand(scheduleNextCmd)
	scheduleCmd.AddCommand(scheduleCheckCmd)
}

func loadSchedule(args []string) (*schedule.Schedule, error) {
	jobType := strategy.JobTypeForexSignal
	if len(args) == 1 {
		jobType = strategy.JobType(args[0])
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	_, exprs := service.JobSettings(cfg, jobType)
	if exprs == nil {
		return nil, fmt.Errorf("%w: %s", service.ErrJobNotFound, jobType)
	}
	return schedule.Parse(exprs...)
}

func parseInstant(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid instant %q: %w", value, err)
	}
	return t, nil
}
