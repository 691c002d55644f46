package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"forex-signal/config"
	"forex-signal/internal/model"
	"forex-signal/internal/repository"
	"forex-signal/internal/service"
	"forex-signal/internal/strategy"
	"forex-signal/pkg/common"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [job]",
	Short: "Run one scan now and exit (default forex_signal)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	jobType := strategy.JobTypeForexSignal
	if len(args) == 1 {
		jobType = strategy.JobType(args[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx, configPath)
	if err != nil {
		return err
	}
	defer appDep.Close()

	if err := validateScanSecrets(appDep.cfg, jobType); err != nil {
		return err
	}

	repo := repository.NewRepository(appDep.cfg, appDep.gormDB(), appDep.log)
	services, err := service.NewService(appDep.cfg, appDep.log, repo, appDep.cache, appDep.telegram)
	if err != nil {
		return err
	}

	execution, runErr := services.SchedulerService.RunJob(ctx, jobType, model.TriggerManual)
	if execution != nil {
		if err := renderExecution(cmd.OutOrStdout(), execution); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	if execution.ExitCode != nil && *execution.ExitCode == strategy.JOB_EXIT_CODE_FAILED {
		return fmt.Errorf("scan %s failed", jobType)
	}
	return nil
}

// validateScanSecrets only asks for the TwelveData key when the job uses it.
func validateScanSecrets(cfg *config.Config, jobType strategy.JobType) error {
	var missing []string
	for _, name := range cfg.MissingSecrets() {
		if name == common.ENV_TWELVEDATA_API_KEY && jobType != strategy.JobTypeForexSignal {
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
