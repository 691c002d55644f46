package cmd

import (
	"context"
	"errors"
	httpNet "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forex-signal/internal/delivery/http"
	"forex-signal/internal/repository"
	"forex-signal/internal/service"
	"forex-signal/pkg/logger"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the scheduler and the HTTP API until interrupted",
	RunE:  Start,
}

func Start(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx, configPath)
	if err != nil {
		return err
	}
	defer appDep.Close()

	if err := appDep.cfg.ValidateSecrets(); err != nil {
		return err
	}

	repo := repository.NewRepository(appDep.cfg, appDep.gormDB(), appDep.log)
	services, err := service.NewService(appDep.cfg, appDep.log, repo, appDep.cache, appDep.telegram)
	if err != nil {
		return err
	}

	if err := services.SchedulerService.Start(ctx); err != nil {
		return err
	}

	var apiServer *HTTPServer
	if appDep.cfg.API.Enabled {
		apiServer = NewHTTPServer(ctx, appDep, http.NewHttpAPIHandler(ctx, appDep.cfg.API, appDep.echo, appDep.validator, services))
		go func() {
			if err := apiServer.Start(); err != nil && !errors.Is(err, httpNet.ErrServerClosed) {
				appDep.log.ErrorContextWithAlert(ctx, "HTTP server failed", logger.ErrorField(err))
				stop()
			}
		}()
	}

	<-ctx.Done()
	appDep.log.Info("Shutting down gracefully...")

	if apiServer != nil {
		_ = apiServer.Stop()
	}

	select {
	case <-services.SchedulerService.Stop().Done():
	case <-time.After(shutdownTimeout):
		appDep.log.Warn("Timeout while waiting for running jobs")
	}
	return nil
}
