package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cosmossdk.io/log"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/openalpha/pawfund/api"
	"github.com/openalpha/pawfund/api/websocket"
	"github.com/openalpha/pawfund/app"
	"github.com/openalpha/pawfund/pkg/config"
)

const shutdownTimeout = 10 * time.Second

// StartCmd returns the command that runs the daemon
func StartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the fund state machine and its HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := cfg.Log.NewLogger(os.Stdout)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, logger)
		},
	}
}

// run starts every daemon component and blocks until ctx is done or the API
// server fails
func run(ctx context.Context, cfg *config.Config, logger log.Logger) error {
	state, err := app.NewState(cfg.Options(logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := state.Close(); err != nil {
			logger.Error("Failed to close state", "err", err)
		}
	}()

	hubCtx, cancelHub := context.WithCancel(ctx)
	defer cancelHub()
	hub := websocket.NewHub(&cfg.WebSocket, logger)
	go hub.Run(hubCtx)

	svc := api.NewStateService(state, hub, logger)

	var scheduler *cron.Cron
	if cfg.Sweep.Enabled {
		scheduler = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
		if _, err := scheduler.AddFunc(cfg.Sweep.Schedule, func() {
			expired, err := svc.Sweep()
			if err != nil {
				logger.Error("Lifecycle sweep failed", "err", err)
				return
			}
			if expired > 0 {
				logger.Info("Lifecycle sweep expired funds", "count", expired)
			}
		}); err != nil {
			return err
		}
		scheduler.Start()
		logger.Info("Lifecycle sweep scheduled", "schedule", cfg.Sweep.Schedule)
	}

	server := api.NewServer(&cfg.API, svc, hub, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("fundd started",
		"home", cfg.Home,
		"db_backend", cfg.DBBackend,
		"height", state.Height(),
		"listen", cfg.API.Listen,
	)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down fundd...")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "err", err)
	}
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	cancelHub()

	logger.Info("fundd exited")
	return runErr
}
