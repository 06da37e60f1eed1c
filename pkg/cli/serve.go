package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/serialport/pkg/cli/config"
	controller "github.com/m-mizutani/serialport/pkg/controller/http"
	"github.com/m-mizutani/serialport/pkg/domain/interfaces"
	"github.com/m-mizutani/serialport/pkg/usecase"
	"github.com/m-mizutani/serialport/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe(driver interfaces.SerialDriver) *cli.Command {
	var (
		serverCfg  config.Server
		serialCfg  config.Serial
		storageCfg config.Storage
		sentryCfg  config.Sentry
	)

	flags := append(serverCfg.Flags(), serialCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP bridge server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)

			settings, err := serialCfg.Settings()
			if err != nil {
				return err
			}
			store, err := storageCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if err := sentryCfg.Configure(); err != nil {
				return err
			}
			defer sentryCfg.Flush()

			logger.Info("Starting serialport server",
				slog.String("addr", serverCfg.Addr),
				slog.String("default_settings", settings.Frame()),
				slog.Any("sentry", sentryCfg),
				slog.Bool("signed_api", serverCfg.APISecret != ""),
			)

			// Create use cases
			portUC := usecase.NewPort(driver, usecase.WithCaptureStore(store))

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				portUC,
				controller.WithAddr(serverCfg.Addr),
				controller.WithSettings(settings),
				controller.WithMaxBodySize(serverCfg.MaxBodySize),
				controller.WithSentry(sentryCfg.Enabled()),
				controller.WithAPISecret(serverCfg.APISecret),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			case err := <-errCh:
				return goerr.Wrap(err, "HTTP server failed", goerr.V("addr", serverCfg.Addr))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
