package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/m-mizutani/serialport/pkg/cli/config"
	"github.com/m-mizutani/serialport/pkg/domain/interfaces"
	"github.com/m-mizutani/serialport/pkg/domain/types"
	"github.com/m-mizutani/serialport/pkg/serial"
	"github.com/m-mizutani/serialport/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var loggerCfg config.Logger
	app := newApp(serial.NewDriver(), os.Stdout, &loggerCfg)

	err := app.Run(ctx, args)
	if err != nil {
		// Before installs the configured logger as the default
		slog.Default().Error("CLI execution failed", slog.Any("error", err))
	}

	// The log file stays open until the failure above is written
	if closeErr := loggerCfg.Close(); closeErr != nil && err == nil {
		return closeErr
	}
	return err
}

func newApp(driver interfaces.SerialDriver, w io.Writer, loggerCfg *config.Logger) *cli.Command {
	return &cli.Command{
		Name:    "serialport",
		Usage:   "Inspect, configure and talk to serial ports",
		Version: types.Version,
		Writer:  w,
		Flags:   loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, err := loggerCfg.Configure()
			if err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			return logging.With(ctx, logger), nil
		},
		Commands: []*cli.Command{
			cmdList(driver),
			cmdBauds(driver),
			cmdInfo(driver),
			cmdSet(driver),
			cmdSend(driver),
			cmdMonitor(driver),
			cmdCapture(driver),
			cmdServe(driver),
		},
	}
}
