package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/serialport/pkg/cli/config"
	"github.com/m-mizutani/serialport/pkg/domain/interfaces"
	"github.com/m-mizutani/serialport/pkg/domain/model"
	"github.com/m-mizutani/serialport/pkg/domain/types"
	"github.com/m-mizutani/serialport/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdCapture(driver interfaces.SerialDriver) *cli.Command {
	var (
		serialCfg  config.Serial
		storageCfg config.Storage
		duration   time.Duration
		maxBytes   int64
		asJSON     bool
	)

	flags := append(serialCfg.Flags(), storageCfg.Flags()...)
	flags = append(flags,
		&cli.DurationFlag{
			Name:        "duration",
			Aliases:     []string{"d"},
			Usage:       "Stop after this long; 0 waits for max-bytes or an interrupt",
			Value:       10 * time.Second,
			Destination: &duration,
			Sources:     cli.EnvVars("SERIALPORT_CAPTURE_DURATION"),
		},
		&cli.IntFlag{
			Name:        "max-bytes",
			Usage:       "Stop after this many bytes; 0 is unlimited",
			Destination: &maxBytes,
			Sources:     cli.EnvVars("SERIALPORT_CAPTURE_MAX_BYTES"),
		},
		jsonFlag(&asJSON),
	)

	return &cli.Command{
		Name:      "capture",
		Usage:     "Record incoming data to a file or GCS",
		ArgsUsage: "<port>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			name, err := portArg(c)
			if err != nil {
				return err
			}
			settings, err := serialCfg.Settings()
			if err != nil {
				return err
			}
			if maxBytes < 0 || duration < 0 {
				return goerr.New("duration and max-bytes must not be negative", goerr.T(types.ErrTagInvalidInput))
			}

			store, err := storageCfg.Configure(ctx)
			if err != nil {
				return err
			}

			// An interrupt ends the capture early; the data read so far is kept
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			uc := usecase.NewPort(driver, usecase.WithCaptureStore(store))
			result, err := uc.Capture(ctx, &model.CaptureRequest{
				Port:     name,
				Settings: settings,
				Duration: duration,
				MaxBytes: int(maxBytes),
			})
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if asJSON {
				return printJSON(w, result)
			}
			printCapture(w, result)
			return nil
		},
	}
}
