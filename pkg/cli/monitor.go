package cli

import (
	"context"
	"encoding/hex"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/serialport/pkg/cli/config"
	"github.com/m-mizutani/serialport/pkg/domain/interfaces"
	"github.com/m-mizutani/serialport/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdMonitor(driver interfaces.SerialDriver) *cli.Command {
	var (
		serialCfg config.Serial
		hexDump   bool
	)

	flags := append(serialCfg.Flags(),
		&cli.BoolFlag{
			Name:        "hex",
			Usage:       "Print a hex dump instead of raw bytes",
			Destination: &hexDump,
		},
	)

	return &cli.Command{
		Name:      "monitor",
		Aliases:   []string{"m"},
		Usage:     "Print incoming data until interrupted",
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

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var w io.Writer = c.Root().Writer
			if hexDump {
				dumper := hex.Dumper(w)
				defer dumper.Close()
				w = dumper
			}

			return usecase.NewPort(driver).Monitor(ctx, name, settings, w)
		},
	}
}
