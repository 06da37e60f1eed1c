package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/serialport/pkg/cli/config"
	"github.com/m-mizutani/serialport/pkg/domain/interfaces"
	"github.com/m-mizutani/serialport/pkg/domain/types"
	"github.com/m-mizutani/serialport/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdList(driver interfaces.SerialDriver) *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List serial ports on this host",
		Flags: []cli.Flag{
			jsonFlag(&asJSON),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			ports, err := usecase.NewPort(driver).ListPorts(ctx)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if asJSON {
				return printJSON(w, ports)
			}
			printPorts(w, ports)
			return nil
		},
	}
}

func cmdBauds(driver interfaces.SerialDriver) *cli.Command {
	return &cli.Command{
		Name:  "bauds",
		Usage: "List baud rates this host can set",
		Action: func(ctx context.Context, c *cli.Command) error {
			printBaudRates(c.Root().Writer, usecase.NewPort(driver).BaudRates(ctx))
			return nil
		},
	}
}

func cmdInfo(driver interfaces.SerialDriver) *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "info",
		Usage:     "Show the current settings and control lines of a port",
		ArgsUsage: "<port>",
		Flags: []cli.Flag{
			jsonFlag(&asJSON),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			name, err := portArg(c)
			if err != nil {
				return err
			}

			status, err := usecase.NewPort(driver).Inspect(ctx, name)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if asJSON {
				return printJSON(w, status)
			}
			printStatus(w, status)
			return nil
		},
	}
}

func cmdSet(driver interfaces.SerialDriver) *cli.Command {
	var (
		serialCfg config.Serial
		asJSON    bool
	)

	return &cli.Command{
		Name:      "set",
		Usage:     "Apply settings to a port",
		ArgsUsage: "<port>",
		Flags:     append(serialCfg.Flags(), jsonFlag(&asJSON)),
		Action: func(ctx context.Context, c *cli.Command) error {
			name, err := portArg(c)
			if err != nil {
				return err
			}
			settings, err := serialCfg.Settings()
			if err != nil {
				return err
			}

			status, err := usecase.NewPort(driver).Apply(ctx, name, settings)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if asJSON {
				return printJSON(w, status)
			}
			printStatus(w, status)
			return nil
		},
	}
}

func cmdSend(driver interfaces.SerialDriver) *cli.Command {
	var (
		serialCfg config.Serial
		asHex     bool
		newline   bool
	)

	flags := append(serialCfg.Flags(),
		&cli.BoolFlag{
			Name:        "hex",
			Usage:       "Treat the data as hex, e.g. \"de ad be ef\"",
			Destination: &asHex,
		},
		&cli.BoolFlag{
			Name:        "newline",
			Aliases:     []string{"n"},
			Usage:       "Append CR LF",
			Destination: &newline,
		},
	)

	return &cli.Command{
		Name:      "send",
		Usage:     "Write data to a port",
		ArgsUsage: "<port> <data>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			name, err := portArg(c)
			if err != nil {
				return err
			}
			if c.NArg() < 2 {
				return goerr.New("data to send is required", goerr.T(types.ErrTagInvalidInput))
			}
			data, err := payload(c.Args().Get(1), asHex, newline)
			if err != nil {
				return err
			}
			settings, err := serialCfg.Settings()
			if err != nil {
				return err
			}

			n, err := usecase.NewPort(driver).Write(ctx, name, settings, data)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Wrote %d bytes to %s\n", n, name)
			return nil
		},
	}
}

// payload builds the bytes to send from the command argument
func payload(arg string, asHex, newline bool) ([]byte, error) {
	data := []byte(arg)
	if asHex {
		digits := strings.Join(strings.Fields(arg), "")
		digits = strings.TrimPrefix(strings.TrimPrefix(digits, "0x"), "0X")
		decoded, err := hex.DecodeString(digits)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid hex data", goerr.V("data", arg), goerr.T(types.ErrTagInvalidInput))
		}
		data = decoded
	}
	if newline {
		data = append(data, '\r', '\n')
	}
	return data, nil
}

func portArg(c *cli.Command) (string, error) {
	name := c.Args().First()
	if name == "" {
		return "", goerr.New("port name is required", goerr.T(types.ErrTagInvalidInput))
	}
	return name, nil
}

func jsonFlag(dst *bool) cli.Flag {
	return &cli.BoolFlag{
		Name:        "json",
		Usage:       "Output JSON",
		Destination: dst,
	}
}
