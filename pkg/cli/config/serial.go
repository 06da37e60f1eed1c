package config

import (
	"bytes"
	"encoding"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/serialport/pkg/domain/model"
	"github.com/m-mizutani/serialport/pkg/domain/types"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Serial holds port settings given on the command line.
//
// Settings are resolved in order: defaults, then the selected profile from
// the profile file, then each explicitly set flag.
type Serial struct {
	BaudRate    string
	DataBits    string
	Parity      string
	StopBits    string
	FlowControl string
	Timeout     string

	ProfileFile string
	Profile     string
}

// Flags returns CLI flags for port settings
func (c *Serial) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "baud",
			Aliases:     []string{"b"},
			Usage:       "Baud rate (default 9600)",
			Destination: &c.BaudRate,
			Sources:     cli.EnvVars("SERIALPORT_BAUD"),
		},
		&cli.StringFlag{
			Name:        "data-bits",
			Usage:       "Data bits: 5, 6, 7 or 8 (default 8)",
			Destination: &c.DataBits,
			Sources:     cli.EnvVars("SERIALPORT_DATA_BITS"),
		},
		&cli.StringFlag{
			Name:        "parity",
			Usage:       "Parity: none, odd or even (default none)",
			Destination: &c.Parity,
			Sources:     cli.EnvVars("SERIALPORT_PARITY"),
		},
		&cli.StringFlag{
			Name:        "stop-bits",
			Usage:       "Stop bits: 1 or 2 (default 1)",
			Destination: &c.StopBits,
			Sources:     cli.EnvVars("SERIALPORT_STOP_BITS"),
		},
		&cli.StringFlag{
			Name:        "flow-control",
			Usage:       "Flow control: none, software or hardware (default none)",
			Destination: &c.FlowControl,
			Sources:     cli.EnvVars("SERIALPORT_FLOW_CONTROL"),
		},
		&cli.StringFlag{
			Name:        "timeout",
			Usage:       "Read and write timeout, e.g. 500ms (default 1s)",
			Destination: &c.Timeout,
			Sources:     cli.EnvVars("SERIALPORT_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:        "profile-file",
			Usage:       "TOML file with named port profiles",
			Destination: &c.ProfileFile,
			Sources:     cli.EnvVars("SERIALPORT_PROFILE_FILE"),
		},
		&cli.StringFlag{
			Name:        "profile",
			Usage:       "Profile name in the profile file",
			Destination: &c.Profile,
			Sources:     cli.EnvVars("SERIALPORT_PROFILE"),
		},
	}
}

// Settings resolves the port settings
func (c *Serial) Settings() (model.Settings, error) {
	settings := model.DefaultSettings()

	if c.ProfileFile != "" || c.Profile != "" {
		if err := c.loadProfile(&settings); err != nil {
			return settings, err
		}
	}

	fields := []struct {
		name   string
		value  string
		target encoding.TextUnmarshaler
	}{
		{"baud", c.BaudRate, &settings.BaudRate},
		{"data-bits", c.DataBits, &settings.DataBits},
		{"parity", c.Parity, &settings.Parity},
		{"stop-bits", c.StopBits, &settings.StopBits},
		{"flow-control", c.FlowControl, &settings.FlowControl},
		{"timeout", c.Timeout, &settings.Timeout},
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		if err := field.target.UnmarshalText([]byte(field.value)); err != nil {
			return settings, goerr.Wrap(err, "invalid flag value", goerr.V("flag", field.name))
		}
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// loadProfile overlays the fields present in the selected profile.
//
// A profile file holds one table per profile:
//
//	[gps]
//	baud_rate = 4800
//
//	[console]
//	baud_rate = 115200
//	flow_control = "hardware"
func (c *Serial) loadProfile(settings *model.Settings) error {
	if c.ProfileFile == "" || c.Profile == "" {
		return goerr.New("profile-file and profile must be set together",
			goerr.V("profile_file", c.ProfileFile), goerr.V("profile", c.Profile), goerr.T(types.ErrTagInvalidInput))
	}

	raw, err := os.ReadFile(c.ProfileFile)
	if err != nil {
		return goerr.Wrap(err, "failed to read profile file", goerr.V("path", c.ProfileFile))
	}

	var profiles map[string]map[string]any
	if err := toml.Unmarshal(raw, &profiles); err != nil {
		return goerr.Wrap(err, "failed to parse profile file",
			goerr.V("path", c.ProfileFile), goerr.T(types.ErrTagInvalidInput))
	}

	profile, ok := profiles[c.Profile]
	if !ok {
		return goerr.New("profile not found",
			goerr.V("path", c.ProfileFile), goerr.V("profile", c.Profile), goerr.T(types.ErrTagInvalidInput))
	}

	// Decoding into the populated struct keeps fields the profile omits
	table, err := toml.Marshal(profile)
	if err != nil {
		return goerr.Wrap(err, "failed to encode profile", goerr.V("profile", c.Profile))
	}
	dec := toml.NewDecoder(bytes.NewReader(table))
	dec.DisallowUnknownFields()
	if err := dec.Decode(settings); err != nil {
		return goerr.Wrap(err, "invalid profile",
			goerr.V("path", c.ProfileFile), goerr.V("profile", c.Profile), goerr.T(types.ErrTagInvalidInput))
	}

	return nil
}
