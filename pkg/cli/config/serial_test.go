package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/serialport/pkg/cli/config"
	"github.com/m-mizutani/serialport/pkg/domain/model"
	"github.com/m-mizutani/serialport/pkg/domain/types"
)

const profiles = `
[gps]
baud_rate = 4800

[typo]
baud = 4800

[console]
baud_rate = 115200
parity = "even"
flow_control = "hardware"
timeout = "250ms"
`

func writeProfiles(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.toml")
	gt.NoError(t, os.WriteFile(path, []byte(profiles), 0600))
	return path
}

func TestSerial_Settings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := &config.Serial{}
		settings, err := cfg.Settings()
		gt.NoError(t, err)
		gt.Value(t, settings).Equal(model.DefaultSettings())
	})

	t.Run("flags", func(t *testing.T) {
		cfg := &config.Serial{
			BaudRate:    "57600",
			DataBits:    "7",
			Parity:      "odd",
			StopBits:    "2",
			FlowControl: "xonxoff",
			Timeout:     "2s",
		}
		settings, err := cfg.Settings()
		gt.NoError(t, err)
		gt.Value(t, settings).Equal(model.Settings{
			BaudRate:    types.Baud57600,
			DataBits:    types.DataBitsSeven,
			Parity:      types.ParityOdd,
			StopBits:    types.StopBitsTwo,
			FlowControl: types.FlowControlSoftware,
			Timeout:     model.Duration(2 * time.Second),
		})
	})

	t.Run("profile keeps omitted fields", func(t *testing.T) {
		cfg := &config.Serial{ProfileFile: writeProfiles(t), Profile: "gps"}
		settings, err := cfg.Settings()
		gt.NoError(t, err)

		want := model.DefaultSettings()
		want.BaudRate = types.Baud4800
		gt.Value(t, settings).Equal(want)
	})

	t.Run("flags override profile", func(t *testing.T) {
		cfg := &config.Serial{ProfileFile: writeProfiles(t), Profile: "console", Parity: "none"}
		settings, err := cfg.Settings()
		gt.NoError(t, err)
		gt.Value(t, settings.BaudRate).Equal(types.Baud115200)
		gt.Value(t, settings.Parity).Equal(types.ParityNone)
		gt.Value(t, settings.FlowControl).Equal(types.FlowControlHardware)
		gt.Value(t, settings.Timeout).Equal(model.Duration(250 * time.Millisecond))
	})

	t.Run("errors", func(t *testing.T) {
		path := writeProfiles(t)
		testCases := []struct {
			name string
			cfg  config.Serial
		}{
			{"bad baud", config.Serial{BaudRate: "fast"}},
			{"bad data bits", config.Serial{DataBits: "9"}},
			{"bad parity", config.Serial{Parity: "mark"}},
			{"bad timeout", config.Serial{Timeout: "soon"}},
			{"profile without file", config.Serial{Profile: "gps"}},
			{"file without profile", config.Serial{ProfileFile: path}},
			{"unknown profile", config.Serial{ProfileFile: path, Profile: "modem"}},
			{"mistyped key", config.Serial{ProfileFile: path, Profile: "typo"}},
			{"missing file", config.Serial{ProfileFile: filepath.Join(t.TempDir(), "none.toml"), Profile: "gps"}},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := tc.cfg.Settings()
				gt.Error(t, err)
			})
		}

		t.Run("mistyped key is invalid input", func(t *testing.T) {
			cfg := &config.Serial{ProfileFile: path, Profile: "typo"}
			_, err := cfg.Settings()
			gt.True(t, goerr.HasTag(err, types.ErrTagInvalidInput))
		})
	})
}

func TestSerial_Flags(t *testing.T) {
	names := flagNames((&config.Serial{}).Flags())
	for _, name := range []string{"baud", "data-bits", "parity", "stop-bits", "flow-control", "timeout", "profile-file", "profile"} {
		gt.True(t, names[name])
	}
}
