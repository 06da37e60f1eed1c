package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/serialport/pkg/domain/types"
)

// Settings holds the full line configuration of a port
type Settings struct {
	BaudRate    types.BaudRate    `json:"baud_rate" toml:"baud_rate"`
	DataBits    types.DataBits    `json:"data_bits" toml:"data_bits"`
	Parity      types.Parity      `json:"parity" toml:"parity"`
	StopBits    types.StopBits    `json:"stop_bits" toml:"stop_bits"`
	FlowControl types.FlowControl `json:"flow_control" toml:"flow_control"`
	Timeout     Duration          `json:"timeout" toml:"timeout"`
}

// DefaultSettings returns 9600 baud, 8N1, no flow control and a one second timeout
func DefaultSettings() Settings {
	return Settings{
		BaudRate:    types.Baud9600,
		DataBits:    types.DataBitsEight,
		Parity:      types.ParityNone,
		StopBits:    types.StopBitsOne,
		FlowControl: types.FlowControlNone,
		Timeout:     Duration(time.Second),
	}
}

// Validate checks every field is in range
func (s Settings) Validate() error {
	switch {
	case s.BaudRate == 0:
		return goerr.New("baud rate must be positive", goerr.T(types.ErrTagInvalidInput))
	case !s.DataBits.IsValid():
		return goerr.New("data bits must be 5 to 8", goerr.V("data_bits", s.DataBits), goerr.T(types.ErrTagInvalidInput))
	case !s.Parity.IsValid():
		return goerr.New("unknown parity", goerr.V("parity", int(s.Parity)), goerr.T(types.ErrTagInvalidInput))
	case !s.StopBits.IsValid():
		return goerr.New("stop bits must be 1 or 2", goerr.V("stop_bits", s.StopBits), goerr.T(types.ErrTagInvalidInput))
	case !s.FlowControl.IsValid():
		return goerr.New("unknown flow control", goerr.V("flow_control", int(s.FlowControl)), goerr.T(types.ErrTagInvalidInput))
	case s.Timeout < 0:
		return goerr.New("timeout must not be negative", goerr.V("timeout", s.Timeout), goerr.T(types.ErrTagInvalidInput))
	}
	return nil
}

// Frame returns the conventional short form, e.g. "9600 8N1"
func (s Settings) Frame() string {
	parity := "N"
	switch s.Parity {
	case types.ParityOdd:
		parity = "O"
	case types.ParityEven:
		parity = "E"
	}
	return s.BaudRate.String() + " " + s.DataBits.String() + parity + s.StopBits.String()
}

// Duration is a time.Duration that reads and writes as text ("500ms", "2s")
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return goerr.Wrap(err, "invalid duration", goerr.V("value", string(text)), goerr.T(types.ErrTagInvalidInput))
	}
	*d = Duration(v)
	return nil
}
