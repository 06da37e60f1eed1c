package types

import (
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// BaudRate is a line speed in symbols per second.
//
// The named constants are standard rates that are widely supported. Any other
// value is a non-standard rate whose behavior is system-dependent; some
// systems may reject it.
type BaudRate uint32

const (
	Baud110    BaudRate = 110
	Baud300    BaudRate = 300
	Baud600    BaudRate = 600
	Baud1200   BaudRate = 1200
	Baud2400   BaudRate = 2400
	Baud4800   BaudRate = 4800
	Baud9600   BaudRate = 9600
	Baud19200  BaudRate = 19200
	Baud38400  BaudRate = 38400
	Baud57600  BaudRate = 57600
	Baud115200 BaudRate = 115200
)

var standardBaudRates = []BaudRate{
	Baud110, Baud300, Baud600, Baud1200, Baud2400, Baud4800,
	Baud9600, Baud19200, Baud38400, Baud57600, Baud115200,
}

// StandardBaudRates returns the standard rates in ascending order.
func StandardBaudRates() []BaudRate {
	rates := make([]BaudRate, len(standardBaudRates))
	copy(rates, standardBaudRates)
	return rates
}

// FromSpeed returns the BaudRate for speed. Speeds without a named constant
// become non-standard rates.
func FromSpeed(speed uint32) BaudRate {
	return BaudRate(speed)
}

// Speed returns the rate as an integer.
func (b BaudRate) Speed() uint32 {
	return uint32(b)
}

// IsStandard reports whether b is one of the named standard rates.
func (b BaudRate) IsStandard() bool {
	for _, r := range standardBaudRates {
		if r == b {
			return true
		}
	}
	return false
}

func (b BaudRate) String() string {
	return strconv.FormatUint(uint64(b), 10)
}

// ParseBaudRate parses a positive decimal speed.
func ParseBaudRate(s string) (BaudRate, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil || n == 0 {
		return 0, goerr.New("invalid baud rate", goerr.V("value", s), goerr.T(ErrTagInvalidInput))
	}
	return FromSpeed(uint32(n)), nil
}

func (b BaudRate) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *BaudRate) UnmarshalText(text []byte) error {
	v, err := ParseBaudRate(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// DataBits is the number of bits per character.
type DataBits uint8

const (
	DataBitsFive  DataBits = 5
	DataBitsSix   DataBits = 6
	DataBitsSeven DataBits = 7
	DataBitsEight DataBits = 8
)

// IsValid reports whether d is between five and eight bits.
func (d DataBits) IsValid() bool {
	return d >= DataBitsFive && d <= DataBitsEight
}

func (d DataBits) String() string {
	return strconv.Itoa(int(d))
}

// ParseDataBits parses "5" through "8".
func ParseDataBits(s string) (DataBits, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !DataBits(n).IsValid() {
		return 0, goerr.New("invalid data bits", goerr.V("value", s), goerr.T(ErrTagInvalidInput))
	}
	return DataBits(n), nil
}

func (d DataBits) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *DataBits) UnmarshalText(text []byte) error {
	v, err := ParseDataBits(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Parity is the parity checking mode.
//
// With Odd or Even an extra bit is transmitted with each character, arranged
// so that the number of 1 bits in the character (parity bit included) is odd
// or even. With None no parity bit is transmitted.
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

func (p Parity) IsValid() bool {
	return p >= ParityNone && p <= ParityEven
}

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	default:
		return "unknown(" + strconv.Itoa(int(p)) + ")"
	}
}

// ParseParity accepts "none", "odd", "even" or their initials, in any case.
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "n":
		return ParityNone, nil
	case "odd", "o":
		return ParityOdd, nil
	case "even", "e":
		return ParityEven, nil
	}
	return 0, goerr.New("invalid parity", goerr.V("value", s), goerr.T(ErrTagInvalidInput))
}

func (p Parity) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Parity) UnmarshalText(text []byte) error {
	v, err := ParseParity(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// StopBits is the number of stop bits transmitted after every character.
type StopBits uint8

const (
	StopBitsOne StopBits = 1
	StopBitsTwo StopBits = 2
)

func (s StopBits) IsValid() bool {
	return s == StopBitsOne || s == StopBitsTwo
}

func (s StopBits) String() string {
	return strconv.Itoa(int(s))
}

// ParseStopBits parses "1" or "2".
func ParseStopBits(s string) (StopBits, error) {
	switch strings.TrimSpace(s) {
	case "1":
		return StopBitsOne, nil
	case "2":
		return StopBitsTwo, nil
	}
	return 0, goerr.New("invalid stop bits", goerr.V("value", s), goerr.T(ErrTagInvalidInput))
}

func (s StopBits) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *StopBits) UnmarshalText(text []byte) error {
	v, err := ParseStopBits(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// FlowControl is the flow control mode.
type FlowControl int

const (
	// FlowControlUnknown is reported when the device state matches no mode,
	// e.g. XON without XOFF. It cannot be set.
	FlowControlUnknown FlowControl = -1

	// FlowControlNone disables flow control.
	FlowControlNone FlowControl = 0
	// FlowControlSoftware uses XON/XOFF bytes.
	FlowControlSoftware FlowControl = 1
	// FlowControlHardware uses the RTS/CTS signals.
	FlowControlHardware FlowControl = 2
)

func (f FlowControl) IsValid() bool {
	return f >= FlowControlNone && f <= FlowControlHardware
}

func (f FlowControl) String() string {
	switch f {
	case FlowControlNone:
		return "none"
	case FlowControlSoftware:
		return "software"
	case FlowControlHardware:
		return "hardware"
	case FlowControlUnknown:
		return "unknown"
	default:
		return "unknown(" + strconv.Itoa(int(f)) + ")"
	}
}

// ParseFlowControl accepts "none", "software" ("xonxoff") and
// "hardware" ("rtscts").
func ParseFlowControl(s string) (FlowControl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return FlowControlNone, nil
	case "software", "xonxoff":
		return FlowControlSoftware, nil
	case "hardware", "rtscts":
		return FlowControlHardware, nil
	}
	return 0, goerr.New("invalid flow control", goerr.V("value", s), goerr.T(ErrTagInvalidInput))
}

func (f FlowControl) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *FlowControl) UnmarshalText(text []byte) error {
	v, err := ParseFlowControl(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
