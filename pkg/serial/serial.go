// Package serial opens and configures serial ports.
//
// Open returns an interfaces.Port backed by the platform driver. On Linux and
// Darwin (including iOS) the driver talks termios through golang.org/x/sys/unix;
// other platforms return a KindUnknown error.
package serial

import (
	"time"

	"github.com/m-mizutani/serialport/pkg/domain/interfaces"
	"github.com/m-mizutani/serialport/pkg/domain/model"
	"github.com/m-mizutani/serialport/pkg/domain/types"
)

// DefaultTimeout is the I/O timeout of a freshly opened port.
const DefaultTimeout = 100 * time.Millisecond

// Open opens the serial device at name in raw mode with exclusive access.
// Line settings are left as the device had them.
func Open(name string) (interfaces.Port, error) {
	return openPort(name)
}

// OpenWith opens the device and applies settings before returning it.
func OpenWith(name string, settings model.Settings) (interfaces.Port, error) {
	port, err := Open(name)
	if err != nil {
		return nil, err
	}

	if err := port.Configure(settings); err != nil {
		_ = port.Close()
		return nil, err
	}

	return port, nil
}

// AvailablePorts lists serial ports present on the host, sorted by name.
// Entries that cannot be inspected are skipped.
func AvailablePorts() ([]model.PortInfo, error) {
	return availablePorts()
}

// AvailableBaudRates returns the rates the platform driver can set by code,
// in ascending order. It is empty on unsupported platforms.
func AvailableBaudRates() []types.BaudRate {
	return availableBaudRates()
}

// Driver exposes the package functions as an interfaces.SerialDriver.
type Driver struct{}

var _ interfaces.SerialDriver = Driver{}

// NewDriver returns the host serial driver.
func NewDriver() Driver {
	return Driver{}
}

func (Driver) Open(name string) (interfaces.Port, error) {
	return Open(name)
}

func (Driver) AvailablePorts() ([]model.PortInfo, error) {
	return AvailablePorts()
}

func (Driver) AvailableBaudRates() []types.BaudRate {
	return AvailableBaudRates()
}
