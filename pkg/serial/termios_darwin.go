//go:build darwin

package serial

import (
	"github.com/m-mizutani/serialport/pkg/domain/types"
	"golang.org/x/sys/unix"
)

type tcflag = uint64

// CCTS_OFLOW | CRTS_IFLOW
const crtscts = 0x00030000

var darwinBaudRates = []types.BaudRate{
	50, 75, 110, 134, 150, 200, 300, 600, 1200, 1800, 2400, 4800, 7200,
	9600, 14400, 19200, 28800, 38400, 57600, 76800, 115200, 230400,
}

func getTermios(fd int) (*unix.Termios, error) {
	return unix.IoctlGetTermios(fd, unix.TIOCGETA)
}

func setTermios(fd int, t *unix.Termios) error {
	return unix.IoctlSetTermios(fd, unix.TIOCSETA, t)
}

// Darwin speeds are plain numbers; whether a non-standard one is accepted is
// up to the device driver.
func setSpeed(t *unix.Termios, baudRate types.BaudRate) {
	t.Ispeed = uint64(baudRate.Speed())
	t.Ospeed = uint64(baudRate.Speed())
}

func getSpeed(t *unix.Termios) (types.BaudRate, bool) {
	if t.Ospeed == 0 || t.Ospeed > 1<<32-1 {
		return 0, false
	}
	return types.FromSpeed(uint32(t.Ospeed)), true
}

func availableBaudRates() []types.BaudRate {
	rates := make([]types.BaudRate, len(darwinBaudRates))
	copy(rates, darwinBaudRates)
	return rates
}
