//go:build linux && !ppc64 && !ppc64le

package serial

import (
	"sort"

	"github.com/m-mizutani/serialport/pkg/domain/types"
	"golang.org/x/sys/unix"
)

type tcflag = uint32

const crtscts = unix.CRTSCTS

// baudCodes maps rates to their Bxxx codes. Rates not listed are set with
// BOTHER and an explicit speed.
var baudCodes = map[types.BaudRate]tcflag{
	50:      unix.B50,
	75:      unix.B75,
	110:     unix.B110,
	134:     unix.B134,
	150:     unix.B150,
	200:     unix.B200,
	300:     unix.B300,
	600:     unix.B600,
	1200:    unix.B1200,
	1800:    unix.B1800,
	2400:    unix.B2400,
	4800:    unix.B4800,
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	500000:  unix.B500000,
	576000:  unix.B576000,
	921600:  unix.B921600,
	1000000: unix.B1000000,
	1152000: unix.B1152000,
	1500000: unix.B1500000,
	2000000: unix.B2000000,
	2500000: unix.B2500000,
	3000000: unix.B3000000,
	3500000: unix.B3500000,
	4000000: unix.B4000000,
}

// termios2 carries the speed fields needed for BOTHER
func getTermios(fd int) (*unix.Termios, error) {
	return unix.IoctlGetTermios(fd, unix.TCGETS2)
}

func setTermios(fd int, t *unix.Termios) error {
	return unix.IoctlSetTermios(fd, unix.TCSETS2, t)
}

func setSpeed(t *unix.Termios, baudRate types.BaudRate) {
	// CIBAUD zero makes the input speed follow the output speed
	t.Cflag &^= unix.CBAUD | unix.CIBAUD
	if code, ok := baudCodes[baudRate]; ok {
		t.Cflag |= code
	} else {
		t.Cflag |= unix.BOTHER
	}
	t.Ispeed = baudRate.Speed()
	t.Ospeed = baudRate.Speed()
}

func getSpeed(t *unix.Termios) (types.BaudRate, bool) {
	code := t.Cflag & unix.CBAUD
	if code == unix.BOTHER {
		if t.Ospeed == 0 {
			return 0, false
		}
		return types.FromSpeed(t.Ospeed), true
	}

	for baudRate, c := range baudCodes {
		if c == code {
			return baudRate, true
		}
	}
	// B0 means hang up
	return 0, false
}

func availableBaudRates() []types.BaudRate {
	rates := make([]types.BaudRate, 0, len(baudCodes))
	for baudRate := range baudCodes {
		rates = append(rates, baudRate)
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i] < rates[j] })
	return rates
}
