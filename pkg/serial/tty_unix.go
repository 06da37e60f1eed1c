//go:build (linux && !ppc64 && !ppc64le) || darwin

package serial

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/serialport/pkg/domain/interfaces"
	"github.com/m-mizutani/serialport/pkg/domain/model"
	"github.com/m-mizutani/serialport/pkg/domain/types"
	"golang.org/x/sys/unix"
)

// ttyPort is a serial port backed by a termios terminal device. The
// descriptor stays non-blocking and is owned by an *os.File, so reads and
// writes wait in the runtime poller and Close wakes them.
type ttyPort struct {
	name string
	file *os.File
	conn syscall.RawConn

	mu      sync.Mutex // serializes termios updates and Close
	closed  atomic.Bool
	timeout atomic.Int64
}

var _ interfaces.Port = (*ttyPort)(nil)

func openPort(name string) (interfaces.Port, error) {
	return openTTY(name)
}

func openTTY(name string) (*ttyPort, error) {
	fd, err := unix.Open(name, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, wrapOSError(err, "failed to open serial port", goerr.V("port", name))
	}

	if err := unix.IoctlSetInt(fd, unix.TIOCEXCL, 0); err != nil {
		_ = unix.Close(fd)
		return nil, wrapOSError(err, "failed to acquire exclusive access", goerr.V("port", name))
	}

	file := os.NewFile(uintptr(fd), name)
	conn, err := file.SyscallConn()
	if err != nil {
		_ = file.Close()
		return nil, wrapOSError(err, "failed to access serial port descriptor", goerr.V("port", name))
	}

	port := &ttyPort{name: name, file: file, conn: conn}
	port.timeout.Store(int64(DefaultTimeout))

	if err := port.update(makeRaw); err != nil {
		_ = file.Close()
		return nil, err
	}

	return port, nil
}

// makeRaw disables line editing, echo, signals and output processing
func makeRaw(t *unix.Termios) error {
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHOE | unix.ECHOK | unix.ECHONL |
		unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag |= unix.CREAD | unix.CLOCAL
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = 0
	return nil
}

func (p *ttyPort) Name() string {
	return p.name
}

// control runs fn on the descriptor. The descriptor cannot be closed or
// reused while fn runs.
func (p *ttyPort) control(fn func(fd int) error) error {
	if p.closed.Load() {
		return errClosed(p.name)
	}

	var fnErr error
	if err := p.conn.Control(func(fd uintptr) {
		fnErr = fn(int(fd))
	}); err != nil {
		return errClosed(p.name)
	}
	return fnErr
}

// update reads the current termios, lets fn modify it and writes it back
func (p *ttyPort) update(fn func(t *unix.Termios) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.control(func(fd int) error {
		t, err := getTermios(fd)
		if err != nil {
			return wrapOSError(err, "failed to get terminal attributes", goerr.V("port", p.name))
		}

		if err := fn(t); err != nil {
			return err
		}

		if err := setTermios(fd, t); err != nil {
			return wrapOSError(err, "failed to set terminal attributes", goerr.V("port", p.name))
		}
		return nil
	})
}

func (p *ttyPort) termios() (*unix.Termios, error) {
	var t *unix.Termios
	err := p.control(func(fd int) error {
		var err error
		if t, err = getTermios(fd); err != nil {
			return wrapOSError(err, "failed to get terminal attributes", goerr.V("port", p.name))
		}
		return nil
	})
	return t, err
}

func (p *ttyPort) BaudRate() (types.BaudRate, bool) {
	t, err := p.termios()
	if err != nil {
		return 0, false
	}
	return getSpeed(t)
}

func (p *ttyPort) DataBits() (types.DataBits, bool) {
	t, err := p.termios()
	if err != nil {
		return 0, false
	}
	return getDataBits(t)
}

func (p *ttyPort) FlowControl() (types.FlowControl, bool) {
	t, err := p.termios()
	if err != nil {
		return 0, false
	}
	return getFlowControl(t)
}

func (p *ttyPort) Parity() (types.Parity, bool) {
	t, err := p.termios()
	if err != nil {
		return 0, false
	}
	return getParity(t), true
}

func (p *ttyPort) StopBits() (types.StopBits, bool) {
	t, err := p.termios()
	if err != nil {
		return 0, false
	}
	return getStopBits(t), true
}

func (p *ttyPort) Timeout() time.Duration {
	return time.Duration(p.timeout.Load())
}

func (p *ttyPort) Settings() (model.Settings, error) {
	t, err := p.termios()
	if err != nil {
		return model.Settings{}, err
	}

	s := model.Settings{
		Parity:   getParity(t),
		StopBits: getStopBits(t),
		Timeout:  model.Duration(p.Timeout()),
	}
	if baud, ok := getSpeed(t); ok {
		s.BaudRate = baud
	}
	if bits, ok := getDataBits(t); ok {
		s.DataBits = bits
	}
	if flow, ok := getFlowControl(t); ok {
		s.FlowControl = flow
	} else {
		s.FlowControl = types.FlowControlUnknown
	}
	return s, nil
}

func (p *ttyPort) SetBaudRate(baudRate types.BaudRate) error {
	return p.update(func(t *unix.Termios) error {
		return applyBaudRate(t, baudRate)
	})
}

func (p *ttyPort) SetDataBits(dataBits types.DataBits) error {
	return p.update(func(t *unix.Termios) error {
		return applyDataBits(t, dataBits)
	})
}

func (p *ttyPort) SetFlowControl(flowControl types.FlowControl) error {
	return p.update(func(t *unix.Termios) error {
		return applyFlowControl(t, flowControl)
	})
}

func (p *ttyPort) SetParity(parity types.Parity) error {
	return p.update(func(t *unix.Termios) error {
		return applyParity(t, parity)
	})
}

func (p *ttyPort) SetStopBits(stopBits types.StopBits) error {
	return p.update(func(t *unix.Termios) error {
		return applyStopBits(t, stopBits)
	})
}

func (p *ttyPort) SetTimeout(timeout time.Duration) error {
	if timeout < 0 {
		return goerr.New("timeout must not be negative", goerr.V("timeout", timeout), goerr.T(types.ErrTagInvalidInput))
	}
	if p.closed.Load() {
		return errClosed(p.name)
	}
	p.timeout.Store(int64(timeout))
	return nil
}

func (p *ttyPort) Configure(settings model.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	err := p.update(func(t *unix.Termios) error {
		if err := applyBaudRate(t, settings.BaudRate); err != nil {
			return err
		}
		if err := applyDataBits(t, settings.DataBits); err != nil {
			return err
		}
		if err := applyParity(t, settings.Parity); err != nil {
			return err
		}
		if err := applyStopBits(t, settings.StopBits); err != nil {
			return err
		}
		return applyFlowControl(t, settings.FlowControl)
	})
	if err != nil {
		return err
	}

	return p.SetTimeout(settings.Timeout.Std())
}

func (p *ttyPort) Read(b []byte) (int, error) {
	if p.closed.Load() {
		return 0, errClosed(p.name)
	}
	if len(b) == 0 {
		return 0, nil
	}

	if err := p.file.SetReadDeadline(p.deadline()); err != nil {
		return 0, p.ioError(err, "read")
	}

	n, err := p.file.Read(b)
	if err != nil {
		// zero bytes from a readable line means it hung up
		if errors.Is(err, io.EOF) {
			return n, io.EOF
		}
		return n, p.ioError(err, "read")
	}
	return n, nil
}

func (p *ttyPort) Write(b []byte) (int, error) {
	if p.closed.Load() {
		return 0, errClosed(p.name)
	}

	if err := p.file.SetWriteDeadline(p.deadline()); err != nil {
		return 0, p.ioError(err, "write")
	}

	n, err := p.file.Write(b)
	if err != nil {
		return n, p.ioError(err, "write")
	}
	return n, nil
}

// deadline is the end of the current timeout. A zero timeout still gives
// the poller one chance to see data that is already buffered.
func (p *ttyPort) deadline() time.Time {
	return time.Now().Add(max(p.Timeout(), minWait))
}

const minWait = time.Millisecond

func (p *ttyPort) ioError(err error, op string) error {
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
		return errTimeout(p.name, op)
	case errors.Is(err, os.ErrClosed):
		return errClosed(p.name)
	}
	return wrapOSError(err, "failed to "+op+" serial port", goerr.V("port", p.name))
}

func (p *ttyPort) WriteRequestToSend(level bool) error {
	return p.setPin(unix.TIOCM_RTS, level)
}

func (p *ttyPort) WriteDataTerminalReady(level bool) error {
	return p.setPin(unix.TIOCM_DTR, level)
}

func (p *ttyPort) ReadClearToSend() (bool, error) {
	return p.readPin(unix.TIOCM_CTS)
}

func (p *ttyPort) ReadDataSetReady() (bool, error) {
	return p.readPin(unix.TIOCM_DSR)
}

func (p *ttyPort) ReadRingIndicator() (bool, error) {
	return p.readPin(unix.TIOCM_RI)
}

func (p *ttyPort) ReadCarrierDetect() (bool, error) {
	return p.readPin(unix.TIOCM_CD)
}

func (p *ttyPort) setPin(pin int, level bool) error {
	req := uint(unix.TIOCMBIC)
	if level {
		req = uint(unix.TIOCMBIS)
	}

	return p.control(func(fd int) error {
		if err := unix.IoctlSetPointerInt(fd, req, pin); err != nil {
			return wrapOSError(err, "failed to set modem control line",
				goerr.V("port", p.name), goerr.V("pin", pin), goerr.V("level", level))
		}
		return nil
	})
}

func (p *ttyPort) readPin(pin int) (bool, error) {
	var bits int
	err := p.control(func(fd int) error {
		var err error
		if bits, err = unix.IoctlGetInt(fd, unix.TIOCMGET); err != nil {
			return wrapOSError(err, "failed to read modem control lines",
				goerr.V("port", p.name), goerr.V("pin", pin))
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return bits&pin != 0, nil
}

// Close releases exclusive access and closes the device. Reads and writes
// blocked in other goroutines return an error wrapping os.ErrClosed.
func (p *ttyPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Load() {
		return nil
	}

	_ = p.conn.Control(func(fd uintptr) {
		_ = unix.IoctlSetInt(int(fd), unix.TIOCNXCL, 0)
	})
	p.closed.Store(true)

	if err := p.file.Close(); err != nil {
		return wrapOSError(err, "failed to close serial port", goerr.V("port", p.name))
	}
	return nil
}

func applyBaudRate(t *unix.Termios, baudRate types.BaudRate) error {
	if baudRate == 0 {
		return goerr.New("baud rate must be positive", goerr.T(types.ErrTagInvalidInput))
	}
	setSpeed(t, baudRate)
	return nil
}

func applyDataBits(t *unix.Termios, dataBits types.DataBits) error {
	var size tcflag
	switch dataBits {
	case types.DataBitsFive:
		size = unix.CS5
	case types.DataBitsSix:
		size = unix.CS6
	case types.DataBitsSeven:
		size = unix.CS7
	case types.DataBitsEight:
		size = unix.CS8
	default:
		return goerr.New("data bits must be 5 to 8", goerr.V("data_bits", dataBits), goerr.T(types.ErrTagInvalidInput))
	}

	t.Cflag &^= unix.CSIZE
	t.Cflag |= size
	return nil
}

func getDataBits(t *unix.Termios) (types.DataBits, bool) {
	switch t.Cflag & unix.CSIZE {
	case unix.CS5:
		return types.DataBitsFive, true
	case unix.CS6:
		return types.DataBitsSix, true
	case unix.CS7:
		return types.DataBitsSeven, true
	case unix.CS8:
		return types.DataBitsEight, true
	}
	return 0, false
}

func applyParity(t *unix.Termios, parity types.Parity) error {
	switch parity {
	case types.ParityNone:
		t.Cflag &^= unix.PARENB | unix.PARODD
		t.Iflag &^= unix.INPCK
	case types.ParityOdd:
		t.Cflag |= unix.PARENB | unix.PARODD
		t.Iflag |= unix.INPCK
	case types.ParityEven:
		t.Cflag |= unix.PARENB
		t.Cflag &^= unix.PARODD
		t.Iflag |= unix.INPCK
	default:
		return goerr.New("unknown parity", goerr.V("parity", int(parity)), goerr.T(types.ErrTagInvalidInput))
	}
	return nil
}

func getParity(t *unix.Termios) types.Parity {
	switch {
	case t.Cflag&unix.PARENB == 0:
		return types.ParityNone
	case t.Cflag&unix.PARODD != 0:
		return types.ParityOdd
	default:
		return types.ParityEven
	}
}

func applyStopBits(t *unix.Termios, stopBits types.StopBits) error {
	switch stopBits {
	case types.StopBitsOne:
		t.Cflag &^= unix.CSTOPB
	case types.StopBitsTwo:
		t.Cflag |= unix.CSTOPB
	default:
		return goerr.New("stop bits must be 1 or 2", goerr.V("stop_bits", stopBits), goerr.T(types.ErrTagInvalidInput))
	}
	return nil
}

func getStopBits(t *unix.Termios) types.StopBits {
	if t.Cflag&unix.CSTOPB != 0 {
		return types.StopBitsTwo
	}
	return types.StopBitsOne
}

func applyFlowControl(t *unix.Termios, flowControl types.FlowControl) error {
	switch flowControl {
	case types.FlowControlNone:
		t.Iflag &^= unix.IXON | unix.IXOFF
		t.Cflag &^= crtscts
	case types.FlowControlSoftware:
		t.Iflag |= unix.IXON | unix.IXOFF
		t.Cflag &^= crtscts
	case types.FlowControlHardware:
		t.Iflag &^= unix.IXON | unix.IXOFF
		t.Cflag |= crtscts
	default:
		return goerr.New("unknown flow control", goerr.V("flow_control", int(flowControl)), goerr.T(types.ErrTagInvalidInput))
	}
	return nil
}

// getFlowControl reports false for mixed states such as IXON without IXOFF
func getFlowControl(t *unix.Termios) (types.FlowControl, bool) {
	sw := t.Iflag & (unix.IXON | unix.IXOFF)
	hw := t.Cflag & crtscts

	switch {
	case sw == 0 && hw == 0:
		return types.FlowControlNone, true
	case sw == unix.IXON|unix.IXOFF && hw == 0:
		return types.FlowControlSoftware, true
	case sw == 0 && hw == crtscts:
		return types.FlowControlHardware, true
	}
	return 0, false
}
