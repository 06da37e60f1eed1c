package serial

import (
	"errors"
	"os"
	"syscall"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/serialport/pkg/domain/types"
)

// ErrorKind is the category of a serial port error.
//
// More kinds may be added over time; callers should not match exhaustively.
type ErrorKind int

const (
	// KindUnknown is an error with no more specific category.
	KindUnknown ErrorKind = iota

	// KindNoDevice means the device is not available. It may be in use by
	// another process or may have been disconnected while performing I/O.
	KindNoDevice

	// KindInvalidInput means a parameter was incorrect.
	KindInvalidInput

	// KindIO is any other I/O error. The OS error stays in the chain and can
	// be inspected with errors.Is / errors.As.
	KindIO
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoDevice:
		return "no device"
	case KindInvalidInput:
		return "invalid input"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// KindOf returns the category of err. Errors not produced by this package
// are KindUnknown. Wrapping err keeps its kind.
func KindOf(err error) ErrorKind {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch {
		case goerr.HasTag(e, types.ErrTagNoDevice):
			return KindNoDevice
		case goerr.HasTag(e, types.ErrTagInvalidInput):
			return KindInvalidInput
		case goerr.HasTag(e, types.ErrTagIO):
			return KindIO
		}
	}
	return KindUnknown
}

// IsTimeout reports whether err is a read or write that ran out of time.
func IsTimeout(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded)
}

// kindTag classifies an OS error.
func kindTag(err error) goerr.Option {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ENOENT, syscall.ENODEV, syscall.ENXIO, syscall.EBUSY:
			return goerr.T(types.ErrTagNoDevice)
		case syscall.EINVAL:
			return goerr.T(types.ErrTagInvalidInput)
		}
	}
	return goerr.T(types.ErrTagIO)
}

// wrapOSError wraps an OS error with its kind tag.
func wrapOSError(err error, msg string, opts ...goerr.Option) error {
	return goerr.Wrap(err, msg, append(opts, kindTag(err))...)
}

func errClosed(name string) error {
	return goerr.Wrap(os.ErrClosed, "serial port is closed", goerr.V("port", name), goerr.T(types.ErrTagIO))
}

func errTimeout(name string, op string) error {
	return goerr.Wrap(os.ErrDeadlineExceeded, "serial port timed out",
		goerr.V("port", name), goerr.V("op", op), goerr.T(types.ErrTagIO))
}

func errUnsupported(op string) error {
	return goerr.New(op+" not implemented for platform", goerr.V("op", op))
}
