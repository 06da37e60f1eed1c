package interfaces

import (
	"io"
	"time"

	"github.com/m-mizutani/serialport/pkg/domain/model"
	"github.com/m-mizutani/serialport/pkg/domain/types"
)

// Port is an opened serial port
type Port interface {
	io.ReadWriteCloser

	// Name returns the device path the port was opened with
	Name() string

	// Settings getters. ok is false when the device state does not map to a value.
	BaudRate() (types.BaudRate, bool)
	DataBits() (types.DataBits, bool)
	FlowControl() (types.FlowControl, bool)
	Parity() (types.Parity, bool)
	StopBits() (types.StopBits, bool)
	Timeout() time.Duration

	// Settings snapshot. Fields the device cannot report are left zero, and
	// FlowControl is FlowControlUnknown.
	Settings() (model.Settings, error)

	SetBaudRate(baudRate types.BaudRate) error
	SetDataBits(dataBits types.DataBits) error
	SetFlowControl(flowControl types.FlowControl) error
	SetParity(parity types.Parity) error
	SetStopBits(stopBits types.StopBits) error
	SetTimeout(timeout time.Duration) error

	// Configure applies all settings in a single device update
	Configure(settings model.Settings) error

	// Output pins
	WriteRequestToSend(level bool) error
	WriteDataTerminalReady(level bool) error

	// Input pins
	ReadClearToSend() (bool, error)
	ReadDataSetReady() (bool, error)
	ReadRingIndicator() (bool, error)
	ReadCarrierDetect() (bool, error)
}

// SerialDriver opens and enumerates ports on the host
type SerialDriver interface {
	Open(name string) (Port, error)
	AvailablePorts() ([]model.PortInfo, error)
	AvailableBaudRates() []types.BaudRate
}
