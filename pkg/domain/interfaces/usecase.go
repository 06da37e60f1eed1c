package interfaces

import (
	"context"
	"io"

	"github.com/m-mizutani/serialport/pkg/domain/model"
	"github.com/m-mizutani/serialport/pkg/domain/types"
)

// PortUseCase defines serial port operations exposed by the CLI and HTTP bridge
type PortUseCase interface {
	// ListPorts returns ports available on the host
	ListPorts(ctx context.Context) ([]model.PortInfo, error)

	// BaudRates returns rates the host driver can set
	BaudRates(ctx context.Context) []types.BaudRate

	// Inspect opens the port and reports its settings and control lines
	Inspect(ctx context.Context, name string) (*model.PortStatus, error)

	// Apply configures the port and reports the resulting status
	Apply(ctx context.Context, name string, settings model.Settings) (*model.PortStatus, error)

	// Write sends data to the port
	Write(ctx context.Context, name string, settings model.Settings, data []byte) (int, error)

	// Capture records incoming data and stores it
	Capture(ctx context.Context, req *model.CaptureRequest) (*model.CaptureResult, error)

	// Monitor copies incoming data to w until ctx is cancelled
	Monitor(ctx context.Context, name string, settings model.Settings, w io.Writer) error
}

// CaptureStore persists captured bytes
type CaptureStore interface {
	// Save stores data for the session and returns its location
	Save(ctx context.Context, result *model.CaptureResult, data []byte) (string, error)
}
