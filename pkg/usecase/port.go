package usecase

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/serialport/pkg/domain/interfaces"
	"github.com/m-mizutani/serialport/pkg/domain/model"
	"github.com/m-mizutani/serialport/pkg/domain/types"
	"github.com/m-mizutani/serialport/pkg/utils/logging"
)

// streamReadTimeout bounds a single read while streaming so that
// cancellation is noticed promptly
const streamReadTimeout = 100 * time.Millisecond

const readBufferSize = 4096

type portUseCase struct {
	driver interfaces.SerialDriver
	store  interfaces.CaptureStore
	now    func() time.Time
	newID  func() string
}

// Option configures the port use case
type Option func(*portUseCase)

// WithCaptureStore sets where Capture stores its data
func WithCaptureStore(store interfaces.CaptureStore) Option {
	return func(uc *portUseCase) {
		uc.store = store
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(uc *portUseCase) {
		uc.now = now
	}
}

// WithSessionID replaces the capture session ID generator
func WithSessionID(newID func() string) Option {
	return func(uc *portUseCase) {
		uc.newID = newID
	}
}

// NewPort creates a new instance of PortUseCase
func NewPort(driver interfaces.SerialDriver, opts ...Option) interfaces.PortUseCase {
	uc := &portUseCase{
		driver: driver,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ListPorts returns ports available on the host
func (uc *portUseCase) ListPorts(ctx context.Context) ([]model.PortInfo, error) {
	logger := logging.From(ctx)

	ports, err := uc.driver.AvailablePorts()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to enumerate serial ports")
	}

	logger.Debug("Enumerated serial ports", "count", len(ports))
	return ports, nil
}

// BaudRates returns rates the host driver can set
func (uc *portUseCase) BaudRates(ctx context.Context) []types.BaudRate {
	return uc.driver.AvailableBaudRates()
}

// Inspect opens the port and reports its settings and control lines
func (uc *portUseCase) Inspect(ctx context.Context, name string) (*model.PortStatus, error) {
	port, err := uc.driver.Open(name)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open port", goerr.V("port", name))
	}
	defer uc.closePort(ctx, port)

	return uc.status(ctx, port)
}

// Apply configures the port and reports the resulting status
func (uc *portUseCase) Apply(ctx context.Context, name string, settings model.Settings) (*model.PortStatus, error) {
	logger := logging.From(ctx)

	port, err := uc.open(name, settings)
	if err != nil {
		return nil, err
	}
	defer uc.closePort(ctx, port)

	logger.Info("Applied port settings",
		"port", name,
		"frame", settings.Frame(),
		"flow_control", settings.FlowControl,
		"timeout", settings.Timeout,
	)

	return uc.status(ctx, port)
}

// Write sends data to the port
func (uc *portUseCase) Write(ctx context.Context, name string, settings model.Settings, data []byte) (int, error) {
	logger := logging.From(ctx)

	port, err := uc.open(name, settings)
	if err != nil {
		return 0, err
	}
	defer uc.closePort(ctx, port)

	n, err := port.Write(data)
	if err != nil {
		return n, goerr.Wrap(err, "failed to write to port", goerr.V("port", name), goerr.V("written", n))
	}

	logger.Info("Wrote to port", "port", name, "bytes", n)
	return n, nil
}

// Capture records incoming data and stores it
func (uc *portUseCase) Capture(ctx context.Context, req *model.CaptureRequest) (*model.CaptureResult, error) {
	logger := logging.From(ctx)

	if uc.store == nil {
		return nil, goerr.New("capture store is not configured")
	}
	if req.Duration < 0 || req.MaxBytes < 0 {
		return nil, goerr.New("capture limits must not be negative",
			goerr.V("duration", req.Duration), goerr.V("max_bytes", req.MaxBytes), goerr.T(types.ErrTagInvalidInput))
	}

	port, err := uc.open(req.Port, streamSettings(req.Settings))
	if err != nil {
		return nil, err
	}
	defer uc.closePort(ctx, port)

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uc.newID()
	}

	result := &model.CaptureResult{
		SessionID: sessionID,
		Port:      req.Port,
		StartedAt: uc.now(),
	}

	logger.Info("Capture started",
		"session_id", result.SessionID,
		"port", req.Port,
		"duration", req.Duration,
		"max_bytes", req.MaxBytes,
	)

	readCtx := ctx
	if req.Duration > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, req.Duration)
		defer cancel()
	}

	var captured []byte
	err = readLoop(readCtx, port, func(chunk []byte) error {
		captured = append(captured, chunk...)
		if req.MaxBytes > 0 && len(captured) >= req.MaxBytes {
			captured = captured[:req.MaxBytes]
			return errLimitReached
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return nil, goerr.Wrap(err, "failed to capture from port",
			goerr.V("port", req.Port), goerr.V("session_id", result.SessionID))
	}

	result.EndedAt = uc.now()
	result.Bytes = len(captured)

	// The read window may have expired; storing still gets the caller's context
	location, err := uc.store.Save(context.WithoutCancel(ctx), result, captured)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store capture", goerr.V("session_id", result.SessionID))
	}
	result.Location = location

	logger.Info("Capture finished",
		"session_id", result.SessionID,
		"bytes", result.Bytes,
		"location", result.Location,
	)

	return result, nil
}

// Monitor copies incoming data to w until ctx is cancelled
func (uc *portUseCase) Monitor(ctx context.Context, name string, settings model.Settings, w io.Writer) error {
	logger := logging.From(ctx)

	port, err := uc.open(name, streamSettings(settings))
	if err != nil {
		return err
	}
	defer uc.closePort(ctx, port)

	logger.Info("Monitoring port", "port", name, "frame", settings.Frame())

	var total int
	err = readLoop(ctx, port, func(chunk []byte) error {
		total += len(chunk)
		if _, err := w.Write(chunk); err != nil {
			return goerr.Wrap(err, "failed to write monitor output")
		}
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to monitor port", goerr.V("port", name))
	}

	logger.Info("Monitor stopped", "port", name, "bytes", total)
	return nil
}

var errLimitReached = errors.New("capture limit reached")

// readLoop feeds chunks to fn until ctx is done or the line hangs up.
// Read timeouts only mean the line was idle.
func readLoop(ctx context.Context, port interfaces.Port, fn func(chunk []byte) error) error {
	buf := make([]byte, readBufferSize)
	for ctx.Err() == nil {
		n, err := port.Read(buf)
		if n > 0 {
			if err := fn(buf[:n]); err != nil {
				return err
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, os.ErrDeadlineExceeded):
		case errors.Is(err, io.EOF):
			return nil
		default:
			return err
		}
	}
	return nil
}

// streamSettings caps the read timeout for long-running reads
func streamSettings(settings model.Settings) model.Settings {
	if settings.Timeout.Std() > streamReadTimeout || settings.Timeout == 0 {
		settings.Timeout = model.Duration(streamReadTimeout)
	}
	return settings
}

func (uc *portUseCase) open(name string, settings model.Settings) (interfaces.Port, error) {
	if err := settings.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid port settings", goerr.V("port", name))
	}

	port, err := uc.driver.Open(name)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open port", goerr.V("port", name))
	}

	if err := port.Configure(settings); err != nil {
		uc.closePort(context.Background(), port)
		return nil, goerr.Wrap(err, "failed to configure port", goerr.V("port", name))
	}

	return port, nil
}

func (uc *portUseCase) closePort(ctx context.Context, port interfaces.Port) {
	if err := port.Close(); err != nil {
		logging.From(ctx).Warn("Failed to close port", "port", port.Name(), "error", err)
	}
}

func (uc *portUseCase) status(ctx context.Context, port interfaces.Port) (*model.PortStatus, error) {
	settings, err := port.Settings()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read port settings", goerr.V("port", port.Name()))
	}

	status := &model.PortStatus{
		Info:     uc.portInfo(port.Name()),
		Settings: settings,
	}

	lines, err := readControlLines(port)
	if err != nil {
		// pseudo-terminals and some USB adapters have no modem lines
		logging.From(ctx).Debug("Control lines unavailable", "port", port.Name(), "error", err)
		status.LinesError = err.Error()
	} else {
		status.Lines = lines
	}

	return status, nil
}

// portInfo looks up the driver name; enumeration failures are not fatal here
func (uc *portUseCase) portInfo(name string) model.PortInfo {
	if ports, err := uc.driver.AvailablePorts(); err == nil {
		for _, p := range ports {
			if p.Name == name {
				return p
			}
		}
	}
	return model.PortInfo{Name: name}
}

func readControlLines(port interfaces.Port) (*model.ControlLines, error) {
	var (
		lines model.ControlLines
		err   error
	)
	if lines.CTS, err = port.ReadClearToSend(); err != nil {
		return nil, err
	}
	if lines.DSR, err = port.ReadDataSetReady(); err != nil {
		return nil, err
	}
	if lines.RI, err = port.ReadRingIndicator(); err != nil {
		return nil, err
	}
	if lines.CD, err = port.ReadCarrierDetect(); err != nil {
		return nil, err
	}
	return &lines, nil
}
