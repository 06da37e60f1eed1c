package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/serialport/pkg/domain/interfaces"
	"github.com/m-mizutani/serialport/pkg/domain/model"
	"github.com/m-mizutani/serialport/pkg/domain/types"
	"github.com/m-mizutani/serialport/pkg/serial"
	"github.com/m-mizutani/serialport/pkg/usecase"
)

// MockPort is an in-memory implementation of Port
type MockPort struct {
	mu       sync.Mutex
	name     string
	settings model.Settings
	incoming [][]byte
	hangup   bool
	written  bytes.Buffer
	lines    *model.ControlLines
	linesErr error
	readErr  error
	closed   bool
}

func newMockPort(name string) *MockPort {
	return &MockPort{name: name, settings: model.DefaultSettings()}
}

func (m *MockPort) Read(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readErr != nil {
		return 0, m.readErr
	}
	if len(m.incoming) == 0 {
		if m.hangup {
			return 0, io.EOF
		}
		m.mu.Unlock()
		time.Sleep(time.Millisecond)
		m.mu.Lock()
		return 0, goerr.Wrap(os.ErrDeadlineExceeded, "mock timeout")
	}
	n := copy(b, m.incoming[0])
	if n < len(m.incoming[0]) {
		m.incoming[0] = m.incoming[0][n:]
	} else {
		m.incoming = m.incoming[1:]
	}
	return n, nil
}

func (m *MockPort) Write(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.Write(b)
}

func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockPort) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockPort) Name() string                           { return m.name }
func (m *MockPort) BaudRate() (types.BaudRate, bool)       { return m.settings.BaudRate, true }
func (m *MockPort) DataBits() (types.DataBits, bool)       { return m.settings.DataBits, true }
func (m *MockPort) FlowControl() (types.FlowControl, bool) { return m.settings.FlowControl, true }
func (m *MockPort) Parity() (types.Parity, bool)           { return m.settings.Parity, true }
func (m *MockPort) StopBits() (types.StopBits, bool)       { return m.settings.StopBits, true }
func (m *MockPort) Timeout() time.Duration                 { return m.settings.Timeout.Std() }

func (m *MockPort) Settings() (model.Settings, error)      { return m.settings, nil }

func (m *MockPort) SetBaudRate(v types.BaudRate) error {
	m.settings.BaudRate = v
	return nil
}

func (m *MockPort) SetDataBits(v types.DataBits) error {
	m.settings.DataBits = v
	return nil
}

func (m *MockPort) SetFlowControl(v types.FlowControl) error {
	m.settings.FlowControl = v
	return nil
}

func (m *MockPort) SetParity(v types.Parity) error {
	m.settings.Parity = v
	return nil
}

func (m *MockPort) SetStopBits(v types.StopBits) error {
	m.settings.StopBits = v
	return nil
}

func (m *MockPort) SetTimeout(v time.Duration) error {
	m.settings.Timeout = model.Duration(v)
	return nil
}

func (m *MockPort) Configure(settings model.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	m.settings = settings
	return nil
}

func (m *MockPort) WriteRequestToSend(level bool) error     { return nil }
func (m *MockPort) WriteDataTerminalReady(level bool) error { return nil }

func (m *MockPort) line(get func(l *model.ControlLines) bool) (bool, error) {
	if m.linesErr != nil {
		return false, m.linesErr
	}
	if m.lines == nil {
		return false, nil
	}
	return get(m.lines), nil
}

func (m *MockPort) ReadClearToSend() (bool, error) {
	return m.line(func(l *model.ControlLines) bool { return l.CTS })
}
func (m *MockPort) ReadDataSetReady() (bool, error) {
	return m.line(func(l *model.ControlLines) bool { return l.DSR })
}
func (m *MockPort) ReadRingIndicator() (bool, error) {
	return m.line(func(l *model.ControlLines) bool { return l.RI })
}
func (m *MockPort) ReadCarrierDetect() (bool, error) {
	return m.line(func(l *model.ControlLines) bool { return l.CD })
}

// MockDriver is a mock implementation of SerialDriver
type MockDriver struct {
	ports    map[string]*MockPort
	infos    []model.PortInfo
	listErr  error
	rates    []types.BaudRate
	openCall []string
}

func (d *MockDriver) Open(name string) (interfaces.Port, error) {
	d.openCall = append(d.openCall, name)
	port, ok := d.ports[name]
	if !ok {
		return nil, goerr.New("no such device", goerr.T(types.ErrTagNoDevice))
	}
	return port, nil
}

func (d *MockDriver) AvailablePorts() ([]model.PortInfo, error) {
	return d.infos, d.listErr
}

func (d *MockDriver) AvailableBaudRates() []types.BaudRate {
	return d.rates
}

// MockCaptureStore records saved captures
type MockCaptureStore struct {
	saved   map[string][]byte
	saveErr error
}

func (s *MockCaptureStore) Save(ctx context.Context, result *model.CaptureResult, data []byte) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[result.SessionID] = append([]byte(nil), data...)
	return "mock://" + result.SessionID, nil
}

func newDriver(ports ...*MockPort) *MockDriver {
	d := &MockDriver{ports: map[string]*MockPort{}}
	for _, p := range ports {
		d.ports[p.name] = p
		d.infos = append(d.infos, model.PortInfo{Name: p.name, Driver: "mock"})
	}
	return d
}

func TestPortUseCase_ListPorts(t *testing.T) {
	ctx := context.Background()

	t.Run("returns driver ports", func(t *testing.T) {
		uc := usecase.NewPort(newDriver(newMockPort("/dev/ttyUSB0"), newMockPort("/dev/ttyUSB1")))
		ports, err := uc.ListPorts(ctx)
		gt.NoError(t, err)
		gt.Number(t, len(ports)).Equal(2)
		gt.Value(t, ports[0].Name).Equal("/dev/ttyUSB0")
	})

	t.Run("wraps enumeration errors", func(t *testing.T) {
		driver := newDriver()
		driver.listErr = errors.New("sysfs unavailable")
		uc := usecase.NewPort(driver)

		_, err := uc.ListPorts(ctx)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, driver.listErr))
	})
}

func TestPortUseCase_BaudRates(t *testing.T) {
	driver := newDriver()
	driver.rates = []types.BaudRate{types.Baud9600, types.Baud115200}
	uc := usecase.NewPort(driver)

	gt.Value(t, uc.BaudRates(context.Background())).Equal(driver.rates)
}

func TestPortUseCase_Inspect(t *testing.T) {
	ctx := context.Background()

	t.Run("reports settings and control lines", func(t *testing.T) {
		port := newMockPort("/dev/ttyUSB0")
		port.lines = &model.ControlLines{CTS: true, CD: true}
		uc := usecase.NewPort(newDriver(port))

		status, err := uc.Inspect(ctx, "/dev/ttyUSB0")
		gt.NoError(t, err)
		gt.Value(t, status.Info).Equal(model.PortInfo{Name: "/dev/ttyUSB0", Driver: "mock"})
		gt.Value(t, status.Settings).Equal(model.DefaultSettings())
		gt.Value(t, *status.Lines).Equal(model.ControlLines{CTS: true, CD: true})
		gt.Value(t, status.LinesError).Equal("")
		gt.True(t, port.isClosed())
	})

	t.Run("missing control lines are not fatal", func(t *testing.T) {
		port := newMockPort("/dev/pts/3")
		port.linesErr = errors.New("inappropriate ioctl for device")
		uc := usecase.NewPort(newDriver(port))

		status, err := uc.Inspect(ctx, "/dev/pts/3")
		gt.NoError(t, err)
		gt.True(t, status.Lines == nil)
		gt.String(t, status.LinesError).Contains("inappropriate ioctl")
	})

	t.Run("missing device keeps its tag", func(t *testing.T) {
		uc := usecase.NewPort(newDriver())

		_, err := uc.Inspect(ctx, "/dev/ttyUSB9")
		gt.Error(t, err)
		gt.Value(t, serial.KindOf(err)).Equal(serial.KindNoDevice)
	})
}

func TestPortUseCase_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("configures the port", func(t *testing.T) {
		port := newMockPort("/dev/ttyUSB0")
		uc := usecase.NewPort(newDriver(port))

		settings := model.DefaultSettings()
		settings.BaudRate = types.Baud115200
		settings.Parity = types.ParityEven

		status, err := uc.Apply(ctx, "/dev/ttyUSB0", settings)
		gt.NoError(t, err)
		gt.Value(t, status.Settings).Equal(settings)
		gt.True(t, port.isClosed())
	})

	t.Run("rejects invalid settings before opening", func(t *testing.T) {
		driver := newDriver(newMockPort("/dev/ttyUSB0"))
		uc := usecase.NewPort(driver)

		settings := model.DefaultSettings()
		settings.StopBits = 3

		_, err := uc.Apply(ctx, "/dev/ttyUSB0", settings)
		gt.Value(t, serial.KindOf(err)).Equal(serial.KindInvalidInput)
		gt.Number(t, len(driver.openCall)).Equal(0)
	})
}

func TestPortUseCase_Write(t *testing.T) {
	port := newMockPort("/dev/ttyUSB0")
	uc := usecase.NewPort(newDriver(port))

	n, err := uc.Write(context.Background(), "/dev/ttyUSB0", model.DefaultSettings(), []byte("AT\r\n"))
	gt.NoError(t, err)
	gt.Number(t, n).Equal(4)
	gt.Value(t, port.written.String()).Equal("AT\r\n")
	gt.True(t, port.isClosed())
}

func TestPortUseCase_Capture(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	newUseCase := func(driver *MockDriver, store *MockCaptureStore) interfaces.PortUseCase {
		tick := start
		return usecase.NewPort(driver,
			usecase.WithCaptureStore(store),
			usecase.WithSessionID(func() string { return "session-1" }),
			usecase.WithClock(func() time.Time {
				now := tick
				tick = tick.Add(time.Second)
				return now
			}),
		)
	}

	t.Run("stops at max bytes", func(t *testing.T) {
		port := newMockPort("/dev/ttyUSB0")
		port.incoming = [][]byte{[]byte("hello "), []byte("world"), []byte("ignored")}
		store := &MockCaptureStore{}
		uc := newUseCase(newDriver(port), store)

		result, err := uc.Capture(ctx, &model.CaptureRequest{
			Port:     "/dev/ttyUSB0",
			Settings: model.DefaultSettings(),
			MaxBytes: 8,
		})
		gt.NoError(t, err)
		gt.Value(t, result.SessionID).Equal("session-1")
		gt.Number(t, result.Bytes).Equal(8)
		gt.Value(t, result.StartedAt).Equal(start)
		gt.Value(t, result.EndedAt).Equal(start.Add(time.Second))
		gt.Value(t, result.Location).Equal("mock://session-1")
		gt.Value(t, string(store.saved["session-1"])).Equal("hello wo")
		gt.True(t, port.isClosed())
	})

	t.Run("stops when the duration elapses", func(t *testing.T) {
		port := newMockPort("/dev/ttyUSB0")
		port.incoming = [][]byte{[]byte("abc")}
		store := &MockCaptureStore{}
		uc := newUseCase(newDriver(port), store)

		result, err := uc.Capture(ctx, &model.CaptureRequest{
			Port:     "/dev/ttyUSB0",
			Settings: model.DefaultSettings(),
			Duration: 30 * time.Millisecond,
		})
		gt.NoError(t, err)
		gt.Number(t, result.Bytes).Equal(3)
		gt.Value(t, string(store.saved["session-1"])).Equal("abc")
	})

	t.Run("stops on hang-up", func(t *testing.T) {
		port := newMockPort("/dev/ttyUSB0")
		port.incoming = [][]byte{[]byte("bye")}
		port.hangup = true
		uc := newUseCase(newDriver(port), &MockCaptureStore{})

		result, err := uc.Capture(ctx, &model.CaptureRequest{Port: "/dev/ttyUSB0", Settings: model.DefaultSettings()})
		gt.NoError(t, err)
		gt.Number(t, result.Bytes).Equal(3)
	})

	t.Run("caps the read timeout", func(t *testing.T) {
		port := newMockPort("/dev/ttyUSB0")
		port.hangup = true
		uc := newUseCase(newDriver(port), &MockCaptureStore{})

		settings := model.DefaultSettings()
		settings.Timeout = model.Duration(time.Minute)
		_, err := uc.Capture(ctx, &model.CaptureRequest{Port: "/dev/ttyUSB0", Settings: settings})
		gt.NoError(t, err)
		gt.True(t, port.Timeout() <= 100*time.Millisecond)
	})

	t.Run("read errors abort the capture", func(t *testing.T) {
		port := newMockPort("/dev/ttyUSB0")
		port.readErr = goerr.New("device disconnected", goerr.T(types.ErrTagNoDevice))
		store := &MockCaptureStore{}
		uc := newUseCase(newDriver(port), store)

		_, err := uc.Capture(ctx, &model.CaptureRequest{Port: "/dev/ttyUSB0", Settings: model.DefaultSettings()})
		gt.Error(t, err)
		gt.Value(t, serial.KindOf(err)).Equal(serial.KindNoDevice)
		gt.Number(t, len(store.saved)).Equal(0)
	})

	t.Run("store errors are returned", func(t *testing.T) {
		port := newMockPort("/dev/ttyUSB0")
		port.hangup = true
		store := &MockCaptureStore{saveErr: errors.New("bucket not found")}
		uc := newUseCase(newDriver(port), store)

		_, err := uc.Capture(ctx, &model.CaptureRequest{Port: "/dev/ttyUSB0", Settings: model.DefaultSettings()})
		gt.True(t, errors.Is(err, store.saveErr))
	})

	t.Run("keeps the requested session id", func(t *testing.T) {
		port := newMockPort("/dev/ttyUSB0")
		port.incoming = [][]byte{[]byte("x")}
		port.hangup = true
		store := &MockCaptureStore{}
		uc := newUseCase(newDriver(port), store)

		result, err := uc.Capture(ctx, &model.CaptureRequest{
			SessionID: "from-caller",
			Port:      "/dev/ttyUSB0",
			Settings:  model.DefaultSettings(),
		})
		gt.NoError(t, err)
		gt.Value(t, result.SessionID).Equal("from-caller")
		gt.Value(t, string(store.saved["from-caller"])).Equal("x")
	})

	t.Run("requires a store", func(t *testing.T) {
		uc := usecase.NewPort(newDriver(newMockPort("/dev/ttyUSB0")))
		_, err := uc.Capture(ctx, &model.CaptureRequest{Port: "/dev/ttyUSB0", Settings: model.DefaultSettings()})
		gt.Error(t, err)
	})

	t.Run("rejects negative limits", func(t *testing.T) {
		uc := newUseCase(newDriver(newMockPort("/dev/ttyUSB0")), &MockCaptureStore{})
		_, err := uc.Capture(ctx, &model.CaptureRequest{Port: "/dev/ttyUSB0", Settings: model.DefaultSettings(), MaxBytes: -1})
		gt.Value(t, serial.KindOf(err)).Equal(serial.KindInvalidInput)
	})
}

func TestPortUseCase_Monitor(t *testing.T) {
	port := newMockPort("/dev/ttyUSB0")
	port.incoming = [][]byte{[]byte("line 1\n"), []byte("line 2\n")}
	uc := usecase.NewPort(newDriver(port))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	gt.NoError(t, uc.Monitor(ctx, "/dev/ttyUSB0", model.DefaultSettings(), &out))
	gt.Value(t, out.String()).Equal("line 1\nline 2\n")
	gt.True(t, port.isClosed())
}
