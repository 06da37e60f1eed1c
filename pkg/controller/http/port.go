package http

import (
	"context"
	"encoding"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/serialport/pkg/domain/interfaces"
	"github.com/m-mizutani/serialport/pkg/domain/model"
	"github.com/m-mizutani/serialport/pkg/domain/types"
	"github.com/m-mizutani/serialport/pkg/utils/async"
	"github.com/m-mizutani/serialport/pkg/utils/logging"
)

const defaultCaptureDuration = 5 * time.Second

// PortHandler serves the serial port API
type PortHandler struct {
	portUC      interfaces.PortUseCase
	settings    model.Settings
	maxBodySize int64
}

// NewPortHandler creates a new port handler. settings is the base for every
// request; query parameters override individual fields.
func NewPortHandler(portUC interfaces.PortUseCase, settings model.Settings, maxBodySize int64) *PortHandler {
	return &PortHandler{
		portUC:      portUC,
		settings:    settings,
		maxBodySize: maxBodySize,
	}
}

// ListPorts handles GET /api/ports
func (h *PortHandler) ListPorts(w http.ResponseWriter, r *http.Request) {
	ports, err := h.portUC.ListPorts(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if ports == nil {
		ports = []model.PortInfo{}
	}

	writeJSON(w, r, http.StatusOK, map[string]any{"ports": ports})
}

// BaudRates handles GET /api/baud-rates
func (h *PortHandler) BaudRates(w http.ResponseWriter, r *http.Request) {
	rates := h.portUC.BaudRates(r.Context())
	speeds := make([]uint32, len(rates))
	for i, rate := range rates {
		speeds[i] = rate.Speed()
	}

	writeJSON(w, r, http.StatusOK, map[string]any{"baud_rates": speeds})
}

// Inspect handles GET /api/port
func (h *PortHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	name, err := portName(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	status, err := h.portUC.Inspect(r.Context(), name)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, status)
}

// Write handles POST /api/port/write. The raw body is sent to the port.
func (h *PortHandler) Write(w http.ResponseWriter, r *http.Request) {
	name, err := portName(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	settings, err := settingsFromQuery(h.settings, r.URL.Query())
	if err != nil {
		handleError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		handleError(w, r, goerr.Wrap(err, "failed to read request body"))
		return
	}

	n, err := h.portUC.Write(r.Context(), name, settings, body)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]int{"written": n})
}

// Capture handles POST /api/port/capture. The capture runs in the background
// and the response carries its session ID.
func (h *PortHandler) Capture(w http.ResponseWriter, r *http.Request) {
	req, err := h.captureRequest(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	logger := logging.From(r.Context())
	logger.Info("Capture accepted", "session_id", req.SessionID, "port", req.Port)

	async.Dispatch(r.Context(), "capture", func(ctx context.Context) error {
		result, err := h.portUC.Capture(ctx, req)
		if err != nil {
			return goerr.Wrap(err, "background capture failed")
		}
		logging.From(ctx).Info("Background capture stored", "location", result.Location)
		return nil
	}, "session_id", req.SessionID, "port", req.Port)

	writeJSON(w, r, http.StatusAccepted, map[string]any{
		"session_id": req.SessionID,
		"port":       req.Port,
		"duration":   req.Duration.String(),
		"max_bytes":  req.MaxBytes,
	})
}

// captureRequest validates everything up front so that bad input is
// reported before the work is detached
func (h *PortHandler) captureRequest(r *http.Request) (*model.CaptureRequest, error) {
	name, err := portName(r)
	if err != nil {
		return nil, err
	}

	query := r.URL.Query()
	settings, err := settingsFromQuery(h.settings, query)
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	req := &model.CaptureRequest{
		SessionID: uuid.NewString(),
		Port:      name,
		Settings:  settings,
		Duration:  defaultCaptureDuration,
	}

	if v := query.Get("duration"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, goerr.New("duration must be a positive duration",
				goerr.V("duration", v), goerr.T(types.ErrTagInvalidInput))
		}
		req.Duration = d
	}
	if v := query.Get("max_bytes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, goerr.New("max_bytes must be a non-negative integer",
				goerr.V("max_bytes", v), goerr.T(types.ErrTagInvalidInput))
		}
		req.MaxBytes = n
	}

	return req, nil
}

func portName(r *http.Request) (string, error) {
	name := r.URL.Query().Get("name")
	if name == "" {
		return "", goerr.New("query parameter 'name' is required", goerr.T(types.ErrTagInvalidInput))
	}
	return name, nil
}

// settingsFromQuery overrides fields of base with query parameters
func settingsFromQuery(base model.Settings, query url.Values) (model.Settings, error) {
	settings := base
	fields := []struct {
		key    string
		target encoding.TextUnmarshaler
	}{
		{"baud", &settings.BaudRate},
		{"data_bits", &settings.DataBits},
		{"parity", &settings.Parity},
		{"stop_bits", &settings.StopBits},
		{"flow_control", &settings.FlowControl},
		{"timeout", &settings.Timeout},
	}

	for _, field := range fields {
		v := query.Get(field.key)
		if v == "" {
			continue
		}
		if err := field.target.UnmarshalText([]byte(v)); err != nil {
			return base, goerr.Wrap(err, "invalid query parameter", goerr.V("key", field.key))
		}
	}

	return settings, nil
}
