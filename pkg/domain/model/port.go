package model

// PortInfo describes a serial port found on the system
type PortInfo struct {
	Name   string `json:"name"`             // Device path, e.g. /dev/ttyUSB0
	Driver string `json:"driver,omitempty"` // Kernel driver name if the system reports one
}

// ControlLines is a snapshot of the modem input pins
type ControlLines struct {
	CTS bool `json:"cts"` // Clear To Send
	DSR bool `json:"dsr"` // Data Set Ready
	RI  bool `json:"ri"`  // Ring Indicator
	CD  bool `json:"cd"`  // Carrier Detect
}

// PortStatus is the inspected state of an opened port
type PortStatus struct {
	Info       PortInfo      `json:"info"`
	Settings   Settings      `json:"settings"`
	Lines      *ControlLines `json:"lines,omitempty"`
	LinesError string        `json:"lines_error,omitempty"` // Why Lines is missing, e.g. on a pseudo-terminal
}
