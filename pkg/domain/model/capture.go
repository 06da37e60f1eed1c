package model

import "time"

// CaptureRequest describes a bounded recording of incoming port data
type CaptureRequest struct {
	SessionID string // Generated when empty
	Port      string
	Settings  Settings
	Duration  time.Duration // Zero means until MaxBytes or cancellation
	MaxBytes  int           // Zero means unlimited
}

// CaptureResult represents a finished capture session
type CaptureResult struct {
	SessionID string    `json:"session_id"`
	Port      string    `json:"port"`
	Bytes     int       `json:"bytes"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Location  string    `json:"location"` // Where the data was stored
}
