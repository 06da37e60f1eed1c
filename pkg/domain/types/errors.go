package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify serial port failures. A tagged error keeps its
// underlying cause in the chain, so errors.Is against OS errors still works.
var (
	// ErrTagNoDevice marks a device that is absent, in use by another
	// process, or was disconnected while performing I/O.
	ErrTagNoDevice = goerr.NewTag("no_device")

	// ErrTagInvalidInput marks an invalid parameter.
	ErrTagInvalidInput = goerr.NewTag("invalid_input")

	// ErrTagIO marks any other I/O failure, including timeouts.
	ErrTagIO = goerr.NewTag("io")
)
