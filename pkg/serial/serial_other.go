//go:build !((linux && !ppc64 && !ppc64le) || darwin)

package serial

import (
	"github.com/m-mizutani/serialport/pkg/domain/interfaces"
	"github.com/m-mizutani/serialport/pkg/domain/model"
	"github.com/m-mizutani/serialport/pkg/domain/types"
)

func openPort(name string) (interfaces.Port, error) {
	return nil, errUnsupported("open")
}

func availablePorts() ([]model.PortInfo, error) {
	return nil, errUnsupported("available ports")
}

func availableBaudRates() []types.BaudRate {
	return nil
}
