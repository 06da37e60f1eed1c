//go:build darwin

package serial

import (
	"path/filepath"
	"sort"

	"github.com/m-mizutani/serialport/pkg/domain/model"
)

func availablePorts() ([]model.PortInfo, error) {
	return globDevices("/dev")
}

// globDevices lists callout (cu.*) and dial-in (tty.*) devices
func globDevices(devDir string) ([]model.PortInfo, error) {
	var ports []model.PortInfo
	for _, pattern := range []string{"cu.*", "tty.*"} {
		// Glob only fails on a malformed pattern
		matches, _ := filepath.Glob(filepath.Join(devDir, pattern))
		for _, name := range matches {
			ports = append(ports, model.PortInfo{Name: name})
		}
	}

	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	return ports, nil
}
