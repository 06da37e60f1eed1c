//go:build linux && !ppc64 && !ppc64le

package serial

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/serialport/pkg/domain/model"
)

const (
	sysClassTTY = "/sys/class/tty"
	devDir      = "/dev"
)

func availablePorts() ([]model.PortInfo, error) {
	return scanSysClassTTY(sysClassTTY, devDir)
}

// scanSysClassTTY lists tty class entries backed by a device. Virtual
// terminals have no device link and platform-bus entries are unused
// placeholders (e.g. the 32 ttyS* a 8250 driver registers).
func scanSysClassTTY(sysDir, devDir string) ([]model.PortInfo, error) {
	entries, err := os.ReadDir(sysDir)
	if err != nil {
		return nil, wrapOSError(err, "failed to read tty class directory", goerr.V("dir", sysDir))
	}

	var ports []model.PortInfo
	for _, entry := range entries {
		device := filepath.Join(sysDir, entry.Name(), "device")
		if _, err := os.Stat(device); err != nil {
			continue
		}

		if subsystem, err := os.Readlink(filepath.Join(device, "subsystem")); err == nil && filepath.Base(subsystem) == "platform" {
			continue
		}

		info := model.PortInfo{Name: filepath.Join(devDir, entry.Name())}
		if driver, err := os.Readlink(filepath.Join(device, "driver")); err == nil {
			info.Driver = filepath.Base(driver)
		}
		ports = append(ports, info)
	}

	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	return ports, nil
}
