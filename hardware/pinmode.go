package hardware

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"github.com/open-rack-vent/orvcli/util"
)

// PinModeSetter switches a host header pin into a signal mode ("pwm",
// "gpio") before its first use.
type PinModeSetter interface {
	SetPinMode(header string, mode string) error
}

// ExecPinMode invokes the config-pin utility shipped with the BeagleBone
// images.
type ExecPinMode struct{}

var _ PinModeSetter = ExecPinMode{}

func (ExecPinMode) SetPinMode(header string, mode string) error {
	out, err := exec.Command("config-pin", header, mode).CombinedOutput()
	if err != nil {
		return util.NewTransportError(
			fmt.Sprintf("config-pin %s %s failed: %s", header, mode, bytes.TrimSpace(out)), err)
	}
	return nil
}

// DeviceFS is the host virtual device filesystem consumed by the sequencer.
// The real implementation talks to sysfs/devtmpfs; tests substitute a fake.
type DeviceFS interface {
	WriteValue(path string, value string) error
	ReadValue(path string) (string, error)
	Exists(path string) bool
}

// HostFS is the DeviceFS backed by the real host filesystem.
type HostFS struct{}

var _ DeviceFS = HostFS{}

func (HostFS) WriteValue(path string, value string) error {
	return os.WriteFile(path, []byte(value), 0644)
}

func (HostFS) ReadValue(path string) (string, error) {
	b, err := os.ReadFile(path)
	return string(b), err
}

func (HostFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
