package hardware

import (
	"fmt"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWrite struct {
	path  string
	value string
}

// fakeFS models the device filesystem: existing nodes are seeded in files,
// writes are recorded in order, and writing the export control file creates
// the exported node the way the kernel would.
type fakeFS struct {
	files    map[string]string
	writes   []fakeWrite
	failPath string
}

func newFakeFS() *fakeFS {
	return &fakeFS{files: make(map[string]string)}
}

func (f *fakeFS) WriteValue(p string, value string) error {
	if f.failPath != "" && strings.Contains(p, f.failPath) {
		return fmt.Errorf("write %s: permission denied", p)
	}
	f.writes = append(f.writes, fakeWrite{p, value})
	f.files[p] = value
	if path.Base(p) == "export" {
		f.files[path.Join(path.Dir(p), "gpio"+value)] = ""
	}
	return nil
}

func (f *fakeFS) ReadValue(path string) (string, error) {
	value, ok := f.files[path]
	if !ok {
		return "", fmt.Errorf("open %s: no such file or directory", path)
	}
	return value, nil
}

func (f *fakeFS) Exists(path string) bool {
	_, ok := f.files[path]
	return ok
}

type fakePinMode struct {
	calls []string
	err   error
}

func (f *fakePinMode) SetPinMode(header string, mode string) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, header+" "+mode)
	return nil
}

func newTestSequencer() (*Sequencer, *fakeFS, *fakePinMode) {
	fs := newFakeFS()
	pinMode := &fakePinMode{}
	seq := NewSequencer(fs, pinMode).WithRoots("/pwm", "/gpio", "/adc")
	return seq, fs, pinMode
}

func TestConfigurePWM(t *testing.T) {
	ass := assert.New(t)
	seq, fs, pinMode := newTestSequencer()

	pin := pwmPin("P9_14", 1, "a")
	cmds, err := seq.ConfigurePWM(pin, 1000, 0.5)
	require.NoError(t, err)

	ass.Len(cmds, 3, "ConfigurePWM should perform exactly 3 writes")
	ass.Equal([]fakeWrite{
		{"/pwm/1/a/period", "1000"},
		{"/pwm/1/a/duty_cycle", "500"},
		{"/pwm/1/a/enable", "1"},
	}, fs.writes, "period must be written before duty, then enable")
	ass.Equal([]string{"P9_14 pwm"}, pinMode.calls)
}

func TestConfigurePWM_DutyFloor(t *testing.T) {
	ass := assert.New(t)
	seq, fs, _ := newTestSequencer()

	// floor(999 * 0.333) = 332
	_, err := seq.ConfigurePWM(pwmPin("P8_13", 2, "b"), 999, 0.333)
	require.NoError(t, err)
	ass.Equal("332", fs.writes[1].value)
}

func TestConfigurePWM_PinModeFailureIsFatal(t *testing.T) {
	ass := assert.New(t)
	seq, fs, pinMode := newTestSequencer()
	pinMode.err = fmt.Errorf("config-pin: pin not found")

	cmds, err := seq.ConfigurePWM(pwmPin("P9_14", 1, "a"), 1000, 1)
	ass.Error(err)
	ass.Empty(cmds)
	ass.Empty(fs.writes, "no device writes may happen after a pin-mode failure")
}

func TestConfigurePWM_WriteFailurePropagates(t *testing.T) {
	ass := assert.New(t)
	seq, fs, _ := newTestSequencer()
	fs.failPath = "duty_cycle"

	cmds, err := seq.ConfigurePWM(pwmPin("P9_14", 1, "a"), 1000, 1)
	ass.Error(err)
	ass.Len(cmds, 1, "only the period write happened")
}

func TestConfigureGPIO_ExportsWhenAbsent(t *testing.T) {
	ass := assert.New(t)
	seq, fs, pinMode := newTestSequencer()

	pin := gpioPin("P9_13", 0, 31)
	cmds, err := seq.ConfigureGPIO(pin, true)
	require.NoError(t, err)

	ass.Len(cmds, 3, "unexported pin needs export + direction + value")
	ass.Equal([]fakeWrite{
		{"/gpio/export", "31"},
		{"/gpio/gpio31/direction", "out"},
		{"/gpio/gpio31/value", "1"},
	}, fs.writes)
	ass.Equal([]string{"P9_13 gpio"}, pinMode.calls)
}

func TestConfigureGPIO_ExportsOnlyOnce(t *testing.T) {
	ass := assert.New(t)
	seq, fs, _ := newTestSequencer()
	pin := gpioPin("P9_13", 0, 31)

	cmds, err := seq.ConfigureGPIO(pin, true)
	require.NoError(t, err)
	ass.Len(cmds, 3)
	ass.True(fs.Exists("/gpio/gpio31"), "export must create the device node")

	cmds, err = seq.ConfigureGPIO(pin, false)
	require.NoError(t, err)
	ass.Len(cmds, 2, "the node exists now, no re-export")
	ass.Equal([]fakeWrite{
		{"/gpio/gpio31/direction", "out"},
		{"/gpio/gpio31/value", "0"},
	}, fs.writes[3:])
}

func TestConfigureGPIO_SkipsExportWhenPresent(t *testing.T) {
	ass := assert.New(t)
	seq, fs, _ := newTestSequencer()
	fs.files["/gpio/gpio60"] = ""

	pin := gpioPin("P9_12", 1, 28)
	ass.Equal(60, pin.FlatGPIONumber())

	cmds, err := seq.ConfigureGPIO(pin, false)
	require.NoError(t, err)

	ass.Len(cmds, 2, "already-exported pin needs only direction + value")
	ass.Equal([]fakeWrite{
		{"/gpio/gpio60/direction", "out"},
		{"/gpio/gpio60/value", "0"},
	}, fs.writes)
}

func TestReadADC(t *testing.T) {
	ass := assert.New(t)
	seq, fs, _ := newTestSequencer()
	fs.files["/adc/in_voltage6_raw"] = "2048\n"

	counts, err := seq.ReadADC(6)
	require.NoError(t, err)
	ass.Equal(2048, counts)
}

func TestReadADC_MissingDevice(t *testing.T) {
	ass := assert.New(t)
	seq, _, _ := newTestSequencer()

	_, err := seq.ReadADC(0)
	ass.Error(err)
}
